package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ramppdev/extlinks/cmd/extlinks/commands"
	"github.com/ramppdev/extlinks/internal/foundation/errors"
	"github.com/ramppdev/extlinks/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Out: os.Stdout}
	parser := kong.Parse(cli,
		kong.Name("extlinks"),
		kong.Description("Open external documentation links in a new tab without leaking the opener or referrer."),
		kong.UsageOnError(),
		kong.Bind(global),
		kong.Vars{"version": version.String()},
	)
	err := parser.Run(global, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
