package commands

import (
	"context"
	"fmt"

	"github.com/ramppdev/extlinks/internal/metrics"
)

// AnnotateCmd implements the 'annotate' command.
type AnnotateCmd struct {
	Dir     string `arg:"" type:"existingdir" help:"Built site directory"`
	DryRun  bool   `name:"dry-run" help:"Report changes without writing files"`
	BaseURL string `name:"base-url" help:"URL the site root is served at (overrides base_url)"`
}

func (a *AnnotateCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, a.BaseURL)
	if err != nil {
		return err
	}
	proc, err := newProcessor(cfg, g, metrics.NoopRecorder{})
	if err != nil {
		return err
	}

	sum, err := proc.Process(context.Background(), a.Dir, a.DryRun)
	if err != nil {
		return err
	}
	verb := "updated"
	count := sum.Written
	if a.DryRun {
		verb = "would update"
		count = 0
		for _, r := range sum.Reports {
			if r.Err == nil && r.Result.Changed > 0 {
				count++
			}
		}
	}
	_, _ = fmt.Fprintf(g.Out, "%d pages scanned, %s %d, %d external links, %d failed\n",
		sum.Pages, verb, count, sum.Annotated, sum.Failed)
	return nil
}
