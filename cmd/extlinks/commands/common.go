package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ramppdev/extlinks/internal/annotate"
	"github.com/ramppdev/extlinks/internal/config"
	"github.com/ramppdev/extlinks/internal/metrics"
	"github.com/ramppdev/extlinks/internal/site"
)

// Global carries shared state into command Run methods.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (optional)" default:"extlinks.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Annotate AnnotateCmd `cmd:"" help:"Mark external links in a built site to open in a new tab"`
	Check    CheckCmd    `cmd:"" help:"Report external links that still need annotation"`
	Watch    WatchCmd    `cmd:"" help:"Annotate a site and keep annotating pages as they change"`
	Render   RenderCmd   `cmd:"" help:"Render a markdown file to annotated HTML"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; set up logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if g != nil && g.Logger == nil {
		g.Logger = logger
	}
	return nil
}

// loadConfig reads the configuration named by --config. The default path
// may be absent; an explicitly named file must exist.
func loadConfig(root *CLI, baseURL string) (*config.Config, error) {
	cfg, err := config.Load(root.Config, root.Config == "extlinks.yaml")
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newAnnotator(cfg *config.Config, logger *slog.Logger) *annotate.Annotator {
	return annotate.New(
		annotate.WithRules(cfg.Rules()...),
		annotate.WithMarkerClass(cfg.MarkerClass),
		annotate.WithLogger(logger),
	)
}

func newProcessor(cfg *config.Config, g *Global, rec metrics.Recorder) (*site.Processor, error) {
	return site.NewProcessor(newAnnotator(cfg, g.Logger), cfg.BaseURL,
		site.WithExclude(cfg.Exclude...),
		site.WithRecorder(rec),
		site.WithLogger(g.Logger))
}
