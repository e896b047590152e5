package commands

import (
	"context"
	"fmt"

	"github.com/ramppdev/extlinks/internal/annotate"
	"github.com/ramppdev/extlinks/internal/foundation/errors"
	"github.com/ramppdev/extlinks/internal/metrics"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Dir     string `arg:"" type:"existingdir" help:"Built site directory"`
	BaseURL string `name:"base-url" help:"URL the site root is served at (overrides base_url)"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, c.BaseURL)
	if err != nil {
		return err
	}
	proc, err := newProcessor(cfg, g, metrics.NoopRecorder{})
	if err != nil {
		return err
	}

	sum, err := proc.Process(context.Background(), c.Dir, true)
	if err != nil {
		return err
	}
	pending := 0
	for _, r := range sum.Reports {
		if r.Err != nil {
			_, _ = fmt.Fprintf(g.Out, "%s: %v\n", r.Path, r.Err)
			continue
		}
		for _, d := range r.Result.Decisions {
			if d.Classification == annotate.External && d.Changed {
				pending++
				_, _ = fmt.Fprintf(g.Out, "%s: %s\n", r.Path, d.Href)
			}
		}
	}
	if pending > 0 {
		return errors.NewError(errors.CategoryCheck, fmt.Sprintf("%d external links need annotation", pending)).
			Warning().Build()
	}
	if sum.Failed > 0 {
		return errors.FileSystemError(fmt.Sprintf("%d pages could not be checked", sum.Failed)).Build()
	}
	_, _ = fmt.Fprintf(g.Out, "%d pages checked, all external links annotated\n", sum.Pages)
	return nil
}
