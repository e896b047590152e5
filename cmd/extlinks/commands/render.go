package commands

import (
	"bytes"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ramppdev/extlinks/internal/foundation/errors"
	"github.com/ramppdev/extlinks/internal/mdlinks"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	File    string `arg:"" type:"existingfile" help:"Markdown file to render"`
	PageURL string `name:"page-url" help:"URL the rendered page will be served at (default: base_url + file name as .html)"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, "")
	if err != nil {
		return err
	}
	src, err := os.ReadFile(filepath.Clean(r.File))
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to read markdown").
			WithContext("path", r.File).Build()
	}

	pageURL, err := r.resolvePageURL(cfg.BaseURL)
	if err != nil {
		return err
	}

	var rendered bytes.Buffer
	if err := mdlinks.Render(src, &rendered); err != nil {
		return err
	}
	page, err := newAnnotator(cfg, g.Logger).AnnotateReader(&rendered, pageURL)
	if err != nil {
		return err
	}
	return page.Render(g.Out)
}

func (r *RenderCmd) resolvePageURL(baseURL string) (*url.URL, error) {
	raw := r.PageURL
	if raw == "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return nil, errors.ConfigError("invalid base_url").WithContext("base_url", baseURL).Build()
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		name := strings.TrimSuffix(filepath.Base(r.File), filepath.Ext(r.File)) + ".html"
		return base.ResolveReference(&url.URL{Path: name}), nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.ValidationError("--page-url must be an absolute URL").WithContext("page_url", raw).Build()
	}
	return u, nil
}
