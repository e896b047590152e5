// Package site annotates every HTML page of a built documentation site.
package site

import (
	"context"
	"io/fs"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ramppdev/extlinks/internal/annotate"
	"github.com/ramppdev/extlinks/internal/foundation/errors"
	"github.com/ramppdev/extlinks/internal/logfields"
	"github.com/ramppdev/extlinks/internal/metrics"
)

// PageReport is the outcome for a single page.
type PageReport struct {
	Path   string
	URL    string
	Result annotate.FileResult
	Err    error
}

// Summary aggregates a site run.
type Summary struct {
	Pages     int
	Written   int
	Failed    int
	Annotated int
	Changed   int
	Internal  int
	Skipped   int
	Reports   []PageReport
}

// Processor maps files under a site root to their served URLs and annotates them.
type Processor struct {
	annotator *annotate.Annotator
	baseURL   *url.URL
	exclude   []string
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithExclude skips directories with any of the given base names.
func WithExclude(names ...string) Option {
	return func(p *Processor) { p.exclude = append(p.exclude, names...) }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Processor) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProcessor creates a Processor. baseURL is the URL the site root is served at.
func NewProcessor(a *annotate.Annotator, baseURL string, opts ...Option) (*Processor, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.ValidationError("base URL must be absolute").WithContext("base_url", baseURL).Build()
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if a == nil {
		a = annotate.New()
	}
	p := &Processor{
		annotator: a,
		baseURL:   u,
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// IsPage reports whether name is an HTML page the processor handles.
func IsPage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// PageURL returns the URL file is served at, given the site root. An
// index.html maps to its directory URL.
func (p *Processor) PageURL(root, file string) (*url.URL, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, errors.ValidationError("page is outside the site root").
			WithContext("root", root).WithContext("path", file).Build()
	}
	rel = filepath.ToSlash(rel)
	if path.Base(rel) == "index.html" {
		rel = strings.TrimSuffix(rel, "index.html")
	}
	ref := &url.URL{Path: rel}
	return p.baseURL.ResolveReference(ref), nil
}

// Excluded reports whether a path relative to the site root lies in an excluded directory.
func (p *Processor) Excluded(root, file string) bool {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if slices.Contains(p.exclude, part) {
			return true
		}
	}
	return false
}

// ProcessFile annotates a single page under root.
func (p *Processor) ProcessFile(root, file string, dryRun bool) PageReport {
	start := time.Now()
	report := PageReport{Path: file}

	pageURL, err := p.PageURL(root, file)
	if err != nil {
		report.Err = err
		p.recorder.IncPage(metrics.PageFailed)
		return report
	}
	report.URL = pageURL.String()

	res, err := p.annotator.AnnotateFile(file, pageURL, dryRun)
	report.Result = res
	p.recorder.ObservePageDuration(time.Since(start))
	if err != nil {
		report.Err = err
		p.recorder.IncPage(metrics.PageFailed)
		p.logger.Warn("Failed to annotate page", logfields.Path(file), logfields.Error(err))
		return report
	}

	p.recorder.IncAnchors(string(annotate.External), res.Annotated)
	p.recorder.IncAnchors(string(annotate.Internal), res.Internal)
	p.recorder.IncAnchors(string(annotate.Skipped), res.Skipped)
	if res.Written {
		p.recorder.IncPage(metrics.PageWritten)
	} else {
		p.recorder.IncPage(metrics.PageUnchanged)
	}
	p.logger.Debug("Annotated page",
		logfields.Path(file),
		logfields.PageURL(report.URL),
		logfields.Annotated(res.Annotated),
		logfields.Skipped(res.Skipped))
	return report
}

// Process walks root and annotates every page. Per-page failures are recorded
// in the summary; the returned error covers walk failures and cancellation.
func (p *Processor) Process(ctx context.Context, root string, dryRun bool) (Summary, error) {
	start := time.Now()
	var sum Summary

	err := filepath.WalkDir(root, func(file string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if file != root && slices.Contains(p.exclude, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsPage(d.Name()) {
			return nil
		}
		sum.add(p.ProcessFile(root, file, dryRun))
		return nil
	})
	p.recorder.ObserveRunDuration(time.Since(start))

	if err != nil {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		return sum, errors.WrapError(err, errors.CategoryFileSystem, "failed to walk site").
			WithContext("root", root).Build()
	}
	p.logger.Info("Site annotated",
		logfields.Root(root),
		slog.Int("pages", sum.Pages),
		slog.Int("written", sum.Written),
		slog.Int("failed", sum.Failed),
		logfields.Annotated(sum.Annotated),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return sum, nil
}

func (s *Summary) add(r PageReport) {
	s.Pages++
	s.Reports = append(s.Reports, r)
	if r.Err != nil {
		s.Failed++
		return
	}
	if r.Result.Written {
		s.Written++
	}
	s.Annotated += r.Result.Annotated
	s.Changed += r.Result.Changed
	s.Internal += r.Result.Internal
	s.Skipped += r.Result.Skipped
}
