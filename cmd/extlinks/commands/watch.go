package commands

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/ramppdev/extlinks/internal/foundation/errors"
	"github.com/ramppdev/extlinks/internal/logfields"
	"github.com/ramppdev/extlinks/internal/metrics"
	"github.com/ramppdev/extlinks/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Dir         string        `arg:"" type:"existingdir" help:"Built site directory"`
	BaseURL     string        `name:"base-url" help:"URL the site root is served at (overrides base_url)"`
	Debounce    time.Duration `help:"Quiet period before annotating changed pages (overrides watch.debounce)"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9464)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return w.run(ctx, g, root)
}

func (w *WatchCmd) run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(root, w.BaseURL)
	if err != nil {
		return err
	}
	if w.Debounce > 0 {
		cfg.Watch.Debounce = w.Debounce
	}
	if w.MetricsAddr != "" {
		cfg.Watch.MetricsAddr = w.MetricsAddr
	}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Watch.MetricsAddr != "" {
		reg := prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
		srv := &http.Server{
			Addr:              cfg.Watch.MetricsAddr,
			Handler:           metrics.HTTPHandler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				g.Logger.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
		g.Logger.Info("Serving metrics", "addr", cfg.Watch.MetricsAddr)
	}

	proc, err := newProcessor(cfg, g, rec)
	if err != nil {
		return err
	}
	watcher, err := watch.New(w.Dir, proc, cfg.Watch.Debounce, g.Logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		_ = watcher.Stop()
		return err
	}
	defer func() { _ = watcher.Stop() }()

	if _, err := proc.Process(ctx, w.Dir, false); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	select {
	case <-ctx.Done():
		g.Logger.Info("Shutdown signal received, stopping watcher")
		return nil
	case <-watcher.Done():
		return errors.RuntimeError("site watcher stopped unexpectedly").Build()
	}
}
