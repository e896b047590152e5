// Package watch re-annotates pages while a documentation site is being rebuilt.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ramppdev/extlinks/internal/foundation/errors"
	"github.com/ramppdev/extlinks/internal/logfields"
	"github.com/ramppdev/extlinks/internal/site"
)

// Watcher monitors a site directory and annotates HTML pages after they
// are created or rewritten. Bursts of events are debounced.
type Watcher struct {
	root      string
	processor *site.Processor
	debounce  time.Duration
	logger    *slog.Logger
	watcher   *fsnotify.Watcher

	// OnFlush, when set, receives the reports of every debounced batch.
	OnFlush func([]site.PageReport)

	pending  map[string]struct{}
	started  bool
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a Watcher for root.
func New(root string, processor *site.Processor, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve site root").
			WithContext("root", root).Build()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create file watcher").Fatal().Build()
	}
	return &Watcher{
		root:      absRoot,
		processor: processor,
		debounce:  debounce,
		logger:    logger,
		watcher:   fw,
		pending:   make(map[string]struct{}),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Start registers the site tree with the watcher and begins processing events.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root, false); err != nil {
		return err
	}
	w.logger.Info("Watching site for changes", logfields.Root(w.root), slog.Duration("debounce", w.debounce))
	w.started = true
	go w.loop(ctx)
	return nil
}

// Stop ends event processing and waits for the loop to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		err = w.watcher.Close()
		if !w.started {
			close(w.done)
		}
	})
	<-w.done
	return err
}

// Done is closed once the watcher loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// addTree watches dir and its subdirectories. When queue is set, pages
// already present are queued, covering files written before the watch existed.
func (w *Watcher) addTree(dir string, queue bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != w.root && w.processor.Excluded(w.root, p) {
				return filepath.SkipDir
			}
			if err := w.watcher.Add(p); err != nil {
				return errors.WrapError(err, errors.CategoryRuntime, "failed to watch directory").
					WithContext("path", p).Build()
			}
			return nil
		}
		if queue && site.IsPage(d.Name()) {
			w.pending[p] = struct{}{}
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	var timer *time.Timer
	var timerC <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			timer.Stop()
			timer.Reset(w.debounce)
		}
		timerC = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handleEvent(event) {
				schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Site watcher error", logfields.Error(err))
		case <-timerC:
			timerC = nil
			w.flush()
		}
	}
}

// handleEvent updates the pending set and reports whether a flush is needed.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if w.processor.Excluded(w.root, event.Name) {
		return false
	}
	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			if err := w.addTree(event.Name, true); err != nil {
				w.logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
			}
			return len(w.pending) > 0
		}
		if site.IsPage(event.Name) {
			w.pending[event.Name] = struct{}{}
			return true
		}
	case event.Has(fsnotify.Write):
		if site.IsPage(event.Name) {
			w.pending[event.Name] = struct{}{}
			return true
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, event.Name)
	}
	return false
}

func (w *Watcher) flush() {
	if len(w.pending) == 0 {
		return
	}
	reports := make([]site.PageReport, 0, len(w.pending))
	for p := range w.pending {
		delete(w.pending, p)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		r := w.processor.ProcessFile(w.root, p, false)
		if r.Result.Written {
			w.logger.Info("Annotated changed page", logfields.Path(p), logfields.Annotated(r.Result.Annotated))
		}
		reports = append(reports, r)
	}
	if w.OnFlush != nil {
		w.OnFlush(reports)
	}
}
