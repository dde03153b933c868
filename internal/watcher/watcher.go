// Package watcher ingests PDFs that appear in the upload directory.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"pdf-qa-rag/internal/service"
)

// DefaultDebounce merges the burst of events a single copy produces
const DefaultDebounce = 500 * time.Millisecond

// Ingester is the part of the knowledge base the watcher drives
type Ingester interface {
	IngestFile(ctx context.Context, path string) (*service.IngestResult, error)
	Documents() []service.DocumentSummary
}

// Watcher ingests new and rewritten PDFs in a directory
type Watcher struct {
	dir      string
	debounce time.Duration
	ingester Ingester
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher for dir
func New(dir string, debounce time.Duration, ingester Ingester, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		ingester: ingester,
		logger:   logger.With(zap.String("dir", dir)),
		pending:  make(map[string]*time.Timer),
	}
}

// Sync ingests PDFs already in the directory that the corpus doesn't know yet
func (w *Watcher) Sync(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", w.dir, err)
	}

	known := make(map[string]struct{})
	for _, d := range w.ingester.Documents() {
		known[d.ID] = struct{}{}
	}

	for _, e := range entries {
		if e.IsDir() || !isPDF(e.Name()) {
			continue
		}
		if _, ok := known[e.Name()]; ok {
			continue
		}
		w.ingest(ctx, filepath.Join(w.dir, e.Name()))
	}
	return nil
}

// Watch blocks until ctx is done, ingesting files as they settle
func (w *Watcher) Watch(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", w.dir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching for documents")

	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.handleEvent(ev); ok {
				w.schedule(ctx, path)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// handleEvent returns the file an event should ingest, if any
func (w *Watcher) handleEvent(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return "", false
	}
	if !isPDF(ev.Name) {
		return "", false
	}
	info, err := os.Stat(ev.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return ev.Name, true
}

// schedule ingests path once no event has touched it for the debounce interval
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(w.debounce)
		return
	}

	// a timer that already fired is left to finish and replaced
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.ingest(ctx, path)
	})
	w.pending[path] = t
}

// stop cancels pending timers and waits for running ingestions
func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	res, err := w.ingester.IngestFile(ctx, path)
	if err != nil {
		w.logger.Error("failed to ingest document", zap.String("file", path), zap.Error(err))
		return
	}
	w.logger.Info("document ingested",
		zap.String("file", path),
		zap.Int("chunks", res.Chunks),
		zap.Bool("failed", res.Failed))
}

func isPDF(name string) bool {
	base := filepath.Base(name)
	return !strings.HasPrefix(base, ".") && strings.EqualFold(filepath.Ext(base), ".pdf")
}
