package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/agentx-labs/agentq/internal/errs"
	"github.com/agentx-labs/agentq/internal/library"
	"github.com/agentx-labs/agentq/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last event
// before handling a batch.
const DefaultDebounce = 300 * time.Millisecond

// Handler receives the sorted, de-duplicated template paths changed in one
// debounce window. A returned error stops the watcher.
type Handler func(ctx context.Context, paths []string) error

// Watcher batches template changes under a directory tree.
type Watcher struct {
	root     string
	debounce time.Duration
	handler  Handler
	ready    chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New returns a watcher over root that calls h for every batch.
func New(root string, h Handler, opts ...Option) *Watcher {
	w := &Watcher{root: root, debounce: DefaultDebounce, handler: h, ready: make(chan struct{})}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Ready is closed once every directory is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches until ctx is cancelled or the handler fails. It must be
// called at most once. Cancellation
// is not an error; a batch pending at that point is dropped.
func (w *Watcher) Run(ctx context.Context) error {
	log := logger.Named("watch")

	info, err := os.Stat(w.root)
	if err != nil {
		return errs.FromFS(err, "opening watch root", w.root)
	}
	if !info.IsDir() {
		return errs.Newf(errs.KindValidation, "watch root %s is not a directory", w.root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}
	close(w.ready)
	log.Info().Str("root", w.root).Dur("debounce", w.debounce).Msg("watching")

	pending := map[string]bool{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && isDir(ev.Name) {
				if !library.IsHiddenDir(filepath.Base(ev.Name)) {
					if err := w.addTree(fw, ev.Name); err != nil {
						log.Warn().Err(err).Str("dir", ev.Name).Msg("watching new directory")
					}
				}
				continue
			}
			path, ok := relevant(ev)
			if !ok {
				continue
			}
			log.Debug().Str("path", path).Str("op", ev.Op.String()).Msg("change")
			pending[path] = true
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")

		case <-timer.C:
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = map[string]bool{}
			if err := w.handler(ctx, batch); err != nil {
				return err
			}
		}
	}
}

// relevant reports whether ev touches a template's content. Removals and
// permission changes are ignored; the history keeps its last version.
func relevant(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return "", false
	}
	if !library.IsTemplate(ev.Name) {
		return "", false
	}
	return filepath.Clean(ev.Name), true
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && library.IsHiddenDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
