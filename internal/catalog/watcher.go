package catalog

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 200 * time.Millisecond

// Watcher re-syncs a prompts directory whenever its markdown files change.
// Bursts of events are coalesced into one sync after the debounce window.
type Watcher struct {
	Dir      string
	Synced   <-chan *Result
	Debounce time.Duration

	db      Store
	logger  *log.Logger
	synced  chan *Result
	done    chan struct{}
	started atomic.Bool
	watcher *fsnotify.Watcher
}

func NewWatcher(dir string, db Store, logger *log.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	ch := make(chan *Result, 4)
	return &Watcher{
		Dir:      dir,
		Synced:   ch,
		Debounce: DefaultDebounce,
		db:       db,
		logger:   logger,
		synced:   ch,
		done:     make(chan struct{}),
		watcher:  fw,
	}, nil
}

// Start begins watching Dir. When the directory cannot be watched the
// underlying fsnotify watcher is released before the error is returned.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.Dir); err != nil {
		w.watcher.Close()
		return err
	}
	w.started.Store(true)
	go w.loop(ctx)
	return nil
}

// Stop releases the watcher and waits for a started loop to exit. It is safe
// to call when Start was never called or failed.
func (w *Watcher) Stop() {
	w.watcher.Close()
	if w.started.Load() {
		<-w.done
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.Debounce / 2)
	defer ticker.Stop()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isPromptFile(filepath.Base(event.Name)) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				last = time.Now()
			}

		case <-ticker.C:
			if last.IsZero() || time.Since(last) < w.Debounce {
				continue
			}
			last = time.Time{}
			w.sync(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("prompt watcher: %v", err)
		}
	}
}

func (w *Watcher) sync(ctx context.Context) {
	result, err := Sync(ctx, w.db, Dir(w.Dir), Options{})
	if err != nil {
		w.logger.Printf("syncing prompts from %s: %v", w.Dir, err)
		return
	}
	for _, e := range result.Errors {
		w.logger.Printf("syncing prompts: %v", e)
	}
	w.logger.Printf("prompts synced: %d upserted, %d removed, %d unchanged",
		result.PromptsUpserted, result.PromptsRemoved, result.FilesSkipped)

	select {
	case w.synced <- result:
	default:
	}
}
