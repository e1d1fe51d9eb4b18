package files

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/logger"
)

// DefaultDebounce collapses bursts of editor writes into one change.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc is called once per debounced burst of changes to the source.
type ChangeFunc func(ctx context.Context) error

// Watcher watches a job document or a directory of them.
type Watcher struct {
	source   string
	file     string // non-empty when the source is a single document
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *zap.SugaredLogger

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher watches source. A single document is watched through its parent
// directory so that editors replacing the file are noticed.
func NewWatcher(source string, debounce time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	dir, file := source, ""
	if !isDir(source) {
		dir, file = filepath.Dir(source), filepath.Base(source)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", dir)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		source:   source,
		file:     file,
		watcher:  w,
		debounce: debounce,
		log:      logger.OrNop(log),
	}, nil
}

// relevant reports whether an event on path concerns the watched source.
func (w *Watcher) relevant(path string) bool {
	if w.file != "" {
		return filepath.Base(path) == w.file
	}
	return IsDocument(path)
}

// Run calls onChange after every debounced change until ctx is done.
// Errors from onChange are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	defer w.watcher.Close()
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			w.log.Debugw("Source change detected",
				logger.FieldFile, event.Name,
				logger.FieldOperation, event.Op.String())
			w.schedule(fire)

		case <-fire:
			if err := onChange(ctx); err != nil {
				w.log.Errorw("Sync after source change failed",
					logger.FieldPath, w.source,
					logger.FieldError, err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("Source watcher error", logger.FieldError, err)
		}
	}
}

func (w *Watcher) schedule(fire chan<- struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
