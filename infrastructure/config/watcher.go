package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
)

// CategoryWatcher reloads the category table when its file changes.
type CategoryWatcher struct {
	path     string
	table    *valueobjects.CategoryTable
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	reloaded func([]valueobjects.Category)
}

// NewCategoryWatcher loads path into table once and prepares the watch.
// The directory is watched rather than the file so editors that replace the
// file on save are still picked up.
func NewCategoryWatcher(path string, table *valueobjects.CategoryTable, logger *zap.Logger) (*CategoryWatcher, error) {
	w := &CategoryWatcher{
		path:     filepath.Clean(path),
		table:    table,
		logger:   logger.Named("category_watcher"),
		debounce: 100 * time.Millisecond,
	}

	if err := w.reload(); err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.watcher = fsWatcher
	return w, nil
}

// OnReload registers a callback run after each successful reload.
func (w *CategoryWatcher) OnReload(fn func([]valueobjects.Category)) {
	w.reloaded = fn
}

// Run processes file events until ctx is done.
func (w *CategoryWatcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Editors often emit several events per save.
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.reload(); err != nil {
				w.logger.Warn("category reload failed, keeping previous table", zap.Error(err))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", zap.Error(err))
		}
	}
}

func (w *CategoryWatcher) reload() error {
	categories, err := LoadCategories(w.path)
	if err != nil {
		return err
	}
	w.table.Replace(categories)
	w.logger.Info("category table loaded",
		zap.String("path", w.path),
		zap.Int("count", len(w.table.List())),
	)
	if w.reloaded != nil {
		w.reloaded(w.table.List())
	}
	return nil
}
