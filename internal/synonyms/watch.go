package synonyms

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the table whenever path is written or replaced. It returns once
// the watcher is registered; the reload loop stops when ctx is cancelled and
// closes the returned channel after releasing the watcher.
// A file that fails to parse leaves the current rules in place.
func (t *Table) Watch(ctx context.Context, path string, logger *zap.Logger) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Editors often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Clean(path)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != target {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				rules, err := Load(path)
				if err != nil {
					logger.Warn("Synonym table reload failed", zap.String("path", path), zap.Error(err))
					continue
				}
				t.Replace(rules)
				logger.Info("Synonym table reloaded", zap.String("path", path), zap.Int("rules", len(rules)))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Synonym watcher error", zap.Error(err))
			}
		}
	}()
	return done, nil
}
