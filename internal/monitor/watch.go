package monitor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/usagecal/internal/logging"
	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 100 * time.Millisecond

// watch signals on the returned channel whenever the file at path is
// written or replaced. Bursts of events are coalesced. The channel is closed
// when ctx is done or the watcher fails.
func watch(ctx context.Context, path string, log *logging.Logger) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory: the aggregator replaces the file rather than
	// writing it in place.
	dir, name := filepath.Dir(path), filepath.Base(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer watcher.Close()

		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case <-fire:
				fire = nil
				select {
				case ch <- struct{}{}:
				default:
				}
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					fire = time.After(debounceDelay)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("File watcher error", logging.Error(err))
			}
		}
	}()
	return ch, nil
}
