package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the file at path whenever it is written or replaced and calls
// onChange with each configuration that parses. Invalid edits are logged and
// skipped. The directory is watched rather than the file so editors that save
// by rename are still seen. Watching stops when ctx is done.
//
// Parameters:
//   - ctx: ends the watch
//   - path: the TOML file
//   - onChange: called from the watch goroutine with the new configuration
//
// Returns:
//   - error: error if the watcher cannot be started
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("config: watch %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(target)
				if err != nil {
					log.Printf("[Config] reload skipped: %v", err)
					continue
				}
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[Config] watch error: %v", err)
			}
		}
	}()
	return nil
}
