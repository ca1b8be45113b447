package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/maruel/donors/internal/donordb"
	"golang.org/x/time/rate"
)

// watchDataFile watches the donor file and calls warn when another process
// modifies, removes or renames it. Queries never re-read the file, so the
// in-memory view is stale from then on. Repeated modification warnings are
// limited to one per minute.
func watchDataFile(ctx context.Context, store *donordb.Store, warn func(msg string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(store.Path()); err != nil {
		_ = w.Close()
		return err
	}
	modified := rate.Sometimes{First: 1, Interval: time.Minute}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					warn("Donor file removed or renamed; new registrations will fail")
					return
				}
				if !event.Has(fsnotify.Write) {
					continue
				}
				changed, err := store.Changed()
				if err != nil {
					slog.WarnContext(ctx, "Failed to stat donor file", "err", err)
					continue
				}
				if changed {
					modified.Do(func() {
						warn("Donor file modified externally; in-memory data is stale until restart")
					})
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching donor file", "err", err)
			}
		}
	}()
	return nil
}
