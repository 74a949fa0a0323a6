package server

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"
)

const devWatcherInterval = 500 * time.Millisecond

// startDevWatcher polls the templates and static files on disk and notifies
// subscribers whenever their fingerprint changes.
func startDevWatcher(roots []string, notifier *ReloadNotifier) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		// a final notification lets open reload streams exit
		defer notifier.Notify()

		lastFingerprint, err := fingerprint(roots)
		if err != nil {
			slog.Error("Dev watcher failed to scan files", slog.Any("roots", roots), slog.Any("err", err))
		}

		ticker := time.NewTicker(devWatcherInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fp, err := fingerprint(roots)
				if err != nil {
					slog.Error("Dev watcher failed to scan files", slog.Any("roots", roots), slog.Any("err", err))
					continue
				}

				if fp != lastFingerprint {
					lastFingerprint = fp
					slog.Debug("Dev watcher detected changes")
					notifier.Notify()
				}
			}
		}
	}()

	return cancel
}

// fingerprint hashes the relative path, modification time and size of every file under roots.
func fingerprint(roots []string) (string, error) {
	hasher := sha1.New()

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}

			relative, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(hasher, "%s/%s:%d:%d;", root, relative, info.ModTime().UnixNano(), info.Size())
			return err
		})
		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
