package devproxyconfig

import (
	"context"
	"os"
	"time"
)

// Watch polls path's modification time every interval and calls onChange
// whenever it advances, until ctx is canceled. This is the supplemented
// "config file hot reload" feature (§9 design note): a minimal
// stat-polling watcher rather than a filesystem-notification dependency,
// since none of the example repos in the corpus pull one in.
func Watch(ctx context.Context, path string, interval time.Duration, onChange func()) {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	var lastModTime time.Time
	if info, err := os.Stat(path); err == nil {
		lastModTime = info.ModTime()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastModTime) {
				lastModTime = info.ModTime()
				onChange()
			}
		}
	}
}
