//go:build !linux

package system

import "context"

// StartExitOnKey is a no-op outside linux; there is no evdev to watch.
func StartExitOnKey(ctx context.Context, logger Logger, keys []uint16, onExit func()) {
	if logger != nil {
		logger.Infof("input", "exit key watcher unavailable on this platform")
	}
}
