package main

import (
	"fmt"
	"os"
	"time"
)

// openStdioLog opens path for appending and marks the start of this run.
// An empty path returns a nil file.
func openStdioLog(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open stdio log: %w", err)
	}
	_, _ = fmt.Fprintf(f, "--- beamfield pid %d started %s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	return f, nil
}
