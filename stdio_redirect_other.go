//go:build !unix

package main

import "os"

// Best-effort fallback for non-Unix platforms: runtime panics still go to
// the original stderr.
func redirectStdIO(path string) error {
	f, err := openStdioLog(path)
	if err != nil || f == nil {
		return err
	}
	os.Stdout = f
	os.Stderr = f
	return nil
}
