//go:build !windows

package ipc

import (
	"os"
	"path/filepath"
)

func socketPath() string {
	// Linux: prefer XDG_RUNTIME_DIR
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipq.sock")
	}
	// macOS / fallback
	return filepath.Join(os.TempDir(), "clipq.sock")
}
