//go:build windows

package ipc

import (
	"os"
	"path/filepath"
)

// Windows 10 1803+ supports AF_UNIX sockets; the socket lives in the user's
// local app data directory.
func socketPath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "clipq", "clipq.sock")
	}
	return filepath.Join(os.TempDir(), "clipq.sock")
}
