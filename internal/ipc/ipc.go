// Package ipc provides helpers for the local Unix-socket channel the clipq
// CLI uses to talk to a running daemon.
package ipc

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"time"
)

// dialTimeout bounds how long a client waits for the daemon to accept.
const dialTimeout = 2 * time.Second

// SocketPath returns the path of the daemon socket. $CLIPQ_SOCKET overrides
// the platform default.
func SocketPath() string {
	if s := os.Getenv("CLIPQ_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a daemon appears to be listening on path. It does
// a cheap dial-and-close; no data is exchanged.
func IsRunning(path string) bool {
	c, err := Dial(context.Background(), path)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Dial connects to the daemon socket at path.
func Dial(ctx context.Context, path string) (net.Conn, error) {
	d := net.Dialer{Timeout: dialTimeout}
	return d.DialContext(ctx, "unix", path)
}

// ErrInUse is returned by Listen when another daemon answers on the socket.
var ErrInUse = errors.New("ipc: socket in use by a running daemon")

// Listen creates a listener on path, removing a stale socket file left by a
// crashed run. A live socket is never removed.
func Listen(path string) (net.Listener, error) {
	if IsRunning(path) {
		return nil, ErrInUse
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	_ = os.Chmod(path, 0o600)
	return ln, nil
}
