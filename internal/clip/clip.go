// Package clip provides a unified interface to the system clipboard across
// platforms. Build constraints select the appropriate implementation:
//
//	clip_darwin.go — macOS via golang.design/x/clipboard + cgo changeCount
//	clip_poll.go   — Linux and Windows via golang.design/x/clipboard, polling
//	clip_other.go  — headless / container stub
package clip

import (
	"bytes"
	"errors"
	"time"
)

// DefaultPollInterval is how often polling backends sample the clipboard.
const DefaultPollInterval = 500 * time.Millisecond

// Content is one clipboard state. Text and Image may both be set when the
// host offers both representations.
type Content struct {
	Text  []byte
	Image []byte // PNG
}

// Empty reports whether c carries neither text nor an image.
func (c Content) Empty() bool { return len(c.Text) == 0 && len(c.Image) == 0 }

// Equal reports whether c and o hold the same bytes.
func (c Content) Equal(o Content) bool {
	return bytes.Equal(c.Text, o.Text) && bytes.Equal(c.Image, o.Image)
}

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard contents. An empty Content means
	// the clipboard holds nothing usable.
	Read() (Content, error)

	// Write replaces the clipboard contents. Image wins when both are set.
	Write(c Content) error

	// Watch returns a channel that receives a signal whenever the clipboard
	// changes. The channel is never closed.
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}

// AppReporter is implemented by backends that can name the frontmost
// application, used as the provenance of a capture.
type AppReporter interface {
	FrontmostApp() (id, name string, ok bool)
}

var errEmpty = errors.New("clip: nothing to write")
