//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
// #include <stdlib.h>
//
// NSInteger clipq_change_count() {
//     return [[NSPasteboard generalPasteboard] changeCount];
// }
//
// // clipq_frontmost copies the bundle id and name of the frontmost app into
// // malloc'd strings. It returns 0 when this process is frontmost.
// int clipq_frontmost(char **bundle, char **name) {
//     NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
//     if (app == nil || [app processIdentifier] == [[NSProcessInfo processInfo] processIdentifier]) {
//         return 0;
//     }
//     *bundle = strdup([app bundleIdentifier] ? [[app bundleIdentifier] UTF8String] : "");
//     *name = strdup([app localizedName] ? [[app localizedName] UTF8String] : "");
//     return 1;
// }
import "C"

import (
	"log/slog"
	"time"
	"unsafe"

	"golang.design/x/clipboard"
)

type darwinBackend struct {
	interval   time.Duration
	lastChange C.NSInteger
	watchCh    chan struct{}
	done       chan struct{}
}

// New returns the macOS clipboard backend. The pasteboard change count is
// sampled every interval; contents are only read after it moves.
func New(interval time.Duration) Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return Headless()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	b := &darwinBackend{
		interval:   interval,
		lastChange: C.clipq_change_count(),
		watchCh:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go b.poll()
	return b
}

func (b *darwinBackend) Name() string { return "macOS NSPasteboard" }

func (b *darwinBackend) poll() {
	t := time.NewTicker(b.interval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			cc := C.clipq_change_count()
			if cc == b.lastChange {
				continue
			}
			b.lastChange = cc
			select {
			case b.watchCh <- struct{}{}:
			default:
			}
		}
	}
}

func (b *darwinBackend) Read() (Content, error) {
	return Content{
		Text:  clipboard.Read(clipboard.FmtText),
		Image: clipboard.Read(clipboard.FmtImage),
	}, nil
}

func (b *darwinBackend) Write(c Content) error {
	if c.Empty() {
		return errEmpty
	}
	if len(c.Image) > 0 {
		clipboard.Write(clipboard.FmtImage, c.Image)
		return nil
	}
	clipboard.Write(clipboard.FmtText, c.Text)
	return nil
}

func (b *darwinBackend) FrontmostApp() (string, string, bool) {
	var bundle, name *C.char
	if C.clipq_frontmost(&bundle, &name) == 0 {
		return "", "", false
	}
	defer C.free(unsafe.Pointer(bundle))
	defer C.free(unsafe.Pointer(name))
	return C.GoString(bundle), C.GoString(name), true
}

func (b *darwinBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *darwinBackend) Close()                { close(b.done) }
