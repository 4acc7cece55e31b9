//go:build linux || windows

package clip

import (
	"log/slog"
	"time"

	"golang.design/x/clipboard"
)

type pollBackend struct {
	interval time.Duration
	watchCh  chan struct{}
	done     chan struct{}
	last     Content
}

// New returns the polling clipboard backend, or the headless backend if the
// display environment is unavailable. clipboard.Init is called here rather
// than in init() so that client sub-commands never touch the display.
func New(interval time.Duration) Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return Headless()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	b := &pollBackend{
		interval: interval,
		watchCh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		last:     readSystem(),
	}
	go b.poll()
	return b
}

func (b *pollBackend) Name() string { return "system clipboard (poll " + b.interval.String() + ")" }

func (b *pollBackend) poll() {
	t := time.NewTicker(b.interval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			cur := readSystem()
			if cur.Equal(b.last) {
				continue
			}
			b.last = cur
			b.notify()
		}
	}
}

func (b *pollBackend) notify() {
	select {
	case b.watchCh <- struct{}{}:
	default:
	}
}

func (b *pollBackend) Read() (Content, error) { return readSystem(), nil }

// Write signals Watch itself: writing the content already on the clipboard
// leaves nothing for the poller to notice.
func (b *pollBackend) Write(c Content) error {
	if err := writeSystem(c); err != nil {
		return err
	}
	b.notify()
	return nil
}

func (b *pollBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *pollBackend) Close()                 { close(b.done) }

func readSystem() Content {
	return Content{
		Text:  clipboard.Read(clipboard.FmtText),
		Image: clipboard.Read(clipboard.FmtImage),
	}
}

func writeSystem(c Content) error {
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
