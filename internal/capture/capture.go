// Package capture connects the system clipboard to the engine: it watches a
// clip.Backend for new content and places paste results back on it.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.klb.dev/clipq/internal/clip"
	"go.klb.dev/clipq/internal/model"
)

// Sink receives captured items. *engine.Engine satisfies it.
type Sink interface {
	Capture(ctx context.Context, item model.Item) (bool, error)
}

// Options configure a Peer.
type Options struct {
	// ImageDir receives <id>.png for every image capture. Without it images
	// are queued as placeholders only.
	ImageDir string

	// SourceApp names the provenance when the backend cannot tell.
	SourceApp string
}

// Peer owns the daemon's system clipboard.
type Peer struct {
	backend clip.Backend
	sink    Sink
	opts    Options

	mu   sync.Mutex
	last clip.Content // last content read; cleared by Place
}

// New creates the peer but does not start it.
func New(backend clip.Backend, sink Sink, opts Options) *Peer {
	return &Peer{backend: backend, sink: sink, opts: opts}
}

// Run watches the clipboard until ctx is cancelled.
func (p *Peer) Run(ctx context.Context) error {
	slog.Info("clipboard capture started", "backend", p.backend.Name())
	defer p.backend.Close()

	for {
		select {
		case <-ctx.Done():
			slog.Info("clipboard capture stopped")
			return ctx.Err()
		case <-p.backend.Watch():
			p.poll(ctx)
		}
	}
}

func (p *Peer) poll(ctx context.Context) {
	c, err := p.backend.Read()
	if err != nil {
		slog.Error("clipboard read failed", "err", err)
		return
	}
	if c.Empty() || !p.advance(c) {
		return
	}

	item, ok := p.itemFor(c)
	if !ok {
		return
	}
	added, err := p.sink.Capture(ctx, item)
	if err != nil {
		slog.Error("capture failed", "id", item.ID, "err", err)
	}
	if !added && item.ImagePath != "" {
		_ = os.Remove(item.ImagePath)
	}
}

func (p *Peer) advance(c clip.Content) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c.Equal(p.last) {
		return false
	}
	p.last = c
	return true
}

// itemFor classifies clipboard content. Text wins over an image when both
// are offered.
func (p *Peer) itemFor(c clip.Content) (model.Item, bool) {
	var item model.Item
	switch text := strings.TrimSpace(string(c.Text)); {
	case text != "":
		item = model.NewItem(text, model.DetectType(text))
	case len(c.Image) > 0:
		var err error
		if item, err = p.ImageItem(c.Image); err != nil {
			slog.Warn("image capture skipped", "err", err)
			return model.Item{}, false
		}
	default:
		return model.Item{}, false
	}

	if r, ok := p.backend.(clip.AppReporter); ok {
		if id, name, ok := r.FrontmostApp(); ok {
			return item.WithSource(id, name), true
		}
	}
	if p.opts.SourceApp != "" {
		item = item.WithSource("", p.opts.SourceApp)
	}
	return item, true
}

// ImageItem builds an image item from encoded image bytes. The image is
// stored as <ImageDir>/<id>.png when an image directory is configured; jpeg
// and gif input is re-encoded so the file and later clipboard writes are
// always PNG.
func (p *Peer) ImageItem(data []byte) (model.Item, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return model.Item{}, fmt.Errorf("decode image: %w", err)
	}
	item := model.NewItem(fmt.Sprintf("Image (%d×%d)", cfg.Width, cfg.Height), model.TypeImage)
	if p.opts.ImageDir == "" {
		return item, nil
	}

	if format != "png" {
		if data, err = toPNG(data); err != nil {
			return model.Item{}, err
		}
	}
	if err := os.MkdirAll(p.opts.ImageDir, 0o700); err != nil {
		return model.Item{}, fmt.Errorf("image dir: %w", err)
	}
	path := filepath.Join(p.opts.ImageDir, item.ID+".png")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return model.Item{}, fmt.Errorf("store image: %w", err)
	}
	item.ImagePath = path
	return item, nil
}

func toPNG(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Place writes pasted content to the clipboard. A single image item is
// written back as its stored PNG. The write always comes back through Watch,
// even when the clipboard already held the same content, so the queue's
// paste suppression consumes it instead of a later copy.
func (p *Peer) Place(content string, items []model.Item) error {
	c := clip.Content{Text: []byte(content)}
	if len(items) == 1 && items[0].Type == model.TypeImage && items[0].ImagePath != "" {
		data, err := os.ReadFile(items[0].ImagePath)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		c = clip.Content{Image: data}
	}
	if err := p.backend.Write(c); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	p.mu.Lock()
	p.last = clip.Content{}
	p.mu.Unlock()
	slog.Debug("clipboard updated", "items", len(items))
	return nil
}
