// Package dispatch serves the control socket: it decodes requests, runs them
// against the engine and writes one response per request.
package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"go.klb.dev/clipq/internal/apperr"
	"go.klb.dev/clipq/internal/crypto"
	"go.klb.dev/clipq/internal/engine"
	"go.klb.dev/clipq/internal/message"
	"go.klb.dev/clipq/internal/model"
	"go.klb.dev/clipq/internal/wire"
)

// idleTimeout closes connections that stop sending requests.
const idleTimeout = 2 * time.Minute

// Clipboard is the daemon side of the system clipboard. *capture.Peer
// satisfies it.
type Clipboard interface {
	Place(content string, items []model.Item) error
	ImageItem(data []byte) (model.Item, error)
}

// Server handles control connections.
type Server struct {
	eng  *engine.Engine
	clip Clipboard
	box  *crypto.Box
}

// New returns a Server. With a nil clip, image adds are refused and paste
// results are never placed. A non-nil box seals every frame.
func New(eng *engine.Engine, clip Clipboard, box *crypto.Box) *Server {
	return &Server{eng: eng, clip: clip, box: box}
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			slog.Error("accept failed", "err", err)
			continue
		}
		go s.serveConn(ctx, conn)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	wc := wire.New(conn, s.box)
	defer wc.Close()

	for {
		wc.SetReadDeadline(idleTimeout)
		var req message.Request
		if err := wc.ReadMsg(&req); err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("control: read failed", "err", err)
			}
			return
		}
		wc.SetReadDeadline(0)

		resp := s.Handle(ctx, &req)
		if err := wc.WriteMsg(resp); err != nil {
			slog.Debug("control: write failed", "op", req.Op, "err", err)
			return
		}
	}
}

// Handle runs a single request.
func (s *Server) Handle(ctx context.Context, req *message.Request) *message.Response {
	resp, err := s.handle(ctx, req)
	if err != nil {
		slog.Debug("control: request failed", "op", req.Op, "err", err)
		return message.Fail(err)
	}
	resp.OK = true
	return resp
}

func (s *Server) handle(ctx context.Context, req *message.Request) (*message.Response, error) {
	e := s.eng
	switch req.Op {
	case message.OpPing:
		return &message.Response{}, nil

	case message.OpStatus:
		st, err := e.Status(ctx)
		return &message.Response{Status: &st}, err

	case message.OpAdd:
		item, err := s.itemFrom(req)
		if err != nil {
			return nil, err
		}
		added, err := e.Capture(ctx, item)
		if !added && item.ImagePath != "" {
			_ = os.Remove(item.ImagePath)
		}
		return &message.Response{Added: added, Items: []model.Item{item}}, err

	case message.OpQueue:
		return s.queue(ctx)

	case message.OpPasteNext:
		p, ok, err := e.PasteNext(ctx)
		return s.paste(req.Place, p, ok, err)

	case message.OpPasteAll:
		p, ok, err := e.PasteAll(ctx)
		return s.paste(req.Place, p, ok, err)

	case message.OpPasteSelected:
		if len(req.IDs) == 0 {
			return nil, apperr.New(apperr.Invalid, "no ids given")
		}
		p, ok, err := e.PasteSelected(ctx, req.IDs)
		return s.paste(req.Place, p, ok, err)

	case message.OpRemove:
		removed, err := e.Remove(ctx, ids(req))
		return &message.Response{Items: removed}, err

	case message.OpRemoveAt:
		if err := e.RemoveAt(ctx, req.Index); err != nil {
			return nil, err
		}
		return s.queue(ctx)

	case message.OpUndo:
		restored, err := e.Undo(ctx)
		return &message.Response{Items: restored}, err

	case message.OpMove:
		if err := e.Move(ctx, req.From, req.To); err != nil {
			return nil, err
		}
		return s.queue(ctx)

	case message.OpMoveToTop:
		if err := e.MoveToTop(ctx, req.ID); err != nil {
			return nil, err
		}
		return s.queue(ctx)

	case message.OpReverse:
		if err := e.Reverse(ctx); err != nil {
			return nil, err
		}
		return s.queue(ctx)

	case message.OpClear:
		if err := e.ClearQueue(ctx); err != nil {
			return nil, err
		}
		return s.queue(ctx)

	case message.OpHistory:
		page, err := e.History(ctx, req.Query)
		return pageResponse(page), err

	case message.OpLoadMore:
		page, err := e.LoadMore(ctx, req.Pages)
		return pageResponse(page), err

	case message.OpSearch:
		if err := e.Search(ctx, req.Query); err != nil {
			return nil, err
		}
		return &message.Response{Query: req.Query}, nil

	case message.OpWindow:
		page, err := e.Window(ctx)
		return pageResponse(page), err

	case message.OpPinned:
		entries, err := e.Pinned(ctx)
		return &message.Response{Entries: entries}, err

	case message.OpFavorites:
		entries, err := e.Favorites(ctx)
		return &message.Response{Entries: entries}, err

	case message.OpRecent:
		entries, err := e.Recent(ctx)
		return &message.Response{Entries: entries}, err

	case message.OpHistoryRemove:
		for _, id := range ids(req) {
			if err := e.DeleteHistory(ctx, id); err != nil {
				return nil, err
			}
		}
		return &message.Response{}, nil

	case message.OpHistoryClear:
		return &message.Response{}, e.ClearHistory(ctx)

	case message.OpPin:
		return &message.Response{}, e.SetPinned(ctx, req.ID, req.Value)

	case message.OpFavorite:
		return &message.Response{}, e.SetFavorite(ctx, req.ID, req.Value)

	case message.OpSetCategory:
		return &message.Response{}, e.SetCategory(ctx, req.ID, req.CategoryID)

	case message.OpCategories:
		list, err := e.Categories(ctx)
		return &message.Response{Categories: list}, err

	case message.OpCategoryAdd:
		c, err := e.CreateCategory(ctx, req.Name, req.Color)
		return &message.Response{Category: &c}, err

	case message.OpCategoryRemove:
		return &message.Response{}, e.DeleteCategory(ctx, req.ID)

	default:
		return nil, apperr.New(apperr.Invalid, "unknown op "+string(req.Op))
	}
}

func (s *Server) queue(ctx context.Context) (*message.Response, error) {
	st, err := s.eng.Queue(ctx)
	return &message.Response{Items: st.Items, CanUndo: st.CanUndo}, err
}

// paste adapts an engine paste result. An empty queue is not an error: the
// response simply carries no items.
func (s *Server) paste(place bool, p engine.Paste, ok bool, err error) (*message.Response, error) {
	if err != nil || !ok {
		return &message.Response{}, err
	}
	resp := &message.Response{Content: p.Content, Items: p.Items}
	if place && s.clip != nil {
		if err := s.clip.Place(p.Content, p.Items); err != nil {
			slog.Warn("paste: clipboard write failed", "err", err)
		} else {
			resp.Placed = true
		}
	}
	return resp, nil
}

func pageResponse(p engine.HistoryPage) *message.Response {
	return &message.Response{Entries: p.Entries, CanLoadMore: p.CanLoadMore, Query: p.Query}
}

func ids(req *message.Request) []string {
	if req.ID != "" {
		return append([]string{req.ID}, req.IDs...)
	}
	return req.IDs
}

func (s *Server) itemFrom(req *message.Request) (model.Item, error) {
	var (
		item model.Item
		err  error
	)
	switch {
	case len(req.Image) > 0:
		if s.clip == nil {
			return model.Item{}, apperr.New(apperr.Invalid, "image adds need a clipboard")
		}
		if item, err = s.clip.ImageItem(req.Image); err != nil {
			return model.Item{}, apperr.Wrap(apperr.Invalid, "image", err)
		}
	case strings.TrimSpace(req.Content) == "":
		return model.Item{}, apperr.New(apperr.Invalid, "empty content")
	default:
		typ := req.Type
		if typ == "" {
			typ = model.DetectType(req.Content)
		}
		item = model.NewItem(req.Content, typ)
	}
	if req.SourceApp != "" {
		item = item.WithSource("", req.SourceApp)
	}
	if req.CategoryID != "" {
		item = item.WithCategory(req.CategoryID)
	}
	return item, nil
}
