package engine

import (
	"context"
	"log/slog"

	"go.klb.dev/clipq/internal/apperr"
	"go.klb.dev/clipq/internal/history"
	"go.klb.dev/clipq/internal/model"
)

// Paste is the outcome of a paste operation.
type Paste struct {
	Content string       `json:"content"`
	Items   []model.Item `json:"items"`
}

// QueueState is a snapshot of the working queue.
type QueueState struct {
	Items   []model.Item `json:"items"`
	CanUndo bool         `json:"can_undo"`
}

// HistoryPage is a snapshot of the loaded history window.
type HistoryPage struct {
	Entries     []history.Entry `json:"entries"`
	CanLoadMore bool            `json:"can_load_more"`
	Query       string          `json:"query,omitempty"`
}

// Status summarizes the engine state.
type Status struct {
	QueueLen   int      `json:"queue_len"`
	CanUndo    bool     `json:"can_undo"`
	Loaded     int      `json:"history_loaded"`
	Pinned     int      `json:"pinned"`
	Favorites  int      `json:"favorites"`
	Categories int      `json:"categories"`
	Query      string   `json:"query,omitempty"`
	Settings   Settings `json:"settings"`
}

// Capture adds a freshly captured item to the queue and, when history is
// enabled, mirrors it into history after the caller has been released. It
// reports whether the item entered the queue.
func (e *Engine) Capture(ctx context.Context, item model.Item) (bool, error) {
	var added bool
	err := e.do(ctx, func(ctx context.Context) {
		added = e.queue.Add(item)
		if !added {
			return
		}
		LogCapture("captured", item)
		e.mirror(item)
	})
	return added, err
}

// PasteNext removes the oldest queued item.
func (e *Engine) PasteNext(ctx context.Context) (Paste, bool, error) {
	var (
		res Paste
		ok  bool
	)
	err := e.do(ctx, func(ctx context.Context) {
		var it model.Item
		if it, ok = e.queue.PasteNext(); ok {
			res = Paste{Content: it.Content, Items: []model.Item{it}}
			e.markPasted(res.Items)
		}
	})
	return res, ok, err
}

// PasteAll empties the queue into one newline-joined paste.
func (e *Engine) PasteAll(ctx context.Context) (Paste, bool, error) {
	var (
		res Paste
		ok  bool
	)
	err := e.do(ctx, func(ctx context.Context) {
		if res.Content, res.Items, ok = e.queue.PasteAll(); ok {
			e.markPasted(res.Items)
		}
	})
	return res, ok, err
}

// PasteSelected pastes the given items in queue order. The removal can be
// undone with Undo.
func (e *Engine) PasteSelected(ctx context.Context, ids []string) (Paste, bool, error) {
	var (
		res Paste
		ok  bool
	)
	err := e.do(ctx, func(ctx context.Context) {
		if res.Content, res.Items, ok = e.queue.PasteItems(ids); ok {
			e.markPasted(res.Items)
		}
	})
	return res, ok, err
}

// Remove discards queued items without pasting them.
func (e *Engine) Remove(ctx context.Context, ids []string) ([]model.Item, error) {
	var removed []model.Item
	err := e.do(ctx, func(context.Context) {
		removed = e.queue.RemoveItems(ids, false)
	})
	return removed, err
}

// RemoveAt discards the queued item at index.
func (e *Engine) RemoveAt(ctx context.Context, index int) error {
	return e.do(ctx, func(context.Context) { e.queue.RemoveAt(index) })
}

// Undo puts the items of the last selected paste back at the tail of the
// queue and records them again.
func (e *Engine) Undo(ctx context.Context) ([]model.Item, error) {
	var restored []model.Item
	err := e.do(ctx, func(context.Context) {
		restored = e.queue.UndoLastPaste()
		for _, it := range restored {
			e.mirror(it)
		}
	})
	return restored, err
}

func (e *Engine) Move(ctx context.Context, from, to int) error {
	return e.do(ctx, func(context.Context) { e.queue.MoveItem(from, to) })
}

func (e *Engine) MoveToTop(ctx context.Context, id string) error {
	return e.do(ctx, func(context.Context) { e.queue.MoveToTop(id) })
}

func (e *Engine) Reverse(ctx context.Context) error {
	return e.do(ctx, func(context.Context) { e.queue.ReverseQueue() })
}

func (e *Engine) ClearQueue(ctx context.Context) error {
	return e.do(ctx, func(context.Context) { e.queue.Clear() })
}

// Queue returns the working queue, oldest first.
func (e *Engine) Queue(ctx context.Context) (QueueState, error) {
	var st QueueState
	err := e.do(ctx, func(context.Context) {
		st = QueueState{Items: e.queue.Items(), CanUndo: e.queue.CanUndo()}
	})
	return st, err
}

// History reloads the first history page under query and returns it.
func (e *Engine) History(ctx context.Context, query string) (HistoryPage, error) {
	var page HistoryPage
	err := e.do(ctx, func(ctx context.Context) {
		e.history.ApplySearch(ctx, query)
		page = e.page()
	})
	return page, err
}

// LoadMore fetches up to n further pages and returns the whole window.
func (e *Engine) LoadMore(ctx context.Context, n int) (HistoryPage, error) {
	var page HistoryPage
	err := e.do(ctx, func(ctx context.Context) {
		for range max(n, 1) {
			if !e.history.CanLoadMore() {
				break
			}
			e.history.LoadMore(ctx)
		}
		page = e.page()
	})
	return page, err
}

// Search updates the query with a debounced reload, the way a search field
// does while the user types.
func (e *Engine) Search(ctx context.Context, query string) error {
	return e.do(ctx, func(ctx context.Context) { e.history.UpdateSearch(ctx, query) })
}

// Window returns the loaded history window without reloading it.
func (e *Engine) Window(ctx context.Context) (HistoryPage, error) {
	var page HistoryPage
	err := e.do(ctx, func(context.Context) { page = e.page() })
	return page, err
}

func (e *Engine) Pinned(ctx context.Context) ([]history.Entry, error) {
	var out []history.Entry
	err := e.do(ctx, func(context.Context) { out = e.history.Pinned() })
	return out, err
}

func (e *Engine) Favorites(ctx context.Context) ([]history.Entry, error) {
	var out []history.Entry
	err := e.do(ctx, func(context.Context) { out = e.history.Favorites() })
	return out, err
}

// Recent returns the most recently pasted entries.
func (e *Engine) Recent(ctx context.Context) ([]history.Entry, error) {
	var out []history.Entry
	err := e.do(ctx, func(ctx context.Context) { out = e.history.RecentlyPasted(ctx) })
	return out, err
}

// DeleteHistory removes one entry from history. The queue is not touched.
func (e *Engine) DeleteHistory(ctx context.Context, id string) error {
	var opErr error
	err := e.do(ctx, func(ctx context.Context) { opErr = e.history.Remove(ctx, id) })
	return first(err, opErr)
}

// ClearHistory deletes the whole history log.
func (e *Engine) ClearHistory(ctx context.Context) error {
	var opErr error
	err := e.do(ctx, func(ctx context.Context) { opErr = e.history.ClearAll(ctx) })
	return first(err, opErr)
}

// SetPinned updates the durable entry first and then the queued copy. An
// item that only lives in the queue is still updated there.
func (e *Engine) SetPinned(ctx context.Context, id string, pinned bool) error {
	return e.setFlag(ctx, id,
		func(ctx context.Context) error { return e.history.SetPinned(ctx, id, pinned) },
		func() { e.queue.UpdatePinned(id, pinned) },
	)
}

func (e *Engine) SetFavorite(ctx context.Context, id string, favorite bool) error {
	return e.setFlag(ctx, id,
		func(ctx context.Context) error { return e.history.SetFavorite(ctx, id, favorite) },
		func() { e.queue.UpdateFavorite(id, favorite) },
	)
}

// SetCategory assigns a category by id; an empty categoryID clears it.
func (e *Engine) SetCategory(ctx context.Context, id, categoryID string) error {
	var opErr error
	err := e.do(ctx, func(ctx context.Context) {
		if categoryID != "" {
			if _, ok := e.categories.Lookup(categoryID); !ok {
				opErr = apperr.New(apperr.NotFound, "category "+categoryID)
				return
			}
		}
		opErr = e.applyFlag(ctx, id,
			func(ctx context.Context) error { return e.history.SetCategory(ctx, id, categoryID) },
			func() { e.queue.UpdateCategory(id, categoryID) },
		)
	})
	return first(err, opErr)
}

func (e *Engine) Categories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := e.do(ctx, func(context.Context) { out = e.categories.Categories() })
	return out, err
}

func (e *Engine) CreateCategory(ctx context.Context, name, colorHex string) (model.Category, error) {
	var (
		c     model.Category
		opErr error
	)
	err := e.do(ctx, func(ctx context.Context) { c, opErr = e.categories.Create(ctx, name, colorHex) })
	return c, first(err, opErr)
}

func (e *Engine) DeleteCategory(ctx context.Context, id string) error {
	var opErr error
	err := e.do(ctx, func(ctx context.Context) { opErr = e.categories.Delete(ctx, id) })
	return first(err, opErr)
}

func (e *Engine) Status(ctx context.Context) (Status, error) {
	var st Status
	err := e.do(ctx, func(context.Context) {
		st = Status{
			QueueLen:   e.queue.Len(),
			CanUndo:    e.queue.CanUndo(),
			Loaded:     len(e.history.Items()),
			Pinned:     len(e.history.Pinned()),
			Favorites:  len(e.history.Favorites()),
			Categories: len(e.categories.Categories()),
			Query:      e.history.Query(),
			Settings:   e.Settings(),
		}
	})
	return st, err
}

func (e *Engine) setFlag(ctx context.Context, id string, durable func(context.Context) error, queued func()) error {
	var opErr error
	err := e.do(ctx, func(ctx context.Context) { opErr = e.applyFlag(ctx, id, durable, queued) })
	return first(err, opErr)
}

// applyFlag skips the queue update when the durable write failed for any
// reason other than the entry being absent from history.
func (e *Engine) applyFlag(ctx context.Context, id string, durable func(context.Context) error, queued func()) error {
	err := durable(ctx)
	if err != nil && !apperr.Is(err, apperr.NotFound) {
		return err
	}
	if _, inQueue := e.queue.Get(id); inQueue {
		queued()
		return nil
	}
	return err
}

func (e *Engine) mirror(item model.Item) {
	if !e.Settings().HistoryEnabled {
		return
	}
	e.deferToOwner(func(ctx context.Context) {
		if err := e.history.Record(ctx, item); err != nil {
			slog.Warn("history mirror failed", "id", item.ID, "err", err)
		}
	})
}

func (e *Engine) markPasted(items []model.Item) {
	if !e.Settings().HistoryEnabled {
		return
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	e.deferToOwner(func(ctx context.Context) { e.history.MarkAsPasted(ctx, ids) })
}

func (e *Engine) page() HistoryPage {
	return HistoryPage{
		Entries:     e.history.Items(),
		CanLoadMore: e.history.CanLoadMore(),
		Query:       e.history.Query(),
	}
}

func first(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
