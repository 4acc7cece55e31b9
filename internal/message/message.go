// Package message defines the clipq control protocol.
//
// A client sends one Request and reads one Response per exchange. Both travel
// as newline-delimited JSON (see package wire); image bytes are base64-encoded
// by encoding/json so that binary content is safe to embed.
package message

import (
	"errors"

	"go.klb.dev/clipq/internal/apperr"
	"go.klb.dev/clipq/internal/engine"
	"go.klb.dev/clipq/internal/history"
	"go.klb.dev/clipq/internal/model"
)

// Op identifies the operation a Request asks for.
type Op string

const (
	OpPing   Op = "PING"
	OpStatus Op = "STATUS"

	// Working queue
	OpAdd           Op = "ADD"
	OpQueue         Op = "QUEUE"
	OpPasteNext     Op = "PASTE_NEXT"
	OpPasteAll      Op = "PASTE_ALL"
	OpPasteSelected Op = "PASTE_SELECTED"
	OpRemove        Op = "REMOVE"
	OpRemoveAt      Op = "REMOVE_AT"
	OpUndo          Op = "UNDO"
	OpMove          Op = "MOVE"
	OpMoveToTop     Op = "MOVE_TO_TOP"
	OpReverse       Op = "REVERSE"
	OpClear         Op = "CLEAR"

	// History
	OpHistory       Op = "HISTORY"
	OpLoadMore      Op = "LOAD_MORE"
	OpSearch        Op = "SEARCH"
	OpWindow        Op = "WINDOW"
	OpPinned        Op = "PINNED"
	OpFavorites     Op = "FAVORITES"
	OpRecent        Op = "RECENT"
	OpHistoryRemove Op = "HISTORY_REMOVE"
	OpHistoryClear  Op = "HISTORY_CLEAR"

	// Flags and categories, applied to history and queue alike
	OpPin            Op = "PIN"
	OpFavorite       Op = "FAVORITE"
	OpSetCategory    Op = "SET_CATEGORY"
	OpCategories     Op = "CATEGORIES"
	OpCategoryAdd    Op = "CATEGORY_ADD"
	OpCategoryRemove Op = "CATEGORY_REMOVE"
)

// Request is the client-to-daemon envelope. Only the fields an Op needs are
// set.
type Request struct {
	Op Op `json:"op"`

	// ADD
	Content    string     `json:"content,omitempty"`
	Type       model.Type `json:"type,omitempty"`
	Image      []byte     `json:"image,omitempty"` // PNG
	SourceApp  string     `json:"source_app,omitempty"`
	CategoryID string     `json:"category_id,omitempty"`

	// Item addressing
	ID    string   `json:"id,omitempty"`
	IDs   []string `json:"ids,omitempty"`
	Index int      `json:"index,omitempty"`
	From  int      `json:"from,omitempty"`
	To    int      `json:"to,omitempty"`

	// PIN / FAVORITE
	Value bool `json:"value,omitempty"`

	// HISTORY / SEARCH / LOAD_MORE
	Query string `json:"query,omitempty"`
	Pages int    `json:"pages,omitempty"`

	// CATEGORY_ADD
	Name  string `json:"name,omitempty"`
	Color string `json:"color,omitempty"`

	// PASTE_*: also place the result on the daemon's clipboard.
	Place bool `json:"place,omitempty"`
}

// Response is the daemon-to-client envelope.
type Response struct {
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
	Code  apperr.Code `json:"code,omitempty"`

	Added   bool         `json:"added,omitempty"`
	Content string       `json:"content,omitempty"`
	Items   []model.Item `json:"items,omitempty"`
	CanUndo bool         `json:"can_undo,omitempty"`
	Placed  bool         `json:"placed,omitempty"`

	Entries     []history.Entry `json:"entries,omitempty"`
	CanLoadMore bool            `json:"can_load_more,omitempty"`
	Query       string          `json:"query,omitempty"`

	Categories []model.Category `json:"categories,omitempty"`
	Category   *model.Category  `json:"category,omitempty"`

	Status *engine.Status `json:"status,omitempty"`
}

// Fail builds an error Response, keeping the error class when there is one.
func Fail(err error) *Response {
	r := &Response{Error: err.Error(), Code: apperr.Internal}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		r.Code = ae.Code
	}
	return r
}

// Err turns an error Response back into an error on the client side.
func (r *Response) Err() error {
	if r.OK {
		return nil
	}
	return apperr.New(r.Code, r.Error)
}
