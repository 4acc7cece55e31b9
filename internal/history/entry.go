// Package history keeps the durable log of every capture: a newest-first
// paged window, fully loaded pinned and favorite indices, debounced search and
// age-based pruning.
package history

import (
	"context"
	"time"

	"go.klb.dev/clipq/internal/model"
	"go.klb.dev/clipq/internal/textfold"
)

// Entry is the persisted counterpart of a model.Item. A mirrored entry keeps
// the item's ID.
type Entry struct {
	ID            string     `json:"id"`
	Content       string     `json:"content"`
	Timestamp     time.Time  `json:"timestamp"`
	Type          model.Type `json:"type"`
	SourceAppID   string     `json:"source_app_id,omitempty"`
	SourceAppName string     `json:"source_app_name,omitempty"`
	CategoryID    string     `json:"category_id,omitempty"`
	IsPinned      bool       `json:"is_pinned,omitempty"`
	IsFavorite    bool       `json:"is_favorite,omitempty"`
	ImagePath     string     `json:"image_path,omitempty"`
	LastPastedAt  time.Time  `json:"last_pasted_at,omitzero"`
}

// EntryFromItem mirrors it into a fresh entry.
func EntryFromItem(it model.Item) Entry {
	return Entry{
		ID:            it.ID,
		Content:       it.Content,
		Timestamp:     it.Timestamp,
		Type:          it.Type,
		SourceAppID:   it.SourceAppID,
		SourceAppName: it.SourceAppName,
		CategoryID:    it.CategoryID,
		IsPinned:      it.IsPinned,
		IsFavorite:    it.IsFavorite,
		ImagePath:     it.ImagePath,
	}
}

// Item converts e back into a queue item with the same ID.
func (e Entry) Item() model.Item {
	return model.Item{
		ID:            e.ID,
		Content:       e.Content,
		Timestamp:     e.Timestamp,
		Type:          e.Type,
		SourceAppID:   e.SourceAppID,
		SourceAppName: e.SourceAppName,
		CategoryID:    e.CategoryID,
		IsPinned:      e.IsPinned,
		IsFavorite:    e.IsFavorite,
		ImagePath:     e.ImagePath,
	}
}

// Pasted reports whether the entry has ever been pasted.
func (e Entry) Pasted() bool { return !e.LastPastedAt.IsZero() }

// Order selects the sort key of a fetch. Both orders are descending.
type Order int

const (
	ByTimestamp Order = iota
	ByLastPasted
)

// Filter is the predicate, sort and window of a fetch. Zero fields do not
// constrain the result.
type Filter struct {
	ID       string
	Search   string
	Pinned   bool
	Favorite bool
	Unpinned bool
	Pasted   bool
	Before   time.Time
	Order    Order
	Offset   int
	Limit    int
}

// Match reports whether e satisfies the predicate part of f.
func (f Filter) Match(e Entry) bool {
	switch {
	case f.ID != "" && e.ID != f.ID:
		return false
	case f.Pinned && !e.IsPinned:
		return false
	case f.Unpinned && e.IsPinned:
		return false
	case f.Favorite && !e.IsFavorite:
		return false
	case f.Pasted && !e.Pasted():
		return false
	case !f.Before.IsZero() && !e.Timestamp.Before(f.Before):
		return false
	case f.Search != "" && !textfold.Contains(e.Content, f.Search):
		return false
	}
	return true
}

// Records is the durable store behind a Store. Insert of an existing ID fails
// with apperr.Duplicate; Update of a missing ID fails with apperr.NotFound.
type Records interface {
	Insert(ctx context.Context, entries ...Entry) error
	Update(ctx context.Context, e Entry) error
	Fetch(ctx context.Context, f Filter) ([]Entry, error)
	Delete(ctx context.Context, ids ...string) error
	Count(ctx context.Context) (int, error)
}
