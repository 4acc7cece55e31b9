package sqlite

import (
	"time"

	"github.com/uptrace/bun"

	"go.klb.dev/clipq/internal/history"
	"go.klb.dev/clipq/internal/model"
	"go.klb.dev/clipq/internal/textfold"
)

// entryRow stores times as unix milliseconds so range predicates compare
// integers.
type entryRow struct {
	bun.BaseModel `bun:"table:history_entries"`

	ID            string `bun:"id,pk"`
	Content       string `bun:"content,notnull"`
	SearchKey     string `bun:"search_key,notnull"`
	CapturedAt    int64  `bun:"captured_at,notnull"`
	Type          string `bun:"type,notnull"`
	SourceAppID   string `bun:"source_app_id"`
	SourceAppName string `bun:"source_app_name"`
	CategoryID    string `bun:"category_id"`
	IsPinned      bool   `bun:"is_pinned,notnull,default:false"`
	IsFavorite    bool   `bun:"is_favorite,notnull,default:false"`
	ImagePath     string `bun:"image_path"`
	LastPastedAt  int64  `bun:"last_pasted_at,nullzero"`
}

type categoryRow struct {
	bun.BaseModel `bun:"table:categories"`

	ID       string `bun:"id,pk"`
	Name     string `bun:"name,notnull"`
	ColorHex string `bun:"color_hex,notnull"`
}

func toRow(e history.Entry) entryRow {
	r := entryRow{
		ID:            e.ID,
		Content:       e.Content,
		SearchKey:     textfold.Fold(e.Content),
		CapturedAt:    e.Timestamp.UnixMilli(),
		Type:          string(e.Type),
		SourceAppID:   e.SourceAppID,
		SourceAppName: e.SourceAppName,
		CategoryID:    e.CategoryID,
		IsPinned:      e.IsPinned,
		IsFavorite:    e.IsFavorite,
		ImagePath:     e.ImagePath,
	}
	if !e.LastPastedAt.IsZero() {
		r.LastPastedAt = e.LastPastedAt.UnixMilli()
	}
	return r
}

func (r entryRow) entry() history.Entry {
	e := history.Entry{
		ID:            r.ID,
		Content:       r.Content,
		Timestamp:     time.UnixMilli(r.CapturedAt),
		Type:          model.Type(r.Type),
		SourceAppID:   r.SourceAppID,
		SourceAppName: r.SourceAppName,
		CategoryID:    r.CategoryID,
		IsPinned:      r.IsPinned,
		IsFavorite:    r.IsFavorite,
		ImagePath:     r.ImagePath,
	}
	if r.LastPastedAt != 0 {
		e.LastPastedAt = time.UnixMilli(r.LastPastedAt)
	}
	return e
}
