// Package model defines the captured clipboard item shared by the working
// queue, the history log and the control channel.
package model

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Type classifies captured content. It is a hint, not a format guarantee.
type Type string

const (
	TypeText  Type = "text"
	TypeURL   Type = "url"
	TypeImage Type = "image"
	TypeOther Type = "other"
)

// Item is one captured clip. Items are values: flag and category changes go
// through the With* helpers, which return a copy carrying the same ID.
type Item struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	Timestamp     time.Time `json:"timestamp"`
	Type          Type      `json:"type"`
	SourceAppID   string    `json:"source_app_id,omitempty"`
	SourceAppName string    `json:"source_app_name,omitempty"`
	CategoryID    string    `json:"category_id,omitempty"`
	IsPinned      bool      `json:"is_pinned,omitempty"`
	IsFavorite    bool      `json:"is_favorite,omitempty"`
	ImagePath     string    `json:"image_path,omitempty"`
}

// NewItem stamps a fresh ID and capture time on content.
func NewItem(content string, typ Type) Item {
	if typ == "" {
		typ = TypeText
	}
	return Item{
		ID:        uuid.NewString(),
		Content:   content,
		Timestamp: time.Now(),
		Type:      typ,
	}
}

// WithSource returns a copy carrying the frontmost application at capture time.
func (it Item) WithSource(appID, appName string) Item {
	it.SourceAppID = appID
	it.SourceAppName = appName
	return it
}

func (it Item) WithPinned(pinned bool) Item {
	it.IsPinned = pinned
	return it
}

func (it Item) WithFavorite(favorite bool) Item {
	it.IsFavorite = favorite
	return it
}

func (it Item) WithCategory(categoryID string) Item {
	it.CategoryID = categoryID
	return it
}

const (
	previewLen      = 100
	shortPreviewLen = 50
)

// Preview returns the content truncated to 100 runes.
func (it Item) Preview() string {
	return truncate(it.Content, previewLen)
}

// ShortPreview returns a single-line preview of at most 50 runes.
func (it Item) ShortPreview() string {
	return truncate(strings.ReplaceAll(it.Content, "\n", " "), shortPreviewLen)
}

// Age renders the capture time relative to now, e.g. "3 minutes ago".
func (it Item) Age(now time.Time) string {
	return humanize.RelTime(it.Timestamp, now, "ago", "from now")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
