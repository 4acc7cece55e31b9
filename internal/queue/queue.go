// Package queue implements the working queue: the bounded, capture-ordered
// set of clips that have not been pasted or discarded yet.
//
// Index 0 is the oldest item and the next one to paste. A Queue is not safe
// for concurrent use; it is owned by a single goroutine (see package engine).
package queue

import (
	"log/slog"
	"slices"
	"strings"

	"go.klb.dev/clipq/internal/model"
)

// DefaultMaxSize applies when the policy carries no positive limit.
const DefaultMaxSize = 50

// Policy holds the preferences consulted on every Add.
type Policy struct {
	MaxSize        int
	SkipDuplicates bool
}

// Snapshotter persists the whole queue. Saves are best effort; a failed load
// starts the queue empty.
type Snapshotter interface {
	SaveSnapshot(items []model.Item) error
	LoadSnapshot() ([]model.Item, error)
}

// Queue is the in-memory working queue.
type Queue struct {
	items  []model.Item
	undo   []model.Item
	policy func() Policy
	snap   Snapshotter

	// lastPasted suppresses the next Add carrying exactly this content.
	lastPasted    string
	hasLastPasted bool
}

// New restores the queue from snap. policy is read at call time; a nil policy
// means DefaultMaxSize without duplicate skipping.
func New(snap Snapshotter, policy func() Policy) *Queue {
	if policy == nil {
		policy = func() Policy { return Policy{MaxSize: DefaultMaxSize} }
	}
	q := &Queue{policy: policy, snap: snap}
	q.load()
	return q
}

// Items returns a copy of the queue, oldest first.
func (q *Queue) Items() []model.Item {
	return slices.Clone(q.items)
}

func (q *Queue) Len() int { return len(q.items) }

// CanUndo reports whether UndoLastPaste would restore anything.
func (q *Queue) CanUndo() bool { return len(q.undo) > 0 }

// Get returns the item with id.
func (q *Queue) Get(id string) (model.Item, bool) {
	if i := q.index(id); i >= 0 {
		return q.items[i], true
	}
	return model.Item{}, false
}

// Add appends item at the tail and reports whether it entered the queue.
// Content matching the last pasted value is dropped once; with duplicate
// skipping enabled, content already queued is dropped as well.
func (q *Queue) Add(item model.Item) bool {
	if q.hasLastPasted && q.lastPasted == item.Content {
		q.lastPasted, q.hasLastPasted = "", false
		slog.Debug("queue: suppressed pasted content", "id", item.ID)
		return false
	}

	p := q.policy()
	if p.SkipDuplicates && slices.ContainsFunc(q.items, func(it model.Item) bool {
		return it.Content == item.Content
	}) {
		slog.Debug("queue: skipped duplicate", "id", item.ID)
		return false
	}
	if q.index(item.ID) >= 0 {
		return false
	}

	q.items = append(q.items, item)
	q.evict(p.MaxSize)
	q.save()
	return true
}

// PasteNext removes and returns the oldest item.
func (q *Queue) PasteNext() (model.Item, bool) {
	if len(q.items) == 0 {
		return model.Item{}, false
	}
	it := q.items[0]
	q.items = slices.Delete(q.items, 0, 1)
	q.suppress(it.Content)
	q.save()
	return it, true
}

// PasteAll joins every item's content oldest first, empties the queue and
// returns the joined text together with the removed items.
func (q *Queue) PasteAll() (string, []model.Item, bool) {
	if len(q.items) == 0 {
		return "", nil, false
	}
	removed := q.items
	q.items = nil
	content := joinContent(removed)
	q.suppress(content)
	q.save()
	return content, removed, true
}

// PasteItems pastes the items with the given ids in queue order, removing
// them with undo support.
func (q *Queue) PasteItems(ids []string) (string, []model.Item, bool) {
	removed := q.RemoveItems(ids, true)
	if len(removed) == 0 {
		return "", nil, false
	}
	content := joinContent(removed)
	q.suppress(content)
	return content, removed, true
}

// RemoveItem drops the item with id.
func (q *Queue) RemoveItem(id string) {
	q.RemoveItems([]string{id}, false)
}

// RemoveAt drops the item at index.
func (q *Queue) RemoveAt(index int) {
	if index < 0 || index >= len(q.items) {
		return
	}
	q.items = slices.Delete(q.items, index, index+1)
	q.save()
}

// RemoveItems drops every item whose id is in ids and returns them in their
// former order. With saveToUndo the removed set replaces the undo stack.
func (q *Queue) RemoveItems(ids []string, saveToUndo bool) []model.Item {
	if len(ids) == 0 || len(q.items) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	var removed []model.Item
	kept := q.items[:0:0]
	for _, it := range q.items {
		if _, ok := set[it.ID]; ok {
			removed = append(removed, it)
			continue
		}
		kept = append(kept, it)
	}
	if len(removed) == 0 {
		return nil
	}
	q.items = kept
	if saveToUndo {
		q.undo = slices.Clone(removed)
	}
	q.save()
	return removed
}

// UndoLastPaste appends the undo stack to the tail and clears it. The
// restored items are returned so the caller can mirror them again.
func (q *Queue) UndoLastPaste() []model.Item {
	if len(q.undo) == 0 {
		return nil
	}
	restored := q.undo
	q.undo = nil
	for _, it := range restored {
		if q.index(it.ID) < 0 {
			q.items = append(q.items, it)
		}
	}
	q.evict(q.policy().MaxSize)
	q.save()
	return restored
}

// MoveItem moves the item at from to index to.
func (q *Queue) MoveItem(from, to int) {
	n := len(q.items)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return
	}
	it := q.items[from]
	q.items = slices.Delete(q.items, from, from+1)
	q.items = slices.Insert(q.items, to, it)
	q.save()
}

// MoveToTop makes the item with id the next one to paste.
func (q *Queue) MoveToTop(id string) {
	q.MoveItem(q.index(id), 0)
}

// ReverseQueue flips the paste order.
func (q *Queue) ReverseQueue() {
	if len(q.items) < 2 {
		return
	}
	slices.Reverse(q.items)
	q.save()
}

// Clear empties the queue. The undo stack and paste suppression are kept.
func (q *Queue) Clear() {
	if len(q.items) == 0 {
		return
	}
	q.items = nil
	q.save()
}

func (q *Queue) UpdateCategory(id, categoryID string) {
	q.replace(id, func(it model.Item) model.Item { return it.WithCategory(categoryID) })
}

func (q *Queue) UpdatePinned(id string, pinned bool) {
	q.replace(id, func(it model.Item) model.Item { return it.WithPinned(pinned) })
}

func (q *Queue) UpdateFavorite(id string, favorite bool) {
	q.replace(id, func(it model.Item) model.Item { return it.WithFavorite(favorite) })
}

func (q *Queue) replace(id string, fn func(model.Item) model.Item) {
	i := q.index(id)
	if i < 0 {
		return
	}
	q.items[i] = fn(q.items[i])
	q.save()
}

func (q *Queue) index(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(q.items, func(it model.Item) bool { return it.ID == id })
}

func (q *Queue) evict(limit int) {
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	for len(q.items) > limit {
		slog.Debug("queue: evicted oldest item", "id", q.items[0].ID, "limit", limit)
		q.items = slices.Delete(q.items, 0, 1)
	}
}

func (q *Queue) suppress(content string) {
	q.lastPasted, q.hasLastPasted = content, true
}

func (q *Queue) save() {
	if q.snap == nil {
		return
	}
	if err := q.snap.SaveSnapshot(q.items); err != nil {
		slog.Warn("queue: snapshot save failed", "items", len(q.items), "err", err)
	}
}

func (q *Queue) load() {
	if q.snap == nil {
		return
	}
	items, err := q.snap.LoadSnapshot()
	if err != nil {
		slog.Warn("queue: snapshot load failed, starting empty", "err", err)
		return
	}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.ID]; dup || it.ID == "" {
			continue
		}
		seen[it.ID] = struct{}{}
		q.items = append(q.items, it)
	}
	q.evict(q.policy().MaxSize)
}

func joinContent(items []model.Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Content
	}
	return strings.Join(parts, "\n")
}
