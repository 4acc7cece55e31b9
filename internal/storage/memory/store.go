// Package memory is a process-local implementation of every persistence
// contract: history records, the queue snapshot and categories. It backs
// ephemeral daemons and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"go.klb.dev/clipq/internal/apperr"
	"go.klb.dev/clipq/internal/category"
	"go.klb.dev/clipq/internal/history"
	"go.klb.dev/clipq/internal/model"
	"go.klb.dev/clipq/internal/queue"
)

var (
	_ history.Records     = (*Store)(nil)
	_ queue.Snapshotter   = (*Store)(nil)
	_ category.Repository = (*Store)(nil)
)

type Store struct {
	mu         sync.RWMutex
	entries    map[string]history.Entry
	snapshot   []model.Item
	categories map[string]model.Category
}

func New() *Store {
	return &Store{
		entries:    make(map[string]history.Entry),
		categories: make(map[string]model.Category),
	}
}

func (s *Store) Insert(_ context.Context, entries ...history.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if _, ok := s.entries[e.ID]; ok {
			return apperr.New(apperr.Duplicate, "history entry "+e.ID)
		}
	}
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return nil
}

func (s *Store) Update(_ context.Context, e history.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[e.ID]; !ok {
		return apperr.New(apperr.NotFound, "history entry "+e.ID)
	}
	s.entries[e.ID] = e
	return nil
}

func (s *Store) Fetch(_ context.Context, f history.Filter) ([]history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []history.Entry
	for _, e := range s.entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b history.Entry) int {
		if f.Order == history.ByLastPasted {
			if c := b.LastPastedAt.Compare(a.LastPastedAt); c != 0 {
				return c
			}
		}
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Delete removes the given ids; unknown ids are ignored.
func (s *Store) Delete(_ context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *Store) SaveSnapshot(items []model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = slices.Clone(items)
	return nil
}

func (s *Store) LoadSnapshot() ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snapshot), nil
}

func (s *Store) ListCategories(_ context.Context, limit int) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b model.Category) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) InsertCategory(_ context.Context, c model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[c.ID]; ok {
		return apperr.New(apperr.Duplicate, "category "+c.ID)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return apperr.New(apperr.NotFound, "category "+id)
	}
	delete(s.categories, id)
	return nil
}
