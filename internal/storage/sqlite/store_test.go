package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.klb.dev/clipq/internal/apperr"
	"go.klb.dev/clipq/internal/history"
	"go.klb.dev/clipq/internal/model"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "clipq.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func entry(id, content string, at time.Time) history.Entry {
	return history.Entry{ID: id, Content: content, Timestamp: at, Type: model.TypeText}
}

func TestInsertFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	e := entry("a", "hello", base)
	e.SourceAppName = "Terminal"
	e.CategoryID = "work"
	e.IsFavorite = true
	if err := s.Insert(ctx, e, entry("b", "world", base.Add(time.Minute))); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.Fetch(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("expected newest first, got %+v", got)
	}
	a := got[1]
	if a.SourceAppName != "Terminal" || a.CategoryID != "work" || !a.IsFavorite || a.IsPinned {
		t.Fatalf("fields not preserved: %+v", a)
	}
	if !a.Timestamp.Equal(base) || a.Pasted() {
		t.Fatalf("unexpected times: %+v", a)
	}

	if n, err := s.Count(ctx); err != nil || n != 2 {
		t.Fatalf("count = %d, %v", n, err)
	}
}

func TestInsertDuplicate(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	if err := s.Insert(ctx, entry("a", "x", base)); err != nil {
		t.Fatal(err)
	}
	err := s.Insert(ctx, entry("a", "y", base))
	if !apperr.Is(err, apperr.Duplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestFetchFilters(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	pinned := entry("p", "Pinned Café", base)
	pinned.IsPinned = true
	pasted := entry("q", "50% off", base.Add(2*time.Hour))
	pasted.LastPastedAt = base.Add(3 * time.Hour)
	if err := s.Insert(ctx, pinned, pasted, entry("o", "old note", base), entry("n", "new note", base.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter history.Filter
		want   []string
	}{
		{"pinned", history.Filter{Pinned: true}, []string{"p"}},
		{"unpinned before", history.Filter{Unpinned: true, Before: base.Add(time.Minute)}, []string{"o"}},
		{"search folds", history.Filter{Search: "CAFE"}, []string{"p"}},
		{"search literal percent", history.Filter{Search: "0%"}, []string{"q"}},
		{"search no wildcard leak", history.Filter{Search: "%"}, []string{"q"}},
		{"pasted", history.Filter{Pasted: true, Order: history.ByLastPasted}, []string{"q"}},
		{"by id", history.Filter{ID: "n"}, []string{"n"}},
		{"window", history.Filter{Offset: 1, Limit: 2}, []string{"n", "o"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Fetch(ctx, tt.filter)
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %v", len(got), tt.want)
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Fatalf("entry %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	e := entry("a", "x", base)
	if err := s.Insert(ctx, e, entry("b", "y", base)); err != nil {
		t.Fatal(err)
	}

	e.IsPinned = true
	e.LastPastedAt = base.Add(time.Hour)
	if err := s.Update(ctx, e); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.Fetch(ctx, history.Filter{ID: "a"})
	if err != nil || len(got) != 1 {
		t.Fatalf("fetch: %v", err)
	}
	if !got[0].IsPinned || !got[0].LastPastedAt.Equal(e.LastPastedAt) {
		t.Fatalf("update not stored: %+v", got[0])
	}

	if err := s.Update(ctx, entry("missing", "z", base)); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := s.Delete(ctx, "a", "b", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Fatalf("expected empty table, got %d", n)
	}
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	for _, c := range []model.Category{
		{ID: "2", Name: "work", ColorHex: "#FF0000"},
		{ID: "1", Name: "home", ColorHex: "#00FF00"},
	} {
		if err := s.InsertCategory(ctx, c); err != nil {
			t.Fatalf("insert category: %v", err)
		}
	}

	list, err := s.ListCategories(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "home" {
		t.Fatalf("expected sorted categories, got %+v", list)
	}

	if err := s.DeleteCategory(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteCategory(ctx, "1"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHistoryStoreOnSQLite(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	now := base.AddDate(0, 0, 30)
	h := history.New(s, history.Options{
		PageSize:  2,
		BatchSize: 2,
		Retention: func() int { return 7 },
		Now:       func() time.Time { return now },
	})

	for i, c := range []string{"a", "b", "c"} {
		it := model.NewItem(c, model.TypeText)
		it.Timestamp = base.Add(time.Duration(i) * time.Second)
		if i == 0 {
			it.IsPinned = true
		}
		if err := h.Record(ctx, it); err != nil {
			t.Fatal(err)
		}
	}
	for _, c := range []string{"d", "e", "f"} {
		it := model.NewItem(c, model.TypeText)
		it.Timestamp = now.Add(-time.Hour)
		if err := h.Record(ctx, it); err != nil {
			t.Fatal(err)
		}
	}

	h.LoadInitial(ctx)
	if n, _ := s.Count(ctx); n != 4 {
		t.Fatalf("expected expired unpinned entries pruned, got %d", n)
	}
	if len(h.Items()) != 2 || !h.CanLoadMore() {
		t.Fatalf("expected a full first page")
	}
	h.LoadMore(ctx)
	h.LoadMore(ctx)
	items := h.Items()
	if len(items) != 4 || h.CanLoadMore() {
		t.Fatalf("expected all 4 entries, got %d", len(items))
	}
	if items[3].Content != "a" || !items[3].IsPinned {
		t.Fatalf("pinned entry should be oldest: %+v", items[3])
	}
}
