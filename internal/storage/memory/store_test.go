package memory

import (
	"context"
	"testing"
	"time"

	"go.klb.dev/clipq/internal/apperr"
	"go.klb.dev/clipq/internal/history"
)

func TestFetchOrderAndWindow(t *testing.T) {
	s := New()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	// A cancelled context does not matter to the in-process store.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Insert(ctx,
		history.Entry{ID: "a", Content: "old", Timestamp: base},
		history.Entry{ID: "b", Content: "new", Timestamp: base.Add(time.Minute)},
		history.Entry{ID: "c", Content: "pasted", Timestamp: base.Add(-time.Minute), LastPastedAt: base.Add(time.Hour)},
	)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Fetch(ctx, history.Filter{Limit: 2})
	if err != nil || len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("unexpected page %+v, %v", got, err)
	}
	got, _ = s.Fetch(ctx, history.Filter{Offset: 2})
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("unexpected second page %+v", got)
	}
	got, _ = s.Fetch(ctx, history.Filter{Pasted: true, Order: history.ByLastPasted})
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("unexpected pasted view %+v", got)
	}
	if got, _ := s.Fetch(ctx, history.Filter{Offset: 9}); got != nil {
		t.Fatalf("offset past the end should be empty")
	}
}

func TestInsertUpdateErrors(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Insert(ctx, history.Entry{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Insert(ctx, history.Entry{ID: "a"}); !apperr.Is(err, apperr.Duplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if err := s.Update(ctx, history.Entry{ID: "missing"}); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Delete(ctx, "a", "missing"); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Fatalf("expected empty store, got %d", n)
	}
}
