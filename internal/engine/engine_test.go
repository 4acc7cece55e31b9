package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.klb.dev/clipq/internal/apperr"
	"go.klb.dev/clipq/internal/history"
	"go.klb.dev/clipq/internal/model"
	"go.klb.dev/clipq/internal/storage/memory"
)

func startEngine(t *testing.T, s Settings) (*Engine, *memory.Store) {
	t.Helper()
	store := memory.New()
	e := New(Config{
		Snapshot:   store,
		Records:    store,
		Categories: store,
		Settings:   s,
		History:    history.Options{Debounce: 10 * time.Millisecond},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return e, store
}

func capture(t *testing.T, e *Engine, content string) model.Item {
	t.Helper()
	it := model.NewItem(content, model.DetectType(content))
	if _, err := e.Capture(context.Background(), it); err != nil {
		t.Fatalf("capture: %v", err)
	}
	return it
}

func TestCaptureMirrorsIntoHistory(t *testing.T) {
	ctx := context.Background()
	e, store := startEngine(t, DefaultSettings())

	it := capture(t, e, "https://example.com")

	page, err := e.Window(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Entries) != 1 || page.Entries[0].ID != it.ID || page.Entries[0].Type != model.TypeURL {
		t.Fatalf("capture not mirrored: %+v", page.Entries)
	}
	snap, _ := store.LoadSnapshot()
	if len(snap) != 1 {
		t.Fatalf("queue snapshot not saved")
	}
}

func TestHistoryDisabledSkipsMirror(t *testing.T) {
	ctx := context.Background()
	s := DefaultSettings()
	s.HistoryEnabled = false
	e, store := startEngine(t, s)

	it := capture(t, e, "secret")
	if n, _ := store.Count(ctx); n != 0 {
		t.Fatalf("history should stay empty, got %d", n)
	}

	// Flags still apply to the queued copy.
	if err := e.SetPinned(ctx, it.ID, true); err != nil {
		t.Fatalf("pin queue-only item: %v", err)
	}
	st, _ := e.Queue(ctx)
	if !st.Items[0].IsPinned {
		t.Fatalf("queued copy should be pinned")
	}

	if err := e.SetPinned(ctx, "nowhere", true); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPasteRoundTrip(t *testing.T) {
	ctx := context.Background()
	e, _ := startEngine(t, DefaultSettings())

	a := capture(t, e, "a")
	capture(t, e, "b")

	p, ok, err := e.PasteNext(ctx)
	if err != nil || !ok || p.Content != "a" {
		t.Fatalf("paste next = %+v, %v, %v", p, ok, err)
	}

	// The paste comes back through the clipboard monitor and is dropped.
	added, _ := e.Capture(ctx, model.NewItem("a", model.TypeText))
	if added {
		t.Fatalf("echo of the pasted content must not re-enter the queue")
	}

	recent, err := e.Recent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ID != a.ID {
		t.Fatalf("expected pasted item in recent list, got %+v", recent)
	}

	all, ok, _ := e.PasteAll(ctx)
	if !ok || all.Content != "b" {
		t.Fatalf("paste all = %+v", all)
	}
	if _, ok, _ := e.PasteAll(ctx); ok {
		t.Fatalf("paste all on empty queue must be a no-op")
	}
}

func TestPasteSelectedAndUndo(t *testing.T) {
	ctx := context.Background()
	e, store := startEngine(t, DefaultSettings())

	a := capture(t, e, "a")
	capture(t, e, "b")
	c := capture(t, e, "c")

	p, ok, err := e.PasteSelected(ctx, []string{c.ID, a.ID})
	if err != nil || !ok || p.Content != "a\nc" {
		t.Fatalf("paste selected = %+v, %v, %v", p, ok, err)
	}

	restored, err := e.Undo(ctx)
	if err != nil || len(restored) != 2 {
		t.Fatalf("undo = %v, %v", restored, err)
	}
	st, _ := e.Queue(ctx)
	if len(st.Items) != 3 || st.Items[0].Content != "b" || st.Items[2].Content != "c" || st.CanUndo {
		t.Fatalf("unexpected queue after undo: %+v", st)
	}
	if n, _ := store.Count(ctx); n != 3 {
		t.Fatalf("re-mirroring must not duplicate history entries, got %d", n)
	}
}

func TestSettingsAreReadAtCallTime(t *testing.T) {
	ctx := context.Background()
	e, _ := startEngine(t, DefaultSettings())

	capture(t, e, "1")
	capture(t, e, "2")
	capture(t, e, "3")

	s := e.Settings()
	s.MaxQueueSize = 2
	s.SkipDuplicates = true
	e.UpdateSettings(s)

	capture(t, e, "4")
	capture(t, e, "4")
	st, _ := e.Queue(ctx)
	if len(st.Items) != 2 || st.Items[0].Content != "3" || st.Items[1].Content != "4" {
		t.Fatalf("unexpected queue %+v", st.Items)
	}
}

func TestDebouncedSearch(t *testing.T) {
	ctx := context.Background()
	e, _ := startEngine(t, DefaultSettings())

	capture(t, e, "apple pie")
	capture(t, e, "banana")

	if err := e.Search(ctx, "APPLE"); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		page, err := e.Window(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(page.Entries) == 1 && page.Entries[0].Content == "apple pie" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("search never applied: %+v", page)
		}
		time.Sleep(5 * time.Millisecond)
	}

	page, err := e.History(ctx, "")
	if err != nil || len(page.Entries) != 2 {
		t.Fatalf("history reset = %+v, %v", page, err)
	}
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	e, _ := startEngine(t, DefaultSettings())
	it := capture(t, e, "x")

	if err := e.SetCategory(ctx, it.ID, "unknown"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected unknown category to be rejected, got %v", err)
	}
	c, err := e.CreateCategory(ctx, "work", "#336699")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.SetCategory(ctx, it.ID, c.ID); err != nil {
		t.Fatalf("set category: %v", err)
	}
	page, _ := e.Window(ctx)
	st, _ := e.Queue(ctx)
	if page.Entries[0].CategoryID != c.ID || st.Items[0].CategoryID != c.ID {
		t.Fatalf("category not applied to both copies")
	}
}

func TestOperationsAfterStop(t *testing.T) {
	e := New(Config{Records: memory.New(), Categories: memory.New(), Settings: DefaultSettings()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("run = %v", err)
	}
	if _, err := e.Queue(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}
