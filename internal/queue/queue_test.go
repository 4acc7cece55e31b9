package queue

import (
	"errors"
	"slices"
	"testing"

	"go.klb.dev/clipq/internal/model"
)

type fakeSnap struct {
	saved   []model.Item
	saves   int
	load    []model.Item
	loadErr error
	saveErr error
}

func (f *fakeSnap) SaveSnapshot(items []model.Item) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = slices.Clone(items)
	return nil
}

func (f *fakeSnap) LoadSnapshot() ([]model.Item, error) {
	return f.load, f.loadErr
}

func fixed(p Policy) func() Policy { return func() Policy { return p } }

func contents(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Content
	}
	return out
}

func addAll(q *Queue, texts ...string) []model.Item {
	items := make([]model.Item, 0, len(texts))
	for _, s := range texts {
		it := model.NewItem(s, model.TypeText)
		q.Add(it)
		items = append(items, it)
	}
	return items
}

func TestFIFOOrder(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 10}))
	addAll(q, "one", "two", "three")

	for _, want := range []string{"one", "two", "three"} {
		it, ok := q.PasteNext()
		if !ok {
			t.Fatalf("expected item %q", want)
		}
		if it.Content != want {
			t.Fatalf("expected %q, got %q", want, it.Content)
		}
	}
	if _, ok := q.PasteNext(); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestBoundedSizeEvictsFront(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 3}))
	addAll(q, "a", "b", "c", "d")

	if got := contents(q.Items()); !slices.Equal(got, []string{"b", "c", "d"}) {
		t.Fatalf("unexpected queue %v", got)
	}

	it, ok := q.PasteNext()
	if !ok || it.Content != "b" {
		t.Fatalf("expected b, got %q", it.Content)
	}
	if got := contents(q.Items()); !slices.Equal(got, []string{"c", "d"}) {
		t.Fatalf("unexpected queue %v", got)
	}
}

func TestPolicyReadAtCallTime(t *testing.T) {
	limit := 5
	q := New(nil, func() Policy { return Policy{MaxSize: limit} })
	addAll(q, "1", "2", "3", "4")

	limit = 2
	addAll(q, "5")
	if got := contents(q.Items()); !slices.Equal(got, []string{"4", "5"}) {
		t.Fatalf("unexpected queue %v", got)
	}
}

func TestAntiEchoIsSingleUse(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 10}))
	addAll(q, "x")

	pasted, _ := q.PasteNext()
	if q.Add(model.NewItem(pasted.Content, model.TypeText)) {
		t.Fatalf("expected echo of pasted content to be dropped")
	}
	if !q.Add(model.NewItem(pasted.Content, model.TypeText)) {
		t.Fatalf("expected second identical add to succeed")
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 item, got %d", q.Len())
	}
}

func TestAntiEchoSurvivesUnrelatedAdds(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 10}))
	addAll(q, "x")
	q.PasteNext()

	if !q.Add(model.NewItem("other", model.TypeText)) {
		t.Fatalf("unrelated content must be added")
	}
	if q.Add(model.NewItem("x", model.TypeText)) {
		t.Fatalf("suppression should still be armed")
	}
}

func TestSkipDuplicates(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 10, SkipDuplicates: true}))
	first := addAll(q, "abc", "def")[0]

	if q.Add(model.NewItem("abc", model.TypeText)) {
		t.Fatalf("duplicate content should be skipped")
	}
	items := q.Items()
	if got := contents(items); !slices.Equal(got, []string{"abc", "def"}) {
		t.Fatalf("unexpected queue %v", got)
	}
	if items[0].ID != first.ID {
		t.Fatalf("first occurrence must stay in place")
	}
}

func TestDuplicatesAllowedByDefault(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 10}))
	addAll(q, "abc", "abc")
	if q.Len() != 2 {
		t.Fatalf("expected duplicates to be kept, got %d", q.Len())
	}
}

func TestPasteAll(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 10}))
	addAll(q, "x", "y")

	content, removed, ok := q.PasteAll()
	if !ok || content != "x\ny" {
		t.Fatalf("unexpected paste all %q", content)
	}
	if len(removed) != 2 || q.Len() != 0 {
		t.Fatalf("expected queue cleared, removed %d left %d", len(removed), q.Len())
	}
	if q.Add(model.NewItem("x\ny", model.TypeText)) {
		t.Fatalf("joined content should be suppressed once")
	}
}

func TestPasteAllEmptyKeepsSuppression(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 10}))
	addAll(q, "x")
	q.PasteNext()

	if _, _, ok := q.PasteAll(); ok {
		t.Fatalf("expected no-op on empty queue")
	}
	if q.Add(model.NewItem("x", model.TypeText)) {
		t.Fatalf("previous suppression must be unchanged")
	}
}

func TestUndoRestoresContentNotPosition(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 10}))
	items := addAll(q, "A", "B", "C")

	removed := q.RemoveItems([]string{items[1].ID, items[0].ID}, true)
	if got := contents(removed); !slices.Equal(got, []string{"A", "B"}) {
		t.Fatalf("removed items must keep queue order, got %v", got)
	}
	addAll(q, "D")

	restored := q.UndoLastPaste()
	if len(restored) != 2 {
		t.Fatalf("expected 2 restored items")
	}
	if got := contents(q.Items()); !slices.Equal(got, []string{"C", "D", "A", "B"}) {
		t.Fatalf("unexpected queue after undo %v", got)
	}
	if q.CanUndo() {
		t.Fatalf("undo stack should be cleared")
	}
	if q.UndoLastPaste() != nil {
		t.Fatalf("second undo should be a no-op")
	}
}

func TestUndoStackIsReplaced(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 10}))
	items := addAll(q, "A", "B", "C")

	q.RemoveItems([]string{items[0].ID}, true)
	q.RemoveItems([]string{items[1].ID}, true)
	q.RemoveItems([]string{items[2].ID}, false)

	restored := q.UndoLastPaste()
	if got := contents(restored); !slices.Equal(got, []string{"B"}) {
		t.Fatalf("only the latest saved removal is undoable, got %v", got)
	}
}

func TestPasteItems(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 10}))
	items := addAll(q, "A", "B", "C")

	content, removed, ok := q.PasteItems([]string{items[2].ID, items[0].ID})
	if !ok || content != "A\nC" || len(removed) != 2 {
		t.Fatalf("unexpected paste selection %q", content)
	}
	if q.Add(model.NewItem("A\nC", model.TypeText)) {
		t.Fatalf("selection paste should arm suppression")
	}
	q.UndoLastPaste()
	if got := contents(q.Items()); !slices.Equal(got, []string{"B", "A", "C"}) {
		t.Fatalf("unexpected queue after undo %v", got)
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 10}))
	addAll(q, "A")
	q.RemoveItem("missing")
	q.RemoveAt(5)
	q.RemoveAt(-1)
	if q.Len() != 1 {
		t.Fatalf("expected queue untouched")
	}
	q.RemoveAt(0)
	if q.Len() != 0 {
		t.Fatalf("expected item removed")
	}
}

func TestMoveItem(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 10}))
	items := addAll(q, "A", "B", "C", "D")

	q.MoveItem(0, 2)
	if got := contents(q.Items()); !slices.Equal(got, []string{"B", "C", "A", "D"}) {
		t.Fatalf("unexpected order %v", got)
	}
	q.MoveItem(1, 9)
	q.MoveItem(-1, 0)
	q.MoveItem(1, 1)
	if got := contents(q.Items()); !slices.Equal(got, []string{"B", "C", "A", "D"}) {
		t.Fatalf("invalid moves must be no-ops, got %v", got)
	}

	q.MoveToTop(items[3].ID)
	if got := contents(q.Items()); !slices.Equal(got, []string{"D", "B", "C", "A"}) {
		t.Fatalf("unexpected order after move to top %v", got)
	}
	q.MoveToTop("missing")
	if q.Len() != 4 {
		t.Fatalf("unexpected length")
	}
}

func TestReverseQueue(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 10}))
	addAll(q, "A", "B", "C")
	q.ReverseQueue()
	if got := contents(q.Items()); !slices.Equal(got, []string{"C", "B", "A"}) {
		t.Fatalf("unexpected order %v", got)
	}

	single := New(nil, fixed(Policy{MaxSize: 10}))
	addAll(single, "only")
	single.ReverseQueue()
	if single.Items()[0].Content != "only" {
		t.Fatalf("single item reverse must be a no-op")
	}
}

func TestFlagUpdatesReplaceInPlace(t *testing.T) {
	q := New(nil, fixed(Policy{MaxSize: 10}))
	items := addAll(q, "A", "B")

	q.UpdatePinned(items[1].ID, true)
	q.UpdateFavorite(items[1].ID, true)
	q.UpdateCategory(items[1].ID, "work")
	q.UpdatePinned("missing", true)

	got := q.Items()
	if got[1].ID != items[1].ID || !got[1].IsPinned || !got[1].IsFavorite || got[1].CategoryID != "work" {
		t.Fatalf("flags not applied in place: %+v", got[1])
	}
	if got[0].IsPinned {
		t.Fatalf("other items must not change")
	}
	if items[1].IsPinned {
		t.Fatalf("caller's copy must not change")
	}
}

func TestSnapshotPersistence(t *testing.T) {
	snap := &fakeSnap{}
	q := New(snap, fixed(Policy{MaxSize: 10}))
	addAll(q, "A", "B")
	if got := contents(snap.saved); !slices.Equal(got, []string{"A", "B"}) {
		t.Fatalf("unexpected snapshot %v", got)
	}

	restored := New(&fakeSnap{load: snap.saved}, fixed(Policy{MaxSize: 1}))
	if got := contents(restored.Items()); !slices.Equal(got, []string{"B"}) {
		t.Fatalf("restored queue must respect the limit, got %v", got)
	}
}

func TestSnapshotFailuresDoNotRollBack(t *testing.T) {
	snap := &fakeSnap{saveErr: errors.New("disk full"), loadErr: errors.New("corrupt")}
	q := New(snap, fixed(Policy{MaxSize: 10}))
	if q.Len() != 0 {
		t.Fatalf("failed load should start empty")
	}
	addAll(q, "A")
	if q.Len() != 1 || snap.saves != 1 {
		t.Fatalf("in-memory add must stand despite save failure")
	}
}
