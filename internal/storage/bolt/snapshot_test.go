package bolt

import (
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"go.klb.dev/clipq/internal/apperr"
	"go.klb.dev/clipq/internal/model"
	"go.klb.dev/clipq/internal/queue"
)

func openTemp(t *testing.T) (*Snapshot, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s, path
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	s, path := openTemp(t)

	items := []model.Item{
		model.NewItem("first", model.TypeText),
		model.NewItem("https://example.com", model.TypeURL).WithPinned(true),
	}
	if err := s.SaveSnapshot(items); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.LoadSnapshot()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].ID != items[0].ID || got[1].Type != model.TypeURL || !got[1].IsPinned {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestEmptySnapshot(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	got, err := s.LoadSnapshot()
	if err != nil || got != nil {
		t.Fatalf("expected nothing stored, got %v, %v", got, err)
	}

	if err := s.SaveSnapshot(nil); err != nil {
		t.Fatal(err)
	}
	got, err = s.LoadSnapshot()
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty queue, got %v, %v", got, err)
	}
}

func TestCorruptSnapshotStartsEmptyQueue(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(queueBucket).Put(itemsKey, []byte("{not json"))
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadSnapshot(); !apperr.Is(err, apperr.Codec) {
		t.Fatalf("expected codec error, got %v", err)
	}

	q := queue.New(s, nil)
	if q.Len() != 0 {
		t.Fatalf("queue should start empty on a corrupt snapshot")
	}
	q.Add(model.NewItem("fresh", model.TypeText))
	if got, err := s.LoadSnapshot(); err != nil || len(got) != 1 {
		t.Fatalf("a new save should replace the corrupt value, got %v, %v", got, err)
	}
}
