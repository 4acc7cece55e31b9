// Package bolt keeps the working queue snapshot in a bbolt file. The whole
// queue is stored as one JSON value and replaced on every save.
package bolt

import (
	"encoding/json"
	"time"

	"go.etcd.io/bbolt"

	"go.klb.dev/clipq/internal/apperr"
	"go.klb.dev/clipq/internal/model"
	"go.klb.dev/clipq/internal/queue"
)

var _ queue.Snapshotter = (*Snapshot)(nil)

var (
	queueBucket = []byte("queue")
	itemsKey    = []byte("items")
)

type Snapshot struct {
	db *bbolt.DB
}

// Open opens the snapshot file at path, creating it if needed.
func Open(path string) (*Snapshot, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, apperr.Wrap(apperr.Database, "open snapshot", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(queueBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, apperr.Wrap(apperr.Database, "create queue bucket", err)
	}
	return &Snapshot{db: db}, nil
}

func (s *Snapshot) Close() error { return s.db.Close() }

func (s *Snapshot) SaveSnapshot(items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return apperr.Wrap(apperr.Codec, "encode queue", err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(queueBucket).Put(itemsKey, encoded)
	})
	if err != nil {
		return apperr.Wrap(apperr.Database, "write queue", err)
	}
	return nil
}

// LoadSnapshot returns the stored queue, or nil when nothing was saved yet.
// A value that does not decode is reported as a codec error.
func (s *Snapshot) LoadSnapshot() ([]model.Item, error) {
	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(queueBucket).Get(itemsKey); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Database, "read queue", err)
	}
	if raw == nil {
		return nil, nil
	}

	var items []model.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperr.Wrap(apperr.Codec, "decode queue", err)
	}
	return items, nil
}
