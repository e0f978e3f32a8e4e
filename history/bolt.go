package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const bucketHistory = "computation_history"

// BoltStore keeps records in a bbolt database, one JSON value per record
// keyed by sequence number.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens or creates a bbolt store at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "history: open bolt")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketHistory))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "history: create bucket")
	}
	return &BoltStore{db: db}, nil
}

// Insert stores a record. The record's ID is its sequence number.
func (s *BoltStore) Insert(ctx context.Context, rec Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rec.fill()
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketHistory))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		rec.ID = int64(seq)
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), data)
	})
	if err != nil {
		return 0, errors.Wrap(err, "history: insert")
	}
	return rec.ID, nil
}

// List returns a user's records, newest first.
func (s *BoltStore) List(ctx context.Context, userID string, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var recs []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketHistory)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return errors.Wrapf(err, "record %d", unmarshalSeq(k))
			}
			if userID != "" && rec.UserID != userID {
				continue
			}
			recs = append(recs, rec)
			if limit > 0 && len(recs) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "history: list")
	}
	return recs, nil
}

// Prune deletes records stamped before the given time.
func (s *BoltStore) Prune(ctx context.Context, before time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketHistory))
		var old [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var rec struct {
				Timestamp time.Time `json:"timestamp"`
			}
			if err := json.Unmarshal(v, &rec); err != nil {
				return errors.Wrapf(err, "record %d", unmarshalSeq(k))
			}
			if rec.Timestamp.Before(before) {
				old = append(old, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		// Deleting inside ForEach would invalidate the iteration.
		for _, k := range old {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		n = len(old)
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "history: prune")
	}
	return n, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}

var _ Store = (*BoltStore)(nil)
