package ledger

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"
)

var (
	runsBucket   = []byte("runs")
	roundsBucket = []byte("rounds")
)

// BoltStore keeps runs in a single bbolt file. Runs are JSON values in the
// runs bucket; each run's rounds live in a nested bucket of the rounds
// bucket, keyed by big-endian day so that cursor order is day order.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens (creating if needed) the store at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(runsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(roundsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close releases the file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) SaveRun(_ context.Context, r *Run) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}
	buf, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(runsBucket).Put([]byte(r.ID), buf)
	})
}

func (s *BoltStore) GetRun(_ context.Context, runID string) (*Run, error) {
	var run *Run
	err := s.db.View(func(tx *bbolt.Tx) error {
		buf := tx.Bucket(runsBucket).Get([]byte(runID))
		if buf == nil {
			return ErrNotFound
		}
		run = &Run{}
		return json.Unmarshal(buf, run)
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *BoltStore) AppendRound(_ context.Context, r *Round) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid round: %w", err)
	}
	buf, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal round: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(roundsBucket).CreateBucketIfNotExists([]byte(r.RunID))
		if err != nil {
			return err
		}
		return b.Put(dayKey(r.Day), buf)
	})
}

func (s *BoltStore) Rounds(_ context.Context, runID string, since, until int) ([]*Round, error) {
	var rounds []*Round
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(roundsBucket).Bucket([]byte(runID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		var upper []byte
		if until > 0 {
			upper = dayKey(until)
		}
		for k, v := c.Seek(dayKey(max(since, 0))); k != nil; k, v = c.Next() {
			if upper != nil && bytes.Compare(k, upper) > 0 {
				break
			}
			var round Round
			if err := json.Unmarshal(v, &round); err != nil {
				return fmt.Errorf("failed to decode round: %w", err)
			}
			rounds = append(rounds, &round)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rounds, nil
}

func (s *BoltStore) ListRuns(_ context.Context) ([]*Run, error) {
	var runs []*Run
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(runsBucket).ForEach(func(_, v []byte) error {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("failed to decode run: %w", err)
			}
			runs = append(runs, &run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortRuns(runs)
	return runs, nil
}

func dayKey(day int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(day))
	return key
}

var _ Store = (*BoltStore)(nil)
