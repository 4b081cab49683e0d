package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	payloadBucket = []byte("payloads")

	errBucketMissing = errors.New("payloads bucket missing")
)

// record is the value stored per digest: when it was marked and when it stops
// counting as seen. Both are unix seconds, big endian.
type record struct {
	markedAt  int64
	expiresAt int64
}

const recordSize = 16

func (r record) encode() []byte {
	buf := make([]byte, recordSize)
	binary.BigEndian.PutUint64(buf[:8], uint64(r.markedAt))
	binary.BigEndian.PutUint64(buf[8:], uint64(r.expiresAt))
	return buf
}

func decodeRecord(raw []byte) (record, bool) {
	if len(raw) != recordSize {
		return record{}, false
	}
	r := record{
		markedAt:  int64(binary.BigEndian.Uint64(raw[:8])),
		expiresAt: int64(binary.BigEndian.Uint64(raw[8:])),
	}
	return r, r.expiresAt > 0
}

func (r record) live(now time.Time) bool { return r.expiresAt > now.Unix() }

// boltStore keeps payload digests in a single bbolt bucket. Expired entries
// are ignored on lookup and swept on write, at most once per cleanup interval.
type boltStore struct {
	db   *bolt.DB
	opts Options
	now  func() time.Time

	sweepMu   sync.Mutex
	lastSweep time.Time
}

func openBolt(path string, opts Options) (*boltStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(payloadBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	s := &boltStore{db: db, opts: opts, now: time.Now}
	s.lastSweep = s.now()
	return s, nil
}

func (s *boltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Seen reports whether key was marked and has not expired yet.
func (s *boltStore) Seen(key string) (bool, error) {
	now := s.now()
	var seen bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(payloadBucket)
		if b == nil {
			return errBucketMissing
		}
		r, ok := decodeRecord(b.Get([]byte(key)))
		seen = ok && r.live(now)
		return nil
	})
	return seen, err
}

// Mark records key until the configured TTL elapses.
func (s *boltStore) Mark(key string) error {
	now := s.now()
	r := record{markedAt: now.Unix(), expiresAt: now.Add(s.opts.TTL).Unix()}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(payloadBucket)
		if b == nil {
			return errBucketMissing
		}
		if err := b.Put([]byte(key), r.encode()); err != nil {
			return err
		}
		return s.maybeSweep(b, now)
	})
}

// maybeSweep runs inside a write transaction.
func (s *boltStore) maybeSweep(b *bolt.Bucket, now time.Time) error {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	if now.Sub(s.lastSweep) < s.opts.CleanupInterval {
		return nil
	}

	// Deleting through the cursor skips the following key, so collect first.
	var expired [][]byte
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if r, ok := decodeRecord(v); ok && r.live(now) {
			continue
		}
		expired = append(expired, append([]byte(nil), k...))
	}
	for _, k := range expired {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	s.lastSweep = now
	return nil
}

// count returns the number of stored digests, expired or not.
func (s *boltStore) count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(payloadBucket)
		if b == nil {
			return errBucketMissing
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}
