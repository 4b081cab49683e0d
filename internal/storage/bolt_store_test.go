package storage

import (
	"path/filepath"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func openTestBolt(t *testing.T, opts Options) (*boltStore, *fakeClock) {
	t.Helper()
	store, err := openBolt(filepath.Join(t.TempDir(), "nested", "payloads.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	store.now = clock.now
	store.lastSweep = clock.t
	return store, clock
}

func TestBoltStoreMarksAndExpiresPayloads(t *testing.T) {
	store, clock := openTestBolt(t, Options{TTL: time.Minute, CleanupInterval: time.Hour})
	key := PayloadKey("users", []byte(`{"n":1}`))

	seen, err := store.Seen(key)
	if err != nil || seen {
		t.Fatalf("expected unseen payload, seen=%v err=%v", seen, err)
	}

	if err := store.Mark(key); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	seen, err = store.Seen(key)
	if err != nil || !seen {
		t.Fatalf("expected payload marked as seen, got seen=%v err=%v", seen, err)
	}

	clock.advance(61 * time.Second)
	seen, err = store.Seen(key)
	if err != nil {
		t.Fatalf("Seen after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to count as unseen once expired")
	}
}

func TestBoltStoreSweepsExpiredOnWrite(t *testing.T) {
	store, clock := openTestBolt(t, Options{TTL: time.Minute, CleanupInterval: 10 * time.Minute})

	for _, k := range []string{"a", "b", "c"} {
		if err := store.Mark(k); err != nil {
			t.Fatalf("Mark %s: %v", k, err)
		}
	}

	clock.advance(5 * time.Minute)
	if err := store.Mark("d"); err != nil {
		t.Fatalf("Mark d: %v", err)
	}
	if n, _ := store.count(); n != 4 {
		t.Fatalf("expected no sweep before the cleanup interval, got %d keys", n)
	}

	clock.advance(6 * time.Minute)
	if err := store.Mark("e"); err != nil {
		t.Fatalf("Mark e: %v", err)
	}
	n, err := store.count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected only the fresh key after sweep, got %d keys", n)
	}
}

func TestBoltStoreSweepRemovesEveryExpiredKey(t *testing.T) {
	store, clock := openTestBolt(t, Options{TTL: time.Minute, CleanupInterval: time.Minute})

	for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
		if err := store.Mark(k); err != nil {
			t.Fatalf("Mark %s: %v", k, err)
		}
	}

	clock.advance(2 * time.Minute)
	if err := store.Mark("z"); err != nil {
		t.Fatalf("Mark z: %v", err)
	}
	n, err := store.count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected adjacent expired keys to be swept, got %d keys left", n)
	}
	if seen, _ := store.Seen("z"); !seen {
		t.Fatalf("expected the fresh key to survive the sweep")
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payloads.db")
	first, err := NewStore("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := first.Mark("users:abc"); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := NewStore("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if seen, err := second.Seen("users:abc"); err != nil || !seen {
		t.Fatalf("expected key to survive reopen, seen=%v err=%v", seen, err)
	}
}

func TestDecodeRecordRejectsGarbage(t *testing.T) {
	if _, ok := decodeRecord([]byte{1, 2, 3}); ok {
		t.Fatalf("expected short value to be rejected")
	}
	if _, ok := decodeRecord(nil); ok {
		t.Fatalf("expected missing value to be rejected")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Mark("x"); err != nil {
		t.Fatalf("noop store Mark: %v", err)
	}
	if seen, _ := store.Seen("x"); seen {
		t.Fatalf("noop store should never report seen")
	}
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for bbolt without path")
	}
	if _, err := NewStore("redis", "x", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestPayloadKeyScopesByEndpoint(t *testing.T) {
	a := PayloadKey("a", []byte("{}"))
	b := PayloadKey("b", []byte("{}"))
	if a == b {
		t.Fatalf("keys for different endpoints must differ")
	}
	if a != PayloadKey("a", []byte("{}")) {
		t.Fatalf("PayloadKey must be deterministic")
	}
}
