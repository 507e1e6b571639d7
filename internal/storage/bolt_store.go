package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var seenBucket = []byte("seen_records")

var errBucketMissing = errors.New("seen_records bucket missing")

// boltStore keeps record IDs in a single bucket keyed by id, valued by the
// big-endian unix expiry. A background sweeper drops expired keys.
type boltStore struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func openBolt(path string, opts Options) (Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(seenBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	s := &boltStore{
		db:   db,
		ttl:  opts.RecordTTL,
		now:  time.Now,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.sweepLoop(opts.CleanupInterval)
	return s, nil
}

func (b *boltStore) sweepLoop(every time.Duration) {
	defer close(b.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			// Failures are retried on the next tick.
			_, _ = b.sweep()
		}
	}
}

// sweep deletes every expired key and reports how many were removed.
func (b *boltStore) sweep() (int, error) {
	now := b.now()
	removed := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(seenBucket)
		if bucket == nil {
			return errBucketMissing
		}
		c := bucket.Cursor()
		for k, v := c.First(); k != nil; {
			if live(v, now) {
				k, v = c.Next()
				continue
			}
			key := append([]byte(nil), k...)
			if err := c.Delete(); err != nil {
				return err
			}
			removed++
			k, v = c.Seek(key)
		}
		return nil
	})
	return removed, err
}

// Close stops the sweeper and closes the database. Safe to call twice.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	var err error
	b.closeOnce.Do(func() {
		close(b.stop)
		<-b.done
		err = b.db.Close()
	})
	return err
}

// SeenRecord reports whether id is stored and not yet expired. It never writes.
func (b *boltStore) SeenRecord(_ context.Context, id string) (bool, error) {
	var seen bool
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(seenBucket)
		if bucket == nil {
			return errBucketMissing
		}
		seen = live(bucket.Get([]byte(id)), b.now())
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("bbolt lookup %q: %w", id, err)
	}
	return seen, nil
}

// MarkRecord stores id until now + the record TTL.
func (b *boltStore) MarkRecord(_ context.Context, id string) error {
	var expiry [8]byte
	binary.BigEndian.PutUint64(expiry[:], uint64(b.now().Add(b.ttl).Unix()))
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(seenBucket)
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Put([]byte(id), expiry[:])
	})
	if err != nil {
		return fmt.Errorf("bbolt mark %q: %w", id, err)
	}
	return nil
}

// live reports whether an encoded expiry is still in the future. Malformed values count as expired.
func live(v []byte, now time.Time) bool {
	if len(v) != 8 {
		return false
	}
	unix := int64(binary.BigEndian.Uint64(v))
	return unix > 0 && time.Unix(unix, 0).After(now)
}
