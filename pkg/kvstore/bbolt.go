package kvstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/cfengine/promise-engine/pkg/metrics"
	bolt "go.etcd.io/bbolt"
)

// Factory is the process-wide handle factory: one bbolt file, one bucket
// per DbId, opened lazily on first Handle call.
type Factory struct {
	db              *bolt.DB
	optimizePercent int
}

// OpenFactory opens (creating if absent) the bbolt file at path. A bbolt
// open error that looks like file corruption rather than a lock/permission
// problem is reported as ErrBroken.
func OpenFactory(path string, optimizePercent int) (*Factory, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		if looksCorrupt(err) {
			return nil, ErrBroken
		}
		return nil, fmt.Errorf("kvstore: open %s: %w", path, err)
	}
	return &Factory{db: db, optimizePercent: optimizePercent}, nil
}

func looksCorrupt(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid database") ||
		strings.Contains(msg, "checksum error") ||
		strings.Contains(msg, "unexpected EOF")
}

// Handle returns the DB for id, creating its bucket on first use.
func (f *Factory) Handle(id DbId) (DB, error) {
	bucket := []byte(id.String())
	err := f.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("kvstore: create bucket %s: %w", bucket, err)
	}
	return &boltHandle{db: f.db, bucket: bucket, id: id}, nil
}

// Close closes the underlying bbolt file. Safe to call even if some
// handles reported Broken.
func (f *Factory) Close() error {
	return f.db.Close()
}

type boltHandle struct {
	db     *bolt.DB
	bucket []byte
	id     DbId
}

func (h *boltHandle) observe(op string) func(outcome string) {
	timer := metrics.NewTimer()
	return func(outcome string) {
		timer.ObserveDurationVec(metrics.KVStoreOperationDuration, h.id.String(), op)
		metrics.KVStoreOperationsTotal.WithLabelValues(h.id.String(), op, outcome).Inc()
	}
}

func (h *boltHandle) Read(key []byte) ([]byte, bool) {
	done := h.observe("read")
	var value []byte
	_ = h.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(h.bucket).Get(key)
		if v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if value == nil {
		done("miss")
		return nil, false
	}
	done("hit")
	return value, true
}

func (h *boltHandle) Write(key, value []byte) error {
	done := h.observe("write")
	err := h.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(h.bucket).Put(key, value)
	})
	if err != nil {
		done("error")
		return fmt.Errorf("kvstore: write %s: %w", h.id, err)
	}
	done("ok")
	return nil
}

func (h *boltHandle) Delete(key []byte) error {
	done := h.observe("delete")
	err := h.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(h.bucket).Delete(key)
	})
	if err != nil {
		done("error")
		return fmt.Errorf("kvstore: delete %s: %w", h.id, err)
	}
	done("ok")
	return nil
}

func (h *boltHandle) HasKey(key []byte) bool {
	found := false
	_ = h.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(h.bucket).Get(key) != nil
		return nil
	})
	return found
}

func (h *boltHandle) ValueSize(key []byte) int {
	size := -1
	_ = h.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(h.bucket).Get(key)
		if v != nil {
			size = len(v)
		}
		return nil
	})
	return size
}

func (h *boltHandle) NewCursor() (Cursor, error) {
	tx, err := h.db.Begin(true)
	if err != nil {
		return nil, fmt.Errorf("kvstore: begin cursor tx: %w", err)
	}
	bucket := tx.Bucket(h.bucket)
	return &boltCursor{tx: tx, bucket: bucket, cur: bucket.Cursor()}, nil
}

func (h *boltHandle) Close() error { return nil }

// boltCursor holds a writable transaction open for the cursor's lifetime,
// matching the spec's requirement that a queued delete apply on the next
// Next or on Close rather than immediately.
type boltCursor struct {
	tx      *bolt.Tx
	bucket  *bolt.Bucket
	cur     *bolt.Cursor
	started bool

	currentKey    []byte
	pendingDelete bool
}

func (c *boltCursor) Next() (key, value []byte, ok bool) {
	if c.pendingDelete {
		_ = c.bucket.Delete(c.currentKey)
		c.pendingDelete = false
	}

	var k, v []byte
	if !c.started {
		k, v = c.cur.First()
		c.started = true
	} else {
		k, v = c.cur.Next()
	}
	if k == nil {
		c.currentKey = nil
		return nil, nil, false
	}

	c.currentKey = append([]byte(nil), k...)
	var valCopy []byte
	if v != nil {
		valCopy = append([]byte(nil), v...)
	}
	return c.currentKey, valCopy, true
}

func (c *boltCursor) DeleteCurrent() error {
	if c.currentKey == nil {
		return fmt.Errorf("kvstore: DeleteCurrent with no current entry")
	}
	c.pendingDelete = true
	return nil
}

func (c *boltCursor) WriteCurrent(value []byte) error {
	if c.currentKey == nil {
		return fmt.Errorf("kvstore: WriteCurrent with no current entry")
	}
	c.pendingDelete = false
	return c.bucket.Put(c.currentKey, value)
}

func (c *boltCursor) Close() error {
	if c.pendingDelete && c.currentKey != nil {
		_ = c.bucket.Delete(c.currentKey)
	}
	return c.tx.Commit()
}
