package kvstore

import (
	"fmt"
	"os"
	"time"

	"github.com/cfengine/promise-engine/pkg/kvstore/legacyhash"
	bolt "go.etcd.io/bbolt"
)

// Outcome is the result of diagnosing one database file.
type Outcome int

const (
	OK Outcome = iota
	CorruptPage
	Truncated
	Unreadable
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "OK"
	case CorruptPage:
		return "CORRUPT_PAGE"
	case Truncated:
		return "TRUNCATED"
	case Unreadable:
		return "UNREADABLE"
	default:
		return "UNKNOWN"
	}
}

// Diagnose opens path read-only and attempts a full traversal, classifying
// the result. A file in the legacy hash format is diagnosed by its header
// and declared size instead, since it predates bbolt's own page format.
func Diagnose(path string) (Outcome, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Unreadable, fmt.Errorf("kvstore: stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return Truncated, fmt.Errorf("kvstore: %s is empty", path)
	}

	if legacyhash.Looks(path) {
		if err := legacyhash.Diagnose(path); err != nil {
			return CorruptPage, err
		}
		return OK, nil
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		if looksCorrupt(err) {
			return CorruptPage, err
		}
		return Unreadable, fmt.Errorf("kvstore: open %s read-only: %w", path, err)
	}
	defer db.Close()

	err = db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(_ []byte, b *bolt.Bucket) error {
			return b.ForEach(func(_, _ []byte) error { return nil })
		})
	})
	if err != nil {
		return CorruptPage, fmt.Errorf("kvstore: traverse %s: %w", path, err)
	}
	return OK, nil
}
