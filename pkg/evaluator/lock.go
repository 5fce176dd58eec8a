package evaluator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cfengine/promise-engine/pkg/kvstore"
	"github.com/cfengine/promise-engine/pkg/types"
)

type lockRecord struct {
	Held          bool      `json:"held"`
	AcquiredAt    time.Time `json:"acquired_at"`
	LastCompleted time.Time `json:"last_completed"`
}

// LockManager serializes concrete promise expansions against each other
// across runs, backed by pkg/kvstore's DbLocks bucket.
type LockManager struct {
	db kvstore.DB
}

// NewLockManager wraps db (normally a kvstore.Factory's DbLocks handle) as
// a lock manager.
func NewLockManager(db kvstore.DB) *LockManager {
	return &LockManager{db: db}
}

// LockName derives the advisory lock name for a concrete promise
// expansion: (promise_type, concrete_promiser, key_attribute_suffix). For
// processes the suffix is the restart class (or "norestart"); for every
// other promise type the concrete promiser itself is the whole key, since
// file, storage, and ACL promises are already uniquely identified by path.
func LockName(promiseType types.PromiseType, concretePromiser string, attrs types.Attributes) string {
	if promiseType == types.PromiseProcess {
		suffix := "norestart"
		if attrs.Process != nil && attrs.Process.RestartClass != "" {
			suffix = attrs.Process.RestartClass
		}
		return fmt.Sprintf("%s_%s-%s", promiseType, concretePromiser, suffix)
	}
	return fmt.Sprintf("%s_%s", promiseType, concretePromiser)
}

// Acquire attempts to take the lock named by name. It fails (acquired
// false, no error) when the lock is already held and hasn't exceeded
// expireAfter, or when it was last released less than ifElapsed ago. A
// held lock older than expireAfter is treated as abandoned and stolen. A
// zero ifElapsed or expireAfter disables that half of the check.
func (m *LockManager) Acquire(name string, ifElapsed, expireAfter time.Duration, now time.Time) (bool, error) {
	rec, err := m.read(name)
	if err != nil {
		return false, err
	}

	if rec.Held {
		if expireAfter <= 0 || now.Sub(rec.AcquiredAt) < expireAfter {
			return false, nil
		}
		// Stale lock: fall through and steal it.
	} else if ifElapsed > 0 && now.Sub(rec.LastCompleted) < ifElapsed {
		return false, nil
	}

	rec.Held = true
	rec.AcquiredAt = now
	if err := m.write(name, rec); err != nil {
		return false, err
	}
	return true, nil
}

// Release marks name as no longer held and records now as the completion
// time ifElapsed measures from.
func (m *LockManager) Release(name string, now time.Time) error {
	rec, err := m.read(name)
	if err != nil {
		return err
	}
	rec.Held = false
	rec.LastCompleted = now
	return m.write(name, rec)
}

func (m *LockManager) read(name string) (lockRecord, error) {
	raw, ok := m.db.Read([]byte(name))
	if !ok {
		return lockRecord{}, nil
	}
	var rec lockRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return lockRecord{}, fmt.Errorf("evaluator: decode lock %q: %w", name, err)
	}
	return rec, nil
}

func (m *LockManager) write(name string, rec lockRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("evaluator: encode lock %q: %w", name, err)
	}
	if err := m.db.Write([]byte(name), data); err != nil {
		return fmt.Errorf("evaluator: write lock %q: %w", name, err)
	}
	return nil
}
