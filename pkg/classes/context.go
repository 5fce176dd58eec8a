package classes

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cfengine/promise-engine/pkg/kvstore"
	"github.com/cfengine/promise-engine/pkg/metrics"
	"github.com/cfengine/promise-engine/pkg/types"
)

type liveClass struct {
	Scope  types.ClassScope
	Tags   map[string]struct{}
	Bundle string // owning bundle frame, set only for ClassScopeBundle entries
}

// Context is the Class Context component: the live set of true classes for
// one policy run, plus the persistent subset surviving across runs.
type Context struct {
	mu   sync.RWMutex
	live map[string]liveClass

	persistentDB kvstore.DB
}

// New returns an empty class context. persistentDB may be nil, in which
// case HeapPersistentSave/HeapPersistentRemove/LoadPersistent are no-ops —
// useful for tests that don't exercise persistence.
func New(persistentDB kvstore.DB) *Context {
	return &Context{live: make(map[string]liveClass), persistentDB: persistentDB}
}

// Define installs name into the live set with the scope and tags its
// caller passes; it does not choose the scope itself (the evaluator's
// applyClassDefinitions passes ClassScopeNamespace for the empty-string
// common frame and ClassScopeBundle otherwise). bundle is the name of the bundle
// currently being evaluated, used to scope a ClassScopeBundle definition so
// PopBundleFrame can remove it later.
func (c *Context) Define(name string, scope types.ClassScope, bundle string, tags map[string]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := liveClass{Scope: scope, Tags: tags}
	if scope == types.ClassScopeBundle {
		entry.Bundle = bundle
	}
	c.live[name] = entry
	metrics.ClassesSetTotal.WithLabelValues(scope.String()).Inc()
}

// Undefine removes name from the live set, reporting whether it was
// present.
func (c *Context) Undefine(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.live[name]
	delete(c.live, name)
	return ok
}

// IsDefined reports whether name is currently true.
func (c *Context) IsDefined(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.live[name]
	return ok
}

// Evaluate parses and evaluates expr against this context's live set.
func (c *Context) Evaluate(expr string) (bool, error) {
	return Evaluate(expr, c.IsDefined)
}

// PopBundleFrame removes every class that was defined with ClassScopeBundle
// from within the named bundle, mirroring the automatic cleanup that
// happens when a bundle's evaluation frame is popped.
func (c *Context) PopBundleFrame(bundle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, e := range c.live {
		if e.Scope == types.ClassScopeBundle && e.Bundle == bundle {
			delete(c.live, name)
		}
	}
}

// Count returns the number of classes currently true.
func (c *Context) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.live)
}

func persistentKey(name string) []byte { return append([]byte("p"), name...) }

// HeapPersistentSave stores name in the persistent classes DB with an
// expiry minutes from now, and installs it into the live set immediately
// (namespace-scoped, since persistent classes are always global).
func (c *Context) HeapPersistentSave(name string, minutes int, policy types.ExpiryPolicy, tags map[string]struct{}) error {
	c.Define(name, types.ClassScopeNamespace, "", tags)

	if c.persistentDB == nil {
		return nil
	}

	entry := types.PersistedClass{
		Name:   name,
		Expiry: time.Now().Add(time.Duration(minutes) * time.Minute),
		Policy: policy,
		Tags:   tags,
	}
	data, err := json.Marshal(persistedClassJSON{
		Expiry: entry.Expiry,
		Policy: entry.Policy,
		Tags:   tagsToSlice(entry.Tags),
	})
	if err != nil {
		return fmt.Errorf("classes: encode persisted class %q: %w", name, err)
	}
	if err := c.persistentDB.Write(persistentKey(name), data); err != nil {
		return fmt.Errorf("classes: write persisted class %q: %w", name, err)
	}
	return nil
}

// HeapPersistentRemove deletes name from the persistent classes DB without
// touching the live set — used when a promise with persistence=0 finds its
// own class already cached from a previous run and cancels it.
func (c *Context) HeapPersistentRemove(name string) error {
	if c.persistentDB == nil {
		return nil
	}
	if err := c.persistentDB.Delete(persistentKey(name)); err != nil {
		return fmt.Errorf("classes: remove persisted class %q: %w", name, err)
	}
	return nil
}

// LoadPersistent scans the persistent classes DB at process start, defining
// every entry whose expiry is still in the future and purging expired
// entries whose policy is ExpiryReset. Entries with ExpiryPreserve are left
// on disk (but not re-defined) once expired, to be refreshed by whatever
// promise originally set them.
func (c *Context) LoadPersistent(now time.Time) error {
	if c.persistentDB == nil {
		return nil
	}

	cur, err := c.persistentDB.NewCursor()
	if err != nil {
		return fmt.Errorf("classes: open persistent cursor: %w", err)
	}
	defer cur.Close()

	for {
		key, value, ok := cur.Next()
		if !ok {
			break
		}
		if len(key) == 0 || key[0] != 'p' {
			continue
		}
		name := string(key[1:])

		var raw persistedClassJSON
		if err := json.Unmarshal(value, &raw); err != nil {
			continue
		}

		if raw.Expiry.After(now) {
			c.Define(name, types.ClassScopeNamespace, "", sliceToTags(raw.Tags))
			continue
		}
		if raw.Policy == types.ExpiryReset {
			cur.DeleteCurrent()
		}
	}
	return nil
}

type persistedClassJSON struct {
	Expiry time.Time         `json:"expiry"`
	Policy types.ExpiryPolicy `json:"policy"`
	Tags   []string          `json:"tags,omitempty"`
}

func tagsToSlice(tags map[string]struct{}) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	return out
}

func sliceToTags(tags []string) map[string]struct{} {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		out[t] = struct{}{}
	}
	return out
}
