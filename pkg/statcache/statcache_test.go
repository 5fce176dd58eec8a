package statcache

import (
	"testing"

	"github.com/cfengine/promise-engine/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestPutGet(t *testing.T) {
	c := New()
	_, ok := c.Get("host1", "/etc/passwd")
	assert.False(t, ok)

	c.Put(types.StatCacheEntry{Server: "host1", Path: "/etc/passwd", Size: 42})
	e, ok := c.Get("host1", "/etc/passwd")
	assert.True(t, ok)
	assert.Equal(t, int64(42), e.Size)

	assert.Equal(t, 1, c.Count())
}

func TestDistinctServerSamePath(t *testing.T) {
	c := New()
	c.Put(types.StatCacheEntry{Server: "host1", Path: "/etc/passwd", Size: 1})
	c.Put(types.StatCacheEntry{Server: "host2", Path: "/etc/passwd", Size: 2})

	e1, _ := c.Get("host1", "/etc/passwd")
	e2, _ := c.Get("host2", "/etc/passwd")
	assert.Equal(t, int64(1), e1.Size)
	assert.Equal(t, int64(2), e2.Size)
}

func TestInvalidateAndClear(t *testing.T) {
	c := New()
	c.Put(types.StatCacheEntry{Server: "host1", Path: "/a"})
	c.Put(types.StatCacheEntry{Server: "host1", Path: "/b"})

	assert.True(t, c.Invalidate("host1", "/a"))
	assert.False(t, c.Invalidate("host1", "/a"))
	assert.Equal(t, 1, c.Count())

	c.Clear()
	assert.Equal(t, 0, c.Count())
}
