package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiskUsage struct {
	total, free uint64
	err         error
}

func (f fakeDiskUsage) Usage(path string) (uint64, uint64, error) { return f.total, f.free, f.err }

func TestCheckFreeSpaceZeroThresholdAlwaysPasses(t *testing.T) {
	ok, _, err := checkFreeSpace(fakeDiskUsage{}, "/", 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckFreeSpaceAbsoluteThresholdFails(t *testing.T) {
	usager := fakeDiskUsage{total: 1000, free: 100}
	ok, detail, err := checkFreeSpace(usager, "/data", 500)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, detail, "/data")
}

func TestCheckFreeSpaceAbsoluteThresholdPasses(t *testing.T) {
	usager := fakeDiskUsage{total: 1000, free: 900}
	ok, _, err := checkFreeSpace(usager, "/data", 500)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckFreeSpacePercentThresholdFails(t *testing.T) {
	usager := fakeDiskUsage{total: 1000, free: 50} // 5% free
	ok, detail, err := checkFreeSpace(usager, "/data", -10) // want 10% free
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, detail, "10%")
}

func TestCheckFreeSpacePercentThresholdPasses(t *testing.T) {
	usager := fakeDiskUsage{total: 1000, free: 500} // 50% free
	ok, _, err := checkFreeSpace(usager, "/data", -10)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckFreeSpacePropagatesUsageError(t *testing.T) {
	usager := fakeDiskUsage{err: assertError{}}
	_, _, err := checkFreeSpace(usager, "/data", 500)
	assert.Error(t, err)
}

type assertError struct{}

func (assertError) Error() string { return "usage failed" }
