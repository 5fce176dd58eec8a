package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitHostSourceLocalDevice(t *testing.T) {
	host, source := splitHostSource("/dev/sda1")
	assert.Equal(t, "", host)
	assert.Equal(t, "/dev/sda1", source)
}

func TestSplitHostSourceNFS(t *testing.T) {
	host, source := splitHostSource("fileserver:/export/home")
	assert.Equal(t, "fileserver", host)
	assert.Equal(t, "/export/home", source)
}

func TestMountedCorrectlyNotFound(t *testing.T) {
	table := []MountEntry{{MountOn: "/mnt/other", Source: "/dev/sdb1"}}
	found, correct := mountedCorrectly(table, "/mnt/data", "/dev/sda1")
	assert.False(t, found)
	assert.False(t, correct)
}

func TestMountedCorrectlyWrongSource(t *testing.T) {
	table := []MountEntry{{MountOn: "/mnt/data", Source: "/dev/sdb1"}}
	found, correct := mountedCorrectly(table, "/mnt/data", "/dev/sda1")
	assert.True(t, found)
	assert.False(t, correct)
}

func TestMountedCorrectlyMatchingSource(t *testing.T) {
	table := []MountEntry{{MountOn: "/mnt/data", Source: "/dev/sda1"}}
	found, correct := mountedCorrectly(table, "/mnt/data", "/dev/sda1")
	assert.True(t, found)
	assert.True(t, correct)
}

func TestMountedCorrectlyNoSourcePromisedAcceptsAnyMount(t *testing.T) {
	table := []MountEntry{{MountOn: "/mnt/data", Source: "/dev/sdb1"}}
	found, correct := mountedCorrectly(table, "/mnt/data", "")
	assert.True(t, found)
	assert.True(t, correct)
}

func TestIsForeignMount(t *testing.T) {
	table := []MountEntry{{MountOn: "/mnt/nfs", Options: "rw,nfs,vers=4"}}
	assert.True(t, isForeignMount(table, "/mnt/nfs"))
	assert.False(t, isForeignMount(table, "/mnt/unknown"))
}
