package process

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignalSpecNamed(t *testing.T) {
	sig, _, isSleep, err := parseSignalSpec("term")
	require.NoError(t, err)
	assert.False(t, isSleep)
	assert.Equal(t, syscall.SIGTERM, sig)
}

func TestParseSignalSpecCaseInsensitive(t *testing.T) {
	sig, _, isSleep, err := parseSignalSpec("KILL")
	require.NoError(t, err)
	assert.False(t, isSleep)
	assert.Equal(t, syscall.SIGKILL, sig)
}

func TestParseSignalSpecNumeric(t *testing.T) {
	sig, _, isSleep, err := parseSignalSpec("9")
	require.NoError(t, err)
	assert.False(t, isSleep)
	assert.Equal(t, syscall.Signal(9), sig)
}

func TestParseSignalSpecSleep(t *testing.T) {
	_, sleep, isSleep, err := parseSignalSpec("5s")
	require.NoError(t, err)
	assert.True(t, isSleep)
	assert.Equal(t, 5*time.Second, sleep)
}

func TestParseSignalSpecUnrecognized(t *testing.T) {
	_, _, _, err := parseSignalSpec("not-a-signal")
	assert.Error(t, err)
}

func TestIsKillSignal(t *testing.T) {
	assert.True(t, isKillSignal(syscall.SIGKILL))
	assert.True(t, isKillSignal(syscall.SIGHUP))
	assert.False(t, isKillSignal(syscall.SIGSTOP))
	assert.False(t, isKillSignal(syscall.SIGCONT))
}

func TestSignalAllowedRejectsLowPIDs(t *testing.T) {
	for _, pid := range []int{0, 1, 2, 3} {
		if pid == 1 {
			continue
		}
		assert.False(t, signalAllowed(pid, syscall.SIGTERM, true, 999))
	}
}

func TestSignalAllowedRejectsOwnPID(t *testing.T) {
	assert.False(t, signalAllowed(500, syscall.SIGTERM, true, 500))
}

func TestSignalAllowedPID1OnlyAcceptsSoleHup(t *testing.T) {
	assert.True(t, signalAllowed(1, syscall.SIGHUP, true, 999))
	assert.False(t, signalAllowed(1, syscall.SIGHUP, false, 999))
	assert.False(t, signalAllowed(1, syscall.SIGTERM, true, 999))
}

func TestSignalAllowedOrdinaryPID(t *testing.T) {
	assert.True(t, signalAllowed(500, syscall.SIGTERM, false, 999))
}

type fakeSignaler struct {
	delivered []int
}

func (f *fakeSignaler) Signal(pid int, sig syscall.Signal) error {
	f.delivered = append(f.delivered, pid)
	return nil
}

func TestCountActualSignalsExcludesSleeps(t *testing.T) {
	assert.Equal(t, 1, countActualSignals([]string{"5s", "term"}))
	assert.Equal(t, 2, countActualSignals([]string{"term", "kill"}))
}
