package classes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func definedSet(names ...string) func(string) bool {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(n string) bool {
		_, ok := set[n]
		return ok
	}
}

func TestEvaluateLiteral(t *testing.T) {
	ok, err := Evaluate("linux", definedSet("linux"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate("linux", definedSet("windows"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateAndOr(t *testing.T) {
	isDefined := definedSet("linux", "x86_64")

	ok, err := Evaluate("linux&x86_64", isDefined)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate("linux&arm64", isDefined)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Evaluate("arm64|x86_64", isDefined)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateNot(t *testing.T) {
	isDefined := definedSet("linux")
	ok, err := Evaluate("!windows", isDefined)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate("!linux", isDefined)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateDotIsOrSeparator(t *testing.T) {
	isDefined := definedSet("debian")
	ok, err := Evaluate("redhat.debian.suse", isDefined)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateParensAndPrecedence(t *testing.T) {
	isDefined := definedSet("a", "c")
	// (a|b)&c -> true
	ok, err := Evaluate("(a|b)&c", isDefined)
	require.NoError(t, err)
	assert.True(t, ok)

	// a&b|c -> (a&b)|c -> false|true -> true, since & binds tighter than |
	ok, err = Evaluate("a&b|c", isDefined)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateRejectsTrailingGarbage(t *testing.T) {
	_, err := Evaluate("a)", definedSet("a"))
	assert.Error(t, err)
}

func TestSplitOrList(t *testing.T) {
	assert.Equal(t, []string{"redhat", "debian", "suse"}, SplitOrList("redhat.debian.suse"))
	assert.Equal(t, []string{"a(b.c)"}, SplitOrList("a(b.c)"))
}
