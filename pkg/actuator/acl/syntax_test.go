package acl

import (
	"testing"

	"github.com/cfengine/promise-engine/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestValidateEntriesAcceptsGenericEntry(t *testing.T) {
	err := ValidateEntries([]string{"user:alice:=rwx"}, types.ACLGeneric)
	assert.NoError(t, err)
}

func TestValidateEntriesRejectsUnknownPrefix(t *testing.T) {
	err := ValidateEntries([]string{"everyone:+rwx"}, types.ACLGeneric)
	assert.Error(t, err)
}

func TestValidateEntriesRejectsMaskOnGeneric(t *testing.T) {
	err := ValidateEntries([]string{"mask:=rwx"}, types.ACLGeneric)
	assert.Error(t, err)
}

func TestValidateEntriesAcceptsMaskOnPosix(t *testing.T) {
	err := ValidateEntries([]string{"mask:=rwx"}, types.ACLPosix)
	assert.NoError(t, err)
}

func TestValidateEntriesRejectsEmptyID(t *testing.T) {
	err := ValidateEntries([]string{"user::=rwx"}, types.ACLGeneric)
	assert.Error(t, err)
}

func TestValidateEntriesAcceptsAllWithoutID(t *testing.T) {
	err := ValidateEntries([]string{"all:+rx"}, types.ACLGeneric)
	assert.NoError(t, err)
}

func TestValidateEntriesRejectsInvalidPermLetter(t *testing.T) {
	err := ValidateEntries([]string{"user:alice:=rwz"}, types.ACLGeneric)
	assert.Error(t, err)
}

func TestValidateEntriesRejectsBadModeOperator(t *testing.T) {
	err := ValidateEntries([]string{"user:alice:*rwx"}, types.ACLGeneric)
	assert.Error(t, err)
}

func TestValidateEntriesRejectsNativeOnGeneric(t *testing.T) {
	err := ValidateEntries([]string{"user:alice:=rwx<c>"}, types.ACLGeneric)
	assert.Error(t, err)
}

func TestValidateEntriesAcceptsNativeOnPosix(t *testing.T) {
	err := ValidateEntries([]string{"user:alice:=rwx<c>"}, types.ACLPosix)
	assert.NoError(t, err)
}

func TestValidateEntriesRejectsDenyOnPosix(t *testing.T) {
	err := ValidateEntries([]string{"user:alice:=rwx:deny"}, types.ACLPosix)
	assert.Error(t, err)
}

func TestValidateEntriesAcceptsDenyOnNTFS(t *testing.T) {
	err := ValidateEntries([]string{"user:alice:=rwxd:deny"}, types.ACLNTFS)
	assert.NoError(t, err)
}

func TestValidateEntriesAcceptsAllowPermType(t *testing.T) {
	err := ValidateEntries([]string{"user:alice:=rwx:allow"}, types.ACLGeneric)
	assert.NoError(t, err)
}

func TestValidateEntriesRejectsUnknownPermType(t *testing.T) {
	err := ValidateEntries([]string{"user:alice:=rwx:maybe"}, types.ACLGeneric)
	assert.Error(t, err)
}

func TestValidateEntriesAcceptsEmptyMode(t *testing.T) {
	err := ValidateEntries([]string{"user:alice:"}, types.ACLGeneric)
	assert.NoError(t, err)
}

func TestValidateEntriesAcceptsMultipleTuples(t *testing.T) {
	err := ValidateEntries([]string{"user:alice:=rwx,+r"}, types.ACLGeneric)
	assert.NoError(t, err)
}

func TestValidateEntriesStopsAtFirstBadEntry(t *testing.T) {
	err := ValidateEntries([]string{"user:alice:=rwx", "group:bob:=zzz"}, types.ACLGeneric)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "group:bob:=zzz")
}
