package acl

import (
	"testing"

	"github.com/cfengine/promise-engine/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestValidateDefaultACLNoChangeAlwaysPasses(t *testing.T) {
	err := validateDefaultACL("/any/file", types.ACLDefaultNoChange, func(string) bool { return false })
	assert.NoError(t, err)
}

func TestValidateDefaultACLSpecifyRequiresDirectory(t *testing.T) {
	err := validateDefaultACL("/some/file", types.ACLDefaultSpecify, func(string) bool { return false })
	assert.Error(t, err)
}

func TestValidateDefaultACLSpecifyPassesOnDirectory(t *testing.T) {
	err := validateDefaultACL("/some/dir", types.ACLDefaultSpecify, func(string) bool { return true })
	assert.NoError(t, err)
}

func TestValidateDefaultACLClearRequiresDirectory(t *testing.T) {
	err := validateDefaultACL("/some/file", types.ACLDefaultClear, func(string) bool { return false })
	assert.Error(t, err)
}
