package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
)

func TestCodedErrorsImplementCode(t *testing.T) {
	var _ core.Code = core.ErrBlockNotFound
	assert.Equal(t, 24, core.ErrBlockNotFound.RPCCode())
	assert.Equal(t, "block not found", core.ErrBlockNotFound.Error())
}

func TestDevnetErrorsUseDistinctCodeRange(t *testing.T) {
	// Every devnet_*-only error code must stay outside the Starknet
	// JSON-RPC spec's own numeric range (spec.md §7) so a client can tell
	// a protocol-defined error apart from a devnet extension by code alone.
	for _, err := range []core.Code{
		core.ErrFileNotFound,
		core.ErrFormatError,
		core.ErrMessagingNotConfigured,
		core.ErrNoneStorage,
	} {
		assert.GreaterOrEqual(t, err.RPCCode(), 100, "%v should use a devnet-range code", err)
	}
}

func TestValidationFailureCarriesReason(t *testing.T) {
	err := &core.ValidationFailure{Reason: "nonce too low"}
	assert.Equal(t, 55, err.RPCCode())
	assert.Contains(t, err.Error(), "nonce too low")
}
