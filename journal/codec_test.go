package journal_test

import (
	"testing"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/journal"
)

func TestEncodeDecodeInvokeRoundtrips(t *testing.T) {
	sender := core.ContractAddress{Felt: *core.MustParseFelt("0x1")}
	event := journal.DumpEvent{
		Kind: journal.EventInvoke,
		Transaction: &core.Transaction{
			Kind: core.TransactionInvoke,
			Invoke: &core.InvokeTransaction{
				CommonV3Fields: core.CommonV3Fields{Nonce: core.MustParseFelt("0x3")},
				Hash:           core.MustParseFelt("0x99"),
				SenderAddress:  sender,
				Calldata:       []*felt.Felt{},
				Signature:      []*felt.Felt{},
			},
		},
	}

	encoded, err := journal.Encode(event)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"type":"INVOKE"`)

	decoded, err := journal.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, journal.EventInvoke, decoded.Kind)
	assert.Equal(t, core.TransactionInvoke, decoded.Transaction.Kind)
	assert.Equal(t, event.Transaction.Invoke.Hash, decoded.Transaction.Invoke.Hash)
	assert.Equal(t, sender, decoded.Transaction.Invoke.SenderAddress)
}

func TestEncodeDecodeMintRoundtrips(t *testing.T) {
	addr := core.ContractAddress{Felt: *core.MustParseFelt("0x1")}
	event := journal.DumpEvent{
		Kind:        journal.EventMint,
		MintAddress: addr,
		MintAmount:  "0x64",
		MintUnit:    core.FeeUnitFri,
	}

	encoded, err := journal.Encode(event)
	require.NoError(t, err)

	decoded, err := journal.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, journal.EventMint, decoded.Kind)
	assert.Equal(t, addr, decoded.MintAddress)
	assert.Equal(t, "0x64", decoded.MintAmount)
	assert.Equal(t, core.FeeUnitFri, decoded.MintUnit)
}

func TestEncodeDecodeSetTimeRoundtrips(t *testing.T) {
	event := journal.DumpEvent{Kind: journal.EventSetTime, Seconds: 1234}

	encoded, err := journal.Encode(event)
	require.NoError(t, err)

	decoded, err := journal.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, journal.EventSetTime, decoded.Kind)
	assert.Equal(t, uint64(1234), decoded.Seconds)
}

func TestDecodeUnknownTypeFails(t *testing.T) {
	_, err := journal.Decode([]byte(`{"type":"BOGUS"}`))
	assert.ErrorIs(t, err, core.ErrFormatError)
}

func TestDecodeMalformedJSONFails(t *testing.T) {
	_, err := journal.Decode([]byte(`not json`))
	assert.ErrorIs(t, err, core.ErrDeserializationError)
}
