package messaging_test

import (
	"context"
	"testing"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/messaging"
)

func TestContractAddressBeforeConfigureFails(t *testing.T) {
	b := messaging.New()
	_, err := b.ContractAddress()
	assert.ErrorIs(t, err, core.ErrMessagingNotConfigured)
}

func TestFetchMessagesToL2BeforeConfigureFails(t *testing.T) {
	b := messaging.New()
	_, err := b.FetchMessagesToL2(context.Background())
	assert.ErrorIs(t, err, core.ErrMessagingNotConfigured)
}

func TestSendMessagesToL1RetainsOnlyFailedMessages(t *testing.T) {
	b := messaging.New()
	addr := core.NewContractAddress(core.MustParseFelt("0x1"))
	failing := core.L2ToL1Message{FromAddress: addr, ToAddress: [20]byte{1}}
	succeeding := core.L2ToL1Message{FromAddress: addr, ToAddress: [20]byte{2}}
	b.CollectMessagesToL1([]core.L2ToL1Message{failing, succeeding})

	failingHash := failing.LocalID()
	var firstRoundCalls []*felt.Felt
	err := b.SendMessagesToL1(context.Background(), func(ctx context.Context, hash *felt.Felt) error {
		firstRoundCalls = append(firstRoundCalls, hash)
		if hash.Equal(failingHash) {
			return assert.AnError
		}
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, firstRoundCalls, 2, "both queued messages should be attempted")

	var secondRoundCalls []*felt.Felt
	err = b.SendMessagesToL1(context.Background(), func(ctx context.Context, hash *felt.Felt) error {
		secondRoundCalls = append(secondRoundCalls, hash)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, secondRoundCalls, 1, "only the previously-failed message should remain queued")
	assert.True(t, secondRoundCalls[0].Equal(failingHash))

	var thirdRoundCalls []*felt.Felt
	err = b.SendMessagesToL1(context.Background(), func(ctx context.Context, hash *felt.Felt) error {
		thirdRoundCalls = append(thirdRoundCalls, hash)
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, thirdRoundCalls, "queue should be empty after the retry succeeds")
}

func TestConsumeL2ToL1MessageDelegatesToCallback(t *testing.T) {
	b := messaging.New()
	hash := core.MustParseFelt("0xabc")
	var got *felt.Felt
	err := b.ConsumeL2ToL1Message(context.Background(), hash, func(ctx context.Context, h *felt.Felt) error {
		got = h
		return nil
	})
	require.NoError(t, err)
	assert.True(t, got.Equal(hash))
}
