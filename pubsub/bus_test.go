package pubsub_test

import (
	"testing"
	"time"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/pubsub"
)

func recvWithTimeout(t *testing.T, ch <-chan pubsub.Notification) pubsub.Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
		return pubsub.Notification{}
	}
}

func TestPublishNewHeadFansOutToSubscribers(t *testing.T) {
	bus := pubsub.New()
	id, ch := bus.SubscribeNewHeads()
	require.NotZero(t, id)

	block := &core.Block{Header: core.Header{Number: 7}}
	bus.PublishNewHead(block)

	n := recvWithTimeout(t, ch)
	assert.Equal(t, id, n.SubscriptionID)
	assert.Equal(t, "starknet_subscriptionNewHeads", n.Method)
	assert.Equal(t, block.Header, n.Result)
}

func TestPublishTxStatusOnlyNotifiesMatchingHash(t *testing.T) {
	bus := pubsub.New()
	target := core.MustParseFelt("0x1")
	other := core.MustParseFelt("0x2")

	_, ch := bus.SubscribeTxStatus(target)

	bus.PublishTxStatus(other, pubsub.TxStatusAcceptedOnL2, core.ExecutionSucceeded)
	bus.PublishTxStatus(target, pubsub.TxStatusAcceptedOnL2, core.ExecutionSucceeded)

	n := recvWithTimeout(t, ch)
	result, ok := n.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, core.FeltToHex(target), result["transaction_hash"])

	select {
	case extra := <-ch:
		t.Fatalf("expected exactly one notification, got a second: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishEventsRespectsAddressAndKeyFilter(t *testing.T) {
	bus := pubsub.New()
	addr := core.NewContractAddress(core.MustParseFelt("0x1234"))
	otherAddr := core.NewContractAddress(core.MustParseFelt("0x5678"))
	key := core.MustParseFelt("0xabc")

	_, ch := bus.SubscribeEvents(pubsub.EventFilter{
		FromAddress: &addr,
		Keys:        [][]*felt.Felt{{key}},
	})

	matching := &core.Event{FromAddress: addr, Keys: []*felt.Felt{key}}
	wrongAddr := &core.Event{FromAddress: otherAddr, Keys: []*felt.Felt{key}}
	wrongKey := &core.Event{FromAddress: addr, Keys: []*felt.Felt{core.MustParseFelt("0xdead")}}

	bus.PublishEvents([]*core.Event{wrongAddr, wrongKey, matching})

	n := recvWithTimeout(t, ch)
	assert.Same(t, matching, n.Result)
}

func TestPublishPendingTransactionFiltersBySender(t *testing.T) {
	bus := pubsub.New()
	sender := core.NewContractAddress(core.MustParseFelt("0x1"))
	_, ch := bus.SubscribePendingTransactions(&sender)

	tx := &core.Transaction{
		Kind: core.TransactionInvoke,
		Invoke: &core.InvokeTransaction{
			Hash:          core.MustParseFelt("0x99"),
			SenderAddress: sender,
		},
	}
	bus.PublishPendingTransaction(tx)

	n := recvWithTimeout(t, ch)
	assert.Equal(t, core.FeltToHex(tx.Hash()), n.Result)
}

func TestPublishReorgSkipsPendingTransactionsSubscribers(t *testing.T) {
	bus := pubsub.New()
	_, heads := bus.SubscribeNewHeads()
	_, pending := bus.SubscribePendingTransactions(nil)

	bus.PublishReorg(10, 12)

	recvWithTimeout(t, heads)
	select {
	case n := <-pending:
		t.Fatalf("pending-transactions subscriber should not see a reorg notification, got %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannelAndStopsDelivery(t *testing.T) {
	bus := pubsub.New()
	id, ch := bus.SubscribeNewHeads()

	require.True(t, bus.Unsubscribe(id))
	assert.False(t, bus.Unsubscribe(id), "unsubscribing twice should report the id as unknown")

	_, open := <-ch
	assert.False(t, open, "channel should be closed after Unsubscribe")
}

func TestChannelLookupAndDrop(t *testing.T) {
	bus := pubsub.New()
	id, ch := bus.SubscribeNewHeads()

	got, ok := bus.Channel(id)
	require.True(t, ok)
	assert.Equal(t, ch, got)

	bus.Drop([]uint64{id})
	_, ok = bus.Channel(id)
	assert.False(t, ok)
}
