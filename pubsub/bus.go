// Package pubsub implements the subscription fan-out described in
// spec.md §4.7: each socket owns a set of independent subscriptions fed by
// a single shared bus, decoupling BlockManager/TxExecutor (publishers) from
// the transport layer (subscribers) per the event-bus redesign note in
// spec.md §9.
package pubsub

import (
	"sync"
	"sync/atomic"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
)

// Kind discriminates the five subscription kinds spec.md §4.7 defines.
type Kind int

const (
	KindNewHeads Kind = iota
	KindTxStatus
	KindEvents
	KindPendingTransactions
	KindReorg // implicit: never subscribed to directly
)

// TxStatusKind names the finality transition a TxStatus notification reports.
type TxStatusKind int

const (
	TxStatusAcceptedOnL2 TxStatusKind = iota
	TxStatusAcceptedOnL1
	TxStatusRejected
)

// Notification is the payload delivered to one subscriber; Method and
// Result are serialized by the transport into
// {jsonrpc, method, params:{subscription_id, result}}.
type Notification struct {
	SubscriptionID uint64
	Method         string
	Result         any
}

// EventFilter narrows an Events subscription (spec.md §4.7).
type EventFilter struct {
	FromAddress *core.ContractAddress
	Keys        [][]*felt.Felt
}

type subscription struct {
	id     uint64
	kind   Kind
	ch     chan Notification
	addr   *core.ContractAddress // PendingTransactions sender filter
	txHash *felt.Felt            // TxStatus target
	filter EventFilter
	lagged bool
}

// Bus owns every live subscription across every socket. A socket drops all
// of its subscriptions by calling Unsubscribe for each id it registered, or
// by the transport calling Bus.Drop when the connection closes.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*subscription
}

func New() *Bus {
	return &Bus{subs: make(map[uint64]*subscription)}
}

// bufferSize bounds the per-subscription channel; a slow consumer that
// falls this far behind is marked Lagged rather than blocking the
// publisher (spec.md §5's single-writer-lock model cannot afford to block
// on a socket write).
const bufferSize = 256

func (b *Bus) subscribe(kind Kind, addr *core.ContractAddress, filter EventFilter) (uint64, <-chan Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := atomic.AddUint64(&b.nextID, 1)
	s := &subscription{id: id, kind: kind, ch: make(chan Notification, bufferSize), addr: addr, filter: filter}
	b.subs[id] = s
	return id, s.ch
}

// SubscribeNewHeads registers a NewHeads subscription. Backfilling sealed
// blocks from fromBlock is the caller's responsibility (it needs read
// access to blockchain.Manager, which pubsub does not import, keeping the
// one-way publish direction spec.md §9 calls for).
func (b *Bus) SubscribeNewHeads() (uint64, <-chan Notification) {
	return b.subscribe(KindNewHeads, nil, EventFilter{})
}

func (b *Bus) SubscribeTxStatus(hash *felt.Felt) (uint64, <-chan Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := atomic.AddUint64(&b.nextID, 1)
	s := &subscription{id: id, kind: KindTxStatus, ch: make(chan Notification, bufferSize), txHash: hash}
	b.subs[id] = s
	return id, s.ch
}

func (b *Bus) SubscribeEvents(filter EventFilter) (uint64, <-chan Notification) {
	return b.subscribe(KindEvents, nil, filter)
}

func (b *Bus) SubscribePendingTransactions(sender *core.ContractAddress) (uint64, <-chan Notification) {
	return b.subscribe(KindPendingTransactions, sender, EventFilter{})
}

// Channel returns the notification channel a prior SubscribeX call
// allocated for id, so the transport can start pumping it into a specific
// connection once the subscribe RPC call has returned (spec.md §4.7: the
// bus itself never knows about connections).
func (b *Bus) Channel(id uint64) (<-chan Notification, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.subs[id]
	if !ok {
		return nil, false
	}
	return s.ch, true
}

// Unsubscribe removes a subscription. Returns false (caller should surface
// ErrInvalidSubscriptionID) if id is unknown.
func (b *Bus) Unsubscribe(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.subs[id]
	if !ok {
		return false
	}
	close(s.ch)
	delete(b.subs, id)
	return true
}

// Drop removes every subscription owned by one socket. The transport layer
// tracks which ids belong to which socket; this is a convenience for
// unsubscribing a batch at once.
func (b *Bus) Drop(ids []uint64) {
	for _, id := range ids {
		b.Unsubscribe(id)
	}
}

func (b *Bus) send(s *subscription, method string, result any) {
	n := Notification{SubscriptionID: s.id, Method: method, Result: result}
	select {
	case s.ch <- n:
	default:
		s.lagged = true
	}
}

// PublishNewHead fans a sealed or promoted block out to every NewHeads
// subscriber.
func (b *Bus) PublishNewHead(block *core.Block) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if s.kind == KindNewHeads {
			b.send(s, "starknet_subscriptionNewHeads", block.Header)
		}
	}
}

// PublishTxStatus notifies the TxStatus subscriber for hash, if any.
func (b *Bus) PublishTxStatus(hash *felt.Felt, status TxStatusKind, execStatus core.ExecutionStatus) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if s.kind == KindTxStatus && s.txHash.Equal(hash) {
			b.send(s, "starknet_subscriptionTransactionStatus", map[string]any{
				"transaction_hash": core.FeltToHex(hash),
				"status":           status,
				"execution_status": execStatus,
			})
		}
	}
}

// PublishEvents fans matching events out to Events subscribers (spec.md
// §4.7: address equality AND keyword-by-position match).
func (b *Bus) PublishEvents(events []*core.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if s.kind != KindEvents {
			continue
		}
		for _, e := range events {
			if s.filter.FromAddress != nil && !s.filter.FromAddress.Felt.Equal(&e.FromAddress.Felt) {
				continue
			}
			if s.filter.Keys != nil && !core.MatchesKeys(e, s.filter.Keys) {
				continue
			}
			b.send(s, "starknet_subscriptionEvents", e)
		}
	}
}

// PublishPendingTransaction fires for every tx added to the pre-confirmed
// buffer. Never fired on reorg (spec.md §4.7).
func (b *Bus) PublishPendingTransaction(tx *core.Transaction) {
	sender, hasSender := tx.SenderAddress()
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if s.kind != KindPendingTransactions {
			continue
		}
		if s.addr != nil && (!hasSender || !s.addr.Felt.Equal(&sender.Felt)) {
			continue
		}
		b.send(s, "starknet_subscriptionPendingTransactions", core.FeltToHex(tx.Hash()))
	}
}

// PublishReorg notifies every active subscription except
// PendingTransactions (spec.md §8 property 9).
func (b *Bus) PublishReorg(startingNumber, endingNumber uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if s.kind == KindPendingTransactions {
			continue
		}
		b.send(s, "starknet_subscriptionReorg", map[string]uint64{
			"starting_block_number": startingNumber,
			"ending_block_number":   endingNumber,
		})
	}
}

// PublishTxStatusRejected is the Reorg-triggered half of TxStatus fan-out:
// every truncated transaction's TxStatus subscriber (if any) also gets a
// terminal Rejected status alongside the blanket Reorg notification.
func (b *Bus) PublishTxStatusRejected(hash *felt.Felt) {
	b.PublishTxStatus(hash, TxStatusRejected, core.ExecutionReverted)
}
