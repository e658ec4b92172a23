package core

import (
	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
)

// Event is a single emitted Starknet event, tagged with the location it was
// produced at (spec.md §3).
type Event struct {
	FromAddress ContractAddress
	Keys        []*felt.Felt
	Data        []*felt.Felt

	BlockNumber     uint64
	TransactionHash *felt.Felt
	Index           int
}

// MatchesKeys implements the subscription/getEvents key filter semantics
// from spec.md §4.7: keys is a list of key positions, each a set of
// admissible Felts; a nil position means "any".
func MatchesKeys(event *Event, keys [][]*felt.Felt) bool {
	if len(keys) > len(event.Keys) {
		return false
	}
	for i, admissible := range keys {
		if admissible == nil {
			continue
		}
		if !feltIn(event.Keys[i], admissible) {
			return false
		}
	}
	return true
}

func feltIn(f *felt.Felt, set []*felt.Felt) bool {
	for _, candidate := range set {
		if candidate.Equal(f) {
			return true
		}
	}
	return false
}

// L2ToL1Message is an outbound message produced by an executed transaction,
// destined for the L1 messaging bridge's unsent-message queue.
type L2ToL1Message struct {
	FromAddress ContractAddress
	ToAddress   [20]byte // L1 address
	Payload     []*felt.Felt
}

// LocalID computes a stable local identity for the message, keying the
// bridge's unsent-message queue. It is not the keccak message hash the L1
// bridge contract registers: keccak hashing is owned by the (out-of-scope)
// L1Client/bridge contract ABI encoder, so this reuses the domain Poseidon
// hash instead of re-deriving Ethereum's keccak256(abi.encodePacked(...))
// layout.
func (m L2ToL1Message) LocalID() *felt.Felt {
	return crypto.PoseidonArray(append([]*felt.Felt{&m.FromAddress.Felt, new(felt.Felt).SetBytes(m.ToAddress[:])}, m.Payload...)...)
}
