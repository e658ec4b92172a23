package core

import (
	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/NethermindEth/juno/core/trie"
)

// BlockStatus is a sealed block's acceptance state (spec.md §3).
type BlockStatus int

const (
	BlockPreConfirmed BlockStatus = iota
	BlockAcceptedOnL2
	BlockAcceptedOnL1
)

func (s BlockStatus) String() string {
	switch s {
	case BlockPreConfirmed:
		return "PRE_CONFIRMED"
	case BlockAcceptedOnL2:
		return "ACCEPTED_ON_L2"
	case BlockAcceptedOnL1:
		return "ACCEPTED_ON_L1"
	default:
		return "UNKNOWN"
	}
}

// Header is the sealed portion of a block's metadata (everything but the
// transaction bodies, which live separately keyed by hash).
type Header struct {
	Number    uint64
	Hash      *felt.Felt
	ParentHash *felt.Felt
	Timestamp uint64

	SequencerAddress ContractAddress
	L1GasPrice       GasPrice
	L1DataGasPrice   GasPrice
	L2GasPrice       GasPrice
	StarknetVersion  string
	L1DAMode         DAMode

	TransactionCommitment *felt.Felt
	EventCommitment       *felt.Felt

	Status BlockStatus
}

// Block pairs a sealed Header with the hashes of the transactions it
// contains, in inclusion order (spec.md §3).
type Block struct {
	Header
	TransactionHashes []*felt.Felt
}

// commitmentTrieHeight is the canonical height-64 binary Merkle Patricia
// tree shape used for every per-block commitment over a short,
// block-scoped list.
const commitmentTrieHeight uint = 64

// TransactionCommitment computes the root of a height-64 Merkle tree over
// (index -> tx hash). There is no separate signature-hash leaf: v3
// transactions sign over their own hash and carry no detachable signature
// commitment.
func TransactionCommitment(hashes []*felt.Felt) (*felt.Felt, error) {
	var commitment *felt.Felt
	err := trie.RunOnTempTrie(commitmentTrieHeight, func(tr *trie.Trie) error {
		for i, h := range hashes {
			if _, err := tr.Put(new(felt.Felt).SetUint64(uint64(i)), h); err != nil {
				return err
			}
		}
		root, err := tr.Root()
		if err != nil {
			return err
		}
		commitment = root
		return nil
	})
	return commitment, err
}

// EventCommitment computes the root of a height-64 Merkle tree over every
// event emitted across a block's receipts.
func EventCommitment(receipts []*Receipt) (*felt.Felt, error) {
	var commitment *felt.Felt
	err := trie.RunOnTempTrie(commitmentTrieHeight, func(tr *trie.Trie) error {
		count := uint64(0)
		for _, r := range receipts {
			for _, event := range r.Events {
				eventHash := crypto.PedersenArray(
					&event.FromAddress.Felt,
					crypto.PedersenArray(event.Keys...),
					crypto.PedersenArray(event.Data...),
				)
				if _, err := tr.Put(new(felt.Felt).SetUint64(count), eventHash); err != nil {
					return err
				}
				count++
			}
		}
		root, err := tr.Root()
		if err != nil {
			return err
		}
		commitment = root
		return nil
	})
	return commitment, err
}

// HeaderHash computes a block's canonical hash as the Poseidon digest of
// its header fields, parent hash included, following the chaining
// invariant in spec.md §8 property 1.
func HeaderHash(h *Header) *felt.Felt {
	return crypto.PoseidonArray(
		new(felt.Felt).SetUint64(h.Number),
		h.ParentHash,
		new(felt.Felt).SetUint64(h.Timestamp),
		&h.SequencerAddress.Felt,
		h.TransactionCommitment,
		h.EventCommitment,
		new(felt.Felt).SetUint64(h.L1GasPrice.Wei),
		new(felt.Felt).SetUint64(h.L1GasPrice.Fri),
		ShortString(h.StarknetVersion),
	)
}
