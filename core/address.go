package core

import (
	"fmt"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
)

// ContractAddress is a Felt in patricia-key range that uniquely identifies a
// deployed contract. The zero address is reserved and can never be deployed
// to (spec.md §4.1).
type ContractAddress struct {
	felt.Felt
}

// NewContractAddress wraps f as a ContractAddress without range-checking it;
// callers that accept addresses from the wire must call Validate first.
func NewContractAddress(f *felt.Felt) ContractAddress {
	return ContractAddress{Felt: *f}
}

// Validate reports whether a is in patricia-key range and non-zero, the two
// invariants every deploy target must satisfy.
func (a ContractAddress) Validate() error {
	if a.Felt.IsZero() {
		return fmt.Errorf("%w: address 0x0 is never a valid deployment target", ErrOutOfRange)
	}
	if !InPatriciaRange(&a.Felt) {
		return ErrOutOfRange
	}
	return nil
}

func (a ContractAddress) String() string {
	return FeltToHex(&a.Felt)
}

// ClassHash names a declared Sierra (Cairo1) or legacy (Cairo0) class.
type ClassHash struct {
	felt.Felt
}

func (c ClassHash) String() string { return FeltToHex(&c.Felt) }

// ComputeContractAddress derives a DeployAccount's own address from its
// class hash, salt and constructor calldata, following the same
// Pedersen-chain idiom predeploy.DeriveFromPrivateKey uses for the seeded
// accounts (spec.md §4.3 step 1, DeployAccount).
func ComputeContractAddress(classHash ClassHash, salt *felt.Felt, calldata []*felt.Felt) *felt.Felt {
	return crypto.PedersenArray(&classHash.Felt, salt, crypto.PedersenArray(calldata...))
}

// CompiledClassHash names the Casm artifact compiled from a Sierra class.
type CompiledClassHash struct {
	felt.Felt
}

func (c CompiledClassHash) String() string { return FeltToHex(&c.Felt) }

// StorageKey is a Felt in patricia-key range naming a storage cell within a
// contract.
type StorageKey struct {
	felt.Felt
}

func (k StorageKey) String() string { return FeltToHex(&k.Felt) }

// ChainID is a short-string-hashed Felt identifying the network, using the
// same "short string -> Felt" idiom as every other ASCII-tagged constant in
// this package, scoped to the chain ids this devnet actually supports.
type ChainID string

const (
	ChainIDMainnet            ChainID = "SN_MAIN"
	ChainIDSepolia            ChainID = "SN_SEPOLIA"
	ChainIDIntegrationSepolia ChainID = "SN_INTEGRATION_SEPOLIA"
)

// DefaultChainID matches spec.md §6's stated default.
const DefaultChainID = ChainIDSepolia

// Felt returns the short-string-hash Felt used when mixing the chain id
// into transaction and block hashes.
func (c ChainID) Felt() *felt.Felt {
	return ShortString(string(c))
}

func (c ChainID) String() string { return string(c) }
