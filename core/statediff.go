package core

import "github.com/NethermindEth/juno/core/felt"

// StorageDiff is a single (key -> new value) write produced within a block.
type StorageDiff struct {
	Key   StorageKey
	Value *felt.Felt
}

// DeployedContract records a newly-deployed (address -> class hash) pair.
type DeployedContract struct {
	Address   ContractAddress
	ClassHash ClassHash
}

// DeclaredClass pairs a Cairo1 class hash with its compiled (Casm) hash.
type DeclaredClass struct {
	ClassHash         ClassHash
	CompiledClassHash CompiledClassHash
}

// ReplacedClass records a contract whose class binding changed via
// replace_class while keeping its address and storage (spec.md §4.1).
type ReplacedClass struct {
	Address   ContractAddress
	ClassHash ClassHash
}

// ThinStateDiff is the set-like summary of writes a single block produces
// (spec.md §3). The ReplacedClasses slot is part of the schema per
// spec.md §9 ("leave the slot ... emit it only when a real replacement
// occurs") even though most blocks never populate it.
type ThinStateDiff struct {
	StorageDiffs            map[ContractAddress][]StorageDiff
	Nonces                  map[ContractAddress]*felt.Felt
	DeployedContracts       []DeployedContract
	DeclaredClasses         []DeclaredClass
	DeprecatedDeclaredClasses []ClassHash
	ReplacedClasses         []ReplacedClass
}

// NewThinStateDiff returns an empty, ready-to-populate diff.
func NewThinStateDiff() *ThinStateDiff {
	return &ThinStateDiff{
		StorageDiffs: make(map[ContractAddress][]StorageDiff),
		Nonces:       make(map[ContractAddress]*felt.Felt),
	}
}

// IsEmpty reports whether the diff has no writes at all, used by the block
// manager to decide whether an empty block is worth sealing in interval
// mode.
func (d *ThinStateDiff) IsEmpty() bool {
	return len(d.StorageDiffs) == 0 && len(d.Nonces) == 0 && len(d.DeployedContracts) == 0 &&
		len(d.DeclaredClasses) == 0 && len(d.DeprecatedDeclaredClasses) == 0 && len(d.ReplacedClasses) == 0
}

// Merge folds other into d in place, as the executor does after committing
// each transaction's diff into the pending block's accumulated diff.
func (d *ThinStateDiff) Merge(other *ThinStateDiff) {
	for addr, diffs := range other.StorageDiffs {
		d.StorageDiffs[addr] = append(d.StorageDiffs[addr], diffs...)
	}
	for addr, nonce := range other.Nonces {
		d.Nonces[addr] = nonce
	}
	d.DeployedContracts = append(d.DeployedContracts, other.DeployedContracts...)
	d.DeclaredClasses = append(d.DeclaredClasses, other.DeclaredClasses...)
	d.DeprecatedDeclaredClasses = append(d.DeprecatedDeclaredClasses, other.DeprecatedDeclaredClasses...)
	d.ReplacedClasses = append(d.ReplacedClasses, other.ReplacedClasses...)
}
