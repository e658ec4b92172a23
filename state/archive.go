package state

import (
	"github.com/NethermindEth/juno/core/felt"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
)

// Commit folds the live (pre-confirmed) state into the sealed (latest)
// state, computing the ThinStateDiff the two snapshots differ by, and — in
// ArchiveFull mode — archives a copy-on-write snapshot keyed by the new
// block number (spec.md §4.1, §4.2). It is called exactly once per sealed
// block, by BlockManager.CreateBlock.
func (s *Store) Commit(blockNumber uint64, blockHash *felt.Felt) *core.ThinStateDiff {
	s.mu.Lock()
	defer s.mu.Unlock()

	diff := diffStates(s.sealed, s.live)
	s.sealed = s.live.clone()

	if s.archive == ArchiveFull {
		s.history[blockNumber] = s.sealed.clone()
		s.hashIdx[*blockHash] = blockNumber
	}
	return diff
}

// diffStates computes the ThinStateDiff between an old and new contractState.
// Declared classes are not part of the per-contract snapshot (they are
// global and monotonic), so declared/deprecated-declared classes are
// attributed by the caller (TxExecutor tracks them per-transaction instead).
func diffStates(oldState, newState *contractState) *core.ThinStateDiff {
	diff := core.NewThinStateDiff()

	for addr, newCH := range newState.classHash {
		oldCH, existed := oldState.classHash[addr]
		switch {
		case !existed:
			diff.DeployedContracts = append(diff.DeployedContracts, core.DeployedContract{
				Address:   addr,
				ClassHash: core.ClassHash{Felt: *newCH},
			})
		case !oldCH.Equal(newCH):
			diff.ReplacedClasses = append(diff.ReplacedClasses, core.ReplacedClass{
				Address:   addr,
				ClassHash: core.ClassHash{Felt: *newCH},
			})
		}
	}

	for addr, newNonce := range newState.nonces {
		oldNonce, existed := oldState.nonces[addr]
		if !existed || !oldNonce.Equal(newNonce) {
			diff.Nonces[addr] = newNonce
		}
	}

	for addr, cells := range newState.storage {
		oldCells := oldState.storage[addr]
		var perAddr []core.StorageDiff
		for key, val := range cells {
			oldVal, existed := oldCells[key]
			if !existed || !oldVal.Equal(val) {
				perAddr = append(perAddr, core.StorageDiff{Key: key, Value: val})
			}
		}
		if len(perAddr) > 0 {
			diff.StorageDiffs[addr] = perAddr
		}
	}

	return diff
}

// Revert reverts both the sealed and live state back to the snapshot taken
// at toNumber (the block immediately preceding the aborted range), and
// drops every archived snapshot after it. Used by BlockManager.AbortBlocks
// (spec.md §4.2). With hasPrevious false (reverting to "before genesis")
// toNumber is ignored and both states reset to empty.
func (s *Store) Revert(toNumber uint64, hasPrevious bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.archive != ArchiveFull {
		return core.ErrCannotAbort
	}

	var target *contractState
	if !hasPrevious {
		target = newContractState()
	} else {
		snap, ok := s.history[toNumber]
		if !ok {
			return core.ErrNoStateAtBlock
		}
		target = snap.clone()
	}

	s.sealed = target
	s.live = target.clone()

	for num, hash := range s.archiveHashesAfter(toNumber, hasPrevious) {
		delete(s.history, num)
		delete(s.hashIdx, hash)
	}
	return nil
}

func (s *Store) archiveHashesAfter(toNumber uint64, hasPrevious bool) map[uint64]felt.Felt {
	out := make(map[uint64]felt.Felt)
	for num := range s.history {
		if hasPrevious && num <= toNumber {
			continue
		}
		for hash, n := range s.hashIdx {
			if n == num {
				out[num] = hash
			}
		}
	}
	return out
}
