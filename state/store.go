package state

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
)

// ForkReader is the read-through capability a ForkOverlay provides. It is
// consulted only when the local store would otherwise return the "empty
// default" for a query (spec.md §4.1).
type ForkReader interface {
	ForkNonce(addr core.ContractAddress) (*felt.Felt, bool, error)
	ForkClassHash(addr core.ContractAddress) (*felt.Felt, bool, error)
	ForkStorage(addr core.ContractAddress, key core.StorageKey) (*felt.Felt, bool, error)
	ForkCompiledClass(classHash core.ClassHash) (*core.CompiledClass, bool, error)
}

type contractState struct {
	nonces    map[core.ContractAddress]*felt.Felt
	classHash map[core.ContractAddress]*felt.Felt
	storage   map[core.ContractAddress]map[core.StorageKey]*felt.Felt
}

func newContractState() *contractState {
	return &contractState{
		nonces:    make(map[core.ContractAddress]*felt.Felt),
		classHash: make(map[core.ContractAddress]*felt.Felt),
		storage:   make(map[core.ContractAddress]map[core.StorageKey]*felt.Felt),
	}
}

func (c *contractState) clone() *contractState {
	cp := newContractState()
	for k, v := range c.nonces {
		cp.nonces[k] = v
	}
	for k, v := range c.classHash {
		cp.classHash[k] = v
	}
	for addr, cells := range c.storage {
		cloned := make(map[core.StorageKey]*felt.Felt, len(cells))
		for k, v := range cells {
			cloned[k] = v
		}
		cp.storage[addr] = cloned
	}
	return cp
}

// Store is the authoritative in-memory store of all mutable chain state and
// its history (spec.md §4.1). Only the TxExecutor and the predeploy
// pipeline may mutate it; every other caller reads.
type Store struct {
	mu sync.RWMutex

	sealed *contractState // state as of the last sealed block ("Latest")
	live   *contractState // sealed + effects of buffered, not-yet-sealed txs ("PreConfirmed")

	classes map[core.ClassHash]*core.CompiledClass

	archive Archive
	history map[uint64]*contractState     // ArchiveFull: full snapshot as of block N
	hashIdx map[felt.Felt]uint64          // block hash -> number, for ByHash lookups

	fork ForkReader
}

// New constructs an empty Store with the given archival mode.
func New(archive Archive) *Store {
	return &Store{
		sealed:  newContractState(),
		live:    newContractState(),
		classes: make(map[core.ClassHash]*core.CompiledClass),
		archive: archive,
		history: make(map[uint64]*contractState),
		hashIdx: make(map[felt.Felt]uint64),
	}
}

// SetFork attaches a ForkOverlay reader; calling it again replaces the
// overlay. A nil Store.fork disables fork fall-through entirely.
func (s *Store) SetFork(f ForkReader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fork = f
}

func (s *Store) resolve(v View) (*contractState, error) {
	switch v.Kind {
	case ViewLatest:
		return s.sealed, nil
	case ViewPreConfirmed:
		return s.live, nil
	case ViewByNumber:
		if s.archive != ArchiveFull {
			return nil, core.ErrStateHistoryDisabled
		}
		snap, ok := s.history[v.Number]
		if !ok {
			return nil, core.ErrNoStateAtBlock
		}
		return snap, nil
	case ViewByHash:
		if s.archive != ArchiveFull {
			return nil, core.ErrStateHistoryDisabled
		}
		num, ok := s.hashIdx[*v.Hash]
		if !ok {
			return nil, core.ErrNoStateAtBlock
		}
		return s.history[num], nil
	default:
		return nil, fmt.Errorf("unknown view kind %d", v.Kind)
	}
}

// GetNonce returns addr's nonce under the given view, defaulting to 0 for
// unseen addresses unless a fork overlay resolves it.
func (s *Store) GetNonce(v View, addr core.ContractAddress) (*felt.Felt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, err := s.resolve(v)
	if err != nil {
		return nil, err
	}
	if n, ok := snap.nonces[addr]; ok {
		return n, nil
	}
	if s.fork != nil && v.Kind != ViewByNumber && v.Kind != ViewByHash {
		if n, found, ferr := s.fork.ForkNonce(addr); ferr != nil {
			return nil, ferr
		} else if found {
			return n, nil
		}
	}
	return &felt.Zero, nil
}

// GetClassHashAt returns addr's deployed class hash, 0 if undeployed.
func (s *Store) GetClassHashAt(v View, addr core.ContractAddress) (*felt.Felt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, err := s.resolve(v)
	if err != nil {
		return nil, err
	}
	if ch, ok := snap.classHash[addr]; ok {
		return ch, nil
	}
	if s.fork != nil && v.Kind != ViewByNumber && v.Kind != ViewByHash {
		if ch, found, ferr := s.fork.ForkClassHash(addr); ferr != nil {
			return nil, ferr
		} else if found {
			return ch, nil
		}
	}
	return &felt.Zero, nil
}

// GetStorage returns the value at (addr, key), 0 for absent keys.
func (s *Store) GetStorage(v View, addr core.ContractAddress, key core.StorageKey) (*felt.Felt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, err := s.resolve(v)
	if err != nil {
		return nil, err
	}
	if cells, ok := snap.storage[addr]; ok {
		if val, ok := cells[key]; ok {
			return val, nil
		}
	}
	if s.fork != nil && v.Kind != ViewByNumber && v.Kind != ViewByHash {
		if val, found, ferr := s.fork.ForkStorage(addr, key); ferr != nil {
			return nil, ferr
		} else if found {
			return val, nil
		}
	}
	return &felt.Zero, nil
}

// GetCompiledClass returns the declared class named by classHash, or
// ErrClassHashNotFound if it was never declared locally or upstream.
func (s *Store) GetCompiledClass(classHash core.ClassHash) (*core.CompiledClass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.classes[classHash]; ok {
		return c, nil
	}
	if s.fork != nil {
		if c, found, err := s.fork.ForkCompiledClass(classHash); err != nil {
			return nil, err
		} else if found {
			return c, nil
		}
	}
	return nil, core.ErrClassHashNotFound
}

// IsDeclared reports whether classHash was already declared, used by the
// executor's pre-validation step to reject duplicate declares
// (spec.md §4.3 step 2, §8 property 4).
func (s *Store) IsDeclared(classHash core.ClassHash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.classes[classHash]
	return ok
}

// --- Mutating operations: executor- and predeploy-only. ---

// SetStorage writes value at (addr, key) in the live (pre-confirmed) state.
// OutOfRange is returned if addr or key fall outside patricia-key range.
func (s *Store) SetStorage(addr core.ContractAddress, key core.StorageKey, value *felt.Felt) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	if !core.InPatriciaRange(&key.Felt) {
		return core.ErrOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cells, ok := s.live.storage[addr]
	if !ok {
		cells = make(map[core.StorageKey]*felt.Felt)
		s.live.storage[addr] = cells
	}
	cells[key] = value
	return nil
}

// IncrementNonce bumps addr's nonce by one in the live state.
func (s *Store) IncrementNonce(addr core.ContractAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.live.nonces[addr]
	if !ok {
		cur = &felt.Zero
	}
	bi := new(big.Int)
	cur.BigInt(bi)
	bi.Add(bi, big.NewInt(1))
	s.live.nonces[addr] = new(felt.Felt).SetBigInt(bi)
	return nil
}

// DeclareClass registers a new class. Declaring an already-declared class
// is the caller's responsibility to reject (IsDeclared) before calling.
func (s *Store) DeclareClass(classHash core.ClassHash, compiledHash core.CompiledClassHash, class *core.ContractClass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[classHash] = &core.CompiledClass{
		ClassHash:         classHash,
		CompiledClassHash: compiledHash,
		Class:             class,
	}
	return nil
}

// Deploy binds addr to classHash in the live state. classHash must already
// be declared (spec.md §4.1 invariant); addr 0x0 is always rejected.
func (s *Store) Deploy(addr core.ContractAddress, classHash core.ClassHash) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	if !s.IsDeclared(classHash) {
		return core.ErrClassHashNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live.classHash[addr] = &classHash.Felt
	return nil
}

// ReplaceClass rebinds addr to newClassHash, keeping its address and
// storage untouched.
func (s *Store) ReplaceClass(addr core.ContractAddress, newClassHash core.ClassHash) error {
	if !s.IsDeclared(newClassHash) {
		return core.ErrClassHashNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, deployed := s.live.classHash[addr]; !deployed {
		return core.ErrContractNotFound
	}
	s.live.classHash[addr] = &newClassHash.Felt
	return nil
}
