package blockchain

import (
	"fmt"
	"sync"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

// PreConfirmedBlock is the single, replaceable buffer holding transactions
// queued for the next block (spec.md §3). It exposes no block_hash and no
// final parent_hash, and is reset after every seal.
type PreConfirmedBlock struct {
	Number            uint64
	Timestamp         uint64
	SequencerAddress  core.ContractAddress
	TransactionHashes []*felt.Felt
}

// Notifier is the narrow publish surface BlockManager needs from the
// subscription bus (spec.md §4.7). Defined here rather than imported from
// pubsub to keep blockchain the one-way publisher the design note in
// spec.md §9 calls for: BlockManager publishes, SubscriptionBus subscribes,
// neither owns the other.
type Notifier interface {
	PublishNewHead(b *core.Block)
	PublishReorg(startingNumber, endingNumber uint64)
	PublishTxStatusRejected(hash *felt.Felt)
}

// Manager owns the sequence of sealed blocks and the pre-confirmed buffer.
// It never mutates StateStore directly; TxExecutor writes state and then
// calls Manager to fold the result into a sealed or pending block.
type Manager struct {
	mu sync.RWMutex

	mode  ProductionMode
	store *state.Store

	blocks       []*core.Block
	byHash       map[felt.Felt]uint64
	diffs        map[uint64]*core.ThinStateDiff
	receipts     map[felt.Felt]*core.Receipt
	transactions map[felt.Felt]*core.Transaction

	pending PreConfirmedBlock

	notify Notifier

	chainID          core.ChainID
	sequencerAddress core.ContractAddress
	starknetVersion  string
	gasPrices        core.GasPrices
}

// Config bundles the fixed parameters Manager needs to compute headers.
type Config struct {
	Mode             ProductionMode
	ChainID          core.ChainID
	SequencerAddress core.ContractAddress
	StarknetVersion  string
	GasPrices        core.GasPrices
	StartTime        uint64
}

// New constructs an empty Manager with no sealed blocks yet.
func New(store *state.Store, notify Notifier, cfg Config) *Manager {
	return &Manager{
		mode:             cfg.Mode,
		store:            store,
		byHash:           make(map[felt.Felt]uint64),
		diffs:            make(map[uint64]*core.ThinStateDiff),
		receipts:         make(map[felt.Felt]*core.Receipt),
		transactions:     make(map[felt.Felt]*core.Transaction),
		notify:           notify,
		chainID:          cfg.ChainID,
		sequencerAddress: cfg.SequencerAddress,
		starknetVersion:  cfg.StarknetVersion,
		gasPrices:        cfg.GasPrices,
		pending:          PreConfirmedBlock{Number: 0, Timestamp: cfg.StartTime, SequencerAddress: cfg.SequencerAddress},
	}
}

// Mode reports the configured production mode.
func (m *Manager) Mode() ProductionMode { return m.mode }

// GasPrices reports the fixed per-resource gas prices every header and fee
// estimate is computed against (spec.md §6 starknet_estimateFee).
func (m *Manager) GasPrices() core.GasPrices { return m.gasPrices }

// PendingTransactionHashes returns the hashes buffered for the next seal.
func (m *Manager) PendingTransactionHashes() []*felt.Felt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*felt.Felt, len(m.pending.TransactionHashes))
	copy(out, m.pending.TransactionHashes)
	return out
}

// Enqueue appends a transaction hash to the pre-confirmed buffer. Called by
// TxExecutor after a transaction is accepted, before the block (possibly
// containing only this one tx) is sealed.
func (m *Manager) Enqueue(hash *felt.Felt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.TransactionHashes = append(m.pending.TransactionHashes, hash)
}

// RecordReceipt indexes a receipt by transaction hash (at-most-once;
// resubmission of the same hash is the executor's job to reject before
// reaching here).
func (m *Manager) RecordReceipt(r *core.Receipt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts[*r.TransactionHash] = r
}

// Receipt looks up a previously recorded receipt.
func (m *Manager) Receipt(hash *felt.Felt) (*core.Receipt, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.receipts[*hash]
	return r, ok
}

// RecordTransaction indexes a transaction body by its own hash, letting
// getTransactionByHash/getBlockWithTxs resolve a full body from a hash
// recorded in a sealed block or the pre-confirmed buffer.
func (m *Manager) RecordTransaction(tx *core.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[*tx.Hash()] = tx
}

// Transaction looks up a previously recorded transaction body.
func (m *Manager) Transaction(hash *felt.Felt) (*core.Transaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.transactions[*hash]
	return tx, ok
}

// CreateBlock seals the pre-confirmed buffer (possibly empty), assigns the
// next monotonic block_number, computes block_hash, links parent_hash,
// persists the state diff, and resets the buffer (spec.md §4.2). timestamp
// is written into the header as given (0 included) and carried over as the
// next pre-confirmed buffer's timestamp.
func (m *Manager) CreateBlock(timestamp uint64, receipts []*core.Receipt) (*felt.Felt, error) {
	m.mu.Lock()

	number := uint64(len(m.blocks))
	var parentHash *felt.Felt
	if number == 0 {
		parentHash = &felt.Zero
	} else {
		parentHash = m.blocks[number-1].Hash
	}

	txCommitment, err := core.TransactionCommitment(m.pending.TransactionHashes)
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("compute transaction commitment: %w", err)
	}
	eventCommitment, err := core.EventCommitment(receipts)
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("compute event commitment: %w", err)
	}

	header := core.Header{
		Number:                number,
		ParentHash:            parentHash,
		Timestamp:             timestamp,
		SequencerAddress:      m.sequencerAddress,
		L1GasPrice:            m.gasPrices.L1Gas,
		L1DataGasPrice:        m.gasPrices.L1DataGas,
		L2GasPrice:            m.gasPrices.L2Gas,
		StarknetVersion:       m.starknetVersion,
		TransactionCommitment: txCommitment,
		EventCommitment:       eventCommitment,
		Status:                core.BlockAcceptedOnL2,
	}
	header.Hash = core.HeaderHash(&header)

	block := &core.Block{Header: header, TransactionHashes: m.pending.TransactionHashes}
	m.blocks = append(m.blocks, block)
	m.byHash[*header.Hash] = number
	m.diffs[number] = m.store.Commit(number, header.Hash)

	m.pending = PreConfirmedBlock{
		Number:           number + 1,
		Timestamp:        timestamp,
		SequencerAddress: m.sequencerAddress,
	}

	m.mu.Unlock()

	if m.notify != nil {
		m.notify.PublishNewHead(block)
	}
	return header.Hash, nil
}

// GetBlock resolves a view selector to a sealed block, or reports whether
// the selector names the pre-confirmed buffer (in which case Block is nil
// and the caller should read Pending()).
func (m *Manager) GetBlock(v state.View) (*core.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch v.Kind {
	case state.ViewPreConfirmed:
		return nil, nil
	case state.ViewLatest:
		if len(m.blocks) == 0 {
			return nil, core.ErrNoBlock
		}
		return m.blocks[len(m.blocks)-1], nil
	case state.ViewByNumber:
		if v.Number >= uint64(len(m.blocks)) {
			return nil, core.ErrBlockNotFound
		}
		return m.blocks[v.Number], nil
	case state.ViewByHash:
		num, ok := m.byHash[*v.Hash]
		if !ok {
			return nil, core.ErrBlockNotFound
		}
		return m.blocks[num], nil
	default:
		return nil, core.ErrBlockNotFound
	}
}

// Pending returns a copy of the current pre-confirmed buffer.
func (m *Manager) Pending() PreConfirmedBlock {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := m.pending
	cp.TransactionHashes = append([]*felt.Felt(nil), m.pending.TransactionHashes...)
	return cp
}

// StateDiff returns the ThinStateDiff persisted when block number was sealed.
func (m *Manager) StateDiff(number uint64) (*core.ThinStateDiff, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.diffs[number]
	return d, ok
}

// Latest reports the most recently sealed block number, and whether any
// block has been sealed yet.
func (m *Manager) Latest() (uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.blocks) == 0 {
		return 0, false
	}
	return uint64(len(m.blocks) - 1), true
}

// MarkAcceptedOnL1 idempotently promotes every block up to and including
// upToBlock to AcceptedOnL1 and notifies NewHeads subscribers.
func (m *Manager) MarkAcceptedOnL1(upToBlock uint64) error {
	m.mu.Lock()
	if upToBlock >= uint64(len(m.blocks)) {
		m.mu.Unlock()
		return core.ErrBlockNotFound
	}
	var promoted []*core.Block
	for i := uint64(0); i <= upToBlock; i++ {
		if m.blocks[i].Status != core.BlockAcceptedOnL1 {
			m.blocks[i].Status = core.BlockAcceptedOnL1
			promoted = append(promoted, m.blocks[i])
		}
	}
	m.mu.Unlock()

	if m.notify != nil {
		for _, b := range promoted {
			m.notify.PublishNewHead(b)
		}
	}
	return nil
}

// AbortBlocks truncates every block from startingHash onward, reverts state
// to the block preceding it, re-marks all truncated txs Rejected, and
// notifies Reorg + TxStatus(Rejected) subscribers (spec.md §4.2, §8
// property 9). Requires StateArchive=Full; fails CannotAbort on the genesis
// block or an already-AcceptedOnL1 block.
func (m *Manager) AbortBlocks(startingHash *felt.Felt) error {
	m.mu.Lock()

	startingNumber, ok := m.byHash[*startingHash]
	if !ok {
		m.mu.Unlock()
		return core.ErrBlockNotFound
	}
	if startingNumber == 0 {
		m.mu.Unlock()
		return core.ErrCannotAbort
	}
	for i := startingNumber; i < uint64(len(m.blocks)); i++ {
		if m.blocks[i].Status == core.BlockAcceptedOnL1 {
			m.mu.Unlock()
			return core.ErrCannotAbort
		}
	}

	endingNumber := uint64(len(m.blocks) - 1)
	var rejected []*felt.Felt
	for i := startingNumber; i < uint64(len(m.blocks)); i++ {
		rejected = append(rejected, m.blocks[i].TransactionHashes...)
		delete(m.byHash, *m.blocks[i].Hash)
		delete(m.diffs, i)
	}

	if err := m.store.Revert(startingNumber-1, true); err != nil {
		m.mu.Unlock()
		return err
	}

	m.blocks = m.blocks[:startingNumber]
	m.pending = PreConfirmedBlock{Number: startingNumber, SequencerAddress: m.sequencerAddress}

	m.mu.Unlock()

	if m.notify != nil {
		m.notify.PublishReorg(startingNumber, endingNumber)
		for _, h := range rejected {
			m.notify.PublishTxStatusRejected(h)
		}
	}
	return nil
}
