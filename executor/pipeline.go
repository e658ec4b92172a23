package executor

import (
	"github.com/NethermindEth/juno/core/felt"

	"github.com/0xSpaceShard/starknet-devnet-go/blockchain"
	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/journal"
	"github.com/0xSpaceShard/starknet-devnet-go/pubsub"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

// TxExecutor is the only component that writes to StateStore and
// BlockManager (spec.md §2). It runs the nine-step pipeline described in
// spec.md §4.3 for every accepted transaction.
type TxExecutor struct {
	store   *state.Store
	chain   *blockchain.Manager
	vm      Executor
	journal journal.Writer
	bus     *pubsub.Bus
	feeTokens FeeTokens

	// traces retains the full ExecutionInfo of every accepted transaction so
	// traceTransaction/traceBlockTransactions can serve it later. No mutex
	// of its own: every write happens inside submit, called only while the
	// caller (rpc.Devnet) holds its exclusive lock, and every read happens
	// while that same lock is held shared, matching how TxExecutor relies on
	// its caller for synchronization everywhere else.
	traces map[felt.Felt]*ExecutionInfo
}

// FeeTokens names the two fixed fee-token contracts the fee-transfer step
// charges against (spec.md §4.4, §6).
type FeeTokens struct {
	ETH  core.ContractAddress
	STRK core.ContractAddress
}

// New constructs a TxExecutor wired to its collaborators.
func New(store *state.Store, chain *blockchain.Manager, vm Executor, j journal.Writer, bus *pubsub.Bus, tokens FeeTokens) *TxExecutor {
	return &TxExecutor{store: store, chain: chain, vm: vm, journal: j, bus: bus, feeTokens: tokens, traces: make(map[felt.Felt]*ExecutionInfo)}
}

// Call runs a single read-only entry-point invocation against view, bypassing
// the transaction pipeline entirely: no nonce, no fee, no journal entry
// (spec.md §6 starknet_call). Requires the bound Executor to implement the
// optional Caller capability.
func (x *TxExecutor) Call(view state.View, addr core.ContractAddress, selector *felt.Felt, calldata []*felt.Felt) ([]*felt.Felt, error) {
	caller, ok := x.vm.(Caller)
	if !ok {
		return nil, core.ErrEntrypointNotFound
	}
	return caller.Call(x.store, view, addr, selector, calldata)
}

// Trace returns the full ExecutionInfo recorded for a previously accepted
// transaction, if any.
func (x *TxExecutor) Trace(hash *felt.Felt) (*ExecutionInfo, bool) {
	info, ok := x.traces[*hash]
	return info, ok
}

// Replay satisfies journal.Replayer: it re-runs a journaled transaction
// through the ordinary pipeline with validation and fee charging on, but the
// duplicate-declare and nonce-match checks relaxed enough to re-accept the
// exact same hash (spec.md §4.6 "Load").
func (x *TxExecutor) Replay(tx *core.Transaction) error {
	_, err := x.submit(tx, true, true, true)
	return err
}

// SubmitL1Handler wraps an L1-synthesized handler transaction and runs it
// through the ordinary pipeline, satisfying messaging.Submitter. L1Handler
// txs carry no signature and no resource bounds, so they skip validation
// and fee charging (spec.md §4.5). tx.Hash must already be set; a handler
// without one is rejected with ErrInvalidParams.
func (x *TxExecutor) SubmitL1Handler(tx *core.L1HandlerTransaction) (*core.Receipt, error) {
	if tx.Hash == nil {
		return nil, core.ErrInvalidParams
	}
	wrapped := &core.Transaction{Kind: core.TransactionL1Handler, L1Handler: tx}
	return x.Submit(wrapped, false, false)
}

// Submit runs the full pipeline for one transaction: pre-validation,
// validate, execute, fee transfer, commit, record, journal, notify.
// chargeFee/validate default to true for ordinary submission; Estimate and
// Simulate call the lower-level pieces directly instead.
func (x *TxExecutor) Submit(tx *core.Transaction, chargeFee, validate bool) (*core.Receipt, error) {
	return x.submit(tx, chargeFee, validate, false)
}

// submit is Submit's implementation, with relaxed exposed for Replay: when
// true, the duplicate-declare and nonce-match preValidate checks are skipped
// so a journaled transaction can be re-accepted under its original hash.
func (x *TxExecutor) submit(tx *core.Transaction, chargeFee, validate, relaxed bool) (*core.Receipt, error) {
	senderAddr, hasSender := tx.SenderAddress()

	if err := x.preValidate(tx, senderAddr, hasSender, chargeFee, relaxed); err != nil {
		return nil, err
	}

	ctx := x.blockContext()
	info, execErr := x.vm.Execute(x.store, state.PreConfirmed, ctx, tx, chargeFee, validate)

	receipt := &core.Receipt{
		TransactionHash: tx.Hash(),
		Kind:            tx.Kind,
		FinalityStatus:  core.FinalityPreConfirmed,
		ExecutionStatus: core.ExecutionSucceeded,
	}

	switch {
	case execErr != nil:
		// Unrecoverable pre-execute failure (e.g. PanicInValidate trapped by
		// the VM as ValidationFailure): reject outright, no state change.
		return nil, execErr
	case info.RevertError != nil:
		if tx.Kind != core.TransactionInvoke {
			// Only Invoke is revertible; Declare/DeployAccount validation
			// failures are rejections, not reverts (spec.md §4.3 step 3).
			return nil, info.RevertError
		}
		receipt.ExecutionStatus = core.ExecutionReverted
		receipt.RevertReason = info.RevertError.Error()
	}

	if hasSender {
		if err := x.store.IncrementNonce(senderAddr); err != nil {
			return nil, err
		}
	}

	receipt.ExecutionResources = info.ActualResources
	receipt.ActualFee = info.ActualFee
	if info.ExecuteInfo != nil {
		receipt.Events = collectEvents(info.ExecuteInfo, tx.Hash())
		receipt.MessagesSent = collectMessages(info.ExecuteInfo)
	}
	if tx.Kind == core.TransactionDeployAccount {
		addr := tx.DeployAccount.DeployedAddress
		receipt.DeployedContractAddress = &addr
	}

	x.chain.RecordTransaction(tx)
	x.chain.Enqueue(tx.Hash())
	x.chain.RecordReceipt(receipt)
	x.journal.Append(journalEventFor(tx))
	x.traces[*tx.Hash()] = info

	if x.bus != nil {
		x.bus.PublishTxStatus(tx.Hash(), pubsub.TxStatusAcceptedOnL2, receipt.ExecutionStatus)
	}

	if x.chain.Mode().Kind == blockchain.ModeTransaction {
		blockHash, err := x.chain.CreateBlock(ctx.Timestamp, []*core.Receipt{receipt})
		if err != nil {
			return nil, err
		}
		if num, ok := x.chain.Latest(); ok {
			receipt.BlockHash = blockHash
			receipt.BlockNumber = num
			receipt.FinalityStatus = core.FinalityAcceptedOnL2
		}
	}

	return receipt, nil
}

func (x *TxExecutor) blockContext() BlockContext {
	pending := x.chain.Pending()
	return BlockContext{
		BlockNumber:      pending.Number,
		Timestamp:        pending.Timestamp,
		SequencerAddress: pending.SequencerAddress,
		GasPrices:        x.chain.GasPrices(),
	}
}

// preValidate implements spec.md §4.3 step 2: nonce check, duplicate-declare
// check, and non-zero fee bounds when charging a fee.
func (x *TxExecutor) preValidate(tx *core.Transaction, sender core.ContractAddress, hasSender, chargeFee, relaxed bool) error {
	if tx.Kind == core.TransactionDeclare && !relaxed {
		if x.store.IsDeclared(tx.Declare.ClassHash) {
			return core.ErrClassAlreadyDeclared
		}
	}

	if hasSender && tx.Nonce() != nil && !relaxed {
		current, err := x.store.GetNonce(state.PreConfirmed, sender)
		if err != nil {
			return err
		}
		if !current.Equal(tx.Nonce()) {
			return core.ErrInvalidTransactionNonce
		}
	}

	if chargeFee {
		bounds := resourceBoundsOf(tx)
		if bounds.L1Gas.MaxAmount == 0 && bounds.L2Gas.MaxAmount == 0 && bounds.L1DataGas.MaxAmount == 0 {
			return core.ErrInsufficientResourcesForValidate
		}
	}
	return nil
}

func resourceBoundsOf(tx *core.Transaction) core.ResourceBoundsMapping {
	switch tx.Kind {
	case core.TransactionInvoke:
		return tx.Invoke.ResourceBounds
	case core.TransactionDeclare:
		return tx.Declare.ResourceBounds
	case core.TransactionDeployAccount:
		return tx.DeployAccount.ResourceBounds
	default:
		return core.ResourceBoundsMapping{}
	}
}

func collectEvents(root *CallInfo, txHash *felt.Felt) []*core.Event {
	var out []*core.Event
	var walk func(c *CallInfo)
	walk = func(c *CallInfo) {
		for i, e := range c.Events {
			e.TransactionHash = txHash
			e.Index = i
			out = append(out, e)
		}
		for _, inner := range c.Inner {
			walk(inner)
		}
	}
	walk(root)
	return out
}

func collectMessages(root *CallInfo) []core.L2ToL1Message {
	var out []core.L2ToL1Message
	var walk func(c *CallInfo)
	walk = func(c *CallInfo) {
		for _, m := range c.L2ToL1Messages {
			out = append(out, *m)
		}
		for _, inner := range c.Inner {
			walk(inner)
		}
	}
	walk(root)
	return out
}

func journalEventFor(tx *core.Transaction) journal.DumpEvent {
	switch tx.Kind {
	case core.TransactionDeclare:
		return journal.DumpEvent{Kind: journal.EventDeclare, Transaction: tx}
	case core.TransactionDeployAccount:
		return journal.DumpEvent{Kind: journal.EventDeployAccount, Transaction: tx}
	case core.TransactionInvoke:
		return journal.DumpEvent{Kind: journal.EventInvoke, Transaction: tx}
	case core.TransactionL1Handler:
		return journal.DumpEvent{Kind: journal.EventL1Handler, Transaction: tx}
	default:
		return journal.DumpEvent{}
	}
}

// Estimate runs a read-only dry run against view: deep-clones the relevant
// snapshot by executing against a throwaway overlay state is not needed
// here since the VM contract itself is expected to not mutate when
// chargeFee=false — any produced diff is simply discarded by the caller
// (spec.md §4.3 "Estimate").
func (x *TxExecutor) Estimate(view state.View, tx *core.Transaction) (core.FeePayment, core.ExecutionResources, error) {
	ctx := x.blockContext()
	info, err := x.vm.Execute(x.store, view, ctx, tx, false, true)
	if err != nil {
		return core.FeePayment{}, core.ExecutionResources{}, err
	}
	if info.RevertError != nil {
		return core.FeePayment{}, core.ExecutionResources{}, info.RevertError
	}
	return info.ActualFee, info.ActualResources, nil
}

// Simulate differs from Estimate by honoring caller-selected skip flags and
// returning the full trace instead of only the fee (spec.md §4.3
// "Simulate").
func (x *TxExecutor) Simulate(view state.View, tx *core.Transaction, skip SkipFlags) (*ExecutionInfo, error) {
	ctx := x.blockContext()
	return x.vm.Execute(x.store, view, ctx, tx, !skip.SkipFeeCharge, !skip.SkipValidate)
}
