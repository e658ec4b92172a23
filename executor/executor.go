// Package executor implements the validate -> execute -> charge -> journal
// -> notify transaction pipeline (spec.md §4.3). The actual Cairo VM is an
// external collaborator behind the Executor interface; this package never
// interprets Cairo bytecode itself.
package executor

import (
	"github.com/NethermindEth/juno/core/felt"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

// BlockContext is the subset of chain configuration a VM call needs to
// resolve gas prices, chain id and the block it is executing against.
// TxExecutor fills in the block number, timestamp, sequencer address and
// gas prices; it leaves ChainID unset.
type BlockContext struct {
	ChainID          core.ChainID
	BlockNumber      uint64
	Timestamp        uint64
	SequencerAddress core.ContractAddress
	GasPrices        core.GasPrices
}

// CallInfo is one frame of a VM call tree, used to build traces and to
// extract emitted events / L2->L1 messages (spec.md §4.3).
type CallInfo struct {
	ContractAddress core.ContractAddress
	ClassHash       core.ClassHash
	Selector        *felt.Felt
	Calldata        []*felt.Felt
	Result          []*felt.Felt
	Events          []*core.Event
	L2ToL1Messages  []*core.L2ToL1Message
	Inner           []*CallInfo
	Reverted        bool
	RevertReason    string
}

// ExecutionInfo is the full result of one Executor.Execute call.
type ExecutionInfo struct {
	ExecuteInfo      *CallInfo
	ValidateInfo     *CallInfo
	FeeTransferInfo  *CallInfo
	RevertError      *core.ContractExecutionError
	ActualResources  core.ExecutionResources
	ActualFee        core.FeePayment
}

// Executor is the external Cairo VM collaborator. A production devnet binds
// this to a real VM; tests and local exploration bind it to the mockvm
// package's deterministic stand-in.
type Executor interface {
	Execute(view *state.Store, stateView state.View, ctx BlockContext, tx *core.Transaction, chargeFee, validate bool) (*ExecutionInfo, error)
}

// Caller is an optional Executor capability backing starknet_call: a single
// read-only entry-point invocation outside any transaction, never reaching
// preValidate or fee charging. mockvm implements it directly.
type Caller interface {
	Call(store *state.Store, view state.View, addr core.ContractAddress, selector *felt.Felt, calldata []*felt.Felt) ([]*felt.Felt, error)
}

// SkipFlags selects which pipeline stages Simulate may bypass (spec.md
// §4.3: SKIP_VALIDATE, SKIP_FEE_CHARGE).
type SkipFlags struct {
	SkipValidate  bool
	SkipFeeCharge bool
}
