// Package mockvm is a deterministic stand-in for a real Cairo VM, satisfying
// executor.Executor. It lets the rest of the pipeline (pre-validation, fee
// charging, journaling, notification) be exercised and tested without a
// real VM dependency, injected at the executor's sync/RPC boundary like any
// other collaborator.
package mockvm

import (
	"github.com/NethermindEth/juno/core/felt"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/executor"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

// VM is a no-op executor: every call succeeds, charges a fixed resource
// cost, deploys/declares/invokes by directly applying the obvious state
// effect (declare registers the class, deploy_account/UDC-style deploy
// binds the address) without interpreting any Cairo bytecode.
type VM struct {
	// FixedResources is charged for every transaction regardless of payload,
	// standing in for real per-opcode metering.
	FixedResources core.ExecutionResources
}

func New() *VM {
	return &VM{FixedResources: core.ExecutionResources{L1Gas: 100, L1DataGas: 32, L2Gas: 1_000}}
}

// Call implements executor.Caller: mockvm never interprets calldata or a
// selector for any transaction kind either, so a read-only call just checks
// the callee is deployed and reports an empty result.
func (vm *VM) Call(store *state.Store, view state.View, addr core.ContractAddress, selector *felt.Felt, calldata []*felt.Felt) ([]*felt.Felt, error) {
	classHash, err := store.GetClassHashAt(view, addr)
	if err != nil {
		return nil, err
	}
	if classHash.IsZero() {
		return nil, core.ErrContractNotFound
	}
	return []*felt.Felt{}, nil
}

func (vm *VM) Execute(store *state.Store, view state.View, ctx executor.BlockContext, tx *core.Transaction, chargeFee, validate bool) (*executor.ExecutionInfo, error) {
	info := &executor.ExecutionInfo{ActualResources: vm.FixedResources}

	switch tx.Kind {
	case core.TransactionDeclare:
		d := tx.Declare
		if err := store.DeclareClass(d.ClassHash, d.CompiledClassHash, d.Class); err != nil {
			return nil, err
		}
	case core.TransactionDeployAccount:
		da := tx.DeployAccount
		if err := store.Deploy(da.DeployedAddress, da.ClassHash); err != nil {
			return nil, err
		}
	case core.TransactionInvoke:
		// A real VM would run the account's __execute__ and every inner
		// call; mockvm reports an empty, successful call tree.
		info.ExecuteInfo = &executor.CallInfo{ContractAddress: tx.Invoke.SenderAddress}
	case core.TransactionL1Handler:
		info.ExecuteInfo = &executor.CallInfo{ContractAddress: tx.L1Handler.ContractAddress}
	}

	unit := executor.UnitForKind(tx)
	info.ActualFee = core.FeePayment{Amount: "0x0", Unit: unit}
	if chargeFee {
		info.ActualFee = executor.ComputeFee(vm.FixedResources, ctx.GasPrices, unit)
	}

	return info, nil
}
