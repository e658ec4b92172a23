package executor

import (
	"github.com/holiman/uint256"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
)

// UnitForKind picks WEI for L1Handler transactions and FRI for everything
// else, per spec.md §4.3. Declare v1/v2 and Invoke v1 are rejected earlier
// in the pipeline (spec.md §9), so only v3 txs and L1Handler ever reach
// here today, but the mapping is kept general since the receipt schema
// threads unit.Unit regardless. Exported so executor.Executor
// implementations (mockvm and any future real VM) price a transaction's
// fee the same way the pipeline itself does.
func UnitForKind(t *core.Transaction) core.FeeUnit {
	switch t.Kind {
	case core.TransactionL1Handler:
		return core.FeeUnitWei
	default:
		return core.FeeUnitFri
	}
}

// ComputeFee sums resource_gas_consumed * resource_price across the three
// resource kinds (spec.md §4.3), pricing each kind from the block's current
// gas prices in the unit the transaction pays in. Accumulated in a
// uint256.Int rather than uint64 since actual_fee is an arbitrary-precision
// Felt amount (spec.md §3) and gas_consumed * price_per_unit can legally
// exceed 64 bits for a generously funded resource bound.
func ComputeFee(resources core.ExecutionResources, prices core.GasPrices, unit core.FeeUnit) core.FeePayment {
	price := func(gp core.GasPrice) uint64 {
		if unit == core.FeeUnitWei {
			return gp.Wei
		}
		return gp.Fri
	}

	total := new(uint256.Int)
	addResource := func(consumed, pricePerUnit uint64) {
		total.Add(total, new(uint256.Int).Mul(
			uint256.NewInt(consumed), uint256.NewInt(pricePerUnit)))
	}
	addResource(resources.L1Gas, price(prices.L1Gas))
	addResource(resources.L1DataGas, price(prices.L1DataGas))
	addResource(resources.L2Gas, price(prices.L2Gas))

	return core.FeePayment{Amount: total.Hex(), Unit: unit}
}
