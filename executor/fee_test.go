package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
)

func TestUnitForKind(t *testing.T) {
	assert.Equal(t, core.FeeUnitWei, UnitForKind(&core.Transaction{Kind: core.TransactionL1Handler}))
	assert.Equal(t, core.FeeUnitFri, UnitForKind(&core.Transaction{Kind: core.TransactionInvoke}))
	assert.Equal(t, core.FeeUnitFri, UnitForKind(&core.Transaction{Kind: core.TransactionDeclare}))
	assert.Equal(t, core.FeeUnitFri, UnitForKind(&core.Transaction{Kind: core.TransactionDeployAccount}))
}

func TestComputeFeeSumsEachResourceInItsOwnUnit(t *testing.T) {
	resources := core.ExecutionResources{L1Gas: 10, L1DataGas: 20, L2Gas: 30}
	prices := core.GasPrices{
		L1Gas:     core.GasPrice{Wei: 2, Fri: 3},
		L1DataGas: core.GasPrice{Wei: 4, Fri: 5},
		L2Gas:     core.GasPrice{Wei: 6, Fri: 7},
	}

	wei := ComputeFee(resources, prices, core.FeeUnitWei)
	assert.Equal(t, core.FeeUnitWei, wei.Unit)
	// 10*2 + 20*4 + 30*6 = 280
	assert.Equal(t, "0x118", wei.Amount)

	fri := ComputeFee(resources, prices, core.FeeUnitFri)
	assert.Equal(t, core.FeeUnitFri, fri.Unit)
	// 10*3 + 20*5 + 30*7 = 340
	assert.Equal(t, "0x154", fri.Amount)
}

func TestComputeFeeZeroResourcesIsZero(t *testing.T) {
	fee := ComputeFee(core.ExecutionResources{}, core.GasPrices{}, core.FeeUnitFri)
	assert.Equal(t, "0x0", fee.Amount)
}
