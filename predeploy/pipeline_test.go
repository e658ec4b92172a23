package predeploy_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/predeploy"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

func cairo0Class(program string) *core.ContractClass {
	return &core.ContractClass{
		Kind:   core.ClassKindCairo0,
		Cairo0: &core.Cairo0Class{Program: json.RawMessage(program)},
	}
}

func basePipelineConfig() predeploy.Config {
	return predeploy.Config{
		Seed:              1,
		TotalAccounts:     2,
		InitialBalance:    core.MustParseFelt("0x123"),
		AccountClass:      cairo0Class(`"account"`),
		ETHFeeTokenClass:  cairo0Class(`"eth"`),
		STRKFeeTokenClass: cairo0Class(`"strk"`),
		UDCClass:          cairo0Class(`"udc"`),
	}
}

func TestRunDeploysFeeTokensAndUDCAtFixedAddresses(t *testing.T) {
	store := state.New(state.ArchiveNone)
	_, err := predeploy.Run(store, basePipelineConfig())
	require.NoError(t, err)

	ethHash, err := store.GetClassHashAt(state.PreConfirmed, predeploy.ETHFeeTokenAddress)
	require.NoError(t, err)
	assert.False(t, ethHash.IsZero())

	strkHash, err := store.GetClassHashAt(state.PreConfirmed, predeploy.STRKFeeTokenAddress)
	require.NoError(t, err)
	assert.False(t, strkHash.IsZero())

	udcHash, err := store.GetClassHashAt(state.PreConfirmed, predeploy.UDCAddress)
	require.NoError(t, err)
	assert.False(t, udcHash.IsZero())
}

func TestRunDerivesAndFundsRequestedAccountCount(t *testing.T) {
	store := state.New(state.ArchiveNone)
	cfg := basePipelineConfig()
	result, err := predeploy.Run(store, cfg)
	require.NoError(t, err)
	require.Len(t, result.Accounts, cfg.TotalAccounts)

	for _, acc := range result.Accounts {
		classHash, err := store.GetClassHashAt(state.PreConfirmed, acc.Address)
		require.NoError(t, err)
		assert.Equal(t, &result.AccountClassHash.Felt, classHash)

		balance, err := store.GetStorage(state.PreConfirmed, acc.Address, predeploy.BalanceSlot(acc.Address))
		require.NoError(t, err)
		assert.Equal(t, cfg.InitialBalance, balance)
	}
}

func TestRunWithoutChargeableAccountClassSkipsIt(t *testing.T) {
	store := state.New(state.ArchiveNone)
	result, err := predeploy.Run(store, basePipelineConfig())
	require.NoError(t, err)
	assert.True(t, result.ChargeableAccount.Felt.IsZero())
}

func TestRunDeploysChargeableAccountWhenConfigured(t *testing.T) {
	store := state.New(state.ArchiveNone)
	cfg := basePipelineConfig()
	cfg.ChargeableAccountClass = cairo0Class(`"chargeable"`)
	cfg.ChargeableAccountKey = "0x1"

	result, err := predeploy.Run(store, cfg)
	require.NoError(t, err)
	require.False(t, result.ChargeableAccount.Felt.IsZero())

	classHash, err := store.GetClassHashAt(state.PreConfirmed, result.ChargeableAccount)
	require.NoError(t, err)
	assert.False(t, classHash.IsZero())

	balance, err := store.GetStorage(state.PreConfirmed, result.ChargeableAccount, predeploy.BalanceSlot(result.ChargeableAccount))
	require.NoError(t, err)
	assert.Equal(t, core.MustParseFelt("0xfffffffffffffffffffffffffffffff"), balance)
}

func TestRunRejectsInvalidChargeableAccountKey(t *testing.T) {
	store := state.New(state.ArchiveNone)
	cfg := basePipelineConfig()
	cfg.ChargeableAccountClass = cairo0Class(`"chargeable"`)
	cfg.ChargeableAccountKey = "not-hex"

	_, err := predeploy.Run(store, cfg)
	assert.Error(t, err)
}
