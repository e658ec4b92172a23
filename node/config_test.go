package node

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xSpaceShard/starknet-devnet-go/blockchain"
	"github.com/0xSpaceShard/starknet-devnet-go/journal"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

func TestProductionModeDefaultsToTransaction(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, blockchain.Transaction(), cfg.productionMode())

	cfg.BlockGenerationOn = ModeDemand
	assert.Equal(t, blockchain.Demand(), cfg.productionMode())

	cfg.BlockGenerationOn = ModeInterval
	cfg.BlockInterval = 5
	assert.Equal(t, blockchain.Interval(5), cfg.productionMode())
}

func TestArchiveDefaultsToNone(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, state.ArchiveNone, cfg.archive())

	cfg.StateArchive = "full"
	assert.Equal(t, state.ArchiveFull, cfg.archive())
}

func TestDumpOnRequiresDumpPath(t *testing.T) {
	cfg := &Config{DumpOn: DumpOnExit}
	assert.Equal(t, DumpOnNone, cfg.dumpOn(), "dump-on without dump-path should not take effect")

	cfg.DumpPath = "/tmp/devnet.json"
	assert.Equal(t, DumpOnExit, cfg.dumpOn())
}

func TestNewWriterSelectsStrategyByDumpOn(t *testing.T) {
	cfg := &Config{}
	w, err := cfg.newWriter()
	assert.NoError(t, err)
	assert.IsType(t, &journal.ExitWriter{}, w)
}

func TestGasPricesMapsWeiAndFri(t *testing.T) {
	cfg := &Config{
		GasPriceWei: 1, GasPriceFri: 2,
		DataGasPriceWei: 3, DataGasPriceFri: 4,
		L2GasPriceWei: 5, L2GasPriceFri: 6,
	}
	prices := cfg.gasPrices()
	assert.Equal(t, uint64(1), prices.L1Gas.Wei)
	assert.Equal(t, uint64(2), prices.L1Gas.Fri)
	assert.Equal(t, uint64(3), prices.L1DataGas.Wei)
	assert.Equal(t, uint64(4), prices.L1DataGas.Fri)
	assert.Equal(t, uint64(5), prices.L2Gas.Wei)
	assert.Equal(t, uint64(6), prices.L2Gas.Fri)
}

func TestDefaultIsRunnableZeroConfig(t *testing.T) {
	def := Default()
	assert.Equal(t, ModeTransaction, def.BlockGenerationOn)
	assert.Equal(t, "none", def.StateArchive)
	assert.Equal(t, DumpOnNone, def.dumpOn())
	assert.NotEmpty(t, def.ChainID)
}
