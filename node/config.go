package node

import (
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/0xSpaceShard/starknet-devnet-go/blockchain"
	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/journal"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

// ProductionModeName selects how the chain advances (spec.md §6
// block_generation_on), expressed as a string so it round-trips cleanly
// through flags, env vars and config files.
type ProductionModeName string

const (
	ModeTransaction ProductionModeName = "transaction"
	ModeDemand      ProductionModeName = "demand"
	ModeInterval    ProductionModeName = "interval"
)

// DumpOn selects when the journal is written to disk (spec.md §4.6, §6).
type DumpOn string

const (
	DumpOnNone        DumpOn = ""
	DumpOnExit        DumpOn = "exit"
	DumpOnTransaction DumpOn = "transaction"
)

// Config bundles every option spec.md §6's CLI/environment surface names,
// one flat mapstructure-tagged struct consumed by both cobra flags and
// viper config files.
type Config struct {
	Host string `mapstructure:"host"`
	Port uint16 `mapstructure:"port"`

	Seed                  uint32 `mapstructure:"seed"`
	TotalAccounts         int    `mapstructure:"total-accounts"`
	InitialBalance        string `mapstructure:"initial-balance"`
	AccountClassPath      string `mapstructure:"account-class"`
	ChargeableAccountPath string `mapstructure:"chargeable-account-class"`

	ChainID         string `mapstructure:"chain-id"`
	StarknetVersion string `mapstructure:"starknet-version"`

	StartTime int64 `mapstructure:"start-time"`

	GasPriceWei     uint64 `mapstructure:"gas-price-wei"`
	GasPriceFri     uint64 `mapstructure:"gas-price-fri"`
	DataGasPriceWei uint64 `mapstructure:"data-gas-price-wei"`
	DataGasPriceFri uint64 `mapstructure:"data-gas-price-fri"`
	L2GasPriceWei   uint64 `mapstructure:"l2-gas-price-wei"`
	L2GasPriceFri   uint64 `mapstructure:"l2-gas-price-fri"`

	BlockGenerationOn  ProductionModeName `mapstructure:"block-generation-on"`
	BlockInterval      time.Duration      `mapstructure:"block-interval"`

	StateArchive string `mapstructure:"state-archive"`

	DumpOn   DumpOn `mapstructure:"dump-on"`
	DumpPath string `mapstructure:"dump-path"`

	ForkURL         string `mapstructure:"fork-url"`
	ForkBlockNumber uint64 `mapstructure:"fork-block-number"`

	MessagingL1URL             string `mapstructure:"messaging-l1-url"`
	MessagingContractAddress   string `mapstructure:"messaging-contract-address"`
	MessagingStartCursor       uint64 `mapstructure:"messaging-start-cursor"`
	MessagingPollInterval      time.Duration `mapstructure:"messaging-poll-interval"`

	RestrictedMethods []string `mapstructure:"restricted-methods"`

	LogLevel zapcore.Level `mapstructure:"log-level"`
	Pprof    bool          `mapstructure:"pprof"`
}

func (c *Config) productionMode() blockchain.ProductionMode {
	switch c.BlockGenerationOn {
	case ModeDemand:
		return blockchain.Demand()
	case ModeInterval:
		return blockchain.Interval(c.BlockInterval)
	default:
		return blockchain.Transaction()
	}
}

func (c *Config) archive() state.Archive {
	if c.StateArchive == "full" {
		return state.ArchiveFull
	}
	return state.ArchiveNone
}

func (c *Config) chainID() core.ChainID {
	switch c.ChainID {
	case string(core.ChainIDMainnet):
		return core.ChainIDMainnet
	case string(core.ChainIDIntegrationSepolia):
		return core.ChainIDIntegrationSepolia
	case "":
		return core.DefaultChainID
	default:
		return core.ChainID(c.ChainID)
	}
}

func (c *Config) dumpOn() DumpOn {
	if c.DumpPath == "" {
		return DumpOnNone
	}
	return c.DumpOn
}

func (c *Config) gasPrices() core.GasPrices {
	return core.GasPrices{
		L1Gas:     core.GasPrice{Wei: c.GasPriceWei, Fri: c.GasPriceFri},
		L1DataGas: core.GasPrice{Wei: c.DataGasPriceWei, Fri: c.DataGasPriceFri},
		L2Gas:     core.GasPrice{Wei: c.L2GasPriceWei, Fri: c.L2GasPriceFri},
	}
}

// newWriter opens the journal writer strategy dump_on selects. A devnet
// started without dump_path configured runs with a plain in-memory
// ExitWriter that is never flushed to disk, keeping Journal non-nil
// unconditionally so the executor and rpc layers never nil-check it.
func (c *Config) newWriter() (journal.Writer, error) {
	switch c.dumpOn() {
	case DumpOnTransaction:
		return journal.OpenTransactionWriter(c.DumpPath)
	default:
		return journal.NewExitWriter(c.DumpPath), nil
	}
}

// Default returns the zero-config devnet: sepolia, transaction mode, no
// archive, no fork, no messaging, matching spec.md §6's stated defaults.
func Default() *Config {
	return &Config{
		Host:               "127.0.0.1",
		Port:               5050,
		TotalAccounts:      10,
		InitialBalance:     "0x3635c9adc5dea00000", // 1000 ETH/STRK in Wei-equivalent fri
		ChainID:            string(core.DefaultChainID),
		StarknetVersion:    "0.13.1.1",
		GasPriceWei:        100 * 1e9,
		GasPriceFri:        100 * 1e9,
		DataGasPriceWei:    1,
		DataGasPriceFri:    1,
		L2GasPriceWei:      1,
		L2GasPriceFri:      1,
		BlockGenerationOn:  ModeTransaction,
		StateArchive:       "none",
		LogLevel:           zapcore.InfoLevel,
	}
}
