// Package main is the devnetd CLI entry point: flags and an optional
// config file feed one node.Config, then a constructed node.Node runs
// until its context is cancelled (spec.md §6).
package main

import (
	"fmt"
	"reflect"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/0xSpaceShard/starknet-devnet-go/node"
)

const configFlag = "config"

// NewCmd builds the devnetd root command. Flag values take precedence
// over a config file, which takes precedence over cfg's own defaults;
// viper resolves this automatically for every flag bound with
// BindPFlags as long as each flag's own default matches cfg's default.
// runE is injected so tests can exercise flag/config precedence without
// actually starting a node.
func NewCmd(cfg *node.Config, runE func(cmd *cobra.Command, args []string) error) *cobra.Command {
	def := node.Default()
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "devnetd",
		Short: "Starknet devnet: a local, single-process L2 emulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile, err := cmd.Flags().GetString(configFlag); err == nil && cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("read config file %q: %w", cfgFile, err)
				}
			}
			return v.Unmarshal(cfg, viper.DecodeHook(logLevelHook))
		},
		RunE: runE,
	}

	flags := cmd.Flags()
	flags.String(configFlag, "", "YAML config file path")

	flags.String("host", def.Host, "RPC/WS listen host")
	flags.Uint16("port", def.Port, "RPC/WS listen port")

	flags.Uint32("seed", def.Seed, "predeployed account derivation seed")
	flags.Int("total-accounts", def.TotalAccounts, "number of predeployed accounts")
	flags.String("initial-balance", def.InitialBalance, "initial balance (hex) for each predeployed account")
	flags.String("account-class", def.AccountClassPath, "path to a compiled account contract_class.json")
	flags.String("chargeable-account-class", def.ChargeableAccountPath, "path to a compiled chargeable account contract_class.json")

	flags.String("chain-id", def.ChainID, "chain id")
	flags.String("starknet-version", def.StarknetVersion, "starknet protocol version reported to clients")

	flags.Int64("start-time", def.StartTime, "unix seconds used as genesis block timestamp; 0 means wall clock")

	flags.Uint64("gas-price-wei", def.GasPriceWei, "L1 gas price in wei")
	flags.Uint64("gas-price-fri", def.GasPriceFri, "L1 gas price in fri")
	flags.Uint64("data-gas-price-wei", def.DataGasPriceWei, "L1 data gas price in wei")
	flags.Uint64("data-gas-price-fri", def.DataGasPriceFri, "L1 data gas price in fri")
	flags.Uint64("l2-gas-price-wei", def.L2GasPriceWei, "L2 gas price in wei")
	flags.Uint64("l2-gas-price-fri", def.L2GasPriceFri, "L2 gas price in fri")

	flags.String("block-generation-on", string(def.BlockGenerationOn), "transaction|demand|interval")
	flags.Duration("block-interval", def.BlockInterval, "block sealing interval when block-generation-on=interval")

	flags.String("state-archive", def.StateArchive, "none|full")

	flags.String("dump-on", string(def.DumpOn), "exit|transaction (requires dump-path)")
	flags.String("dump-path", def.DumpPath, "journal dump file path")

	flags.String("fork-url", def.ForkURL, "JSON-RPC URL of an upstream Starknet node to fork from")
	flags.Uint64("fork-block-number", def.ForkBlockNumber, "block number to fork at; 0 means latest")

	flags.String("messaging-l1-url", def.MessagingL1URL, "L1 JSON-RPC URL for the messaging bridge")
	flags.String("messaging-contract-address", def.MessagingContractAddress, "StarknetCore contract address on L1")
	flags.Uint64("messaging-start-cursor", def.MessagingStartCursor, "L1 block number to start watching messages from")
	flags.Duration("messaging-poll-interval", def.MessagingPollInterval, "automatic L1 message poll interval; 0 disables polling")

	flags.StringSlice("restricted-methods", def.RestrictedMethods, "RPC method names to reject")

	flags.String("log-level", def.LogLevel.String(), "debug|info|warn|error")
	flags.Bool("pprof", def.Pprof, "expose pprof handlers")

	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	return cmd
}

// logLevelHook lets log-level round-trip through viper as a plain string
// (from flags, env or a YAML config file) while node.Config.LogLevel
// stays a zapcore.Level.
func logLevelHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(zapcore.Level(0)) {
		return data, nil
	}
	s, ok := data.(string)
	if !ok {
		return data, nil
	}
	var l zapcore.Level
	if err := l.Set(s); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}
