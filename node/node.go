// Package node wires every devnet component into one process: the
// StateStore, BlockManager, TxExecutor, messaging Bridge, subscription Bus
// and predeploy pipeline behind the RPC dispatch layer, then runs the
// HTTP/WS listener and any background producers as services (spec.md §6),
// running them concurrently off a service list with a conc.WaitGroup.
package node

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/0xSpaceShard/starknet-devnet-go/blockchain"
	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/executor"
	"github.com/0xSpaceShard/starknet-devnet-go/executor/mockvm"
	"github.com/0xSpaceShard/starknet-devnet-go/journal"
	"github.com/0xSpaceShard/starknet-devnet-go/jsonrpc"
	"github.com/0xSpaceShard/starknet-devnet-go/messaging"
	"github.com/0xSpaceShard/starknet-devnet-go/predeploy"
	"github.com/0xSpaceShard/starknet-devnet-go/pubsub"
	"github.com/0xSpaceShard/starknet-devnet-go/rpc"
	"github.com/0xSpaceShard/starknet-devnet-go/service"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

// sequencerAddress is the fixed block-producer address every header names,
// distinct from the predeploy fixed addresses (spec.md §6).
var sequencerAddress = core.NewContractAddress(core.ShortString("SN_SEQUENCER"))

// Node owns every long-lived devnet component and the services built on
// top of them.
type Node struct {
	cfg   *Config
	log   *zap.Logger
	runID string

	store *state.Store
	chain *blockchain.Manager
	exec  *executor.TxExecutor
	fork  *state.ForkOverlay

	services []service.Service
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

// New validates cfg and constructs a Node, deferring any I/O (class file
// reads, fork dial, listener bind) to Run.
func New(cfg *Config) (*Node, error) {
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &Node{cfg: cfg, log: log, runID: uuid.NewString()}, nil
}

func (n *Node) Config() Config { return *n.cfg }

// RunID uniquely identifies this process's lifetime, letting an operator
// line up log output and devnet_getConfig across concurrently running
// instances.
func (n *Node) RunID() string { return n.runID }

// Run wires every component and blocks until ctx is cancelled or a service
// fails fatally.
func (n *Node) Run(ctx context.Context) error {
	n.log.Info("starting devnet", zap.String("run_id", n.runID), zap.String("config", fmt.Sprintf("%+v", *n.cfg)))

	n.store = state.New(n.cfg.archive())

	if n.cfg.ForkURL != "" {
		fork, err := state.NewForkOverlay(ctx, n.cfg.ForkURL, n.cfg.ForkBlockNumber)
		if err != nil {
			return fmt.Errorf("configure fork: %w", err)
		}
		n.fork = fork
		n.store.SetFork(fork)
		defer fork.Close()
	}

	predeployCfg, err := n.predeployConfig()
	if err != nil {
		return fmt.Errorf("build predeploy config: %w", err)
	}
	predeployed, err := predeploy.Run(n.store, predeployCfg)
	if err != nil {
		return fmt.Errorf("run predeploy pipeline: %w", err)
	}

	j, err := n.cfg.newWriter()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	bus := pubsub.New()

	chainCfg := blockchain.Config{
		Mode:             n.cfg.productionMode(),
		ChainID:          n.cfg.chainID(),
		SequencerAddress: sequencerAddress,
		StarknetVersion:  n.cfg.StarknetVersion,
		GasPrices:        n.cfg.gasPrices(),
		StartTime:        uint64(n.cfg.StartTime),
	}
	n.chain = blockchain.New(n.store, bus, chainCfg)

	n.exec = executor.New(n.store, n.chain, mockvm.New(), j, bus, executor.FeeTokens{
		ETH:  predeploy.ETHFeeTokenAddress,
		STRK: predeploy.STRKFeeTokenAddress,
	})

	bridge := messaging.New()
	if n.cfg.MessagingL1URL != "" {
		if err := bridge.Configure(ctx, n.cfg.MessagingL1URL, common.HexToAddress(n.cfg.MessagingContractAddress), n.cfg.MessagingStartCursor); err != nil {
			return fmt.Errorf("configure messaging: %w", err)
		}
	}

	devnet := rpc.NewDevnet(n.store, n.chain, n.exec, bridge, bus, predeployed, j, n.cfg.chainID(), n.cfg.StarknetVersion, n.log)
	devnet.RestrictedMethods = n.cfg.RestrictedMethods
	devnet.RunID = n.runID
	devnet.Rebuild = func() (*state.Store, *blockchain.Manager, *executor.TxExecutor, *predeploy.Result, error) {
		return n.rebuild(ctx, bus, j)
	}

	srv := jsonrpc.NewServer()
	if err := devnet.RegisterAll(srv); err != nil {
		return fmt.Errorf("register rpc methods: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	n.services = []service.Service{newHTTPService(addr, srv, bus, n.log)}

	if n.cfg.BlockGenerationOn == ModeInterval && n.cfg.BlockInterval > 0 {
		n.services = append(n.services, &intervalProducerService{
			chain:    n.chain,
			interval: n.cfg.BlockInterval,
			log:      n.log,
			seal: func() error {
				_, err := n.chain.CreateBlock(uint64(n.cfg.StartTime), nil)
				return err
			},
		})
	}

	if n.cfg.MessagingL1URL != "" && n.cfg.MessagingPollInterval > 0 {
		n.services = append(n.services, &messagingPollService{
			bridge:   bridge,
			submit:   n.exec,
			interval: n.cfg.MessagingPollInterval,
			log:      n.log,
		})
	}

	ctx, cancel := context.WithCancel(ctx)
	wg := conc.NewWaitGroup()
	for _, s := range n.services {
		s := s
		wg.Go(func() {
			if err := s.Run(ctx); err != nil {
				n.log.Error("service error", zap.String("name", reflect.TypeOf(s).String()), zap.Error(err))
				cancel()
			}
		})
	}
	defer wg.Wait()

	<-ctx.Done()
	cancel()

	if n.cfg.dumpOn() != DumpOnNone {
		if err := j.Flush(); err != nil {
			n.log.Error("final journal flush failed", zap.Error(err))
		}
	}
	n.log.Info("shutting down devnet")
	return nil
}

func (n *Node) predeployConfig() (predeploy.Config, error) {
	initialBalance, err := core.ParseFelt(n.cfg.InitialBalance)
	if err != nil {
		return predeploy.Config{}, fmt.Errorf("invalid initial balance %q: %w", n.cfg.InitialBalance, err)
	}

	accountClass, err := loadOrStub(n.cfg.AccountClassPath, "account")
	if err != nil {
		return predeploy.Config{}, err
	}

	cfg := predeploy.Config{
		Seed:              n.cfg.Seed,
		TotalAccounts:     n.cfg.TotalAccounts,
		InitialBalance:    initialBalance,
		AccountClass:      accountClass,
		ETHFeeTokenClass:  core.StubClass("eth-fee-token"),
		STRKFeeTokenClass: core.StubClass("strk-fee-token"),
		UDCClass:          core.StubClass("udc"),
	}

	if n.cfg.ChargeableAccountPath != "" {
		chargeableClass, err := loadOrStub(n.cfg.ChargeableAccountPath, "chargeable-account")
		if err != nil {
			return predeploy.Config{}, err
		}
		cfg.ChargeableAccountClass = chargeableClass
		// Fixed across restarts so scripts can hardcode this account.
		cfg.ChargeableAccountKey = "0x1800000000300000180000000000030000000000003006001800006600"
	}

	return cfg, nil
}

// rebuild reconstructs state, predeploy accounts, chain and executor from
// scratch for devnet_restart, reusing the already-running bus and journal so
// existing WS subscriptions and any Transaction-mode dump file survive the
// restart untouched (spec.md §6 devnet_restart).
func (n *Node) rebuild(ctx context.Context, bus *pubsub.Bus, j journal.Writer) (*state.Store, *blockchain.Manager, *executor.TxExecutor, *predeploy.Result, error) {
	store := state.New(n.cfg.archive())
	if n.fork != nil {
		store.SetFork(n.fork)
	}

	predeployCfg, err := n.predeployConfig()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("build predeploy config: %w", err)
	}
	predeployed, err := predeploy.Run(store, predeployCfg)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("run predeploy pipeline: %w", err)
	}

	chainCfg := blockchain.Config{
		Mode:             n.cfg.productionMode(),
		ChainID:          n.cfg.chainID(),
		SequencerAddress: sequencerAddress,
		StarknetVersion:  n.cfg.StarknetVersion,
		GasPrices:        n.cfg.gasPrices(),
		StartTime:        uint64(n.cfg.StartTime),
	}
	chain := blockchain.New(store, bus, chainCfg)

	exec := executor.New(store, chain, mockvm.New(), j, bus, executor.FeeTokens{
		ETH:  predeploy.ETHFeeTokenAddress,
		STRK: predeploy.STRKFeeTokenAddress,
	})

	n.store, n.chain, n.exec = store, chain, exec
	return store, chain, exec, predeployed, nil
}

func loadOrStub(path, tag string) (*core.ContractClass, error) {
	if path == "" {
		return core.StubClass(tag), nil
	}
	return core.LoadClassFile(path)
}
