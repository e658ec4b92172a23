// Package rpc implements every starknet_* and devnet_* JSON-RPC handler
// over jsonrpc.Server, wiring them to the core/state/blockchain/executor/
// messaging/journal/pubsub components (spec.md §6).
package rpc

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/0xSpaceShard/starknet-devnet-go/blockchain"
	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/executor"
	"github.com/0xSpaceShard/starknet-devnet-go/journal"
	"github.com/0xSpaceShard/starknet-devnet-go/jsonrpc"
	"github.com/0xSpaceShard/starknet-devnet-go/messaging"
	"github.com/0xSpaceShard/starknet-devnet-go/predeploy"
	"github.com/0xSpaceShard/starknet-devnet-go/pubsub"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

// Devnet aggregates every component the RPC layer dispatches into and owns
// the single exclusive-writer lock spec.md §5 describes: reads of an
// immutable historical snapshot take the shared side, mutating operations
// take the exclusive side for the duration of the pipeline call.
type Devnet struct {
	mu sync.RWMutex

	Store     *state.Store
	Chain     *blockchain.Manager
	TxExec    *executor.TxExecutor
	Bridge    *messaging.Bridge
	Bus       *pubsub.Bus
	Predeploy *predeploy.Result
	Journal   journal.Writer

	ChainID         core.ChainID
	StarknetVersion string
	Log             *zap.Logger

	// RunID identifies this process's lifetime, surfaced through
	// devnet_getConfig so an operator can tell concurrently running
	// instances apart (node.Node.RunID).
	RunID string

	RestrictedMethods []string

	// Rebuild tears down and re-runs the node's wiring pipeline (fresh
	// state, fresh predeploy, fresh chain/executor) for devnet_restart. Left
	// nil in tests that construct a Devnet directly without a Node behind
	// it; restart then reports core.ErrRestartUnsupported.
	Rebuild func() (*state.Store, *blockchain.Manager, *executor.TxExecutor, *predeploy.Result, error)

	virtualTime       int64 // absolute unix seconds currentTimestamp reports once virtualTimeIsSet
	virtualTimeIsSet  bool
	startWallClock    time.Time

	impersonated    map[core.ContractAddress]bool
	autoImpersonate bool
}

// NewDevnet wires every collaborator into one dispatch root.
func NewDevnet(store *state.Store, chain *blockchain.Manager, txExec *executor.TxExecutor, bridge *messaging.Bridge, bus *pubsub.Bus, predeployed *predeploy.Result, j journal.Writer, chainID core.ChainID, starknetVersion string, log *zap.Logger) *Devnet {
	return &Devnet{
		Store: store, Chain: chain, TxExec: txExec, Bridge: bridge, Bus: bus, Predeploy: predeployed, Journal: j,
		ChainID: chainID, StarknetVersion: starknetVersion, Log: log,
		startWallClock: time.Now(),
		impersonated:   make(map[core.ContractAddress]bool),
	}
}

// shouldValidate reports whether sender's transactions go through normal
// __validate__ checking. devnet_autoImpersonate disables validation for
// every sender; devnet_impersonateAccount disables it for one address at a
// time (spec.md §6 devnet_impersonateAccount/devnet_autoImpersonate).
func (d *Devnet) shouldValidate(sender core.ContractAddress) bool {
	if d.autoImpersonate {
		return false
	}
	return !d.impersonated[sender]
}

// currentTimestamp resolves "now" for a freshly sealed block, honoring any
// devnet_setTime/increaseTime override (spec.md §6 start_time; §9
// "arbitrary-precision Felt arithmetic", kept here as plain int64 seconds
// since timestamps never approach Felt range).
func (d *Devnet) currentTimestamp() uint64 {
	if d.virtualTimeIsSet {
		return uint64(d.virtualTime)
	}
	return uint64(time.Now().Unix())
}

// RegisterAll installs every recognized starknet_* and devnet_* method on
// srv (spec.md §6), then applies the restricted_methods filter.
func (d *Devnet) RegisterAll(srv *jsonrpc.Server) error {
	for _, m := range d.readMethods() {
		if err := srv.RegisterMethod(m); err != nil {
			return err
		}
	}
	for _, m := range d.writeMethods() {
		if err := srv.RegisterMethod(m); err != nil {
			return err
		}
	}
	for _, m := range d.simulateMethods() {
		if err := srv.RegisterMethod(m); err != nil {
			return err
		}
	}
	for _, m := range d.devnetMethods() {
		if err := srv.RegisterMethod(m); err != nil {
			return err
		}
	}
	for _, m := range d.subscriptionMethods() {
		if err := srv.RegisterMethod(m); err != nil {
			return err
		}
	}
	srv.Restrict(d.RestrictedMethods)
	return nil
}

func rpcError(err error) *jsonrpc.Error {
	if err == nil {
		return nil
	}
	if coded, ok := err.(core.Code); ok {
		return &jsonrpc.Error{Code: coded.RPCCode(), Message: coded.Error()}
	}
	return &jsonrpc.Error{Code: -32603, Message: err.Error()}
}
