// Package journal implements the dump/load durability log described in
// spec.md §4.6: a single JSON array of tagged DumpEvent objects, replayed
// in order to reproduce a chain deterministically.
package journal

import "github.com/0xSpaceShard/starknet-devnet-go/core"

// EventKind discriminates the DumpEvent tagged union.
type EventKind int

const (
	EventDeclare EventKind = iota
	EventDeployAccount
	EventInvoke
	EventL1Handler
	EventSetTime
	EventIncreaseTime
	EventCreateBlock
	EventMint
)

// DumpEvent is one journaled entry. Only the fields relevant to Kind are
// populated; the JSON encoding at the boundary uses a tagged-union shape
// (the in-memory struct stays flat for simplicity, matching how small the
// event set is).
type DumpEvent struct {
	Kind        EventKind
	Transaction *core.Transaction

	// EventSetTime / EventIncreaseTime
	Seconds uint64

	// EventMint
	MintAddress core.ContractAddress
	MintAmount  string
	MintUnit    core.FeeUnit
}

// Writer is the narrow append capability TxExecutor and the devnet_* admin
// handlers need. Both writer strategies in strategy.go satisfy it. Flush
// forces an Exit-mode writer to disk on demand (devnet_dump); it is a no-op
// for a Transaction-mode writer, which is already durable after every
// Append.
type Writer interface {
	Append(e DumpEvent)
	Flush() error
}
