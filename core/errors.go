package core

import (
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
)

// Code is implemented by every error the core layer returns that has a
// defined Starknet JSON-RPC numeric code (spec.md §7). jsonrpc/rpc use this
// to translate an error into {code, message} without a giant
// switch-by-type at the transport boundary.
type Code interface {
	error
	RPCCode() int
}

// devnetCodeBase keeps devnet_* custom error codes clearly outside the
// Starknet spec's numeric range (spec.md §7: "Custom devnet_* errors use
// distinct codes outside the spec range").
const devnetCodeBase = 100

type codedError struct {
	code int
	msg  string
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) RPCCode() int  { return e.code }

func newCoded(code int, format string, args ...any) *codedError {
	return &codedError{code: code, msg: fmt.Sprintf(format, args...)}
}

// Chain lookup errors.
var (
	ErrBlockNotFound           = newCoded(24, "block not found")
	ErrContractNotFound        = newCoded(20, "contract not found")
	ErrClassHashNotFound       = newCoded(28, "class hash not found")
	ErrTransactionHashNotFound = newCoded(29, "transaction hash not found")
	ErrNoStateAtBlock          = newCoded(24, "no state at requested block; state archive is not full")
	ErrNoBlock                 = newCoded(24, "no block")
)

// Validation errors.
var (
	ErrInvalidTransactionNonce          = newCoded(52, "invalid transaction nonce")
	ErrInsufficientResourcesForValidate = newCoded(53, "max fee is smaller than the minimal transaction cost")
	ErrInsufficientAccountBalance       = newCoded(54, "account balance is smaller than the transaction fee")
)

// ValidationFailure wraps a named validation failure reason (spec.md §7).
type ValidationFailure struct{ Reason string }

func (e *ValidationFailure) Error() string { return "validation failure: " + e.Reason }
func (e *ValidationFailure) RPCCode() int  { return 55 }

// Execution errors.
var (
	ErrClassAlreadyDeclared   = newCoded(51, "class already declared")
	ErrCompiledClassHashMismatch = newCoded(60, "compiled class hash mismatch")
	ErrEntrypointNotFound     = newCoded(21, "requested entry point does not exist in the contract")
)

// ContractExecutionError is a nested per-frame execution error tree
// (spec.md §7).
type ContractExecutionError struct {
	ContractAddress ContractAddress
	ClassHash       ClassHash
	Selector        *felt.Felt
	Message         string
	Inner           *ContractExecutionError
}

func (e *ContractExecutionError) Error() string {
	if e.Inner != nil {
		return e.Message + ": " + e.Inner.Error()
	}
	return e.Message
}
func (e *ContractExecutionError) RPCCode() int { return 40 }

// TransactionExecutionError pairs a ContractExecutionError with the index
// of the failing transaction inside a simulate/estimate batch.
type TransactionExecutionError struct {
	TransactionIndex int
	ExecutionError   *ContractExecutionError
}

func (e *TransactionExecutionError) Error() string {
	return fmt.Sprintf("transaction %d reverted: %s", e.TransactionIndex, e.ExecutionError.Error())
}
func (e *TransactionExecutionError) RPCCode() int { return 41 }

// Fork overlay errors.
var ErrForkCommunicationError = newCoded(devnetCodeBase+30, "communication error with forked node (rate limited)")

// Messaging errors.
var (
	ErrMessagingNotConfigured  = newCoded(devnetCodeBase+1, "L1 messaging contract not configured")
	ErrL1CommunicationError    = newCoded(devnetCodeBase+2, "L1 communication error")
	ErrMessageToL1NotPresent   = newCoded(devnetCodeBase+3, "message to L1 not present")
	ErrIncompatibleL1          = newCoded(devnetCodeBase+4, "incompatible L1 node")
)

// I/O errors.
var (
	ErrFileNotFound      = newCoded(devnetCodeBase+10, "file not found")
	ErrFormatError       = newCoded(devnetCodeBase+11, "journal file is not in the expected format")
	ErrSerializationError   = newCoded(devnetCodeBase+12, "serialization error")
	ErrDeserializationError = newCoded(devnetCodeBase+13, "deserialization error")
)

// State errors.
var (
	ErrNoneClassHash      = newCoded(28, "no class hash")
	ErrNoneCompiledHash   = newCoded(28, "no compiled class hash")
	ErrNoneCasmClass      = newCoded(28, "no casm class")
	ErrNoneContractState  = newCoded(20, "no contract state")
	ErrNoneStorage        = newCoded(devnetCodeBase+20, "no storage value")
	ErrStateHistoryDisabled = newCoded(devnetCodeBase+21, "state history is disabled; start with --state-archive full")
	ErrCannotAbort        = newCoded(devnetCodeBase+22, "cannot abort blocks in the current configuration")
	ErrRestartUnsupported = newCoded(devnetCodeBase+23, "devnet_restart requires a node-backed Devnet")
)

// Protocol errors (JSON-RPC envelope level, spec.md §7).
var (
	ErrInvalidRequest = newCoded(-32600, "invalid request")
	ErrMethodNotFound = newCoded(-32601, "method not found")
	ErrInvalidParams  = newCoded(-32602, "invalid params")
	ErrParseError     = newCoded(-32700, "parse error")
)

// ErrInvalidSubscriptionID is the fixed code for an unknown unsubscribe id
// (spec.md §4.7).
var ErrInvalidSubscriptionID = newCoded(66, "invalid subscription id")
