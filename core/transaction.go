package core

import (
	"fmt"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
)

// TransactionKind discriminates the Transaction tagged union (spec.md §3).
// Only the v3 variants plus L1Handler are accepted for submission
// (spec.md §4.3: "Declare v1/v2 and Invoke v1 are rejected as unsupported
// in the target subset").
type TransactionKind int

const (
	TransactionDeclare TransactionKind = iota
	TransactionDeployAccount
	TransactionInvoke
	TransactionL1Handler
)

func (k TransactionKind) String() string {
	switch k {
	case TransactionDeclare:
		return "DECLARE"
	case TransactionDeployAccount:
		return "DEPLOY_ACCOUNT"
	case TransactionInvoke:
		return "INVOKE"
	case TransactionL1Handler:
		return "L1_HANDLER"
	default:
		return "UNKNOWN"
	}
}

// CommonV3Fields is embedded by every v3 transaction variant.
type CommonV3Fields struct {
	ResourceBounds ResourceBoundsMapping
	Tip            uint64
	PaymasterData  []*felt.Felt
	NonceDAMode    DAMode
	FeeDAMode      DAMode
	Nonce          *felt.Felt
}

// DeclareTransaction (v3) declares a ContractClass.
type DeclareTransaction struct {
	CommonV3Fields
	Hash                  *felt.Felt
	SenderAddress         ContractAddress
	Signature             []*felt.Felt
	ClassHash             ClassHash
	CompiledClassHash     CompiledClassHash
	AccountDeploymentData []*felt.Felt
	Class                 *ContractClass
}

// DeployAccountTransaction (v3) deploys and initializes an account in one
// step.
type DeployAccountTransaction struct {
	CommonV3Fields
	Hash                 *felt.Felt
	ContractAddressSalt  *felt.Felt
	ConstructorCalldata  []*felt.Felt
	ClassHash            ClassHash
	Signature            []*felt.Felt
	// DeployedAddress is computed, not signed over; stored for receipt use.
	DeployedAddress ContractAddress
}

// InvokeTransaction (v3) calls into an already-deployed account.
type InvokeTransaction struct {
	CommonV3Fields
	Hash                  *felt.Felt
	SenderAddress         ContractAddress
	Calldata              []*felt.Felt
	Signature             []*felt.Felt
	AccountDeploymentData []*felt.Felt
}

// L1HandlerTransaction is synthesized by the messaging bridge from an L1
// log; it carries no signature and is never user-submitted directly.
type L1HandlerTransaction struct {
	Hash               *felt.Felt
	Version            uint64
	Nonce              *felt.Felt
	ContractAddress    ContractAddress
	EntryPointSelector *felt.Felt
	Calldata           []*felt.Felt
	PaidFeeOnL1        *felt.Felt
}

// Transaction is the tagged union of every submittable (or
// bridge-synthesized) transaction kind.
type Transaction struct {
	Kind          TransactionKind
	Declare       *DeclareTransaction
	DeployAccount *DeployAccountTransaction
	Invoke        *InvokeTransaction
	L1Handler     *L1HandlerTransaction
}

// Hash returns the transaction's canonical hash regardless of variant.
func (t *Transaction) Hash() *felt.Felt {
	switch t.Kind {
	case TransactionDeclare:
		return t.Declare.Hash
	case TransactionDeployAccount:
		return t.DeployAccount.Hash
	case TransactionInvoke:
		return t.Invoke.Hash
	case TransactionL1Handler:
		return t.L1Handler.Hash
	default:
		return nil
	}
}

// SenderAddress returns the account that pays for (and is charged a nonce
// bump by) this transaction. L1Handler has no "sender" in the account
// sense; its ContractAddress is the callee.
func (t *Transaction) SenderAddress() (ContractAddress, bool) {
	switch t.Kind {
	case TransactionDeclare:
		return t.Declare.SenderAddress, true
	case TransactionInvoke:
		return t.Invoke.SenderAddress, true
	case TransactionDeployAccount:
		return t.DeployAccount.DeployedAddress, true
	default:
		return ContractAddress{}, false
	}
}

// Nonce returns the transaction's declared nonce, or nil for L1Handler's
// legacy absent-nonce case.
func (t *Transaction) Nonce() *felt.Felt {
	switch t.Kind {
	case TransactionDeclare:
		return t.Declare.Nonce
	case TransactionDeployAccount:
		return t.DeployAccount.Nonce
	case TransactionInvoke:
		return t.Invoke.Nonce
	case TransactionL1Handler:
		return t.L1Handler.Nonce
	default:
		return nil
	}
}

// short-string prefixes mixed into every v3 hash, one felt per transaction
// variant, hashed with Poseidon over a variant-specific field ordering
// (spec.md §3: "Poseidon over a variant-specific field ordering prefixed by
// a short-string constant").
var (
	invokeV3Felt        = ShortString("invoke")
	declareV3Felt       = ShortString("declare")
	deployAccountV3Felt = ShortString("deploy_account")
	l1HandlerFelt       = ShortString("l1_handler")
)

func resourceBoundsFelt(rb ResourceBoundsMapping) *felt.Felt {
	enc := func(name string, b ResourceBounds) *felt.Felt {
		return crypto.PoseidonArray(ShortString(name),
			new(felt.Felt).SetUint64(b.MaxAmount),
			new(felt.Felt).SetUint64(b.MaxPricePerUnit))
	}
	return crypto.PoseidonArray(
		enc("L1_GAS", rb.L1Gas),
		enc("L1_DATA", rb.L1DataGas),
		enc("L2_GAS", rb.L2Gas),
	)
}

// ComputeHash (re)derives the canonical hash of a transaction from its
// fields and chain id. Callers use it both to stamp a freshly-built
// transaction and to verify a hash supplied by a client or journal replay.
func ComputeHash(t *Transaction, chain ChainID) (*felt.Felt, error) {
	switch t.Kind {
	case TransactionInvoke:
		i := t.Invoke
		return crypto.PoseidonArray(
			invokeV3Felt,
			new(felt.Felt).SetUint64(3),
			&i.SenderAddress.Felt,
			resourceBoundsFelt(i.ResourceBounds),
			crypto.PoseidonArray(i.PaymasterData...),
			chain.Felt(),
			i.Nonce,
			crypto.PoseidonArray(i.AccountDeploymentData...),
			crypto.PoseidonArray(i.Calldata...),
		), nil
	case TransactionDeclare:
		d := t.Declare
		return crypto.PoseidonArray(
			declareV3Felt,
			new(felt.Felt).SetUint64(3),
			&d.SenderAddress.Felt,
			resourceBoundsFelt(d.ResourceBounds),
			crypto.PoseidonArray(d.PaymasterData...),
			chain.Felt(),
			d.Nonce,
			crypto.PoseidonArray(d.AccountDeploymentData...),
			&d.ClassHash.Felt,
			&d.CompiledClassHash.Felt,
		), nil
	case TransactionDeployAccount:
		da := t.DeployAccount
		return crypto.PoseidonArray(
			deployAccountV3Felt,
			new(felt.Felt).SetUint64(3),
			&da.DeployedAddress.Felt,
			resourceBoundsFelt(da.ResourceBounds),
			crypto.PoseidonArray(da.PaymasterData...),
			chain.Felt(),
			da.Nonce,
			&da.ClassHash.Felt,
			da.ContractAddressSalt,
			crypto.PoseidonArray(da.ConstructorCalldata...),
		), nil
	case TransactionL1Handler:
		l := t.L1Handler
		return crypto.PoseidonArray(
			l1HandlerFelt,
			new(felt.Felt).SetUint64(l.Version),
			&l.ContractAddress.Felt,
			l.EntryPointSelector,
			crypto.PoseidonArray(l.Calldata...),
			l.Nonce,
			chain.Felt(),
		), nil
	default:
		return nil, fmt.Errorf("unknown transaction kind %d", t.Kind)
	}
}
