package core

import "github.com/NethermindEth/juno/core/felt"

// ExecutionStatus discriminates a receipt's Succeeded|Reverted union.
type ExecutionStatus int

const (
	ExecutionSucceeded ExecutionStatus = iota
	ExecutionReverted
)

// FinalityStatus mirrors the lifecycle a transaction moves through once
// accepted (spec.md §3, §8 property 2).
type FinalityStatus int

const (
	FinalityPreConfirmed FinalityStatus = iota
	FinalityAcceptedOnL2
	FinalityAcceptedOnL1
	FinalityRejected
)

// Receipt is produced once per executed transaction, keyed by tx hash with
// at-most-once semantics (spec.md §3, §4.3 step 7).
type Receipt struct {
	TransactionHash *felt.Felt
	Kind            TransactionKind
	FinalityStatus  FinalityStatus
	ExecutionStatus ExecutionStatus
	RevertReason    string

	ActualFee          FeePayment
	MessagesSent       []L2ToL1Message
	Events             []*Event
	ExecutionResources ExecutionResources

	BlockNumber uint64
	BlockHash   *felt.Felt

	// DeployedContractAddress is set only for DeployAccount receipts.
	DeployedContractAddress *ContractAddress
	// MessageHash is set only for L1Handler receipts.
	MessageHash string
}

// Reverted reports whether the receipt documents a revert rather than a
// clean success.
func (r *Receipt) Reverted() bool {
	return r.ExecutionStatus == ExecutionReverted
}

func (s ExecutionStatus) String() string {
	if s == ExecutionReverted {
		return "REVERTED"
	}
	return "SUCCEEDED"
}

func (s FinalityStatus) String() string {
	switch s {
	case FinalityAcceptedOnL2:
		return "ACCEPTED_ON_L2"
	case FinalityAcceptedOnL1:
		return "ACCEPTED_ON_L1"
	case FinalityRejected:
		return "REJECTED"
	default:
		return "PRE_CONFIRMED"
	}
}
