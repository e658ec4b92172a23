package messaging

import (
	"context"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
)

// Submitter is the narrow TxExecutor surface postman_flush needs to turn a
// decoded L1 message into an accepted transaction.
type Submitter interface {
	SubmitL1Handler(tx *core.L1HandlerTransaction) (*core.Receipt, error)
}

// FlushResult is the devnet_postmanFlush response shape (spec.md §8
// scenario E).
type FlushResult struct {
	MessagesToL2            []PendingL2Message
	GeneratedL2Transactions []string // tx hashes, hex
	L1Provider              string
}

// Flush composes fetch -> execute -> collect in that order (spec.md §4.5).
// It does not send: collected L2->L1 messages stay in the unsent queue until
// SendMessagesToL1 is called. With dryRun set, execute is skipped and
// L1Provider reports the "dry run" sentinel (spec.md §8 property 7 requires
// this be idempotent across repeated dry runs).
func (b *Bridge) Flush(ctx context.Context, submit Submitter, dryRun bool) (*FlushResult, error) {
	pending, err := b.FetchMessagesToL2(ctx)
	if err != nil {
		return nil, err
	}

	result := &FlushResult{MessagesToL2: pending, L1Provider: b.url}
	if dryRun {
		result.L1Provider = "dry run"
		return result, nil
	}

	var allMessagesSent []core.L2ToL1Message
	for _, m := range pending {
		tx := &core.L1HandlerTransaction{
			ContractAddress:    m.ContractAddress,
			EntryPointSelector: m.EntryPointSelector,
			Calldata:           m.Calldata,
			Nonce:              m.Nonce,
			PaidFeeOnL1:        m.PaidFeeOnL1,
		}
		receipt, err := submit.SubmitL1Handler(tx)
		if err != nil {
			return nil, err
		}
		result.GeneratedL2Transactions = append(result.GeneratedL2Transactions, core.FeltToHex(receipt.TransactionHash))
		allMessagesSent = append(allMessagesSent, receipt.MessagesSent...)
	}

	b.CollectMessagesToL1(allMessagesSent)
	return result, nil
}
