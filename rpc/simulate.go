package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/executor"
	"github.com/0xSpaceShard/starknet-devnet-go/jsonrpc"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

func (d *Devnet) simulateMethods() []jsonrpc.Method {
	return []jsonrpc.Method{
		{Name: "starknet_estimateFee", Params: []jsonrpc.Parameter{{Name: "request"}, {Name: "simulation_flags"}, {Name: "block_id"}}, Handler: d.estimateFee},
		{Name: "starknet_estimateMessageFee", Params: []jsonrpc.Parameter{{Name: "message"}, {Name: "block_id"}}, Handler: d.estimateMessageFee},
		{Name: "starknet_simulateTransactions", Params: []jsonrpc.Parameter{{Name: "block_id"}, {Name: "transactions"}, {Name: "simulation_flags"}}, Handler: d.simulateTransactions},
		{Name: "starknet_traceTransaction", Params: []jsonrpc.Parameter{{Name: "transaction_hash"}}, Handler: d.traceTransaction},
		{Name: "starknet_traceBlockTransactions", Params: []jsonrpc.Parameter{{Name: "block_id"}}, Handler: d.traceBlockTransactions},
	}
}

func decodeSkipFlags(flags []string) executor.SkipFlags {
	var skip executor.SkipFlags
	for _, f := range flags {
		switch f {
		case "SKIP_VALIDATE":
			skip.SkipValidate = true
		case "SKIP_FEE_CHARGE":
			skip.SkipFeeCharge = true
		}
	}
	return skip
}

// indexedExecutionError tags a per-transaction revert with its position in a
// batch, matching starknet_estimateFee/simulateTransactions' TXN_EXECUTION_ERROR
// shape (spec.md §7, core.TransactionExecutionError). Any other error (bad
// nonce, malformed params) is returned unwrapped.
func indexedExecutionError(i int, err error) error {
	if ce, ok := err.(*core.ContractExecutionError); ok {
		return &core.TransactionExecutionError{TransactionIndex: i, ExecutionError: ce}
	}
	return err
}

func feeEstimateWireView(fee core.FeePayment, resources core.ExecutionResources, prices core.GasPrices) map[string]any {
	priceFor := func(gp core.GasPrice) uint64 {
		if fee.Unit == core.FeeUnitWei {
			return gp.Wei
		}
		return gp.Fri
	}
	return map[string]any{
		"l1_gas_consumed":      resources.L1Gas,
		"l1_gas_price":         fmt.Sprintf("0x%x", priceFor(prices.L1Gas)),
		"l1_data_gas_consumed": resources.L1DataGas,
		"l1_data_gas_price":    fmt.Sprintf("0x%x", priceFor(prices.L1DataGas)),
		"l2_gas_consumed":      resources.L2Gas,
		"l2_gas_price":         fmt.Sprintf("0x%x", priceFor(prices.L2Gas)),
		"overall_fee":          fee.Amount,
		"unit":                 string(fee.Unit),
	}
}

// estimateFee dry-runs a batch of not-yet-submitted transactions. Fee
// charging is always skipped (that is the entire point of an estimate);
// SKIP_VALIDATE is honored from simulation_flags (spec.md §6
// starknet_estimateFee).
func (d *Devnet) estimateFee(rawTxs []json.RawMessage, simulationFlags []string, blockID BlockID) (any, *jsonrpc.Error) {
	view, err := blockID.View()
	if err != nil {
		return nil, rpcError(err)
	}
	skip := decodeSkipFlags(simulationFlags)
	skip.SkipFeeCharge = true

	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]map[string]any, 0, len(rawTxs))
	for i, raw := range rawTxs {
		tx, decErr := decodeTransaction(d.ChainID, raw)
		if decErr != nil {
			return nil, rpcError(decErr)
		}
		info, simErr := d.TxExec.Simulate(view, tx, skip)
		if simErr != nil {
			return nil, rpcError(indexedExecutionError(i, simErr))
		}
		out = append(out, feeEstimateWireView(info.ActualFee, info.ActualResources, d.Chain.GasPrices()))
	}
	return out, nil
}

type wireL1ToL2FeeMessage struct {
	FromAddress        string   `json:"from_address"`
	ToAddress          string   `json:"to_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Payload            []string `json:"payload"`
}

// estimateMessageFee prices a hypothetical L1->L2 message without ever
// submitting it: no nonce is consumed, nothing is journaled (spec.md §6
// starknet_estimateMessageFee).
func (d *Devnet) estimateMessageFee(raw json.RawMessage, blockID BlockID) (any, *jsonrpc.Error) {
	var w wireL1ToL2FeeMessage
	if jsonErr := json.Unmarshal(raw, &w); jsonErr != nil {
		return nil, rpcError(core.ErrInvalidParams)
	}
	view, err := blockID.View()
	if err != nil {
		return nil, rpcError(err)
	}
	toAddr, err := FeltParam(w.ToAddress).Address()
	if err != nil {
		return nil, rpcError(err)
	}
	selector, err := FeltParam(w.EntryPointSelector).Felt()
	if err != nil {
		return nil, rpcError(err)
	}
	fromFelt, err := FeltParam(w.FromAddress).Felt()
	if err != nil {
		return nil, rpcError(err)
	}
	payload, err := feltListParam(toFeltParams(w.Payload)).felts()
	if err != nil {
		return nil, rpcError(err)
	}

	tx := &core.Transaction{Kind: core.TransactionL1Handler, L1Handler: &core.L1HandlerTransaction{
		Hash:               &felt.Zero,
		Nonce:              &felt.Zero,
		ContractAddress:    toAddr,
		EntryPointSelector: selector,
		Calldata:           append([]*felt.Felt{fromFelt}, payload...),
	}}

	d.mu.RLock()
	defer d.mu.RUnlock()
	fee, resources, estErr := d.TxExec.Estimate(view, tx)
	if estErr != nil {
		return nil, rpcError(indexedExecutionError(0, estErr))
	}
	return feeEstimateWireView(fee, resources, d.Chain.GasPrices()), nil
}

// simulateTransactions runs a batch through the ordinary execute path
// against view without persisting anything, returning the full trace
// alongside the fee for each (spec.md §6 starknet_simulateTransactions).
func (d *Devnet) simulateTransactions(blockID BlockID, rawTxs []json.RawMessage, simulationFlags []string) (any, *jsonrpc.Error) {
	view, err := blockID.View()
	if err != nil {
		return nil, rpcError(err)
	}
	skip := decodeSkipFlags(simulationFlags)

	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]map[string]any, 0, len(rawTxs))
	for i, raw := range rawTxs {
		tx, decErr := decodeTransaction(d.ChainID, raw)
		if decErr != nil {
			return nil, rpcError(decErr)
		}
		info, simErr := d.TxExec.Simulate(view, tx, skip)
		if simErr != nil {
			return nil, rpcError(indexedExecutionError(i, simErr))
		}
		out = append(out, map[string]any{
			"transaction_trace": traceWireView(tx.Kind, info),
			"fee_estimation":    feeEstimateWireView(info.ActualFee, info.ActualResources, d.Chain.GasPrices()),
		})
	}
	return out, nil
}

func (d *Devnet) traceTransaction(hashParam FeltParam) (any, *jsonrpc.Error) {
	hash, err := hashParam.Felt()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	tx, ok := d.Chain.Transaction(hash)
	if !ok {
		return nil, rpcError(core.ErrTransactionHashNotFound)
	}
	info, ok := d.TxExec.Trace(hash)
	if !ok {
		return nil, rpcError(core.ErrTransactionHashNotFound)
	}
	return traceWireView(tx.Kind, info), nil
}

func (d *Devnet) traceBlockTransactions(blockID BlockID) (any, *jsonrpc.Error) {
	view, err := blockID.View()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	var hashes []*felt.Felt
	if view.Kind == state.ViewPreConfirmed {
		hashes = d.Chain.Pending().TransactionHashes
	} else {
		block, blockErr := d.Chain.GetBlock(view)
		if blockErr != nil {
			return nil, rpcError(blockErr)
		}
		hashes = block.TransactionHashes
	}

	out := make([]map[string]any, 0, len(hashes))
	for _, h := range hashes {
		tx, ok := d.Chain.Transaction(h)
		if !ok {
			continue
		}
		info, ok := d.TxExec.Trace(h)
		if !ok {
			continue
		}
		out = append(out, map[string]any{
			"transaction_hash": core.FeltToHex(h),
			"trace_root":       traceWireView(tx.Kind, info),
		})
	}
	return out, nil
}
