package rpc

import (
	"encoding/json"
	"strconv"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/0xSpaceShard/starknet-devnet-go/blockchain"
	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/jsonrpc"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

func (d *Devnet) readMethods() []jsonrpc.Method {
	return []jsonrpc.Method{
		{Name: "starknet_specVersion", Handler: d.specVersion},
		{Name: "starknet_chainId", Handler: d.chainID},
		{Name: "starknet_blockNumber", Handler: d.blockNumber},
		{Name: "starknet_blockHashAndNumber", Handler: d.blockHashAndNumber},
		{Name: "starknet_getBlockWithTxHashes", Params: []jsonrpc.Parameter{{Name: "block_id"}}, Handler: d.getBlockWithTxHashes},
		{Name: "starknet_getBlockWithTxs", Params: []jsonrpc.Parameter{{Name: "block_id"}}, Handler: d.getBlockWithTxs},
		{Name: "starknet_getStateUpdate", Params: []jsonrpc.Parameter{{Name: "block_id"}}, Handler: d.getStateUpdate},
		{Name: "starknet_getStorageAt", Params: []jsonrpc.Parameter{{Name: "contract_address"}, {Name: "key"}, {Name: "block_id"}}, Handler: d.getStorageAt},
		{Name: "starknet_getNonce", Params: []jsonrpc.Parameter{{Name: "block_id"}, {Name: "contract_address"}}, Handler: d.getNonce},
		{Name: "starknet_getClassHashAt", Params: []jsonrpc.Parameter{{Name: "block_id"}, {Name: "contract_address"}}, Handler: d.getClassHashAt},
		{Name: "starknet_getClass", Params: []jsonrpc.Parameter{{Name: "block_id"}, {Name: "class_hash"}}, Handler: d.getClass},
		{Name: "starknet_getClassAt", Params: []jsonrpc.Parameter{{Name: "block_id"}, {Name: "contract_address"}}, Handler: d.getClassAt},
		{Name: "starknet_getTransactionReceipt", Params: []jsonrpc.Parameter{{Name: "transaction_hash"}}, Handler: d.getTransactionReceipt},
		{Name: "starknet_getTransactionStatus", Params: []jsonrpc.Parameter{{Name: "transaction_hash"}}, Handler: d.getTransactionStatus},
		{Name: "starknet_getTransactionByHash", Params: []jsonrpc.Parameter{{Name: "transaction_hash"}}, Handler: d.getTransactionByHash},
		{Name: "starknet_getTransactionByBlockIdAndIndex", Params: []jsonrpc.Parameter{{Name: "block_id"}, {Name: "index"}}, Handler: d.getTransactionByBlockIdAndIndex},
		{Name: "starknet_getEvents", Params: []jsonrpc.Parameter{{Name: "filter"}}, Handler: d.getEvents},
		{Name: "starknet_call", Params: []jsonrpc.Parameter{{Name: "request"}, {Name: "block_id"}}, Handler: d.call},
	}
}

func (d *Devnet) specVersion() (any, *jsonrpc.Error) {
	return "0.8.0", nil
}

func (d *Devnet) chainID() (any, *jsonrpc.Error) {
	return d.ChainID.Felt().String(), nil
}

func (d *Devnet) blockNumber() (any, *jsonrpc.Error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	num, ok := d.Chain.Latest()
	if !ok {
		return nil, rpcError(core.ErrNoBlock)
	}
	return num, nil
}

func (d *Devnet) blockHashAndNumber() (any, *jsonrpc.Error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	num, ok := d.Chain.Latest()
	if !ok {
		return nil, rpcError(core.ErrNoBlock)
	}
	block, err := d.Chain.GetBlock(state.Latest)
	if err != nil {
		return nil, rpcError(err)
	}
	return map[string]any{"block_hash": core.FeltToHex(block.Hash), "block_number": num}, nil
}

func (d *Devnet) getBlockWithTxHashes(blockID BlockID) (any, *jsonrpc.Error) {
	view, err := blockID.View()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	if view.Kind == state.ViewPreConfirmed {
		pending := d.Chain.Pending()
		return map[string]any{
			"status":       "PRE_CONFIRMED",
			"timestamp":    pending.Timestamp,
			"transactions": hexAll(pending.TransactionHashes),
		}, nil
	}

	block, err := d.Chain.GetBlock(view)
	if err != nil {
		return nil, rpcError(err)
	}
	return blockWireView(block), nil
}

func (d *Devnet) getStorageAt(addrParam, keyParam FeltParam, blockID BlockID) (any, *jsonrpc.Error) {
	addr, err := addrParam.Address()
	if err != nil {
		return nil, rpcError(err)
	}
	key, err := keyParam.StorageKey()
	if err != nil {
		return nil, rpcError(err)
	}
	view, err := blockID.View()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	val, err := d.Store.GetStorage(view, addr, key)
	if err != nil {
		return nil, rpcError(err)
	}
	return core.FeltToHex(val), nil
}

func (d *Devnet) getNonce(blockID BlockID, addrParam FeltParam) (any, *jsonrpc.Error) {
	view, err := blockID.View()
	if err != nil {
		return nil, rpcError(err)
	}
	addr, err := addrParam.Address()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, err := d.Store.GetNonce(view, addr)
	if err != nil {
		return nil, rpcError(err)
	}
	return core.FeltToHex(n), nil
}

func (d *Devnet) getClassHashAt(blockID BlockID, addrParam FeltParam) (any, *jsonrpc.Error) {
	view, err := blockID.View()
	if err != nil {
		return nil, rpcError(err)
	}
	addr, err := addrParam.Address()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	ch, err := d.Store.GetClassHashAt(view, addr)
	if err != nil {
		return nil, rpcError(err)
	}
	if ch.IsZero() {
		return nil, rpcError(core.ErrContractNotFound)
	}
	return core.FeltToHex(ch), nil
}

func (d *Devnet) getTransactionReceipt(hashParam FeltParam) (any, *jsonrpc.Error) {
	hash, err := hashParam.Felt()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	receipt, ok := d.Chain.Receipt(hash)
	if !ok {
		return nil, rpcError(core.ErrTransactionHashNotFound)
	}
	return receiptWireView(receipt), nil
}

func (d *Devnet) getTransactionStatus(hashParam FeltParam) (any, *jsonrpc.Error) {
	hash, err := hashParam.Felt()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	receipt, ok := d.Chain.Receipt(hash)
	if !ok {
		return nil, rpcError(core.ErrTransactionHashNotFound)
	}
	return map[string]any{
		"finality_status":  receipt.FinalityStatus,
		"execution_status": receipt.ExecutionStatus,
	}, nil
}

func (d *Devnet) getBlockWithTxs(blockID BlockID) (any, *jsonrpc.Error) {
	view, err := blockID.View()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	if view.Kind == state.ViewPreConfirmed {
		pending := d.Chain.Pending()
		txs := make([]map[string]any, 0, len(pending.TransactionHashes))
		for _, h := range pending.TransactionHashes {
			if tx, ok := d.Chain.Transaction(h); ok {
				txs = append(txs, txWireView(tx))
			}
		}
		return map[string]any{
			"status":       "PRE_CONFIRMED",
			"timestamp":    pending.Timestamp,
			"transactions": txs,
		}, nil
	}

	block, err := d.Chain.GetBlock(view)
	if err != nil {
		return nil, rpcError(err)
	}
	return blockWithTxsWireView(block, d.Chain.Transaction), nil
}

func (d *Devnet) getStateUpdate(blockID BlockID) (any, *jsonrpc.Error) {
	view, err := blockID.View()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	if view.Kind == state.ViewPreConfirmed {
		// The pre-confirmed buffer has no sealed diff yet.
		return nil, rpcError(core.ErrBlockNotFound)
	}
	block, err := d.Chain.GetBlock(view)
	if err != nil {
		return nil, rpcError(err)
	}
	diff, ok := d.Chain.StateDiff(block.Number)
	if !ok {
		return nil, rpcError(core.ErrBlockNotFound)
	}
	return stateUpdateWireView(block.Hash, diff), nil
}

// getClass ignores block_id beyond shape validation: a declared class is
// never un-declared or replaced in this devnet's class table, so its body is
// the same at every block from the declaration onward (spec.md §4.1).
func (d *Devnet) getClass(blockID BlockID, classHashParam FeltParam) (any, *jsonrpc.Error) {
	if _, err := blockID.View(); err != nil {
		return nil, rpcError(err)
	}
	classHash, err := classHashParam.ClassHash()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	compiled, err := d.Store.GetCompiledClass(classHash)
	if err != nil {
		return nil, rpcError(err)
	}
	return classWireView(compiled.Class), nil
}

func (d *Devnet) getClassAt(blockID BlockID, addrParam FeltParam) (any, *jsonrpc.Error) {
	view, err := blockID.View()
	if err != nil {
		return nil, rpcError(err)
	}
	addr, err := addrParam.Address()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	classHash, err := d.Store.GetClassHashAt(view, addr)
	if err != nil {
		return nil, rpcError(err)
	}
	if classHash.IsZero() {
		return nil, rpcError(core.ErrContractNotFound)
	}
	compiled, err := d.Store.GetCompiledClass(core.ClassHash{Felt: *classHash})
	if err != nil {
		return nil, rpcError(err)
	}
	return classWireView(compiled.Class), nil
}

func (d *Devnet) getTransactionByHash(hashParam FeltParam) (any, *jsonrpc.Error) {
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
	return txWireView(tx), nil
}

func (d *Devnet) getTransactionByBlockIdAndIndex(blockID BlockID, index uint64) (any, *jsonrpc.Error) {
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
		block, err := d.Chain.GetBlock(view)
		if err != nil {
			return nil, rpcError(err)
		}
		hashes = block.TransactionHashes
	}
	if index >= uint64(len(hashes)) {
		return nil, rpcError(core.ErrInvalidParams)
	}
	tx, ok := d.Chain.Transaction(hashes[index])
	if !ok {
		return nil, rpcError(core.ErrTransactionHashNotFound)
	}
	return txWireView(tx), nil
}

type wireEventFilter struct {
	FromBlock         json.RawMessage `json:"from_block"`
	ToBlock           json.RawMessage `json:"to_block"`
	Address           string          `json:"address"`
	Keys              [][]string      `json:"keys"`
	ContinuationToken string          `json:"continuation_token"`
	ChunkSize         int             `json:"chunk_size"`
}

// getEvents scans sealed blocks [from_block, to_block] (defaulting to the
// full chain) for events matching address/keys, paginating via chunk_size
// and a continuation_token that is simply the number of matches already
// returned across prior pages.
func (d *Devnet) getEvents(raw json.RawMessage) (any, *jsonrpc.Error) {
	var w wireEventFilter
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, rpcError(core.ErrInvalidParams)
	}

	var addrFilter *core.ContractAddress
	if w.Address != "" {
		a, err := FeltParam(w.Address).Address()
		if err != nil {
			return nil, rpcError(err)
		}
		addrFilter = &a
	}
	keys := make([][]*felt.Felt, len(w.Keys))
	for i, group := range w.Keys {
		if len(group) == 0 {
			continue
		}
		felts, err := feltListParam(toFeltParams(group)).felts()
		if err != nil {
			return nil, rpcError(err)
		}
		keys[i] = felts
	}
	chunkSize := w.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	skip := 0
	if w.ContinuationToken != "" {
		n, convErr := strconv.Atoi(w.ContinuationToken)
		if convErr != nil {
			return nil, rpcError(core.ErrInvalidParams)
		}
		skip = n
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	fromNum, err := d.eventBlockNumber(w.FromBlock, 0)
	if err != nil {
		return nil, rpcError(err)
	}
	toDefault := uint64(0)
	if latest, ok := d.Chain.Latest(); ok {
		toDefault = latest
	}
	toNum, err := d.eventBlockNumber(w.ToBlock, toDefault)
	if err != nil {
		return nil, rpcError(err)
	}

	matched, seen, more := collectEventsInRange(d.Chain, fromNum, toNum, addrFilter, keys, skip, chunkSize)
	out := map[string]any{"events": matched}
	if more {
		out["continuation_token"] = strconv.Itoa(seen)
	}
	return out, nil
}

func (d *Devnet) eventBlockNumber(raw json.RawMessage, fallback uint64) (uint64, error) {
	if len(raw) == 0 {
		return fallback, nil
	}
	view, err := (BlockID{raw: raw}).View()
	if err != nil {
		return 0, err
	}
	if view.Kind == state.ViewPreConfirmed {
		return fallback, nil
	}
	block, err := d.Chain.GetBlock(view)
	if err != nil {
		return 0, err
	}
	return block.Number, nil
}

func collectEventsInRange(chain *blockchain.Manager, from, to uint64, addrFilter *core.ContractAddress, keys [][]*felt.Felt, skip, chunkSize int) ([]map[string]any, int, bool) {
	matched := []map[string]any{}
	seen := 0
	if to < from {
		return matched, seen, false
	}
	for num := from; num <= to; num++ {
		block, err := chain.GetBlock(state.ByNumber(num))
		if err != nil {
			continue
		}
		for _, h := range block.TransactionHashes {
			receipt, ok := chain.Receipt(h)
			if !ok {
				continue
			}
			for _, e := range receipt.Events {
				if addrFilter != nil && !e.FromAddress.Felt.Equal(&addrFilter.Felt) {
					continue
				}
				if !core.MatchesKeys(e, keys) {
					continue
				}
				if seen < skip {
					seen++
					continue
				}
				if len(matched) >= chunkSize {
					return matched, seen, true
				}
				matched = append(matched, eventWireView(e))
				seen++
			}
		}
	}
	return matched, seen, false
}

type wireCallRequest struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
}

func (d *Devnet) call(raw json.RawMessage, blockID BlockID) (any, *jsonrpc.Error) {
	var w wireCallRequest
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, rpcError(core.ErrInvalidParams)
	}
	addr, err := FeltParam(w.ContractAddress).Address()
	if err != nil {
		return nil, rpcError(err)
	}
	selector, err := FeltParam(w.EntryPointSelector).Felt()
	if err != nil {
		return nil, rpcError(err)
	}
	calldata, err := feltListParam(toFeltParams(w.Calldata)).felts()
	if err != nil {
		return nil, rpcError(err)
	}
	view, err := blockID.View()
	if err != nil {
		return nil, rpcError(err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	result, err := d.TxExec.Call(view, addr, selector, calldata)
	if err != nil {
		return nil, rpcError(err)
	}
	return hexAll(result), nil
}
