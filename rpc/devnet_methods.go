package rpc

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/common"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/journal"
	"github.com/0xSpaceShard/starknet-devnet-go/jsonrpc"
	"github.com/0xSpaceShard/starknet-devnet-go/predeploy"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

// defaultMockMessagingContract stands in for the "MockStarknetMessaging"
// contract address a real L1 devnet deployment would report, for callers of
// devnet_postmanLoad that do not supply one themselves (spec.md §4.5).
var defaultMockMessagingContract = common.HexToAddress("0x1")

func (d *Devnet) devnetMethods() []jsonrpc.Method {
	return []jsonrpc.Method{
		{Name: "devnet_mint", Params: []jsonrpc.Parameter{{Name: "address"}, {Name: "amount"}, {Name: "unit", Optional: true}}, Handler: d.mint},
		{Name: "devnet_getAccountBalance", Params: []jsonrpc.Parameter{{Name: "address"}, {Name: "unit", Optional: true}, {Name: "block_id", Optional: true}}, Handler: d.getAccountBalance},
		{Name: "devnet_createBlock", Handler: d.devnetCreateBlock},
		{Name: "devnet_abortBlocks", Params: []jsonrpc.Parameter{{Name: "starting_block_hash"}}, Handler: d.abortBlocks},
		{Name: "devnet_setTime", Params: []jsonrpc.Parameter{{Name: "time"}}, Handler: d.setTime},
		{Name: "devnet_increaseTime", Params: []jsonrpc.Parameter{{Name: "time"}}, Handler: d.increaseTime},
		{Name: "devnet_dump", Params: []jsonrpc.Parameter{{Name: "path", Optional: true}}, Handler: d.dump},
		{Name: "devnet_getPredeployedAccounts", Handler: d.getPredeployedAccounts},
		{Name: "devnet_getConfig", Handler: d.getConfig},
		{Name: "devnet_postmanFlush", Params: []jsonrpc.Parameter{{Name: "dry_run", Optional: true}}, Handler: d.postmanFlush},
		{Name: "devnet_postmanLoad", Params: []jsonrpc.Parameter{{Name: "network_url"}, {Name: "address", Optional: true}}, Handler: d.postmanLoad},
		{Name: "devnet_postmanSendMessageToL2", Params: []jsonrpc.Parameter{{Name: "message"}}, Handler: d.postmanSendMessageToL2},
		{Name: "devnet_postmanConsumeMessageFromL2", Params: []jsonrpc.Parameter{{Name: "message"}}, Handler: d.postmanConsumeMessageFromL2},
		{Name: "devnet_load", Params: []jsonrpc.Parameter{{Name: "path"}}, Handler: d.load},
		{Name: "devnet_restart", Handler: d.restart},
		{Name: "devnet_impersonateAccount", Params: []jsonrpc.Parameter{{Name: "account_address"}}, Handler: d.impersonateAccount},
		{Name: "devnet_autoImpersonate", Handler: d.devnetAutoImpersonate},
	}
}

func (d *Devnet) mint(addrParam FeltParam, amount string, unit string) (any, *jsonrpc.Error) {
	addr, err := addrParam.Address()
	if err != nil {
		return nil, rpcError(err)
	}
	amountInt, ok := new(big.Int).SetString(amount, 0)
	if !ok {
		return nil, rpcError(core.ErrInvalidParams)
	}
	feeUnit := core.FeeUnitFri
	if unit == string(core.FeeUnitWei) {
		feeUnit = core.FeeUnitWei
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	slot := predeploy.BalanceSlot(addr)
	current, err := d.Store.GetStorage(state.PreConfirmed, addr, slot)
	if err != nil {
		return nil, rpcError(err)
	}
	bi := new(big.Int)
	current.BigInt(bi)
	bi.Add(bi, amountInt)
	newBalance := new(felt.Felt).SetBigInt(bi)
	if err := d.Store.SetStorage(addr, slot, newBalance); err != nil {
		return nil, rpcError(err)
	}

	d.Journal.Append(journal.DumpEvent{
		Kind:        journal.EventMint,
		MintAddress: addr,
		MintAmount:  amount,
		MintUnit:    feeUnit,
	})

	return map[string]any{
		"new_balance": core.FeltToHex(newBalance),
		"unit":        string(feeUnit),
		"tx_hash":     "0x0",
	}, nil
}

func (d *Devnet) getAccountBalance(addrParam FeltParam, unit string, blockID BlockID) (any, *jsonrpc.Error) {
	addr, err := addrParam.Address()
	if err != nil {
		return nil, rpcError(err)
	}
	view, err := blockID.View()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	val, err := d.Store.GetStorage(view, addr, predeploy.BalanceSlot(addr))
	if err != nil {
		return nil, rpcError(err)
	}
	return map[string]any{"amount": core.FeltToHex(val), "unit": unit}, nil
}

func (d *Devnet) devnetCreateBlock() (any, *jsonrpc.Error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	hash, err := d.Chain.CreateBlock(d.currentTimestamp(), nil)
	if err != nil {
		return nil, rpcError(err)
	}
	return map[string]any{"block_hash": core.FeltToHex(hash)}, nil
}

func (d *Devnet) abortBlocks(hashParam FeltParam) (any, *jsonrpc.Error) {
	hash, err := hashParam.Felt()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.Chain.AbortBlocks(hash); err != nil {
		return nil, rpcError(err)
	}
	return map[string]any{"starting_block_hash": core.FeltToHex(hash)}, nil
}

func (d *Devnet) setTime(seconds int64) (any, *jsonrpc.Error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.virtualTime = seconds
	d.virtualTimeIsSet = true
	d.Journal.Append(journal.DumpEvent{Kind: journal.EventSetTime, Seconds: uint64(seconds)})
	return map[string]any{"block_timestamp": uint64(seconds)}, nil
}

func (d *Devnet) increaseTime(seconds int64) (any, *jsonrpc.Error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.virtualTime = int64(d.currentTimestamp()) + seconds
	d.virtualTimeIsSet = true
	d.Journal.Append(journal.DumpEvent{Kind: journal.EventIncreaseTime, Seconds: uint64(seconds)})
	return map[string]any{"block_timestamp": uint64(d.virtualTime)}, nil
}

func (d *Devnet) dump(path string) (any, *jsonrpc.Error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.Journal.Flush(); err != nil {
		return nil, rpcError(err)
	}
	return nil, nil
}

func (d *Devnet) getPredeployedAccounts() (any, *jsonrpc.Error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]map[string]any, len(d.Predeploy.Accounts))
	for i, acc := range d.Predeploy.Accounts {
		out[i] = map[string]any{
			"address":     acc.Address.String(),
			"private_key": "0x" + acc.PrivateKey.Text(16),
			"public_key":  "0x" + acc.PublicKey.Text(16),
		}
	}
	return out, nil
}

func (d *Devnet) getConfig() (any, *jsonrpc.Error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return map[string]any{
		"chain_id":         d.ChainID.String(),
		"starknet_version": d.StarknetVersion,
		"run_id":           d.RunID,
	}, nil
}

func (d *Devnet) postmanFlush(dryRun bool) (any, *jsonrpc.Error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result, err := d.Bridge.Flush(context.Background(), d.TxExec, dryRun)
	if err != nil {
		return nil, rpcError(err)
	}
	return map[string]any{
		"messages_to_l2":             len(result.MessagesToL2),
		"generated_l2_transactions":  result.GeneratedL2Transactions,
		"l1_provider":                result.L1Provider,
	}, nil
}

// postmanLoad points the messaging bridge at an L1 node and the mock
// messaging contract deployed on it, starting message polling from L1 block
// 0 (spec.md §6 devnet_postmanLoad, §4.5).
func (d *Devnet) postmanLoad(networkURL, address string) (any, *jsonrpc.Error) {
	contractAddr := defaultMockMessagingContract
	if address != "" {
		contractAddr = common.HexToAddress(address)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.Bridge.Configure(context.Background(), networkURL, contractAddr, 0); err != nil {
		return nil, rpcError(err)
	}
	return map[string]any{"messaging_contract_address": contractAddr.Hex()}, nil
}

type wireL1ToL2Message struct {
	L2ContractAddress  string   `json:"l2_contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	L1ContractAddress  string   `json:"l1_contract_address"`
	Payload            []string `json:"payload"`
	Nonce              string   `json:"nonce"`
	PaidFeeOnL1        string   `json:"paid_fee_on_l1"`
}

// postmanSendMessageToL2 synthesizes an L1Handler transaction directly,
// bypassing the bridge's L1 log poll entirely: useful for tests driving the
// L1->L2 path without a real or Anvil-local L1 node behind it (spec.md §6
// devnet_postmanSendMessageToL2).
func (d *Devnet) postmanSendMessageToL2(raw json.RawMessage) (any, *jsonrpc.Error) {
	var w wireL1ToL2Message
	if jsonErr := json.Unmarshal(raw, &w); jsonErr != nil {
		return nil, rpcError(core.ErrInvalidParams)
	}

	contractAddr, err := FeltParam(w.L2ContractAddress).Address()
	if err != nil {
		return nil, rpcError(err)
	}
	selector, err := FeltParam(w.EntryPointSelector).Felt()
	if err != nil {
		return nil, rpcError(err)
	}
	l1Addr, err := FeltParam(w.L1ContractAddress).Felt()
	if err != nil {
		return nil, rpcError(err)
	}
	payload, err := feltListParam(toFeltParams(w.Payload)).felts()
	if err != nil {
		return nil, rpcError(err)
	}
	nonce, err := FeltParam(w.Nonce).Felt()
	if err != nil {
		return nil, rpcError(err)
	}
	paidFee, err := FeltParam(w.PaidFeeOnL1).Felt()
	if err != nil {
		return nil, rpcError(err)
	}

	l1h := &core.L1HandlerTransaction{
		Nonce:              nonce,
		ContractAddress:    contractAddr,
		EntryPointSelector: selector,
		Calldata:           append([]*felt.Felt{l1Addr}, payload...),
		PaidFeeOnL1:        paidFee,
	}
	hash, err := core.ComputeHash(&core.Transaction{Kind: core.TransactionL1Handler, L1Handler: l1h}, d.ChainID)
	if err != nil {
		return nil, rpcError(err)
	}
	l1h.Hash = hash

	d.mu.Lock()
	defer d.mu.Unlock()
	receipt, err := d.TxExec.SubmitL1Handler(l1h)
	if err != nil {
		return nil, rpcError(err)
	}
	return map[string]any{"transaction_hash": core.FeltToHex(receipt.TransactionHash)}, nil
}

type wireL2ToL1Message struct {
	FromAddress string   `json:"from_address"`
	ToAddress   string   `json:"to_address"`
	Payload     []string `json:"payload"`
}

// postmanConsumeMessageFromL2 computes the message's local id and passes it
// to Bridge.ConsumeL2ToL1Message. This devnet deploys no real bridge
// contract to call consumeMessageFromL2 against, so the consume callback
// always succeeds locally; Bridge's unsent queue is left unchanged and the
// call only reports the message hash (spec.md §6
// devnet_postmanConsumeMessageFromL2, §4.5).
func (d *Devnet) postmanConsumeMessageFromL2(raw json.RawMessage) (any, *jsonrpc.Error) {
	var w wireL2ToL1Message
	if jsonErr := json.Unmarshal(raw, &w); jsonErr != nil {
		return nil, rpcError(core.ErrInvalidParams)
	}
	fromAddr, err := FeltParam(w.FromAddress).Address()
	if err != nil {
		return nil, rpcError(err)
	}
	payload, err := feltListParam(toFeltParams(w.Payload)).felts()
	if err != nil {
		return nil, rpcError(err)
	}
	var toAddr [20]byte
	copy(toAddr[:], common.HexToAddress(w.ToAddress).Bytes())

	msg := core.L2ToL1Message{FromAddress: fromAddr, ToAddress: toAddr, Payload: payload}
	hash := msg.LocalID()

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.Bridge.ConsumeL2ToL1Message(context.Background(), hash, func(ctx context.Context, h *felt.Felt) error {
		return nil
	}); err != nil {
		return nil, rpcError(err)
	}
	return map[string]any{"message_hash": core.FeltToHex(hash)}, nil
}

// load replays a previously dumped journal file into the current live
// state via TxExecutor.Replay. In Transaction mode the live journal writer
// is then closed, the file removed and a fresh empty writer reopened at the
// same path, so the just-replayed events are not appended back into the
// file a second time (spec.md §4.6 devnet_load).
func (d *Devnet) load(path string) (any, *jsonrpc.Error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := journal.Load(path, d.TxExec); err != nil {
		return nil, rpcError(err)
	}

	if tw, ok := d.Journal.(*journal.TransactionWriter); ok {
		if err := tw.Delete(path); err != nil {
			return nil, rpcError(err)
		}
		fresh, err := journal.OpenTransactionWriter(path)
		if err != nil {
			return nil, rpcError(err)
		}
		d.Journal = fresh
	}

	return nil, nil
}

// restart tears down state/predeploy/chain/executor and rebuilds them from
// scratch via the node's wiring pipeline, leaving the journal and messaging
// bridge untouched (spec.md §6 devnet_restart). Devnet values constructed
// directly in tests, without a Node behind them, leave Rebuild nil and
// report ErrRestartUnsupported.
func (d *Devnet) restart() (any, *jsonrpc.Error) {
	if d.Rebuild == nil {
		return nil, rpcError(core.ErrRestartUnsupported)
	}
	store, chain, txExec, predeployed, err := d.Rebuild()
	if err != nil {
		return nil, rpcError(err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.Store = store
	d.Chain = chain
	d.TxExec = txExec
	d.Predeploy = predeployed
	d.virtualTime = 0
	d.virtualTimeIsSet = false
	d.impersonated = make(map[core.ContractAddress]bool)
	d.autoImpersonate = false
	return nil, nil
}

func (d *Devnet) impersonateAccount(addrParam FeltParam) (any, *jsonrpc.Error) {
	addr, err := addrParam.Address()
	if err != nil {
		return nil, rpcError(err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.impersonated[addr] = true
	return nil, nil
}

func (d *Devnet) devnetAutoImpersonate() (any, *jsonrpc.Error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.autoImpersonate = true
	return nil, nil
}
