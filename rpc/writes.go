package rpc

import (
	"encoding/json"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/jsonrpc"
)

func (d *Devnet) writeMethods() []jsonrpc.Method {
	return []jsonrpc.Method{
		{Name: "starknet_addInvokeTransaction", Params: []jsonrpc.Parameter{{Name: "invoke_transaction"}}, Handler: d.addInvokeTransaction},
		{Name: "starknet_addDeclareTransaction", Params: []jsonrpc.Parameter{{Name: "declare_transaction"}}, Handler: d.addDeclareTransaction},
		{Name: "starknet_addDeployAccountTransaction", Params: []jsonrpc.Parameter{{Name: "deploy_account_transaction"}}, Handler: d.addDeployAccountTransaction},
	}
}

type feltListParam []FeltParam

func (p feltListParam) felts() ([]*felt.Felt, error) {
	out := make([]*felt.Felt, len(p))
	for i, f := range p {
		v, err := f.Felt()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func commonV3Fields(w wireCommonV3) (core.CommonV3Fields, error) {
	nonce, err := FeltParam(w.Nonce).Felt()
	if err != nil {
		return core.CommonV3Fields{}, err
	}
	paymaster, err := feltListParam(toFeltParams(w.PaymasterData)).felts()
	if err != nil {
		return core.CommonV3Fields{}, err
	}
	return core.CommonV3Fields{
		ResourceBounds: w.ResourceBounds,
		Tip:            w.Tip,
		PaymasterData:  paymaster,
		NonceDAMode:    core.DAMode(w.NonceDataAvailabilityMode),
		FeeDAMode:      core.DAMode(w.FeeDataAvailabilityMode),
		Nonce:          nonce,
	}, nil
}

func toFeltParams(hexes []string) []FeltParam {
	out := make([]FeltParam, len(hexes))
	for i, h := range hexes {
		out[i] = FeltParam(h)
	}
	return out
}

// wireCommonV3 mirrors the shared body of every v3 transaction on the wire.
type wireCommonV3 struct {
	ResourceBounds            core.ResourceBoundsMapping `json:"resource_bounds"`
	Tip                       uint64                     `json:"tip,string"`
	PaymasterData             []string                   `json:"paymaster_data"`
	NonceDataAvailabilityMode string                     `json:"nonce_data_availability_mode"`
	FeeDataAvailabilityMode   string                     `json:"fee_data_availability_mode"`
	Nonce                     string                     `json:"nonce"`
}

type wireInvoke struct {
	wireCommonV3
	SenderAddress         string   `json:"sender_address"`
	Calldata              []string `json:"calldata"`
	Signature             []string `json:"signature"`
	AccountDeploymentData []string `json:"account_deployment_data"`
}

func decodeInvoke(chainID core.ChainID, w wireInvoke) (*core.Transaction, error) {
	common, err := commonV3Fields(w.wireCommonV3)
	if err != nil {
		return nil, err
	}
	sender, err := FeltParam(w.SenderAddress).Address()
	if err != nil {
		return nil, err
	}
	calldata, err := feltListParam(toFeltParams(w.Calldata)).felts()
	if err != nil {
		return nil, err
	}
	signature, err := feltListParam(toFeltParams(w.Signature)).felts()
	if err != nil {
		return nil, err
	}
	accountDeploymentData, err := feltListParam(toFeltParams(w.AccountDeploymentData)).felts()
	if err != nil {
		return nil, err
	}

	tx := &core.Transaction{
		Kind: core.TransactionInvoke,
		Invoke: &core.InvokeTransaction{
			CommonV3Fields:        common,
			SenderAddress:         sender,
			Calldata:              calldata,
			Signature:             signature,
			AccountDeploymentData: accountDeploymentData,
		},
	}
	hash, err := core.ComputeHash(tx, chainID)
	if err != nil {
		return nil, err
	}
	tx.Invoke.Hash = hash
	return tx, nil
}

func (d *Devnet) addInvokeTransaction(raw json.RawMessage) (any, *jsonrpc.Error) {
	var w wireInvoke
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, rpcError(core.ErrInvalidParams)
	}

	tx, err := decodeInvoke(d.ChainID, w)
	if err != nil {
		return nil, rpcError(err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	receipt, err := d.TxExec.Submit(tx, true, d.shouldValidate(tx.Invoke.SenderAddress))
	if err != nil {
		return nil, rpcError(err)
	}
	if d.Bus != nil {
		d.Bus.PublishPendingTransaction(tx)
	}
	return map[string]any{"transaction_hash": core.FeltToHex(receipt.TransactionHash)}, nil
}

type wireDeclare struct {
	wireCommonV3
	SenderAddress         string   `json:"sender_address"`
	CompiledClassHash     string   `json:"compiled_class_hash"`
	Signature             []string `json:"signature"`
	AccountDeploymentData []string `json:"account_deployment_data"`
	ContractClass         json.RawMessage `json:"contract_class"`
}

func decodeDeclare(chainID core.ChainID, w wireDeclare) (*core.Transaction, error) {
	common, err := commonV3Fields(w.wireCommonV3)
	if err != nil {
		return nil, err
	}
	sender, err := FeltParam(w.SenderAddress).Address()
	if err != nil {
		return nil, err
	}
	compiledClassHash, err := FeltParam(w.CompiledClassHash).CompiledClassHash()
	if err != nil {
		return nil, err
	}
	signature, err := feltListParam(toFeltParams(w.Signature)).felts()
	if err != nil {
		return nil, err
	}
	accountDeploymentData, err := feltListParam(toFeltParams(w.AccountDeploymentData)).felts()
	if err != nil {
		return nil, err
	}

	class, err := core.DecodeSierraClass(w.ContractClass)
	if err != nil {
		return nil, err
	}
	classHashFelt, err := class.Hash()
	if err != nil {
		return nil, err
	}
	classHash := core.ClassHash{Felt: *classHashFelt}

	tx := &core.Transaction{
		Kind: core.TransactionDeclare,
		Declare: &core.DeclareTransaction{
			CommonV3Fields:        common,
			SenderAddress:         sender,
			Signature:             signature,
			ClassHash:             classHash,
			CompiledClassHash:     compiledClassHash,
			AccountDeploymentData: accountDeploymentData,
			Class:                 class,
		},
	}
	hash, err := core.ComputeHash(tx, chainID)
	if err != nil {
		return nil, err
	}
	tx.Declare.Hash = hash
	return tx, nil
}

func (d *Devnet) addDeclareTransaction(raw json.RawMessage) (any, *jsonrpc.Error) {
	var w wireDeclare
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, rpcError(core.ErrInvalidParams)
	}

	tx, err := decodeDeclare(d.ChainID, w)
	if err != nil {
		return nil, rpcError(err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	receipt, err := d.TxExec.Submit(tx, true, d.shouldValidate(tx.Declare.SenderAddress))
	if err != nil {
		return nil, rpcError(err)
	}
	if d.Bus != nil {
		d.Bus.PublishPendingTransaction(tx)
	}
	return map[string]any{
		"transaction_hash": core.FeltToHex(receipt.TransactionHash),
		"class_hash":        core.FeltToHex(&tx.Declare.ClassHash.Felt),
	}, nil
}

type wireDeployAccount struct {
	wireCommonV3
	ContractAddressSalt string   `json:"contract_address_salt"`
	ConstructorCalldata []string `json:"constructor_calldata"`
	ClassHash           string   `json:"class_hash"`
	Signature           []string `json:"signature"`
}

func decodeDeployAccount(chainID core.ChainID, w wireDeployAccount) (*core.Transaction, error) {
	common, err := commonV3Fields(w.wireCommonV3)
	if err != nil {
		return nil, err
	}
	salt, err := FeltParam(w.ContractAddressSalt).Felt()
	if err != nil {
		return nil, err
	}
	classHash, err := FeltParam(w.ClassHash).ClassHash()
	if err != nil {
		return nil, err
	}
	calldata, err := feltListParam(toFeltParams(w.ConstructorCalldata)).felts()
	if err != nil {
		return nil, err
	}
	signature, err := feltListParam(toFeltParams(w.Signature)).felts()
	if err != nil {
		return nil, err
	}

	deployedAddr := core.NewContractAddress(core.ComputeContractAddress(classHash, salt, calldata))

	tx := &core.Transaction{
		Kind: core.TransactionDeployAccount,
		DeployAccount: &core.DeployAccountTransaction{
			CommonV3Fields:      common,
			ContractAddressSalt: salt,
			ConstructorCalldata: calldata,
			ClassHash:           classHash,
			Signature:           signature,
			DeployedAddress:     deployedAddr,
		},
	}
	hash, err := core.ComputeHash(tx, chainID)
	if err != nil {
		return nil, err
	}
	tx.DeployAccount.Hash = hash
	return tx, nil
}

func (d *Devnet) addDeployAccountTransaction(raw json.RawMessage) (any, *jsonrpc.Error) {
	var w wireDeployAccount
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, rpcError(core.ErrInvalidParams)
	}

	tx, err := decodeDeployAccount(d.ChainID, w)
	if err != nil {
		return nil, rpcError(err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	receipt, err := d.TxExec.Submit(tx, true, d.shouldValidate(tx.DeployAccount.DeployedAddress))
	if err != nil {
		return nil, rpcError(err)
	}
	if d.Bus != nil {
		d.Bus.PublishPendingTransaction(tx)
	}
	return map[string]any{
		"transaction_hash": core.FeltToHex(receipt.TransactionHash),
		"contract_address": core.FeltToHex(&tx.DeployAccount.DeployedAddress.Felt),
	}, nil
}

// decodeTransaction dispatches on the wire "type" tag shared by every v3
// transaction body. estimateFee/simulateTransactions accept a batch of these
// without any add*Transaction's side effects (no hash-collision rejection,
// no nonce consumption).
func decodeTransaction(chainID core.ChainID, raw json.RawMessage) (*core.Transaction, error) {
	var tagged struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, core.ErrInvalidParams
	}
	switch tagged.Type {
	case "INVOKE":
		var w wireInvoke
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, core.ErrInvalidParams
		}
		return decodeInvoke(chainID, w)
	case "DECLARE":
		var w wireDeclare
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, core.ErrInvalidParams
		}
		return decodeDeclare(chainID, w)
	case "DEPLOY_ACCOUNT":
		var w wireDeployAccount
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, core.ErrInvalidParams
		}
		return decodeDeployAccount(chainID, w)
	default:
		return nil, core.ErrInvalidParams
	}
}
