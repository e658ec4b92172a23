package journal

import (
	"encoding/json"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
)

// wireEvent is the on-disk tagged-union shape for a DumpEvent. It is kept
// separate from DumpEvent so the in-memory struct can stay flat while the
// wire format stays a proper tagged union (spec.md §9: "the JSON<->domain
// mapping lives at the boundary only").
type wireEvent struct {
	Type string `json:"type"`

	Transaction *wireTransaction `json:"transaction,omitempty"`

	Seconds *uint64 `json:"seconds,omitempty"`

	MintAddress string `json:"address,omitempty"`
	MintAmount  string `json:"amount,omitempty"`
	MintUnit    string `json:"unit,omitempty"`
}

type wireTransaction struct {
	Hash          string   `json:"transaction_hash"`
	Sender        string   `json:"sender_address,omitempty"`
	Nonce         string   `json:"nonce,omitempty"`
	ClassHash     string   `json:"class_hash,omitempty"`
	CompiledHash  string   `json:"compiled_class_hash,omitempty"`
	ContractAddr  string   `json:"contract_address,omitempty"`
	Salt          string   `json:"contract_address_salt,omitempty"`
	Calldata      []string `json:"calldata,omitempty"`
	ConstructorCD []string `json:"constructor_calldata,omitempty"`
	Signature     []string `json:"signature,omitempty"`
	Selector      string   `json:"entry_point_selector,omitempty"`
	PaidFeeOnL1   string   `json:"paid_fee_on_l1,omitempty"`
}

func kindName(k EventKind) string {
	switch k {
	case EventDeclare:
		return "DECLARE"
	case EventDeployAccount:
		return "DEPLOY_ACCOUNT"
	case EventInvoke:
		return "INVOKE"
	case EventL1Handler:
		return "L1_HANDLER"
	case EventSetTime:
		return "SET_TIME"
	case EventIncreaseTime:
		return "INCREASE_TIME"
	case EventCreateBlock:
		return "CREATE_BLOCK"
	case EventMint:
		return "MINT"
	default:
		return "UNKNOWN"
	}
}

func feltsHex(fs []*felt.Felt) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = core.FeltToHex(f)
	}
	return out
}

func parseFelts(hexes []string) ([]*felt.Felt, error) {
	out := make([]*felt.Felt, len(hexes))
	for i, h := range hexes {
		f, err := core.ParseFelt(h)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// Encode renders a DumpEvent in the journal's on-disk shape.
func Encode(e DumpEvent) ([]byte, error) {
	w := wireEvent{Type: kindName(e.Kind)}

	switch e.Kind {
	case EventDeclare:
		d := e.Transaction.Declare
		w.Transaction = &wireTransaction{
			Hash:         core.FeltToHex(d.Hash),
			Sender:       d.SenderAddress.String(),
			Nonce:        core.FeltToHex(d.Nonce),
			ClassHash:    core.FeltToHex(&d.ClassHash.Felt),
			CompiledHash: core.FeltToHex(&d.CompiledClassHash.Felt),
			Signature:    feltsHex(d.Signature),
		}
	case EventDeployAccount:
		da := e.Transaction.DeployAccount
		w.Transaction = &wireTransaction{
			Hash:          core.FeltToHex(da.Hash),
			Nonce:         core.FeltToHex(da.Nonce),
			ClassHash:     core.FeltToHex(&da.ClassHash.Felt),
			ContractAddr:  da.DeployedAddress.String(),
			Salt:          core.FeltToHex(da.ContractAddressSalt),
			ConstructorCD: feltsHex(da.ConstructorCalldata),
			Signature:     feltsHex(da.Signature),
		}
	case EventInvoke:
		i := e.Transaction.Invoke
		w.Transaction = &wireTransaction{
			Hash:      core.FeltToHex(i.Hash),
			Sender:    i.SenderAddress.String(),
			Nonce:     core.FeltToHex(i.Nonce),
			Calldata:  feltsHex(i.Calldata),
			Signature: feltsHex(i.Signature),
		}
	case EventL1Handler:
		l := e.Transaction.L1Handler
		w.Transaction = &wireTransaction{
			Hash:         core.FeltToHex(l.Hash),
			Nonce:        core.FeltToHex(l.Nonce),
			ContractAddr: l.ContractAddress.String(),
			Selector:     core.FeltToHex(l.EntryPointSelector),
			Calldata:     feltsHex(l.Calldata),
			PaidFeeOnL1:  core.FeltToHex(l.PaidFeeOnL1),
		}
	case EventSetTime, EventIncreaseTime:
		w.Seconds = &e.Seconds
	case EventMint:
		w.MintAddress = e.MintAddress.String()
		w.MintAmount = e.MintAmount
		w.MintUnit = string(e.MintUnit)
	}

	return json.Marshal(w)
}

// Decode parses one on-disk DumpEvent back into its in-memory form.
func Decode(data []byte) (DumpEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return DumpEvent{}, fmt.Errorf("%w: %v", core.ErrDeserializationError, err)
	}

	switch w.Type {
	case "DECLARE":
		nonce, _ := core.ParseFelt(w.Transaction.Nonce)
		classHash, _ := core.ParseFelt(w.Transaction.ClassHash)
		compiledHash, _ := core.ParseFelt(w.Transaction.CompiledHash)
		hash, _ := core.ParseFelt(w.Transaction.Hash)
		sig, err := parseFelts(w.Transaction.Signature)
		if err != nil {
			return DumpEvent{}, err
		}
		sender, err := addressOf(w.Transaction.Sender)
		if err != nil {
			return DumpEvent{}, err
		}
		return DumpEvent{Kind: EventDeclare, Transaction: &core.Transaction{
			Kind: core.TransactionDeclare,
			Declare: &core.DeclareTransaction{
				CommonV3Fields:    core.CommonV3Fields{Nonce: nonce},
				Hash:              hash,
				SenderAddress:     sender,
				Signature:         sig,
				ClassHash:         core.ClassHash{Felt: *classHash},
				CompiledClassHash: core.CompiledClassHash{Felt: *compiledHash},
			},
		}}, nil

	case "DEPLOY_ACCOUNT":
		nonce, _ := core.ParseFelt(w.Transaction.Nonce)
		classHash, _ := core.ParseFelt(w.Transaction.ClassHash)
		hash, _ := core.ParseFelt(w.Transaction.Hash)
		salt, _ := core.ParseFelt(w.Transaction.Salt)
		cd, err := parseFelts(w.Transaction.ConstructorCD)
		if err != nil {
			return DumpEvent{}, err
		}
		sig, err := parseFelts(w.Transaction.Signature)
		if err != nil {
			return DumpEvent{}, err
		}
		addr, err := addressOf(w.Transaction.ContractAddr)
		if err != nil {
			return DumpEvent{}, err
		}
		return DumpEvent{Kind: EventDeployAccount, Transaction: &core.Transaction{
			Kind: core.TransactionDeployAccount,
			DeployAccount: &core.DeployAccountTransaction{
				CommonV3Fields:      core.CommonV3Fields{Nonce: nonce},
				Hash:                hash,
				ContractAddressSalt: salt,
				ConstructorCalldata: cd,
				ClassHash:           core.ClassHash{Felt: *classHash},
				Signature:           sig,
				DeployedAddress:     addr,
			},
		}}, nil

	case "INVOKE":
		nonce, _ := core.ParseFelt(w.Transaction.Nonce)
		hash, _ := core.ParseFelt(w.Transaction.Hash)
		cd, err := parseFelts(w.Transaction.Calldata)
		if err != nil {
			return DumpEvent{}, err
		}
		sig, err := parseFelts(w.Transaction.Signature)
		if err != nil {
			return DumpEvent{}, err
		}
		sender, err := addressOf(w.Transaction.Sender)
		if err != nil {
			return DumpEvent{}, err
		}
		return DumpEvent{Kind: EventInvoke, Transaction: &core.Transaction{
			Kind: core.TransactionInvoke,
			Invoke: &core.InvokeTransaction{
				CommonV3Fields: core.CommonV3Fields{Nonce: nonce},
				Hash:           hash,
				SenderAddress:  sender,
				Calldata:       cd,
				Signature:      sig,
			},
		}}, nil

	case "L1_HANDLER":
		nonce, _ := core.ParseFelt(w.Transaction.Nonce)
		hash, _ := core.ParseFelt(w.Transaction.Hash)
		selector, _ := core.ParseFelt(w.Transaction.Selector)
		paidFee, _ := core.ParseFelt(w.Transaction.PaidFeeOnL1)
		cd, err := parseFelts(w.Transaction.Calldata)
		if err != nil {
			return DumpEvent{}, err
		}
		addr, err := addressOf(w.Transaction.ContractAddr)
		if err != nil {
			return DumpEvent{}, err
		}
		return DumpEvent{Kind: EventL1Handler, Transaction: &core.Transaction{
			Kind: core.TransactionL1Handler,
			L1Handler: &core.L1HandlerTransaction{
				Hash:               hash,
				Nonce:              nonce,
				ContractAddress:    addr,
				EntryPointSelector: selector,
				Calldata:           cd,
				PaidFeeOnL1:        paidFee,
			},
		}}, nil

	case "SET_TIME":
		return DumpEvent{Kind: EventSetTime, Seconds: derefU64(w.Seconds)}, nil
	case "INCREASE_TIME":
		return DumpEvent{Kind: EventIncreaseTime, Seconds: derefU64(w.Seconds)}, nil
	case "CREATE_BLOCK":
		return DumpEvent{Kind: EventCreateBlock}, nil
	case "MINT":
		addr, err := addressOf(w.MintAddress)
		if err != nil {
			return DumpEvent{}, err
		}
		return DumpEvent{Kind: EventMint, MintAddress: addr, MintAmount: w.MintAmount, MintUnit: core.FeeUnit(w.MintUnit)}, nil
	default:
		return DumpEvent{}, fmt.Errorf("%w: unknown journal event type %q", core.ErrFormatError, w.Type)
	}
}

func addressOf(hex string) (core.ContractAddress, error) {
	if hex == "" {
		return core.ContractAddress{}, nil
	}
	f, err := core.ParseFelt(hex)
	if err != nil {
		return core.ContractAddress{}, err
	}
	return core.ContractAddress{Felt: *f}, nil
}

func derefU64(p *uint64) uint64 {
	if p == nil {
		return 0
	}
	return *p
}
