package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

// BlockID is the wire shape every starknet_* method accepts to select a
// block: either the literal strings "latest"/"pre_confirmed", or an object
// naming a hash or number.
type BlockID struct {
	raw json.RawMessage
}

func (b *BlockID) UnmarshalJSON(data []byte) error {
	b.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (b BlockID) MarshalJSON() ([]byte, error) {
	if b.raw == nil {
		return []byte(`"latest"`), nil
	}
	return b.raw, nil
}

// View resolves the wire BlockID into a state.View selector.
func (b BlockID) View() (state.View, error) {
	var tag string
	if err := json.Unmarshal(b.raw, &tag); err == nil {
		switch tag {
		case "latest", "":
			return state.Latest, nil
		case "pre_confirmed", "pending":
			return state.PreConfirmed, nil
		default:
			return state.View{}, core.ErrInvalidParams
		}
	}

	var obj struct {
		BlockHash   string  `json:"block_hash"`
		BlockNumber *uint64 `json:"block_number"`
	}
	if err := json.Unmarshal(b.raw, &obj); err != nil {
		return state.View{}, fmt.Errorf("%w: %v", core.ErrInvalidParams, err)
	}
	if obj.BlockHash != "" {
		h, err := core.ParseFelt(obj.BlockHash)
		if err != nil {
			return state.View{}, err
		}
		return state.ByHash(h), nil
	}
	if obj.BlockNumber != nil {
		return state.ByNumber(*obj.BlockNumber), nil
	}
	return state.View{}, core.ErrInvalidParams
}

// FeltParam decodes a single hex-string RPC param into a Felt-backed value.
type FeltParam string

func (p FeltParam) Address() (core.ContractAddress, error) {
	f, err := core.ParseFelt(string(p))
	if err != nil {
		return core.ContractAddress{}, err
	}
	return core.NewContractAddress(f), nil
}

func (p FeltParam) ClassHash() (core.ClassHash, error) {
	f, err := core.ParseFelt(string(p))
	if err != nil {
		return core.ClassHash{}, err
	}
	return core.ClassHash{Felt: *f}, nil
}

func (p FeltParam) CompiledClassHash() (core.CompiledClassHash, error) {
	f, err := core.ParseFelt(string(p))
	if err != nil {
		return core.CompiledClassHash{}, err
	}
	return core.CompiledClassHash{Felt: *f}, nil
}

func (p FeltParam) StorageKey() (core.StorageKey, error) {
	f, err := core.ParseFelt(string(p))
	if err != nil {
		return core.StorageKey{}, err
	}
	return core.StorageKey{Felt: *f}, nil
}

func (p FeltParam) Felt() (*felt.Felt, error) {
	return core.ParseFelt(string(p))
}
