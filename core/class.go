package core

import (
	"encoding/json"
	"fmt"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
)

// ClassKind discriminates the ContractClass tagged union (spec.md §3).
type ClassKind int

const (
	ClassKindCairo0 ClassKind = iota
	ClassKindCairo1
)

// Cairo0Class is the legacy (pre-Sierra) contract representation: a
// canonical JSON program blob plus its entry points.
type Cairo0Class struct {
	Program         json.RawMessage            `json:"program"`
	EntryPointsByType map[string][]EntryPoint `json:"entry_points_by_type"`
	ABI             json.RawMessage            `json:"abi,omitempty"`
}

// Cairo1Class is the Sierra representation declared by v2/v3 Declare
// transactions.
type Cairo1Class struct {
	SierraProgram     []*felt.Felt               `json:"sierra_program"`
	ContractClassVersion string                  `json:"contract_class_version"`
	EntryPointsByType map[string][]SierraEntryPoint `json:"entry_points_by_type"`
	ABI               string                     `json:"abi,omitempty"`
	CompiledClassHash CompiledClassHash          `json:"-"`
}

// EntryPoint is a Cairo0 entry point: {selector, offset}.
type EntryPoint struct {
	Selector *felt.Felt `json:"selector"`
	Offset   *felt.Felt `json:"offset"`
}

// SierraEntryPoint is a Cairo1 entry point: {selector, function_idx}.
type SierraEntryPoint struct {
	Selector    *felt.Felt `json:"selector"`
	FunctionIdx uint64     `json:"function_idx"`
}

// ContractClass is the tagged union {Cairo0, Cairo1} declared by a Declare
// transaction or deployed as part of genesis predeploy.
type ContractClass struct {
	Kind   ClassKind
	Cairo0 *Cairo0Class
	Cairo1 *Cairo1Class
}

// Hash computes the class's declaration hash: Pedersen-based for Cairo0
// (legacy "hinted hash" of the program, approximated here over the
// canonical program bytes since the hinting rules live in the Cairo
// compiler, out of scope per spec.md §1), Poseidon-based for Cairo1 over
// the Sierra body (spec.md §3).
func (c *ContractClass) Hash() (*felt.Felt, error) {
	switch c.Kind {
	case ClassKindCairo0:
		if c.Cairo0 == nil {
			return nil, fmt.Errorf("nil cairo0 class")
		}
		return crypto.PedersenArray(ShortString("CONTRACT_CLASS_V0"), new(felt.Felt).SetBytes(c.Cairo0.Program)), nil
	case ClassKindCairo1:
		if c.Cairo1 == nil {
			return nil, fmt.Errorf("nil cairo1 class")
		}
		return crypto.PoseidonArray(append([]*felt.Felt{ShortString("CONTRACT_CLASS_V" + c.Cairo1.ContractClassVersion)}, c.Cairo1.SierraProgram...)...), nil
	default:
		return nil, fmt.Errorf("unknown class kind %d", c.Kind)
	}
}

// wireSierraClass mirrors the JSON-RPC contract_class shape for a v3
// Declare transaction's Sierra body.
type wireSierraClass struct {
	SierraProgram        []string                       `json:"sierra_program"`
	ContractClassVersion string                         `json:"contract_class_version"`
	EntryPointsByType    map[string][]SierraEntryPoint  `json:"entry_points_by_type"`
	ABI                  string                         `json:"abi"`
}

// DecodeSierraClass parses the wire contract_class object a
// starknet_addDeclareTransaction v3 call carries into a Cairo1 ContractClass.
func DecodeSierraClass(raw json.RawMessage) (*ContractClass, error) {
	var w wireSierraClass
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode contract_class: %w", err)
	}
	program := make([]*felt.Felt, len(w.SierraProgram))
	for i, hex := range w.SierraProgram {
		f, err := ParseFelt(hex)
		if err != nil {
			return nil, err
		}
		program[i] = f
	}
	return &ContractClass{
		Kind: ClassKindCairo1,
		Cairo1: &Cairo1Class{
			SierraProgram:        program,
			ContractClassVersion: w.ContractClassVersion,
			EntryPointsByType:    w.EntryPointsByType,
			ABI:                  w.ABI,
		},
	}, nil
}

// CompiledClass is the Casm artifact produced for a Cairo1 class, or a
// thin wrapper around the program for Cairo0 (which has no separate Casm
// form). StateStore.GetCompiledClass returns this type.
type CompiledClass struct {
	ClassHash         ClassHash
	CompiledClassHash CompiledClassHash
	Class             *ContractClass
}
