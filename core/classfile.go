package core

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadClassFile reads a contract_class JSON artifact from disk and decodes
// it, detecting Cairo0 vs Cairo1 by the presence of "sierra_program"
// (spec.md §6 account_class ∈ {Cairo0, Cairo1, CustomPath}).
func LoadClassFile(path string) (*ContractClass, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class file %q: %w: %v", path, ErrFileNotFound, err)
	}

	var probe struct {
		SierraProgram json.RawMessage `json:"sierra_program"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormatError, err)
	}
	if probe.SierraProgram != nil {
		return DecodeSierraClass(raw)
	}

	var c0 Cairo0Class
	if err := json.Unmarshal(raw, &c0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormatError, err)
	}
	return &ContractClass{Kind: ClassKindCairo0, Cairo0: &c0}, nil
}

// StubClass synthesizes a minimal Cairo0 class for a fixed predeploy target
// (fee tokens, UDC) when no real compiled artifact is supplied. mockvm
// never interprets the program, so tag distinguishes one stub's hash from
// another's without needing real bytecode (spec.md §1: the Cairo VM is out
// of scope, only its effects matter).
func StubClass(tag string) *ContractClass {
	return &ContractClass{
		Kind: ClassKindCairo0,
		Cairo0: &Cairo0Class{
			Program:           json.RawMessage(fmt.Sprintf(`{"tag":%q}`, tag)),
			EntryPointsByType: map[string][]EntryPoint{},
		},
	}
}
