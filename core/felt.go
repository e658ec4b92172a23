// Package core defines the Felt-based domain types shared by every layer of
// the devnet: addresses, classes, transactions, receipts, blocks and state
// diffs. It deliberately owns no mutable state; StateStore and BlockManager
// are the only components that hold it.
package core

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
)

// patriciaKeyBits is the width of the patricia-key range: a valid
// ContractAddress or StorageKey must be strictly smaller than 2^251.
const patriciaKeyBits = 251

var patriciaKeyBound = new(big.Int).Lsh(big.NewInt(1), patriciaKeyBits)

// ErrOutOfRange is returned when a Felt meant to be used as a patricia key
// (address or storage key) is not smaller than 2^251.
var ErrOutOfRange = fmt.Errorf("felt value out of patricia-key range")

// ParseFelt parses a lowercase-or-uppercase 0x-prefixed hex string into a
// Felt. It never trusts felt.Felt's own string parsing so the accepted
// input format stays exactly what the JSON-RPC surface promises.
func ParseFelt(s string) (*felt.Felt, error) {
	s = strings.TrimSpace(s)
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if trimmed == "" {
		trimmed = "0"
	}
	bi, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("invalid felt hex string %q", s)
	}
	return new(felt.Felt).SetBigInt(bi), nil
}

// MustParseFelt panics on malformed input; reserved for compile-time
// constants (fixed predeploy addresses) where failure is a programmer error.
func MustParseFelt(s string) *felt.Felt {
	f, err := ParseFelt(s)
	if err != nil {
		panic(err)
	}
	return f
}

// FeltToHex renders a Felt the way every devnet RPC response does: lowercase,
// 0x-prefixed, no leading zeros (except the value zero itself).
func FeltToHex(f *felt.Felt) string {
	if f == nil {
		f = &felt.Zero
	}
	bi := new(big.Int)
	f.BigInt(bi)
	return "0x" + bi.Text(16)
}

// InPatriciaRange reports whether f is a legal ContractAddress or StorageKey,
// i.e. strictly less than 2^251.
func InPatriciaRange(f *felt.Felt) bool {
	bi := new(big.Int)
	f.BigInt(bi)
	return bi.Cmp(patriciaKeyBound) < 0
}

// ShortString hashes a short ASCII string into a Felt the way Starknet
// transaction-kind prefixes ("invoke", "declare", ...) and chain ids do.
func ShortString(s string) *felt.Felt {
	return new(felt.Felt).SetBytes([]byte(s))
}
