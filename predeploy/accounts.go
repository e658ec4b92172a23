// Package predeploy implements the deterministic startup pipeline in
// spec.md §4.4: fee tokens, the universal deployer, and N seeded accounts.
package predeploy

import (
	"math/big"
	"math/rand"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	starkcurve "github.com/NethermindEth/starknet.go/curve"
	"github.com/seehuhn/mt19937"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
)

// Account is one deterministically derived predeployed account.
type Account struct {
	PrivateKey *big.Int
	PublicKey  *big.Int
	Address    core.ContractAddress
}

// deriveKeys reads N*128 bits from a seeded MT19937-64 stream and folds
// each 128-bit chunk down to a private key scalar, matching the source's
// "seed -> N private keys via MT64 reading N*128 bits" derivation (spec.md
// §4.4 step 3).
func deriveKeys(seed uint32, n int) []*big.Int {
	source := mt19937.New()
	source.Seed(int64(seed))
	rng := rand.New(source)

	keys := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		hi := rng.Uint64()
		lo := rng.Uint64()
		priv := new(big.Int).Lsh(new(big.Int).SetUint64(hi), 64)
		priv.Or(priv, new(big.Int).SetUint64(lo))
		keys[i] = priv
	}
	return keys
}

// DeriveAccounts derives n accounts at accountClassHash using short-string
// and felt hashing idioms, with stark-curve key derivation matching
// starknet-crypto (spec.md §4.4 step 3, scenario B).
func DeriveAccounts(seed uint32, n int, accountClassHash core.ClassHash) ([]Account, error) {
	privateKeys := deriveKeys(seed, n)

	accounts := make([]Account, n)
	for i, priv := range privateKeys {
		acc, err := DeriveFromPrivateKey(priv, accountClassHash)
		if err != nil {
			return nil, err
		}
		accounts[i] = acc
	}
	return accounts, nil
}

// DeriveFromPrivateKey derives the public key and canonical deployment
// address for a single, already-known private key (used both for the N
// seeded accounts and for the fixed chargeable system account).
func DeriveFromPrivateKey(priv *big.Int, classHash core.ClassHash) (Account, error) {
	pubX, _, err := starkcurve.Curve.PrivateToPoint(priv)
	if err != nil {
		return Account{}, err
	}

	pubKeyFelt := new(felt.Felt).SetBigInt(pubX)
	addr := crypto.PedersenArray(
		&classHash.Felt,
		pubKeyFelt,                       // salt = public key
		crypto.PedersenArray(pubKeyFelt), // ctor_calldata = [public_key]
	)

	return Account{
		PrivateKey: priv,
		PublicKey:  pubX,
		Address:    core.NewContractAddress(addr),
	}, nil
}
