package predeploy

import (
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/state"
)

// Fixed on-chain addresses, invariant across restarts (spec.md §6).
var (
	ETHFeeTokenAddress = mustAddr("0x49D36570D4E46F48E99674BD3FCC84644DDD6B96F7C741B1562B82F9E004DC7")
	STRKFeeTokenAddress = mustAddr("0x04718f5a0fc34cc1af16a1cdee98ffb20c31f5cd61d6ab07201858f4287c938d")
	UDCAddress          = mustAddr("0x41A78E741E5AF2FEC34B695679BC6891742439F7AFB8484ECD7766661AD02BF")
)

func mustAddr(hex string) core.ContractAddress {
	f := core.MustParseFelt(hex)
	return core.NewContractAddress(f)
}

// Config bundles everything the predeploy pipeline needs from startup
// configuration (spec.md §6, §9 "hoist global mutable state into Config").
type Config struct {
	Seed                   uint32
	TotalAccounts          int
	InitialBalance         *felt.Felt
	AccountClass           *core.ContractClass
	ETHFeeTokenClass       *core.ContractClass
	STRKFeeTokenClass      *core.ContractClass
	UDCClass               *core.ContractClass
	// ChargeableAccountClass backs the optional chargeable system account,
	// declared, deployed and funded at startup when set.
	ChargeableAccountClass *core.ContractClass
	ChargeableAccountKey   string // hex private key, fixed across restarts
}

// Result is everything downstream components need after Run.
type Result struct {
	Accounts          []Account
	ChargeableAccount  core.ContractAddress
	AccountClassHash   core.ClassHash
}

// BalanceSlot mirrors the ERC-20 storage layout: a 2-word (low, high)
// uint256 balance keyed by a Pedersen hash of ("ERC20_balances", holder).
// Exported so devnet_mint/devnet_getAccountBalance address the same cell
// the predeploy pipeline funded.
func BalanceSlot(holder core.ContractAddress) core.StorageKey {
	key := crypto.PedersenArray(core.ShortString("ERC20_balances"), &holder.Felt)
	return core.StorageKey{Felt: *key}
}

// Run executes the four-step predeploy pipeline against store without
// charging fees or incrementing nonces (spec.md §4.4).
func Run(store *state.Store, cfg Config) (*Result, error) {
	_, _, err := declareAndDeploy(store, cfg.ETHFeeTokenClass, ETHFeeTokenAddress)
	if err != nil {
		return nil, fmt.Errorf("predeploy ETH fee token: %w", err)
	}

	_, _, err = declareAndDeploy(store, cfg.STRKFeeTokenClass, STRKFeeTokenAddress)
	if err != nil {
		return nil, fmt.Errorf("predeploy STRK fee token: %w", err)
	}

	_, _, err = declareAndDeploy(store, cfg.UDCClass, UDCAddress)
	if err != nil {
		return nil, fmt.Errorf("predeploy UDC: %w", err)
	}

	accountClassHash, _, err := declareOnly(store, cfg.AccountClass)
	if err != nil {
		return nil, fmt.Errorf("declare account class: %w", err)
	}

	accounts, err := DeriveAccounts(cfg.Seed, cfg.TotalAccounts, accountClassHash)
	if err != nil {
		return nil, fmt.Errorf("derive accounts: %w", err)
	}
	for _, acc := range accounts {
		if err := store.Deploy(acc.Address, accountClassHash); err != nil {
			return nil, fmt.Errorf("deploy account %s: %w", acc.Address, err)
		}
		if err := fund(store, acc.Address, cfg.InitialBalance); err != nil {
			return nil, err
		}
	}

	var chargeable core.ContractAddress
	if cfg.ChargeableAccountClass != nil {
		chargeableClassHash, _, err := declareOnly(store, cfg.ChargeableAccountClass)
		if err != nil {
			return nil, fmt.Errorf("declare chargeable account class: %w", err)
		}
		privKey, ok := new(big.Int).SetString(cfg.ChargeableAccountKey, 0)
		if !ok {
			return nil, fmt.Errorf("invalid chargeable account key %q", cfg.ChargeableAccountKey)
		}
		derived, err := DeriveFromPrivateKey(privKey, chargeableClassHash)
		if err != nil {
			return nil, err
		}
		chargeable = derived.Address
		if err := store.Deploy(chargeable, chargeableClassHash); err != nil {
			return nil, fmt.Errorf("deploy chargeable account: %w", err)
		}
		// The chargeable account funds itself with an arbitrarily large
		// balance so it can always cover mint transfers.
		if err := fund(store, chargeable, core.MustParseFelt("0xfffffffffffffffffffffffffffffff")); err != nil {
			return nil, err
		}
	}

	return &Result{Accounts: accounts, ChargeableAccount: chargeable, AccountClassHash: accountClassHash}, nil
}

func declareAndDeploy(store *state.Store, class *core.ContractClass, addr core.ContractAddress) (core.ClassHash, core.CompiledClassHash, error) {
	classHash, compiledHash, err := declareOnly(store, class)
	if err != nil {
		return core.ClassHash{}, core.CompiledClassHash{}, err
	}
	if err := store.Deploy(addr, classHash); err != nil {
		return core.ClassHash{}, core.CompiledClassHash{}, err
	}
	return classHash, compiledHash, nil
}

func declareOnly(store *state.Store, class *core.ContractClass) (core.ClassHash, core.CompiledClassHash, error) {
	hash, err := class.Hash()
	if err != nil {
		return core.ClassHash{}, core.CompiledClassHash{}, err
	}
	classHash := core.ClassHash{Felt: *hash}
	var compiledHash core.CompiledClassHash
	if class.Kind == core.ClassKindCairo1 {
		compiledHash = class.Cairo1.CompiledClassHash
	}
	if err := store.DeclareClass(classHash, compiledHash, class); err != nil {
		return core.ClassHash{}, core.CompiledClassHash{}, err
	}
	return classHash, compiledHash, nil
}

// fund writes initial_balance directly into both the low and high limbs of
// the ERC-20 balance slot, matching how a real fee-token contract lays out
// a Uint256 balance. No transaction is logged (spec.md §4.4 step 4).
func fund(store *state.Store, addr core.ContractAddress, amount *felt.Felt) error {
	slot := BalanceSlot(addr)
	if err := store.SetStorage(addr, slot, amount); err != nil {
		return err
	}
	highSlot := core.StorageKey{Felt: *crypto.PedersenArray(&slot.Felt, core.ShortString("high"))}
	return store.SetStorage(addr, highSlot, &felt.Zero)
}
