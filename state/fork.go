package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/NethermindEth/juno/encoder"
	ethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
)

// ForkOverlay is a read-through layer pinned at a fixed upstream block:
// any local miss falls through to a synchronous Starknet JSON-RPC call
// against the fork URL (spec.md §4.1). It implements ForkReader and is
// attached to a Store via Store.SetFork.
//
// The upstream Starknet node speaks the same JSON-RPC 2.0 framing go-ethereum
// clients already use, so this overlay reuses go-ethereum's generic
// rpc.Client rather than hand-rolling another HTTP+JSON round trip.
type ForkOverlay struct {
	client  *ethrpc.Client
	blockID json.RawMessage

	mu    sync.Mutex
	cache map[core.ClassHash][]byte // encoder-serialized *core.CompiledClass
}

// NewForkOverlay dials url and pins every read at blockNumber.
func NewForkOverlay(ctx context.Context, url string, blockNumber uint64) (*ForkOverlay, error) {
	client, err := ethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial fork url: %w", err)
	}
	pinned, _ := json.Marshal(map[string]any{"block_number": blockNumber})
	return &ForkOverlay{
		client:  client,
		blockID: pinned,
		cache:   make(map[core.ClassHash][]byte),
	}, nil
}

// Close releases the underlying JSON-RPC connection.
func (f *ForkOverlay) Close() { f.client.Close() }

// call performs a single request and reports whether the upstream actually
// had a value: a bare JSON `null` result is treated as "not found" rather
// than an error, matching how a forked node answers for state it never saw.
func (f *ForkOverlay) call(ctx context.Context, method string, params ...any) (raw json.RawMessage, found bool, err error) {
	err = f.client.CallContext(ctx, &raw, method, params...)
	if err != nil {
		var httpErr ethrpc.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == 429 {
			return nil, false, core.ErrForkCommunicationError
		}
		return nil, false, fmt.Errorf("fork rpc %s: %w", method, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false, nil
	}
	return raw, true, nil
}

func (f *ForkOverlay) feltResult(ctx context.Context, method string, params ...any) (*felt.Felt, bool, error) {
	raw, found, err := f.call(ctx, method, params...)
	if err != nil || !found {
		return nil, found, err
	}
	var hex string
	if jsonErr := json.Unmarshal(raw, &hex); jsonErr != nil {
		return nil, false, fmt.Errorf("%w: %v", core.ErrDeserializationError, jsonErr)
	}
	v, err := core.ParseFelt(hex)
	return v, true, err
}

func (f *ForkOverlay) ForkNonce(addr core.ContractAddress) (*felt.Felt, bool, error) {
	return f.feltResult(context.Background(), "starknet_getNonce", f.blockID, addr.String())
}

func (f *ForkOverlay) ForkClassHash(addr core.ContractAddress) (*felt.Felt, bool, error) {
	return f.feltResult(context.Background(), "starknet_getClassHashAt", f.blockID, addr.String())
}

func (f *ForkOverlay) ForkStorage(addr core.ContractAddress, key core.StorageKey) (*felt.Felt, bool, error) {
	return f.feltResult(context.Background(), "starknet_getStorageAt", f.blockID, addr.String(), key.String())
}

// ForkCompiledClass fetches a class the way spec.md §4.1 describes:
// "Contract-class reads from the upstream return the full serialized class
// and are cached locally on first access." The cache is encoded with
// juno's encoder package, the same envelope-serialization idiom the
// teacher uses for its own declared-class cache.
func (f *ForkOverlay) ForkCompiledClass(classHash core.ClassHash) (*core.CompiledClass, bool, error) {
	f.mu.Lock()
	if raw, ok := f.cache[classHash]; ok {
		f.mu.Unlock()
		var cc core.CompiledClass
		if err := encoder.Unmarshal(raw, &cc); err != nil {
			return nil, false, core.ErrDeserializationError
		}
		return &cc, true, nil
	}
	f.mu.Unlock()

	raw, found, err := f.call(context.Background(), "starknet_getClass", f.blockID, classHash.String())
	if err != nil || !found {
		return nil, found, err
	}

	// This devnet's ContractClass model assumes a Sierra-shaped response
	// (spec.md §9 open question: Cairo0-only upstreams are underspecified);
	// decoding a legacy-only response is not attempted.
	var cairo1 core.Cairo1Class
	if jsonErr := json.Unmarshal(raw, &cairo1); jsonErr != nil {
		return nil, false, fmt.Errorf("%w: fork class is not Sierra-shaped", core.ErrDeserializationError)
	}
	cc := &core.CompiledClass{
		ClassHash: classHash,
		Class:     &core.ContractClass{Kind: core.ClassKindCairo1, Cairo1: &cairo1},
	}

	encoded, encErr := encoder.Marshal(cc)
	if encErr == nil {
		f.mu.Lock()
		f.cache[classHash] = encoded
		f.mu.Unlock()
	}
	return cc, true, nil
}
