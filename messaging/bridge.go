// Package messaging implements the L1<->L2 messaging bridge state machine
// described in spec.md §4.5, backed by go-ethereum's client and ABI tooling
// to talk to a real (or Anvil-local) L1 node.
package messaging

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
)

// logMessageToL2ABI declares just the event this bridge cares about; a full
// contract binding is unnecessary when only log-filtering and topic
// decoding are needed.
const logMessageToL2ABI = `[{
	"anonymous": false,
	"inputs": [
		{"indexed": true, "name": "fromAddress", "type": "address"},
		{"indexed": true, "name": "toAddress", "type": "uint256"},
		{"indexed": true, "name": "selector", "type": "uint256"},
		{"indexed": false, "name": "payload", "type": "uint256[]"},
		{"indexed": false, "name": "nonce", "type": "uint256"},
		{"indexed": false, "name": "fee", "type": "uint256"}
	],
	"name": "LogMessageToL2",
	"type": "event"
}]`

var messagingABI abi.ABI

func init() {
	var err error
	messagingABI, err = abi.JSON(strings.NewReader(logMessageToL2ABI))
	if err != nil {
		panic(fmt.Sprintf("messaging: invalid embedded ABI: %v", err))
	}
}

// State discriminates the bridge's two-state machine (spec.md §4.5).
type State int

const (
	Unconfigured State = iota
	Configured
)

// PendingL2Message is a decoded LogMessageToL2 event, not yet submitted as
// an L1HandlerTransaction.
type PendingL2Message struct {
	ContractAddress    core.ContractAddress
	EntryPointSelector *felt.Felt
	Calldata           []*felt.Felt // [from, ...payload]
	Nonce              *felt.Felt
	PaidFeeOnL1        *felt.Felt
}

// UnsentL1Message is a message_sent event produced locally by L2 execution,
// awaiting registration on L1.
type UnsentL1Message struct {
	Hash    *felt.Felt
	Message core.L2ToL1Message
}

// Bridge owns the messaging state machine. It never mutates StateStore or
// BlockManager directly: postman_flush hands decoded L1HandlerTransactions
// back to the caller (TxExecutor), matching the "produce a plan under the
// lock, drop the lock, call the RPC" redesign spec.md §9 calls for.
type Bridge struct {
	mu sync.Mutex

	state                    State
	url                      string
	messagingContractAddress common.Address
	blockCursor              uint64

	client *ethclient.Client

	unsent []UnsentL1Message
}

func New() *Bridge {
	return &Bridge{state: Unconfigured}
}

// Configure dials url and pins the bridge to contractAddr, overwriting any
// previous configuration (spec.md §4.5).
func (b *Bridge) Configure(ctx context.Context, url string, contractAddr common.Address, startCursor uint64) error {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrL1CommunicationError, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		b.client.Close()
	}
	b.client = client
	b.url = url
	b.messagingContractAddress = contractAddr
	b.blockCursor = startCursor
	b.state = Configured
	return nil
}

// ContractAddress reports the pinned messaging contract, used for
// postmanLoad's response (spec.md §4.5 supplement).
func (b *Bridge) ContractAddress() (common.Address, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Configured {
		return common.Address{}, core.ErrMessagingNotConfigured
	}
	return b.messagingContractAddress, nil
}

// FetchMessagesToL2 range-scans [block_cursor, L1.latest] for the
// LogMessageToL2 topic, decodes each into a PendingL2Message, and advances
// the cursor past the scanned range (spec.md §4.5).
func (b *Bridge) FetchMessagesToL2(ctx context.Context) ([]PendingL2Message, error) {
	b.mu.Lock()
	if b.state != Configured {
		b.mu.Unlock()
		return nil, core.ErrMessagingNotConfigured
	}
	client, contractAddr, from := b.client, b.messagingContractAddress, b.blockCursor
	b.mu.Unlock()

	latest, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, rateLimitAware(err)
	}
	if latest < from {
		return nil, nil
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(latest),
		Addresses: []common.Address{contractAddr},
		Topics:    [][]common.Hash{{messagingABI.Events["LogMessageToL2"].ID}},
	}
	logs, err := client.FilterLogs(ctx, query)
	if err != nil {
		return nil, rateLimitAware(err)
	}

	messages := make([]PendingL2Message, 0, len(logs))
	for _, l := range logs {
		msg, err := decodeLogMessageToL2(l)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	b.mu.Lock()
	b.blockCursor = latest + 1
	b.mu.Unlock()

	return messages, nil
}

func rateLimitAware(err error) error {
	if strings.Contains(err.Error(), "429") {
		return core.ErrForkCommunicationError
	}
	return fmt.Errorf("%w: %v", core.ErrL1CommunicationError, err)
}

// CollectMessagesToL1 records outbound messages produced by freshly
// executed transactions into the unsent queue (spec.md §4.5
// collect_messages_to_l1).
func (b *Bridge) CollectMessagesToL1(messages []core.L2ToL1Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range messages {
		b.unsent = append(b.unsent, UnsentL1Message{Hash: m.LocalID(), Message: m})
	}
}

// SendMessagesToL1 calls the bridge contract to register each unsent
// message hash and, on success, drops it from the queue.
func (b *Bridge) SendMessagesToL1(ctx context.Context, send func(ctx context.Context, hash *felt.Felt) error) error {
	b.mu.Lock()
	pending := append([]UnsentL1Message(nil), b.unsent...)
	b.mu.Unlock()

	var remaining []UnsentL1Message
	for _, m := range pending {
		if err := send(ctx, m.Hash); err != nil {
			remaining = append(remaining, m)
			continue
		}
	}

	b.mu.Lock()
	b.unsent = remaining
	b.mu.Unlock()
	return nil
}

// ConsumeL2ToL1Message passes msgHash to consume, which performs the L1-side
// consumption, and returns consume's error unchanged. The bridge keeps no
// ref-counts of its own: whether consuming an already-consumed message is
// an error depends on consume, and the unsent queue is not touched.
func (b *Bridge) ConsumeL2ToL1Message(ctx context.Context, msgHash *felt.Felt, consume func(ctx context.Context, hash *felt.Felt) error) error {
	return consume(ctx, msgHash)
}

func decodeLogMessageToL2(l types.Log) (PendingL2Message, error) {
	var decoded struct {
		Payload []*big.Int
		Nonce   *big.Int
		Fee     *big.Int
	}
	if err := messagingABI.UnpackIntoInterface(&decoded, "LogMessageToL2", l.Data); err != nil {
		return PendingL2Message{}, fmt.Errorf("%w: %v", core.ErrDeserializationError, err)
	}

	fromAddr := common.HexToAddress(l.Topics[1].Hex())
	toAddr := new(big.Int).SetBytes(l.Topics[2].Bytes())
	selector := new(big.Int).SetBytes(l.Topics[3].Bytes())

	calldata := make([]*felt.Felt, 0, len(decoded.Payload)+1)
	calldata = append(calldata, new(felt.Felt).SetBytes(fromAddr.Bytes()))
	for _, p := range decoded.Payload {
		calldata = append(calldata, new(felt.Felt).SetBytes(p.Bytes()))
	}

	return PendingL2Message{
		ContractAddress:    core.NewContractAddress(new(felt.Felt).SetBytes(toAddr.Bytes())),
		EntryPointSelector: new(felt.Felt).SetBytes(selector.Bytes()),
		Calldata:           calldata,
		Nonce:              new(felt.Felt).SetBytes(decoded.Nonce.Bytes()),
		PaidFeeOnL1:        new(felt.Felt).SetBytes(decoded.Fee.Bytes()),
	}, nil
}
