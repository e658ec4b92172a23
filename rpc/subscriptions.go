package rpc

import (
	"github.com/NethermindEth/juno/core/felt"

	"github.com/0xSpaceShard/starknet-devnet-go/core"
	"github.com/0xSpaceShard/starknet-devnet-go/jsonrpc"
	"github.com/0xSpaceShard/starknet-devnet-go/pubsub"
)

// subscriptionMethods registers the starknet_subscribe*/unsubscribe surface
// (spec.md §4.7). Each handler only registers the subscription on Bus and
// hands back its id; the WebSocket transport (jsonrpc.ServeWS caller) owns
// pumping the returned notification channel into the socket, since that is
// the one piece of state scoped to a connection rather than to Devnet.
func (d *Devnet) subscriptionMethods() []jsonrpc.Method {
	return []jsonrpc.Method{
		{Name: "starknet_subscribeNewHeads", Handler: d.subscribeNewHeads},
		{Name: "starknet_subscribeTransactionStatus", Params: []jsonrpc.Parameter{{Name: "transaction_hash"}}, Handler: d.subscribeTransactionStatus},
		{Name: "starknet_subscribeEvents", Params: []jsonrpc.Parameter{{Name: "from_address", Optional: true}, {Name: "keys", Optional: true}}, Handler: d.subscribeEvents},
		{Name: "starknet_subscribePendingTransactions", Params: []jsonrpc.Parameter{{Name: "sender_address", Optional: true}}, Handler: d.subscribePendingTransactions},
		{Name: "starknet_unsubscribe", Params: []jsonrpc.Parameter{{Name: "subscription_id"}}, Handler: d.unsubscribe},
	}
}

func (d *Devnet) subscribeNewHeads() (any, *jsonrpc.Error) {
	id, _ := d.Bus.SubscribeNewHeads()
	return id, nil
}

func (d *Devnet) subscribeTransactionStatus(hashParam FeltParam) (any, *jsonrpc.Error) {
	hash, err := hashParam.Felt()
	if err != nil {
		return nil, rpcError(err)
	}
	id, _ := d.Bus.SubscribeTxStatus(hash)
	return id, nil
}

func (d *Devnet) subscribeEvents(fromAddress FeltParam, keys []FeltParam) (any, *jsonrpc.Error) {
	filter := pubsub.EventFilter{}
	if fromAddress != "" {
		addr, err := fromAddress.Address()
		if err != nil {
			return nil, rpcError(err)
		}
		filter.FromAddress = &addr
	}
	if len(keys) > 0 {
		k, err := feltListParam(keys).felts()
		if err != nil {
			return nil, rpcError(err)
		}
		filter.Keys = [][]*felt.Felt{k}
	}
	id, _ := d.Bus.SubscribeEvents(filter)
	return id, nil
}

func (d *Devnet) subscribePendingTransactions(senderAddress FeltParam) (any, *jsonrpc.Error) {
	var sender *core.ContractAddress
	if senderAddress != "" {
		addr, err := senderAddress.Address()
		if err != nil {
			return nil, rpcError(err)
		}
		sender = &addr
	}
	id, _ := d.Bus.SubscribePendingTransactions(sender)
	return id, nil
}

func (d *Devnet) unsubscribe(id uint64) (any, *jsonrpc.Error) {
	if !d.Bus.Unsubscribe(id) {
		return nil, rpcError(core.ErrInvalidSubscriptionID)
	}
	return true, nil
}
