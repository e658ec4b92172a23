package rpc

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/0xSpaceShard/starknet-devnet-go/jsonrpc"
	"github.com/0xSpaceShard/starknet-devnet-go/pubsub"
)

// wsBridge wires srv's subscribe hook to bus so that every
// starknet_subscribe* call made over a WebSocket connection starts a
// goroutine pumping that subscription's Notifications back down the same
// socket, and drops them all once the socket closes (spec.md §4.7).
type wsBridge struct {
	bus *pubsub.Bus

	mu   sync.Mutex
	subs map[*jsonrpc.Conn][]uint64
}

// AttachWS registers srv's OnSubscribed/ws handlers against bus and returns
// an http.HandlerFunc ready to mount at a WebSocket route.
func AttachWS(srv *jsonrpc.Server, bus *pubsub.Bus) http.HandlerFunc {
	b := &wsBridge{bus: bus, subs: make(map[*jsonrpc.Conn][]uint64)}
	srv.OnSubscribed = b.onSubscribed

	return func(w http.ResponseWriter, r *http.Request) {
		srv.ServeWS(w, r, b.onConnect, b.onClose)
	}
}

func (b *wsBridge) onConnect(conn *jsonrpc.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[conn] = nil
}

func (b *wsBridge) onClose(conn *jsonrpc.Conn) {
	b.mu.Lock()
	ids := b.subs[conn]
	delete(b.subs, conn)
	b.mu.Unlock()

	b.bus.Drop(ids)
}

func (b *wsBridge) onSubscribed(method string, id uint64, conn *jsonrpc.Conn) {
	ch, ok := b.bus.Channel(id)
	if !ok {
		return
	}

	b.mu.Lock()
	b.subs[conn] = append(b.subs[conn], id)
	b.mu.Unlock()

	go pumpNotifications(ch, conn)
}

func pumpNotifications(ch <-chan pubsub.Notification, conn *jsonrpc.Conn) {
	for n := range ch {
		frame := map[string]any{
			"jsonrpc": "2.0",
			"method":  n.Method,
			"params": map[string]any{
				"subscription_id": n.SubscriptionID,
				"result":          n.Result,
			},
		}
		encoded, err := json.Marshal(frame)
		if err != nil {
			continue
		}
		if err := conn.WriteJSON(encoded); err != nil {
			return
		}
	}
}
