package jsonrpc

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// wsAllowedPrefixes is the transport-level restriction spec.md §6 places on
// the WebSocket endpoint: only subscription RPC is served there, every
// other method (even if registered) returns MethodNotFound.
var wsAllowedPrefixes = []string{"starknet_subscribe", "starknet_unsubscribe"}

func wsAllowed(method string) bool {
	for _, p := range wsAllowedPrefixes {
		if strings.HasPrefix(method, p) {
			return true
		}
	}
	return false
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Conn wraps one upgraded WebSocket connection and serializes writes to it.
// It holds no subscription state; the onConnect/onClose callbacks passed to
// ServeWS let the caller (rpc.wsBridge) track and drop the connection's
// subscriptions.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// ServeWS upgrades r and serves RPC-framed requests over it until the
// client disconnects. onConnect is called with the live Conn once the
// upgrade succeeds so the caller can start forwarding subscription
// notifications; onClose is called with it when the read loop ends.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request, onConnect func(*Conn), onClose func(*Conn)) error {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Conn{ws: wsConn}
	defer wsConn.Close()

	if onConnect != nil {
		onConnect(c)
	}
	if onClose != nil {
		defer onClose(c)
	}

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			return nil
		}

		method, err := peekMethod(data)
		if err == nil && !wsAllowed(method) {
			c.WriteJSON([]byte(`{"jsonrpc":"2.0","error":{"code":-32601,"message":"Method Not Found"}}`))
			continue
		}

		resp, err := s.Handle(data)
		if err != nil || resp == nil {
			continue
		}
		if s.OnSubscribed != nil && err == nil && strings.HasPrefix(method, "starknet_subscribe") {
			var decoded struct {
				Result uint64 `json:"result"`
				Error  *Error `json:"error"`
			}
			if jsonErr := json.Unmarshal(resp, &decoded); jsonErr == nil && decoded.Error == nil {
				s.OnSubscribed(method, decoded.Result, c)
			}
		}
		c.WriteJSON(resp)
	}
}

// WriteJSON sends a pre-encoded JSON message (a response or a subscription
// notification) to the client, serialized against concurrent writers.
func (c *Conn) WriteJSON(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func peekMethod(data []byte) (string, error) {
	var probe struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", err
	}
	return probe.Method, nil
}
