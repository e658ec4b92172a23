package node

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/0xSpaceShard/starknet-devnet-go/blockchain"
	"github.com/0xSpaceShard/starknet-devnet-go/jsonrpc"
	"github.com/0xSpaceShard/starknet-devnet-go/messaging"
	"github.com/0xSpaceShard/starknet-devnet-go/pubsub"
	"github.com/0xSpaceShard/starknet-devnet-go/rpc"
)

// httpService serves the JSON-RPC server over HTTP (POST /, POST /rpc) and
// WebSocket subscriptions (GET /ws), one Service per listener (spec.md §6).
type httpService struct {
	addr string
	srv  *jsonrpc.Server
	log  *zap.Logger

	server *http.Server
}

func newHTTPService(addr string, srv *jsonrpc.Server, bus *pubsub.Bus, log *zap.Logger) *httpService {
	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"POST", "GET"}}))

	handle := func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		resp, err := srv.Handle(body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(resp)
	}
	router.Post("/", handle)
	router.Post("/rpc", handle)
	router.Get("/ws", rpc.AttachWS(srv, bus))

	return &httpService{addr: addr, srv: srv, log: log, server: &http.Server{Addr: addr, Handler: router}}
}

func (s *httpService) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// intervalProducerService seals a new block every Interval, used only when
// the chain runs in ModeInterval (spec.md §4.2).
type intervalProducerService struct {
	chain    *blockchain.Manager
	interval time.Duration
	seal     func() error
	log      *zap.Logger
}

func (s *intervalProducerService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.seal(); err != nil {
				s.log.Error("interval block production failed", zap.Error(err))
			}
		}
	}
}

// messagingPollService periodically flushes pending L1->L2 messages when a
// messaging bridge is configured with a polling interval (spec.md §4.5
// supplement: automatic message consumption alongside the manual
// devnet_postmanFlush RPC).
type messagingPollService struct {
	bridge   *messaging.Bridge
	submit   messaging.Submitter
	interval time.Duration
	log      *zap.Logger
}

func (s *messagingPollService) Run(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.bridge.Flush(ctx, s.submit, false); err != nil {
				s.log.Error("messaging poll failed", zap.Error(err))
			}
		}
	}
}
