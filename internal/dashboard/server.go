// Package dashboard serves the account performance page, its JSON API and a
// WebSocket feed that pushes fresh presentations to open pages.
//
// All figures are computed from the local ledger, which the storage.Syncer
// keeps up to date with the broker. The server never calls the broker itself.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"oanda-dashboard/internal/presenter"
	"oanda-dashboard/internal/storage"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Ledger is the read side of storage.Store.
type Ledger interface {
	GetSnapshot(account string) (storage.AccountSnapshot, error)
	GetTrades(account string, start, end time.Time) ([]storage.Trade, error)
}

// AccountResolver maps an env and account alias to a broker account ID.
// cfg.Settings implements it.
type AccountResolver interface {
	AccountID(env, alias string) (string, bool)
	Aliases(env string) []string
}

// PushMetrics defines the metrics methods needed by the server
type PushMetrics interface {
	WSClientsAdd(delta float64)
	RenderAppliedInc()
	MalformedRecordInc()
}

// Options configures a Server.
type Options struct {
	Port             int
	Currency         string
	DefaultStartFrom time.Time     // used when a request has no start_from
	PushInterval     time.Duration // WebSocket push period
}

// Server is the dashboard HTTP server.
type Server struct {
	ledger    Ledger
	accounts  AccountResolver
	presenter *presenter.Presenter
	metrics   PushMetrics
	opts      Options

	router    *mux.Router
	server    *http.Server
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]subscription
	clientsMu sync.RWMutex
	updates   chan update
	isRunning bool
	mu        sync.Mutex
}

func NewServer(ledger Ledger, accounts AccountResolver, opts Options) *Server {
	if opts.PushInterval <= 0 {
		opts.PushInterval = 5 * time.Second
	}

	s := &Server{
		ledger:    ledger,
		accounts:  accounts,
		presenter: presenter.New(opts.Currency),
		opts:      opts,
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:   make(map[*websocket.Conn]subscription),
		updates:   make(chan update, 100),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/perf/{env}/{account}", s.handlePage).Methods(http.MethodGet)
	api := r.PathPrefix("/api/v1/{env}/account/{account}").Subrouter()
	api.HandleFunc("", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/orders", s.handleOrders).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/presentation", s.handlePresentation).Methods(http.MethodGet)
	api.HandleFunc("/chart", s.handleChart).Methods(http.MethodGet)
	r.HandleFunc("/ws/{env}/{account}", s.handleWebSocket).Methods(http.MethodGet)
	s.router = r

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// SetMetrics sets the metrics interface for reporting
func (s *Server) SetMetrics(m PushMetrics) {
	s.metrics = m
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then closes every WebSocket client and
// shuts the HTTP server down.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("dashboard server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	go s.presentationCollector(ctx)
	go s.clientBroadcaster(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", s.server.Addr).
			Msg("Starting dashboard server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.closeClients()
			return fmt.Errorf("dashboard server failed: %w", err)
		}
	case <-ctx.Done():
	}
	return s.shutdown()
}

func (s *Server) shutdown() error {
	s.closeClients()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown dashboard server")
		return err
	}

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
	log.Info().Msg("Dashboard server stopped")
	return nil
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn := range s.clients {
		conn.Close()
		s.addClients(-1)
	}
	s.clients = make(map[*websocket.Conn]subscription)
}

func (s *Server) addClients(delta float64) {
	if s.metrics != nil {
		s.metrics.WSClientsAdd(delta)
	}
}
