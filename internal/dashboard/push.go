package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"oanda-dashboard/internal/presenter"
	"oanda-dashboard/internal/stats"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Update is one push to a performance page.
type Update struct {
	Env          string                 `json:"env"`
	Account      string                 `json:"account"`
	Timestamp    time.Time              `json:"timestamp"`
	Presentation presenter.Presentation `json:"presentation"`
	WinLoss      stats.WinLoss          `json:"winLoss"`
}

// subscription is what a WebSocket client is watching.
type subscription accountRequest

type update struct {
	sub  subscription
	data []byte
}

func (s *Server) buildUpdate(req accountRequest) (Update, error) {
	snapshot, trades, err := s.load(req)
	if err != nil {
		return Update{}, err
	}
	p, err := s.presenter.Present(stats.Compute(snapshot, trades))
	if err != nil {
		if s.metrics != nil && errors.Is(err, stats.ErrMalformedRecord) {
			s.metrics.MalformedRecordInc()
		}
		return Update{}, err
	}
	if s.metrics != nil {
		s.metrics.RenderAppliedInc()
	}
	return Update{
		Env:          req.Env,
		Account:      req.Alias,
		Timestamp:    time.Now().UTC(),
		Presentation: p,
		WinLoss:      stats.Outcomes(trades),
	}, nil
}

// presentationCollector builds one update per watched account every push
// interval and hands it to the broadcaster.
func (s *Server) presentationCollector(ctx context.Context) {
	ticker := time.NewTicker(s.opts.PushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, sub := range s.subscriptions() {
				u, err := s.buildUpdate(accountRequest(sub))
				if err != nil {
					log.Warn().Err(err).Str("env", sub.Env).Str("account", sub.Alias).Msg("Skipping push")
					continue
				}
				data, err := json.Marshal(u)
				if err != nil {
					log.Error().Err(err).Msg("Failed to marshal update for broadcast")
					continue
				}
				select {
				case s.updates <- update{sub: sub, data: data}:
				default:
					// Channel full, skip this update
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// clientBroadcaster sends updates to the clients watching them
func (s *Server) clientBroadcaster(ctx context.Context) {
	for {
		select {
		case u := <-s.updates:
			s.broadcast(u)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) subscriptions() []subscription {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	seen := make(map[subscription]bool)
	subs := make([]subscription, 0, len(s.clients))
	for _, sub := range s.clients {
		if !seen[sub] {
			seen[sub] = true
			subs = append(subs, sub)
		}
	}
	return subs
}

func (s *Server) broadcast(u update) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for conn, sub := range s.clients {
		if sub != u.sub {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, u.data); err != nil {
			log.Debug().Err(err).Msg("Dropping WebSocket client")
			conn.Close()
			delete(s.clients, conn)
			s.addClients(-1)
		}
	}
}

// handleWebSocket sends the current update on connect and then keeps the
// client subscribed until it disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	req, err := s.resolve(r)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	// the first message is written before registering so the broadcaster
	// never writes to this connection concurrently
	if u, err := s.buildUpdate(req); err == nil {
		if data, err := json.Marshal(u); err == nil {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	} else {
		log.Warn().Err(err).Str("env", req.Env).Str("account", req.Alias).Msg("No initial update for WebSocket client")
	}

	s.clientsMu.Lock()
	s.clients[conn] = subscription(req)
	s.addClients(1)
	s.clientsMu.Unlock()

	// Keep connection alive
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.clientsMu.Lock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		s.addClients(-1)
	}
	s.clientsMu.Unlock()
}
