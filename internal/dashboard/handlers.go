package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"oanda-dashboard/internal/chart"
	"oanda-dashboard/internal/common"
	"oanda-dashboard/internal/stats"
	"oanda-dashboard/internal/storage"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

var (
	errInvalidEnv      = errors.New(common.ErrMsgInvalidEnv)
	errUnknownAccount  = errors.New("unknown account")
	errInvalidDate     = errors.New("start_from must be YYYY-MM-DD")
	errInvalidGeometry = errors.New("invalid chart geometry")
	errNotSynced       = errors.New("account has not been synced yet")
)

// accountRequest is a resolved {env}/{account} route.
type accountRequest struct {
	Env       string
	Alias     string
	AccountID string
	StartFrom time.Time
}

type errorBody struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

type dataBody struct {
	Status int `json:"status"`
	Data   any `json:"data"`
}

func (s *Server) resolve(r *http.Request) (accountRequest, error) {
	vars := mux.Vars(r)
	req := accountRequest{Env: vars["env"], Alias: vars["account"]}

	if req.Env != common.EnvPractice && req.Env != common.EnvLive {
		return req, fmt.Errorf("%w: %q", errInvalidEnv, req.Env)
	}
	id, ok := s.accounts.AccountID(req.Env, req.Alias)
	if !ok {
		return req, fmt.Errorf("%w: %s/%s", errUnknownAccount, req.Env, req.Alias)
	}
	req.AccountID = id

	req.StartFrom = s.opts.DefaultStartFrom
	if v := r.URL.Query().Get("start_from"); v != "" {
		t, err := time.Parse(common.DefaultDateLayout, v)
		if err != nil {
			return req, fmt.Errorf("%w: %q", errInvalidDate, v)
		}
		req.StartFrom = t
	}
	return req, nil
}

// load reads the account's snapshot and the trades opened since req.StartFrom.
func (s *Server) load(req accountRequest) (storage.AccountSnapshot, []storage.Trade, error) {
	snapshot, err := s.ledger.GetSnapshot(req.AccountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.AccountSnapshot{}, nil, fmt.Errorf("%w: %s/%s", errNotSynced, req.Env, req.Alias)
		}
		return storage.AccountSnapshot{}, nil, err
	}
	trades, err := s.ledger.GetTrades(req.AccountID, req.StartFrom, time.Time{})
	if err != nil {
		return storage.AccountSnapshot{}, nil, err
	}
	return snapshot, trades, nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	req, err := s.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snapshot, err := s.ledger.GetSnapshot(req.AccountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = fmt.Errorf("%w: %s/%s", errNotSynced, req.Env, req.Alias)
		}
		writeError(w, err)
		return
	}
	writeData(w, snapshot)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	req, err := s.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	trades, err := s.ledger.GetTrades(req.AccountID, req.StartFrom, time.Time{})
	if err != nil {
		writeError(w, err)
		return
	}
	if trades == nil {
		trades = []storage.Trade{}
	}
	writeData(w, trades)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	req, err := s.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snapshot, trades, err := s.load(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Envelope{Status: http.StatusOK, Data: stats.Compute(snapshot, trades)})
}

func (s *Server) handlePresentation(w http.ResponseWriter, r *http.Request) {
	req, err := s.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	u, err := s.buildUpdate(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, u)
}

type chartBody struct {
	Dataset chart.Dataset         `json:"dataset"`
	Slices  []chart.SliceGeometry `json:"slices"`
	Labels  []chart.Label         `json:"labels"`
}

// handleChart lays the win/loss pie out for the canvas given by width, height
// and cutout (percent of the radius left empty) and returns the label overlay.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	req, err := s.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	width, err := floatParam(q.Get("width"), 300)
	if err != nil {
		writeError(w, err)
		return
	}
	height, err := floatParam(q.Get("height"), 300)
	if err != nil {
		writeError(w, err)
		return
	}
	cutout, err := floatParam(q.Get("cutout"), 0)
	if err != nil || cutout < 0 || cutout >= 100 {
		writeError(w, fmt.Errorf("%w: cutout must be in [0,100)", errInvalidGeometry))
		return
	}

	trades, err := s.ledger.GetTrades(req.AccountID, req.StartFrom, time.Time{})
	if err != nil {
		writeError(w, err)
		return
	}

	ds := chart.WinLossDataset(stats.Outcomes(trades))
	outer := min(width, height) / 2
	slices := chart.Layout(ds, nil, width/2, height/2, outer*cutout/100, outer)
	labels, err := chart.Labels(ds, slices)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, chartBody{Dataset: ds, Slices: slices, Labels: labels})
}

func floatParam(v string, def float64) (float64, error) {
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 && def > 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidGeometry, v)
	}
	return f, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidEnv), errors.Is(err, errInvalidDate), errors.Is(err, errInvalidGeometry):
		return http.StatusBadRequest
	case errors.Is(err, errUnknownAccount), errors.Is(err, errNotSynced):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Dashboard request failed")
	}
	writeJSON(w, status, errorBody{Status: status, Error: err.Error()})
}

func writeData(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, dataBody{Status: http.StatusOK, Data: v})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
