package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vitos/crypto_arbitrage/internal/domain"
	"go.uber.org/zap"
)

const defaultListLimit = 100

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	http.Error(w, msg, http.StatusInternalServerError)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 1000 {
		return defaultListLimit
	}
	return limit
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	status := domain.StrategyStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.StrategyRunning
	}
	strategies, err := s.strategies.ListStrategiesByStatus(r.Context(), status)
	if err != nil {
		s.fail(w, "Failed to list strategies", err)
		return
	}
	if strategies == nil {
		strategies = []domain.Strategy{}
	}
	s.writeJSON(w, strategies)
}

type stepsResponse struct {
	Steps   []domain.StrategyStep        `json:"steps"`
	Records []domain.StepExecutionRecord `json:"records"`
}

func (s *Server) handleStrategySteps(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	steps, err := s.strategies.ListSteps(r.Context(), id)
	if err != nil {
		s.fail(w, "Failed to list steps", err)
		return
	}
	records, err := s.strategies.ListRecords(r.Context(), id)
	if err != nil {
		s.fail(w, "Failed to list records", err)
		return
	}
	resp := stepsResponse{Steps: steps, Records: records}
	if resp.Steps == nil {
		resp.Steps = []domain.StrategyStep{}
	}
	if resp.Records == nil {
		resp.Records = []domain.StepExecutionRecord{}
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.diffRates.ListSnapshots(r.Context())
	if err != nil {
		s.fail(w, "Failed to list diff rates", err)
		return
	}
	if snaps == nil {
		snaps = []domain.DiffRateSnapshot{}
	}
	s.writeJSON(w, snaps)
}

func (s *Server) handleDiffRateHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	history, err := s.diffRates.ListHistory(r.Context(), id, queryLimit(r))
	if err != nil {
		s.fail(w, "Failed to list diff rate history", err)
		return
	}
	if history == nil {
		history = []domain.DiffRateHistory{}
	}
	s.writeJSON(w, history)
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	status := domain.PositionStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.PositionRunning
	}
	positions, err := s.stableCoins.ListPositionsByStatus(r.Context(), status)
	if err != nil {
		s.fail(w, "Failed to list stable coin positions", err)
		return
	}
	if positions == nil {
		positions = []domain.StableCoinPosition{}
	}
	s.writeJSON(w, positions)
}

func (s *Server) handlePositionTrades(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	trades, err := s.stableCoins.ListRecentTrades(r.Context(), id, queryLimit(r))
	if err != nil {
		s.fail(w, "Failed to list trades", err)
		return
	}
	if trades == nil {
		trades = []domain.StableCoinTrade{}
	}
	s.writeJSON(w, trades)
}
