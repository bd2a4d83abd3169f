package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vitos/crypto_arbitrage/internal/domain"
	"go.uber.org/zap"
)

// Server exposes a read-only JSON view of strategies, diff rates and hedging trades.
type Server struct {
	router      *http.ServeMux
	server      *http.Server
	strategies  domain.StrategyRepository
	diffRates   domain.DiffRateRepository
	stableCoins domain.StableCoinRepository
	logger      *zap.Logger
}

func NewServer(
	port int,
	strategies domain.StrategyRepository,
	diffRates domain.DiffRateRepository,
	stableCoins domain.StableCoinRepository,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:      http.NewServeMux(),
		strategies:  strategies,
		diffRates:   diffRates,
		stableCoins: stableCoins,
		logger:      logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Status
	s.router.HandleFunc("GET /status", s.handleStatus)

	// Strategies
	s.router.HandleFunc("GET /api/strategies", s.handleListStrategies)
	s.router.HandleFunc("GET /api/strategies/{id}/steps", s.handleStrategySteps)

	// Diff rates
	s.router.HandleFunc("GET /api/diff-rates", s.handleListSnapshots)
	s.router.HandleFunc("GET /api/diff-rates/{id}/history", s.handleDiffRateHistory)

	// Stable coins
	s.router.HandleFunc("GET /api/stable-coins", s.handleListPositions)
	s.router.HandleFunc("GET /api/stable-coins/{id}/trades", s.handlePositionTrades)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
