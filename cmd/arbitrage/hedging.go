package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/vitos/crypto_arbitrage/internal/config"
	"github.com/vitos/crypto_arbitrage/internal/domain"
	"github.com/vitos/crypto_arbitrage/internal/infrastructure/cache"
	"github.com/vitos/crypto_arbitrage/internal/infrastructure/storage"
	"github.com/vitos/crypto_arbitrage/internal/usecase"
	"go.uber.org/zap"
)

func runHedging(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to init sqlite", zap.Error(err))
		return err
	}
	defer store.Close()

	klines, err := cache.OpenKlineStore(cfg.KlineCache.Path)
	if err != nil {
		log.Error("Failed to open kline cache", zap.String("path", cfg.KlineCache.Path), zap.Error(err))
		return err
	}
	defer klines.Close()

	binance := newExchange(cfg)
	window := usecase.NewKlineWindow(klines, binance, cfg.Hedging.Interval, cfg.Hedging.WindowSize, cfg.Hedging.PageSize)
	engine := usecase.NewHedgingEngine(store, binance, window, log)

	dispatcher := usecase.NewDispatcher(
		usecase.DispatcherConfig{
			Name:      "hedging",
			Shards:    cfg.Hedging.Shards,
			QueueSize: cfg.Hedging.QueueSize,
			Interval:  config.Millis(cfg.Hedging.DispatchIntervalMs),
		},
		func(ctx context.Context) ([]domain.StableCoinPosition, error) {
			return store.ListPositionsByStatus(ctx, domain.PositionRunning)
		},
		engine,
		func(p domain.StableCoinPosition) int64 { return p.ID },
		log,
	)

	ctx, stop := signalContext()
	defer stop()

	log.Info("Hedging running", zap.String("interval", cfg.Hedging.Interval))
	// Run returns once every worker has drained.
	dispatcher.Run(ctx)
	log.Info("Hedging stopped", zap.Int64("dropped", dispatcher.Dropped()))
	return nil
}
