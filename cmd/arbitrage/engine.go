package main

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/vitos/crypto_arbitrage/internal/config"
	"github.com/vitos/crypto_arbitrage/internal/domain"
	"github.com/vitos/crypto_arbitrage/internal/infrastructure/cache"
	"github.com/vitos/crypto_arbitrage/internal/infrastructure/exchange"
	"github.com/vitos/crypto_arbitrage/internal/infrastructure/storage"
	"github.com/vitos/crypto_arbitrage/internal/usecase"
	"github.com/vitos/crypto_arbitrage/internal/web"
	"go.uber.org/zap"
)

func runEngine(cmd *cobra.Command, args []string) error {
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

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	prices := cache.NewPriceCache(rdb)

	ctx, stop := signalContext()
	defer stop()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to reach redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		return err
	}

	binance := newExchange(cfg)
	var wg sync.WaitGroup
	spawn := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	// Price feeds
	feeds := map[domain.Market]string{
		domain.MarketSpot:     cfg.Binance.SpotWS,
		domain.MarketFutures:  cfg.Binance.FuturesWS,
		domain.MarketDelivery: cfg.Binance.DeliveryWS,
	}
	for market, url := range feeds {
		spawn(exchange.NewTickerStream(market, url, prices, log).Run)
	}

	// Diff rates
	diffRates := usecase.NewDiffRateEngine(store, prices, log)
	spawn(func(ctx context.Context) {
		diffRates.Run(ctx, config.Millis(cfg.Engine.DiffRateIntervalMs))
	})

	// Provisioning
	provisioner := usecase.NewProvisioner(store, log)
	spawn(func(ctx context.Context) {
		provisioner.Run(ctx, config.Millis(cfg.Engine.ProvisionIntervalMs))
	})

	// State machine
	machine := usecase.NewArbitrageMachine(store, store, binance, log)
	dispatcher := usecase.NewDispatcher(
		usecase.DispatcherConfig{
			Name:      "arbitrage",
			Shards:    cfg.Engine.Shards,
			QueueSize: cfg.Engine.QueueSize,
			Interval:  config.Millis(cfg.Engine.DispatchIntervalMs),
		},
		func(ctx context.Context) ([]domain.Strategy, error) {
			return store.ListStrategiesByStatus(ctx, domain.StrategyRunning)
		},
		machine,
		func(st domain.Strategy) int64 { return st.ID },
		log,
	)
	spawn(dispatcher.Run)

	server := web.NewServer(cfg.Server.Port, store, store, store, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	log.Info("Engine running", zap.Int("shards", cfg.Engine.Shards))
	<-ctx.Done()

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	wg.Wait()
	log.Info("Engine stopped", zap.Int64("dropped", dispatcher.Dropped()))
	return nil
}
