package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vitos/crypto_arbitrage/internal/config"
	"github.com/vitos/crypto_arbitrage/internal/infrastructure/exchange"
	"github.com/vitos/crypto_arbitrage/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "arbitrage",
		Short: "Cross-market crypto arbitrage engine",
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config/config.yaml", "config file")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "engine",
			Short: "Run price feeds, diff rates and the strategy state machine",
			RunE:  runEngine,
		},
		&cobra.Command{
			Use:   "hedging",
			Short: "Run the stable coin band hedging worker",
			RunE:  runHedging,
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Logging.File != "" {
		log := logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level, logger.FileOptions{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		})
		return cfg, log, nil
	}
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, log, nil
}

func newExchange(cfg *config.Config) *exchange.BinanceClient {
	return exchange.NewBinanceClient(exchange.BinanceConfig{
		APIKey:       cfg.Binance.APIKey,
		APISecret:    cfg.Binance.APISecret,
		SpotURL:      cfg.Binance.SpotREST,
		FuturesURL:   cfg.Binance.FuturesREST,
		DeliveryURL:  cfg.Binance.DeliveryREST,
		RecvWindowMs: cfg.Binance.RecvWindowMs,
	})
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
