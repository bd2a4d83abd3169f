package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Binance struct {
		APIKey       string `yaml:"api_key"`
		APISecret    string `yaml:"api_secret"`
		SpotREST     string `yaml:"spot_rest"`
		FuturesREST  string `yaml:"futures_rest"`
		DeliveryREST string `yaml:"delivery_rest"`
		SpotWS       string `yaml:"spot_ws"`
		FuturesWS    string `yaml:"futures_ws"`
		DeliveryWS   string `yaml:"delivery_ws"`
		RecvWindowMs int    `yaml:"recv_window_ms"`
	} `yaml:"binance"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	KlineCache struct {
		Path string `yaml:"path"`
	} `yaml:"kline_cache"`
	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Engine struct {
		Shards              int `yaml:"shards"`
		QueueSize           int `yaml:"queue_size"`
		DispatchIntervalMs  int `yaml:"dispatch_interval_ms"`
		ProvisionIntervalMs int `yaml:"provision_interval_ms"`
		DiffRateIntervalMs  int `yaml:"diff_rate_interval_ms"`
	} `yaml:"engine"`
	Hedging struct {
		Shards             int    `yaml:"shards"`
		QueueSize          int    `yaml:"queue_size"`
		DispatchIntervalMs int    `yaml:"dispatch_interval_ms"`
		Interval           string `yaml:"interval"`
		WindowSize         int    `yaml:"window_size"`
		PageSize           int    `yaml:"page_size"`
	} `yaml:"hedging"`
}

// Load reads the YAML file at path, then applies .env and environment overrides.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	// A missing .env is fine.
	_ = godotenv.Load()
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.Binance.APIKey = v
	}
	if v := os.Getenv("BINANCE_SECRET_KEY"); v != "" {
		cfg.Binance.APISecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Binance.SpotREST == "" {
		c.Binance.SpotREST = "https://api.binance.com"
	}
	if c.Binance.FuturesREST == "" {
		c.Binance.FuturesREST = "https://fapi.binance.com"
	}
	if c.Binance.DeliveryREST == "" {
		c.Binance.DeliveryREST = "https://dapi.binance.com"
	}
	if c.Binance.SpotWS == "" {
		c.Binance.SpotWS = "wss://stream.binance.com:9443/ws/!miniTicker@arr"
	}
	if c.Binance.FuturesWS == "" {
		c.Binance.FuturesWS = "wss://fstream.binance.com/ws/!miniTicker@arr"
	}
	if c.Binance.DeliveryWS == "" {
		c.Binance.DeliveryWS = "wss://dstream.binance.com/ws/!miniTicker@arr"
	}
	if c.Binance.RecvWindowMs == 0 {
		c.Binance.RecvWindowMs = 5000
	}
	if c.Database.Path == "" {
		c.Database.Path = "arbitrage.db"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.KlineCache.Path == "" {
		c.KlineCache.Path = "data/klines"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Engine.Shards == 0 {
		c.Engine.Shards = 10
	}
	if c.Engine.QueueSize == 0 {
		c.Engine.QueueSize = 64
	}
	if c.Engine.DispatchIntervalMs == 0 {
		c.Engine.DispatchIntervalMs = 200
	}
	if c.Engine.ProvisionIntervalMs == 0 {
		c.Engine.ProvisionIntervalMs = 2000
	}
	if c.Engine.DiffRateIntervalMs == 0 {
		c.Engine.DiffRateIntervalMs = 1000
	}
	if c.Hedging.Shards == 0 {
		c.Hedging.Shards = 10
	}
	if c.Hedging.QueueSize == 0 {
		c.Hedging.QueueSize = 64
	}
	if c.Hedging.DispatchIntervalMs == 0 {
		c.Hedging.DispatchIntervalMs = 200
	}
	if c.Hedging.Interval == "" {
		c.Hedging.Interval = "15m"
	}
	if c.Hedging.WindowSize == 0 {
		c.Hedging.WindowSize = 1000
	}
	if c.Hedging.PageSize == 0 {
		c.Hedging.PageSize = 5
	}
}

func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
