package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// UniverseConfig holds the coarse filter gate thresholds. Every numeric
// threshold here is tunable; only the gate ordering is fixed.
type UniverseConfig struct {
	MinPrice        float64 `yaml:"min_price" default:"1.0" validate:"gt=0"`
	MaxPrice        float64 `yaml:"max_price" default:"100.0" validate:"gtfield=MinPrice"`
	MinVolume       int64   `yaml:"min_volume" default:"500000" validate:"gt=0"`
	MinVolumeRatio  float64 `yaml:"min_volume_ratio" default:"1.5" validate:"gte=0"`
	MaxVolumeRatio  float64 `yaml:"max_volume_ratio" default:"25.0" validate:"gtfield=MinVolumeRatio"`
	MaxSymbolLength int     `yaml:"max_symbol_length" default:"5" validate:"gt=0"`

	// Daily-change band: in motion but not already exhausted.
	ChangeGateEnabled bool    `yaml:"change_gate_enabled" default:"true"`
	MinAbsPctChange   float64 `yaml:"min_abs_pct_change" default:"2.0" validate:"gte=0"`
	MaxAbsPctChange   float64 `yaml:"max_abs_pct_change" default:"75.0" validate:"gtfield=MinAbsPctChange"`
}

// WeightsConfig holds the full composite sub-score weights. They need not
// sum to any particular value; the engine renormalizes over present
// components per candidate.
type WeightsConfig struct {
	VolumeMomentum float64 `yaml:"volume_momentum" default:"30" validate:"gte=0"`
	Squeeze        float64 `yaml:"squeeze" default:"25" validate:"gte=0"`
	Catalyst       float64 `yaml:"catalyst" default:"20" validate:"gte=0"`
	Sentiment      float64 `yaml:"sentiment" default:"10" validate:"gte=0"`
	Options        float64 `yaml:"options" default:"8" validate:"gte=0"`
	Technical      float64 `yaml:"technical" default:"7" validate:"gte=0"`
}

// TierConfig holds the ordered action-tag thresholds.
type TierConfig struct {
	TradeReady float64 `yaml:"trade_ready" default:"75" validate:"gt=0"`
	Watchlist  float64 `yaml:"watchlist" default:"60" validate:"ltfield=TradeReady"`
	Monitor    float64 `yaml:"monitor" default:"45" validate:"ltfield=Watchlist"`
}

// ExplosiveConfig holds hard guards and elastic fallback settings for the
// explosive shortlist selector.
type ExplosiveConfig struct {
	MaxSpreadBps   float64 `yaml:"max_spread_bps" default:"60" validate:"gt=0"`
	MinPrice       float64 `yaml:"min_price" default:"1.5" validate:"gt=0"`
	MinValueTraded float64 `yaml:"min_value_traded_usd" default:"1000000" validate:"gt=0"`

	// Liquidity-tier bonus threshold for EGS.
	LargeValueTraded float64 `yaml:"large_value_traded_usd" default:"25000000" validate:"gt=0"`

	PrimeFloor  float64 `yaml:"prime_floor" default:"60"`
	StrongFloor float64 `yaml:"strong_floor" default:"50" validate:"ltfield=PrimeFloor"`
	HardFloor   float64 `yaml:"hard_floor" default:"45" validate:"ltfield=StrongFloor"`

	TargetMin int `yaml:"target_min" default:"3" validate:"gt=0"`
	TargetMax int `yaml:"target_max" default:"5" validate:"gtefield=TargetMin"`
}

// EnrichConfig bounds the per-symbol enrichment fan-out.
type EnrichConfig struct {
	MaxConcurrency  int           `yaml:"max_concurrency" default:"8" validate:"gt=0"`
	SymbolTimeout   time.Duration `yaml:"symbol_timeout" default:"10s" validate:"gt=0"`
	HistoryLookback int           `yaml:"history_lookback_days" default:"30" validate:"gt=0"`
	StaleAfter      time.Duration `yaml:"stale_after" default:"30m" validate:"gt=0"`
	ATRPeriod       int           `yaml:"atr_period" default:"14" validate:"gt=0"`
	RSIPeriod       int           `yaml:"rsi_period" default:"14" validate:"gt=0"`
	SustainWindow   int           `yaml:"sustain_window" default:"6" validate:"gt=0"`
	SustainMinFrac  float64       `yaml:"sustain_min_fraction" default:"0.7" validate:"gt=0,lte=1"`
}

// PipelineConfig bounds a whole scan cycle.
type PipelineConfig struct {
	MaxSnapshotAge time.Duration `yaml:"max_snapshot_age" default:"15m" validate:"gt=0"`
	CycleTimeout   time.Duration `yaml:"cycle_timeout" default:"2m" validate:"gt=0"`
	ResultTTL      time.Duration `yaml:"result_ttl" default:"10m" validate:"gt=0"`
}

// RedisConfig locates the result cache.
type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig locates the scan history store. Empty DSN disables it.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// KafkaConfig locates the scan event sink. Empty brokers disable it.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"equityrun.scans"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
}

// HTTPConfig configures the read-only interface server.
type HTTPConfig struct {
	Host         string        `yaml:"host" default:"127.0.0.1"`
	Port         int           `yaml:"port" default:"8080" validate:"gt=0"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

// DataSourceConfig configures the market data client.
type DataSourceConfig struct {
	BaseURL        string        `yaml:"base_url" default:"https://api.polygon.io"`
	APIKey         string        `yaml:"api_key"`
	RequestsPerSec float64       `yaml:"requests_per_sec" default:"5" validate:"gt=0"`
	Burst          int           `yaml:"burst" default:"10" validate:"gt=0"`
	Timeout        time.Duration `yaml:"timeout" default:"15s" validate:"gt=0"`
}

// Config is the full application configuration.
type Config struct {
	Universe   UniverseConfig   `yaml:"universe"`
	Weights    WeightsConfig    `yaml:"weights"`
	Tiers      TierConfig       `yaml:"tiers"`
	Explosive  ExplosiveConfig  `yaml:"explosive"`
	Enrich     EnrichConfig     `yaml:"enrich"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	HTTP       HTTPConfig       `yaml:"http"`
	DataSource DataSourceConfig `yaml:"data_source"`
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a YAML config file over the defaults. Invalid configuration is
// fatal at startup, never per cycle.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the structural constraints on a configuration.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
