// Package config loads node configuration the way the teacher's
// params/config.go does: sane defaults, optional .env file, environment
// variable overrides. CLI flag parsing and the rest of the logging/CLI
// setup stack remain out of scope (spec §1); this package is just the
// config-loading ambient concern.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the execution-engine's policy knobs.
type Config struct {
	// MasterName is the sole account permitted to create native farms
	// (spec §3 Farm, §2.11). The native token is registered at genesis
	// with no issuer, so TOKEN_MINT accepts a mint of it from no account,
	// MasterName included.
	MasterName string

	// NativeSymbol is the chain's native token symbol (default "ECH").
	NativeSymbol string
	// NativeDecimals is the native token's registered decimal count.
	NativeDecimals int

	// HTTPAddr is the listen address for the read-only HTTP surface.
	HTTPAddr string

	// DataDir is the pebble store directory.
	DataDir string

	// BlockQueueCapacity bounds the ingester -> dispatcher queue
	// (spec §5.1; the ingester itself is out of scope, but the engine
	// still owns the capacity knob for the consumer side).
	BlockQueueCapacity int

	// DefaultMaxTradeAmount is the policy default applied to a trading
	// pair when maxTradeAmount is left unset (spec §9 open question,
	// resolved in SPEC_FULL.md: keep the source's 10^21, make it
	// configurable).
	DefaultMaxTradeAmount string

	// PerBlockFarmReward is the fixed native-token reward split across
	// active native farms each block (spec §2.11).
	PerBlockFarmReward string
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		MasterName:             "echo-foundation",
		NativeSymbol:           "ECH",
		NativeDecimals:         8,
		HTTPAddr:               ":8090",
		DataDir:                "./data/state.pebble",
		BlockQueueCapacity:     1024,
		DefaultMaxTradeAmount:  "1000000000000000000000",
		PerBlockFarmReward:     "300000000",
	}
}

// LoadFromEnv layers an optional .env file and environment variables over
// the defaults. Priority: ENV > .env file > defaults, matching the
// teacher's LoadFromEnv.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("MASTER_NAME"); v != "" {
		cfg.MasterName = v
	}
	if v := os.Getenv("NATIVE_SYMBOL"); v != "" {
		cfg.NativeSymbol = v
	}
	if v := os.Getenv("NATIVE_DECIMALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NativeDecimals = n
		}
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("BLOCK_QUEUE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BlockQueueCapacity = n
		}
	}
	if v := os.Getenv("DEFAULT_MAX_TRADE_AMOUNT"); v != "" {
		cfg.DefaultMaxTradeAmount = v
	}
	if v := os.Getenv("PER_BLOCK_FARM_REWARD"); v != "" {
		cfg.PerBlockFarmReward = v
	}

	return cfg
}
