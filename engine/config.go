package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config mirrors the shape of a node-style configuration struct:
// JSON-tagged, with a DefaultConfig constructor and a standalone
// ValidateConfig so the CLI can validate before wiring anything up.
type Config struct {
	DataDir             string `json:"data_dir"`
	LogLevel            string `json:"log_level"`
	DomainSize          uint64 `json:"domain_size"`
	MinerIntervalMillis uint64 `json:"miner_interval_millis"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".asvc-rollup"
	}
	return filepath.Join(home, ".asvc-rollup")
}

func DefaultConfig() Config {
	return Config{
		DataDir:             DefaultDataDir(),
		LogLevel:            "info",
		DomainSize:          1024,
		MinerIntervalMillis: 10_000,
	}
}

func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return errors.New("data_dir is required")
	}
	logLevel := cfg.LogLevel
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.DomainSize == 0 || cfg.DomainSize&(cfg.DomainSize-1) != 0 {
		return fmt.Errorf("domain_size %d must be a positive power of two", cfg.DomainSize)
	}
	if cfg.MinerIntervalMillis == 0 {
		return errors.New("miner_interval_millis must be > 0")
	}
	return nil
}
