// Package config loads marketpulse engine configuration from a JSON file,
// with environment variable overrides, in the same style as the teacher
// services' config loaders.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// Config holds the engine's recognized options (spec §6).
type Config struct {
	Partitions              int     `json:"partitions"`
	ChannelCapacity         int     `json:"channel_capacity"`
	MovingAverageWindow     int     `json:"moving_average_window"`
	AnomalyThresholdPercent float64 `json:"anomaly_threshold_percent"`
	SlidingWindowMs         int     `json:"sliding_window_ms"`
	RecentAnomaliesCapacity int     `json:"recent_anomalies_capacity"`

	Simulation SimulationConfig `json:"simulation"`
}

// SimulationConfig configures the reference feed adapter (producer-side,
// external to the engine proper).
type SimulationConfig struct {
	Enabled          bool     `json:"enabled"`
	Symbols          []string `json:"symbols"`
	TicksPerSecond   int      `json:"ticks_per_second"`
	InitialPrice     float64  `json:"initial_price"`
	MaxJitterPercent float64  `json:"max_jitter_percent"`
}

// Default returns a Config populated with the spec's default values.
func Default() Config {
	return Config{
		Partitions:              0,
		ChannelCapacity:         100_000,
		MovingAverageWindow:     64,
		AnomalyThresholdPercent: 2.0,
		SlidingWindowMs:         1000,
		RecentAnomaliesCapacity: 10_000,
		Simulation: SimulationConfig{
			Enabled:          false,
			TicksPerSecond:   10,
			InitialPrice:     100,
			MaxJitterPercent: 1.0,
		},
	}
}

// Load reads cfg from a JSON file, applies spec defaults for any zero
// fields, then applies environment variable overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	return cfg, cfg.Validate()
}

func (c *Config) applyDefaults() {
	if c.Partitions <= 0 {
		c.Partitions = runtime.NumCPU()
		if c.Partitions < 1 {
			c.Partitions = 1
		}
	}
	if c.ChannelCapacity <= 0 {
		c.ChannelCapacity = 100_000
	}
	if c.MovingAverageWindow <= 0 {
		c.MovingAverageWindow = 64
	}
	if c.AnomalyThresholdPercent <= 0 {
		c.AnomalyThresholdPercent = 2.0
	}
	if c.SlidingWindowMs <= 0 {
		c.SlidingWindowMs = 1000
	}
	if c.RecentAnomaliesCapacity <= 0 {
		c.RecentAnomaliesCapacity = 10_000
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MARKETPULSE_PARTITIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Partitions = n
		}
	}
	if v := os.Getenv("MARKETPULSE_CHANNEL_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ChannelCapacity = n
		}
	}
	if v := os.Getenv("MARKETPULSE_ANOMALY_THRESHOLD_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.AnomalyThresholdPercent = f
		}
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Partitions <= 0 {
		return fmt.Errorf("partitions must be positive, got %d", c.Partitions)
	}
	if c.ChannelCapacity <= 0 {
		return fmt.Errorf("channel_capacity must be positive, got %d", c.ChannelCapacity)
	}
	if c.MovingAverageWindow <= 0 {
		return fmt.Errorf("moving_average_window must be positive, got %d", c.MovingAverageWindow)
	}
	if c.AnomalyThresholdPercent <= 0 {
		return fmt.Errorf("anomaly_threshold_percent must be positive, got %g", c.AnomalyThresholdPercent)
	}
	if c.SlidingWindowMs <= 0 {
		return fmt.Errorf("sliding_window_ms must be positive, got %d", c.SlidingWindowMs)
	}
	if c.RecentAnomaliesCapacity <= 0 {
		return fmt.Errorf("recent_anomalies_capacity must be positive, got %d", c.RecentAnomaliesCapacity)
	}
	return nil
}
