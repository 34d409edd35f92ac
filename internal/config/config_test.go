package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ChannelCapacity != 100_000 {
		t.Fatalf("expected default channel capacity 100000, got %d", cfg.ChannelCapacity)
	}
	if cfg.MovingAverageWindow != 64 {
		t.Fatalf("expected default moving average window 64, got %d", cfg.MovingAverageWindow)
	}
	if cfg.AnomalyThresholdPercent != 2.0 {
		t.Fatalf("expected default threshold 2.0, got %v", cfg.AnomalyThresholdPercent)
	}
}

func TestLoadNoPathAppliesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Partitions <= 0 {
		t.Fatalf("expected auto-detected partitions > 0, got %d", cfg.Partitions)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.json")
	body := `{"partitions": 4, "channel_capacity": 8, "anomaly_threshold_percent": 3.5}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Partitions != 4 {
		t.Fatalf("expected partitions 4, got %d", cfg.Partitions)
	}
	if cfg.ChannelCapacity != 8 {
		t.Fatalf("expected channel capacity 8, got %d", cfg.ChannelCapacity)
	}
	if cfg.AnomalyThresholdPercent != 3.5 {
		t.Fatalf("expected threshold 3.5, got %v", cfg.AnomalyThresholdPercent)
	}
	// Untouched fields still get spec defaults.
	if cfg.RecentAnomaliesCapacity != 10_000 {
		t.Fatalf("expected default recent anomalies capacity, got %d", cfg.RecentAnomaliesCapacity)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MARKETPULSE_PARTITIONS", "7")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Partitions != 7 {
		t.Fatalf("expected env override partitions 7, got %d", cfg.Partitions)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/engine.json"); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
