package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Bus.Topic != "warden.events" {
		t.Errorf("topic = %s", cfg.Bus.Topic)
	}
	if cfg.Bus.MaxDeliveryTries != 5 {
		t.Errorf("max delivery tries = %d, want 5", cfg.Bus.MaxDeliveryTries)
	}
	if cfg.Worker.HistoryTurns != 10 {
		t.Errorf("history turns = %d, want 10", cfg.Worker.HistoryTurns)
	}
	if cfg.Worker.ZombieThreshold != 10*time.Minute {
		t.Errorf("zombie threshold = %s, want 10m", cfg.Worker.ZombieThreshold)
	}
	if len(cfg.Risk.GatedTools) != 1 || cfg.Risk.GatedTools[0] != "send_email" {
		t.Errorf("gated tools = %v", cfg.Risk.GatedTools)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"bus": {"topic": "custom.events", "brokers": "kafka:9092"},
		"model": {"name": "gpt-4o"},
		"worker": {"concurrency": 8},
		"risk": {"gatedTools": ["send_email", "delete_file"]}
	}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Bus.Topic != "custom.events" || cfg.Bus.Brokers != "kafka:9092" {
		t.Errorf("bus = %+v", cfg.Bus)
	}
	if cfg.Model.Name != "gpt-4o" {
		t.Errorf("model = %s", cfg.Model.Name)
	}
	if cfg.Worker.Concurrency != 8 {
		t.Errorf("concurrency = %d", cfg.Worker.Concurrency)
	}
	if len(cfg.Risk.GatedTools) != 2 {
		t.Errorf("gated tools = %v", cfg.Risk.GatedTools)
	}
	// Untouched keys keep their defaults.
	if cfg.Bus.ConsumerGroup != "warden-worker" {
		t.Errorf("consumer group = %s", cfg.Bus.ConsumerGroup)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"bus": {"topic": "from.file"}}`), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WARDEN_KAFKA_TOPIC", "from.env")
	t.Setenv("WARDEN_MODEL_API_KEY", "sk-test")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Bus.Topic != "from.env" {
		t.Errorf("topic = %s, want env to win", cfg.Bus.Topic)
	}
	if cfg.Model.APIKey != "sk-test" {
		t.Errorf("api key = %s", cfg.Model.APIKey)
	}
}

func TestLoadFromRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{broken"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFromClampsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"bus": {"maxDeliveryTries": -1}, "worker": {"concurrency": 0, "historyTurns": -3}}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Bus.MaxDeliveryTries != 5 {
		t.Errorf("max delivery tries = %d, want clamped to 5", cfg.Bus.MaxDeliveryTries)
	}
	if cfg.Worker.Concurrency != 4 {
		t.Errorf("concurrency = %d, want clamped to 4", cfg.Worker.Concurrency)
	}
	if cfg.Worker.HistoryTurns != 10 {
		t.Errorf("history turns = %d, want clamped to 10", cfg.Worker.HistoryTurns)
	}
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Model.Name = "gpt-4o"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Model.Name != "gpt-4o" {
		t.Errorf("model = %s", loaded.Model.Name)
	}
}
