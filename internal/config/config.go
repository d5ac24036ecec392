// Package config provides configuration types and loading for warden.
package config

import "time"

// Config is the root configuration struct.
// Top-level groups: Store, Bus, Model, Worker, Risk.
type Config struct {
	Store  StoreConfig  `json:"store"`
	Bus    BusConfig    `json:"bus"`
	Model  ModelConfig  `json:"model"`
	Worker WorkerConfig `json:"worker"`
	Risk   RiskConfig   `json:"risk"`
}

// ---------------------------------------------------------------------------
// Store – persistence
// ---------------------------------------------------------------------------

// StoreConfig groups persistence settings.
type StoreConfig struct {
	DBPath string `json:"dbPath" envconfig:"DB_PATH"`
}

// ---------------------------------------------------------------------------
// Bus – event delivery
// ---------------------------------------------------------------------------

// BusConfig contains Kafka event bus settings.
type BusConfig struct {
	Brokers          string `json:"brokers" envconfig:"KAFKA_BROKERS"`
	Topic            string `json:"topic" envconfig:"KAFKA_TOPIC"`
	DeadLetterTopic  string `json:"deadLetterTopic" envconfig:"KAFKA_DEAD_LETTER_TOPIC"`
	ConsumerGroup    string `json:"consumerGroup" envconfig:"KAFKA_CONSUMER_GROUP"`
	MaxDeliveryTries int    `json:"maxDeliveryTries" envconfig:"MAX_DELIVERY_TRIES"`
}

// ---------------------------------------------------------------------------
// Model – reasoning behaviour
// ---------------------------------------------------------------------------

// ModelConfig groups reasoning model settings.
type ModelConfig struct {
	Name        string        `json:"name" envconfig:"MODEL"`
	APIKey      string        `json:"apiKey" envconfig:"MODEL_API_KEY"`
	APIBase     string        `json:"apiBase,omitempty" envconfig:"MODEL_API_BASE"`
	MaxTokens   int           `json:"maxTokens" envconfig:"MAX_TOKENS"`
	Temperature float64       `json:"temperature" envconfig:"TEMPERATURE"`
	Timeout     time.Duration `json:"timeout" envconfig:"MODEL_TIMEOUT"`
}

// ---------------------------------------------------------------------------
// Worker – event processing
// ---------------------------------------------------------------------------

// WorkerConfig contains orchestration worker settings.
type WorkerConfig struct {
	Concurrency     int           `json:"concurrency" envconfig:"WORKER_CONCURRENCY"`
	HistoryTurns    int           `json:"historyTurns" envconfig:"HISTORY_TURNS"`
	ToolTimeout     time.Duration `json:"toolTimeout" envconfig:"TOOL_TIMEOUT"`
	ZombieThreshold time.Duration `json:"zombieThreshold" envconfig:"ZOMBIE_THRESHOLD"`
	ZombieScanEvery time.Duration `json:"zombieScanEvery" envconfig:"ZOMBIE_SCAN_EVERY"`
}

// ---------------------------------------------------------------------------
// Risk – tool gating
// ---------------------------------------------------------------------------

// RiskConfig lists tool names that require human approval before execution.
// Anything not listed classifies as safe.
type RiskConfig struct {
	GatedTools []string `json:"gatedTools" envconfig:"GATED_TOOLS"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			DBPath: "~/.warden/warden.db",
		},
		Bus: BusConfig{
			Brokers:          "localhost:9092",
			Topic:            "warden.events",
			DeadLetterTopic:  "warden.events.dlq",
			ConsumerGroup:    "warden-worker",
			MaxDeliveryTries: 5,
		},
		Model: ModelConfig{
			Name:        "gpt-4o-mini",
			MaxTokens:   4096,
			Temperature: 0.7,
			Timeout:     120 * time.Second,
		},
		Worker: WorkerConfig{
			Concurrency:     4,
			HistoryTurns:    10,
			ToolTimeout:     60 * time.Second,
			ZombieThreshold: 10 * time.Minute,
			ZombieScanEvery: time.Minute,
		},
		Risk: RiskConfig{
			GatedTools: []string{"send_email"},
		},
	}
}
