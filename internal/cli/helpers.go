package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wardenhq/warden/internal/bus"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/store"
)

func openStore(cfg *config.Config) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Store.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return store.Open(cfg.Store.DBPath)
}

func newBusClient(cfg *config.Config) *bus.KafkaClient {
	return bus.NewKafkaClient(bus.KafkaOptions{
		Brokers:         cfg.Bus.Brokers,
		Topic:           cfg.Bus.Topic,
		DeadLetterTopic: cfg.Bus.DeadLetterTopic,
		ConsumerGroup:   cfg.Bus.ConsumerGroup,
		MaxAttempts:     cfg.Bus.MaxDeliveryTries,
	})
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
