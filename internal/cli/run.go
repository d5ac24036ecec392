package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/govern"
	"github.com/wardenhq/warden/internal/reason"
	"github.com/wardenhq/warden/internal/risk"
	"github.com/wardenhq/warden/internal/safety"
	"github.com/wardenhq/warden/internal/tools"
	"github.com/wardenhq/warden/internal/trace"
	"github.com/wardenhq/warden/internal/worker"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the orchestration worker",
	Run:   runWorker,
}

func runWorker(cmd *cobra.Command, args []string) {
	printHeader("Warden Worker")

	cfg, err := config.Load()
	if err != nil {
		fail("Config error: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	st, err := openStore(cfg)
	if err != nil {
		fail("Store error: %v", err)
	}
	defer st.Close()

	client := newBusClient(cfg)
	defer client.Close()

	registry := tools.NewDefaultRegistry(&tools.LogMailer{Logger: logger})
	provider := reason.NewOpenAIProvider(cfg.Model.APIKey, cfg.Model.APIBase, cfg.Model.Name, cfg.Model.Timeout)
	adapter := reason.NewAdapter(provider, cfg.Model.Name, cfg.Model.MaxTokens, cfg.Model.Temperature)
	gov := govern.NewService(st, registry, logger, cfg.Worker.ToolTimeout)
	tracer := trace.New(st, "warden-worker", logger)

	w := worker.New(worker.Options{
		Concurrency:     cfg.Worker.Concurrency,
		HistoryTurns:    cfg.Worker.HistoryTurns,
		ToolTimeout:     cfg.Worker.ToolTimeout,
		ZombieThreshold: cfg.Worker.ZombieThreshold,
		ZombieScanEvery: cfg.Worker.ZombieScanEvery,
	}, client, st, safety.NewStoreGate(st), risk.NewClassifier(cfg.Risk.GatedTools),
		adapter, registry, gov, tracer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Consuming %s on %s (%d workers, model %s)\n",
		cfg.Bus.Topic, cfg.Bus.Brokers, cfg.Worker.Concurrency, cfg.Model.Name)
	logger.Info("worker starting",
		"topic", cfg.Bus.Topic,
		"group", cfg.Bus.ConsumerGroup,
		"concurrency", cfg.Worker.Concurrency)

	w.Run(ctx)
	logger.Info("worker stopped")
}
