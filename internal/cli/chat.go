package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/bus"
	"github.com/wardenhq/warden/internal/config"
)

var (
	chatAgentID string
	chatMessage string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Publish a CHAT event for an agent",
	Run:   runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatAgentID, "agent", "a", "", "Agent ID (required)")
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Message to send (required)")
}

func runChat(cmd *cobra.Command, args []string) {
	if chatAgentID == "" || chatMessage == "" {
		fail("Error: --agent and --message are required")
	}

	cfg, err := config.Load()
	if err != nil {
		fail("Config error: %v", err)
	}
	client := newBusClient(cfg)
	defer client.Close()

	ev := &bus.Event{
		Type:    bus.TypeChat,
		TraceID: uuid.NewString(),
		AgentID: chatAgentID,
		Message: chatMessage,
	}
	if err := client.Publish(context.Background(), ev); err != nil {
		fail("Publish error: %v", err)
	}
	fmt.Printf("Chat event published (trace %s)\n", ev.TraceID)
}
