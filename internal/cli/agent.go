package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/store"
)

var (
	agentName         string
	agentRole         string
	agentGoal         string
	agentSystemPrompt string
	agentTools        string
	agentLive         bool
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage agent definitions",
}

var agentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new agent",
	Run:   runAgentAdd,
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered agents",
	Run:   runAgentList,
}

var agentActivateCmd = &cobra.Command{
	Use:   "activate <agentId>",
	Short: "Move an agent from draft to live",
	Args:  cobra.ExactArgs(1),
	Run:   runAgentActivate,
}

func init() {
	agentAddCmd.Flags().StringVarP(&agentName, "name", "n", "", "Agent name (required)")
	agentAddCmd.Flags().StringVar(&agentRole, "role", "", "Agent role")
	agentAddCmd.Flags().StringVar(&agentGoal, "goal", "", "Agent goal")
	agentAddCmd.Flags().StringVarP(&agentSystemPrompt, "prompt", "p", "", "System prompt")
	agentAddCmd.Flags().StringVarP(&agentTools, "tools", "t", "echo,get_time", "Comma-separated enabled tools")
	agentAddCmd.Flags().BoolVar(&agentLive, "live", false, "Activate immediately")

	agentCmd.AddCommand(agentAddCmd)
	agentCmd.AddCommand(agentListCmd)
	agentCmd.AddCommand(agentActivateCmd)
}

func runAgentAdd(cmd *cobra.Command, args []string) {
	if agentName == "" {
		fail("Error: --name is required")
	}

	cfg, err := config.Load()
	if err != nil {
		fail("Config error: %v", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		fail("Store error: %v", err)
	}
	defer st.Close()

	status := store.AgentDraft
	if agentLive {
		status = store.AgentLive
	}
	var toolList []string
	for _, name := range strings.Split(agentTools, ",") {
		if name = strings.TrimSpace(name); name != "" {
			toolList = append(toolList, name)
		}
	}

	agent, err := st.CreateAgent(&store.Agent{
		Name:         agentName,
		Role:         agentRole,
		Goal:         agentGoal,
		SystemPrompt: agentSystemPrompt,
		Tools:        toolList,
		Status:       status,
	})
	if err != nil {
		fail("Create agent error: %v", err)
	}
	fmt.Printf("Agent %s created (%s)\n", color.GreenString(agent.AgentID), agent.Status)
}

func runAgentList(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		fail("Config error: %v", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		fail("Store error: %v", err)
	}
	defer st.Close()

	agents, err := st.ListAgents()
	if err != nil {
		fail("List agents error: %v", err)
	}
	if len(agents) == 0 {
		fmt.Println("No agents registered. Run 'warden agent add --name <name>'.")
		return
	}

	printHeader("Agents")
	for _, a := range agents {
		status := a.Status
		if status == store.AgentLive {
			status = color.GreenString(status)
		}
		fmt.Printf("  %s  %-20s %s  tools=%s\n", a.AgentID, a.Name, status, strings.Join(a.Tools, ","))
	}
}

func runAgentActivate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		fail("Config error: %v", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		fail("Store error: %v", err)
	}
	defer st.Close()

	if err := st.SetAgentStatus(args[0], store.AgentLive); err != nil {
		fail("Activate error: %v", err)
	}
	fmt.Printf("Agent %s is now live\n", args[0])
}
