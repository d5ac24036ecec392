package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/bus"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/govern"
	"github.com/wardenhq/warden/internal/store"
)

var taskStatusFilter string

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Inspect and govern pending tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List governance tasks",
	Run:   runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show <taskId>",
	Short: "Show one task in full",
	Args:  cobra.ExactArgs(1),
	Run:   runTaskShow,
}

var taskApproveCmd = &cobra.Command{
	Use:   "approve <taskId>",
	Short: "Approve a pending task and trigger its execution",
	Args:  cobra.ExactArgs(1),
	Run:   runTaskApprove,
}

var taskRejectCmd = &cobra.Command{
	Use:   "reject <taskId>",
	Short: "Reject a pending task",
	Args:  cobra.ExactArgs(1),
	Run:   runTaskReject,
}

func init() {
	taskListCmd.Flags().StringVarP(&taskStatusFilter, "status", "s", "", "Filter by status (pending|approved|rejected|completed)")
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskApproveCmd)
	taskCmd.AddCommand(taskRejectCmd)
}

func runTaskList(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		fail("Config error: %v", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		fail("Store error: %v", err)
	}
	defer st.Close()

	tasks, err := st.ListTasks(taskStatusFilter, 50)
	if err != nil {
		fail("List tasks error: %v", err)
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return
	}

	printHeader("Tasks")
	for _, t := range tasks {
		status := t.Status
		switch t.Status {
		case store.TaskPending:
			status = color.YellowString(status)
		case store.TaskCompleted:
			status = color.GreenString(status)
		case store.TaskRejected:
			status = color.RedString(status)
		}
		zombie := ""
		if t.ZombieFlaggedAt != nil {
			zombie = color.RedString(" [zombie]")
		}
		fmt.Printf("  %s  %-10s %-12s %s%s\n", t.TaskID, status, t.ToolName, t.Description, zombie)
	}
}

func runTaskShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		fail("Config error: %v", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		fail("Store error: %v", err)
	}
	defer st.Close()

	t, err := st.GetTask(args[0])
	if err != nil {
		fail("Get task error: %v", err)
	}
	printHeader("Task " + t.TaskID)
	fmt.Printf("Agent:       %s\n", t.AgentID)
	fmt.Printf("Status:      %s\n", t.Status)
	fmt.Printf("Tool:        %s\n", t.ToolName)
	fmt.Printf("Description: %s\n", t.Description)
	fmt.Printf("Payload:     %s\n", t.Payload)
	fmt.Printf("Trace:       %s\n", t.TraceID)
	fmt.Printf("Created:     %s\n", t.CreatedAt)
	if t.CompletedAt != nil {
		fmt.Printf("Completed:   %s\n", t.CompletedAt)
	}
	if t.ZombieFlaggedAt != nil {
		fmt.Printf("Zombie since: %s\n", t.ZombieFlaggedAt)
	}
}

// runTaskApprove records the approval, then publishes a RESUME event so a
// worker executes the suspended action.
func runTaskApprove(cmd *cobra.Command, args []string) {
	taskID := args[0]
	cfg, err := config.Load()
	if err != nil {
		fail("Config error: %v", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		fail("Store error: %v", err)
	}
	defer st.Close()

	task, err := st.GetTask(taskID)
	if err != nil {
		fail("Get task error: %v", err)
	}
	gov := govern.NewService(st, nil, nil, 0)
	if err := gov.Approve(taskID); err != nil {
		fail("Approve error: %v", err)
	}

	client := newBusClient(cfg)
	defer client.Close()
	ev := &bus.Event{
		Type:    bus.TypeResume,
		TraceID: task.TraceID,
		AgentID: task.AgentID,
		TaskID:  taskID,
		Action:  bus.ActionApproved,
		Attributes: map[string]string{
			"source":  "cli",
			"traceId": task.TraceID,
		},
	}
	if err := client.Publish(context.Background(), ev); err != nil {
		fail("Approved but resume publish failed: %v", err)
	}
	fmt.Printf("Task %s approved, resume event published\n", color.GreenString(taskID))
}

func runTaskReject(cmd *cobra.Command, args []string) {
	taskID := args[0]
	cfg, err := config.Load()
	if err != nil {
		fail("Config error: %v", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		fail("Store error: %v", err)
	}
	defer st.Close()

	gov := govern.NewService(st, nil, nil, 0)
	if err := gov.Reject(taskID); err != nil {
		fail("Reject error: %v", err)
	}
	fmt.Printf("Task %s rejected\n", color.RedString(taskID))
}
