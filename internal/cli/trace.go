package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/store"
)

var traceCmd = &cobra.Command{
	Use:   "trace <traceId>",
	Short: "Show the span tree for one trace",
	Args:  cobra.ExactArgs(1),
	Run:   runTrace,
}

func runTrace(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		fail("Config error: %v", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		fail("Store error: %v", err)
	}
	defer st.Close()

	spans, err := st.ListTraceSpans(args[0])
	if err != nil {
		fail("List spans error: %v", err)
	}
	if len(spans) == 0 {
		fmt.Println("No spans for that trace.")
		return
	}

	printHeader("Trace " + args[0])
	children := make(map[string][]store.TraceSpan)
	for _, sp := range spans {
		children[sp.ParentSpanID] = append(children[sp.ParentSpanID], sp)
	}
	printSpans(children, "", 0)
}

func printSpans(children map[string][]store.TraceSpan, parent string, depth int) {
	for _, sp := range children[parent] {
		status := sp.Status
		if status == store.SpanError {
			status = color.RedString(status)
		}
		for i := 0; i < depth; i++ {
			fmt.Print("  ")
		}
		fmt.Printf("  %-24s %s %dms  %s\n", sp.Operation, status, sp.DurationMs, sp.Metadata)
		printSpans(children, sp.SpanID, depth+1)
	}
}
