// Package cli implements the warden command line interface.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/wardenhq/warden/internal/cli.version=1.2.3"
	version = "0.4.0"
	logo    = "\n" +
		" __        ______ _   _____  _____ _   _\n" +
		" \\ \\      / / _ \\| | |  _  \\| ____| \\ | |\n" +
		"  \\ \\ /\\ / / |_| | |_| | | ||  _| |  \\| |\n" +
		"   \\ V  V /|  _  |  _  |_| || |___| |\\  |\n" +
		"    \\_/\\_/ |_| |_|_| |_____/|_____|_| \\_|\n"
)

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Warden - governed AI agent execution engine",
	Long:  color.CyanString(logo) + "\nA message-driven agent execution engine with human-in-the-loop governance.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(haltCmd)
	rootCmd.AddCommand(traceCmd)
}

func printHeader(title string) {
	fmt.Println(color.CyanString(title))
}
