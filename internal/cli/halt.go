package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/safety"
)

var haltCmd = &cobra.Command{
	Use:   "halt",
	Short: "Control the emergency stop",
}

var haltOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Engage the emergency stop (chat events are dropped)",
	Run:   runHaltOn,
}

var haltOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Release the emergency stop",
	Run:   runHaltOff,
}

var haltStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the emergency stop state",
	Run:   runHaltStatus,
}

func init() {
	haltCmd.AddCommand(haltOnCmd)
	haltCmd.AddCommand(haltOffCmd)
	haltCmd.AddCommand(haltStatusCmd)
}

func openGate() (*safety.StoreGate, func()) {
	cfg, err := config.Load()
	if err != nil {
		fail("Config error: %v", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		fail("Store error: %v", err)
	}
	return safety.NewStoreGate(st), func() { st.Close() }
}

func runHaltOn(cmd *cobra.Command, args []string) {
	gate, done := openGate()
	defer done()
	if err := gate.Engage(); err != nil {
		fail("Engage error: %v", err)
	}
	fmt.Println(color.RedString("Emergency stop ENGAGED.") + " Chat events will be dropped; approved resumes still run.")
}

func runHaltOff(cmd *cobra.Command, args []string) {
	gate, done := openGate()
	defer done()
	if err := gate.Release(); err != nil {
		fail("Release error: %v", err)
	}
	fmt.Println(color.GreenString("Emergency stop released."))
}

func runHaltStatus(cmd *cobra.Command, args []string) {
	gate, done := openGate()
	defer done()
	active, err := gate.Active()
	if err != nil {
		fail("Read error: %v", err)
	}
	if active {
		fmt.Println(color.RedString("ENGAGED"))
	} else {
		fmt.Println(color.GreenString("released"))
	}
}
