package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/safety"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("Warden Version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("Warden Status")
		fmt.Printf("Version: %s\n", version)

		configPath, err := config.ConfigPath()
		if err == nil {
			if _, statErr := os.Stat(configPath); statErr == nil {
				fmt.Println("Config:  found (" + configPath + ")")
			} else {
				fmt.Println("Config:  not found, defaults in effect")
			}
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Config error: %v\n", err)
			return
		}
		if cfg.Model.APIKey != "" {
			fmt.Println("API Key: set")
		} else {
			fmt.Println("API Key: not set (WARDEN_MODEL_API_KEY)")
		}
		fmt.Printf("Model:   %s\n", cfg.Model.Name)
		fmt.Printf("Brokers: %s (topic %s)\n", cfg.Bus.Brokers, cfg.Bus.Topic)
		fmt.Printf("DB:      %s\n", cfg.Store.DBPath)

		st, err := openStore(cfg)
		if err != nil {
			fmt.Printf("Store error: %v\n", err)
			return
		}
		defer st.Close()
		if active, err := safety.NewStoreGate(st).Active(); err == nil {
			if active {
				fmt.Println("Halt:    ENGAGED (chat processing stopped)")
			} else {
				fmt.Println("Halt:    released")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
