package main

import (
	"fmt"
	"os"

	"github.com/Parokor/a0-core-agent/cmd/agent/commands"
	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "a0",
		Short: "Agent Zero - Multi-provider AI agent core",
		Long: `Agent Zero Core - Multi-Provider Routing & Fallback Engine

An autonomous agent core that routes AI requests across multiple
free-tier providers with per-task routing and sequential fallback.

Features:
  • Per-task-type provider routing
  • Sequential fallback with panic containment
  • Persistent task queue with bounded concurrency
  • Command risk assessment with audit trail
  • Prometheus metrics and structured logging`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().String("env-file", "", "Path to .env file with provider credentials")

	// Add all commands
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.AskCmd)
	rootCmd.AddCommand(commands.DoctorCmd)
	rootCmd.AddCommand(commands.ConfigCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Agent Zero Core version %s\n", version)
			fmt.Printf("Commit: %s\n", commit)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
