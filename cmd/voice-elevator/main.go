// Package main is the entry point for the voice elevator simulator.
//
// Usage:
//
//	voice-elevator [flags] <command>
//
// Commands:
//
//	serve  - Web widget (static page + websocket session + contact relay)
//	repl   - Text-only terminal simulator
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"voice-elevator-simulator/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "voice-elevator",
	Short: "Voice-controlled elevator simulator",
	Long: `voice-elevator - An elevator cab driven by Spanish (es-AR) voice or text commands.

Examples:
  # Serve the web widget on $PORT (default 8080)
  voice-elevator serve

  # Try commands in the terminal
  voice-elevator repl --max-floor 12`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replCmd)
}

// loadConfig reads the config named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
