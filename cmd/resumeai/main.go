// Package main provides the resumeai command: the HTTP API server plus offline rendering
// and account tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/resumeai/internal/config"
	"github.com/jonathan/resumeai/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "resumeai",
	Short: "ResumeAI HTTP API server",
	Long: "ResumeAI writes cover letters, summaries and project descriptions with a text-generation " +
		"model and assembles résumés from a LaTeX template.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file (environment variables override it)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadRuntime reads the configuration and builds the logger every subcommand shares.
func loadRuntime() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}
