// Package main is the entry point for the factlens CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/factchecker/factlens/internal/api"
	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

var configPath string

// rootCmd is the base command for the factlens CLI.
var rootCmd = &cobra.Command{
	Use:   "factlens",
	Short: "Verify claims in text and images against online evidence",
	Long: `factlens extracts factual claims from text and checks each one against web
evidence, and judges whether an image and the story around it hold up.

Run "factlens serve" for the HTTP API or use the verify subcommands for
one-off checks from the terminal.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "factlens.yaml", "path to configuration file")
	api.Version = version
}

// loadConfig reads the configuration file and applies its logging settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
