package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/factchecker/factlens/internal/api"
	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/database"
)

var (
	generateOutput string
	generateForce  bool
	keyName        string
	keyRPM         int
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a sample configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !generateForce {
			if _, err := os.Stat(generateOutput); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", generateOutput)
			}
		}
		if err := config.GenerateSample(generateOutput); err != nil {
			return fmt.Errorf("failed to write sample config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", generateOutput)
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an API key and print it once",
	RunE: func(cmd *cobra.Command, args []string) error {
		if keyName == "" {
			return fmt.Errorf("--name is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := database.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		key, raw, err := api.NewAPIKey(keyName, keyRPM)
		if err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}
		if err := store.CreateAPIKey(cmd.Context(), key); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:   %s\n", key.ID)
		fmt.Fprintf(out, "Name: %s\n", key.Name)
		fmt.Fprintf(out, "Key:  %s\n", raw)
		fmt.Fprintln(out, "Store the key now; it cannot be shown again.")
		return nil
	},
}

func init() {
	configGenerateCmd.Flags().StringVarP(&generateOutput, "output", "o", "factlens.yaml", "output path")
	configGenerateCmd.Flags().BoolVar(&generateForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configGenerateCmd)

	keysCreateCmd.Flags().StringVar(&keyName, "name", "", "key name")
	keysCreateCmd.Flags().IntVar(&keyRPM, "rpm", 60, "requests per minute")
	keysCmd.AddCommand(keysCreateCmd)

	rootCmd.AddCommand(configCmd, keysCmd)
}
