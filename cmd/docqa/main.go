// Command docqa answers questions about a single uploaded document, over HTTP
// (docqa serve) or in the terminal (docqa ask).
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docqa/internal/config"
	"github.com/kailas-cloud/docqa/internal/version"
)

var (
	flagEnv     string
	flagConfig  string
	flagEnvFile string
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about a document",
	Long: `docqa segments a document into sections and chunks, embeds and indexes them,
and answers questions with an LLM using the most relevant chunks as context.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return loadEnvFile(flagEnvFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "", "config environment (default: $ENV or local)")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to a config file, overrides --env")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file with API keys")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadEnvFile loads path into the process environment. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func resolveEnv() string {
	if flagEnv != "" {
		return flagEnv
	}
	return config.GetEnv()
}

func loadConfig() (config.Config, error) {
	if flagConfig != "" {
		cfg, err := config.LoadFile(flagConfig)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load(resolveEnv())
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
