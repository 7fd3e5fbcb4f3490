package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	// Environment variables may come from a local .env file.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "taskflow",
		Short:   "Taskflow - task delegation and time-accounting server",
		Version: Version,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "taskflow.yaml", "path to the YAML config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var configPath string
