package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sluice",
	Short: "Sluice runs declarative pipelines against registry backends",
	Long:  `Sluice executes pipeline manifests: ordered fetch and search operations against a remote registry, with each result threaded into the pipeline state.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for state persistence and locking (optional)")
}
