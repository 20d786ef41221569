// Command transformctl is a small administrative CLI over the config
// version store and config API: one subcommand per admin operation,
// talking straight to the KV backend. It is the operator-facing surface
// for listing, activating, comparing, updating and validating config
// versions without standing up a server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	kvBackend  string
	redisAddr  string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "transformctl",
	Short: "Administer the transform-edge config version store",
	Long: `transformctl operates directly against the KV-backed config
version store and config API: list and activate versions, compare two
versions, update a module from a file, and validate a candidate
snapshot file, all without going through an HTTP admin surface.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&kvBackend, "kv-backend", "memory", "KV store backend: memory or redis")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis address when --kv-backend=redis")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a host config YAML file (optional)")

	rootCmd.AddCommand(listVersionsCmd)
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(updateModuleCmd)
	rootCmd.AddCommand(validateSnapshotCmd)
}
