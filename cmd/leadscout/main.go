// Package main provides the entry point for the leadscout CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leadscout",
	Short: "Login-gated people-search lead scout",
	Long:  "leadscout runs people searches against a login-gated professional network using a previously exported cookie session, relaxing over-constrained queries step by step and exporting deduplicated candidate records.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
