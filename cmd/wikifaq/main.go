package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "wikifaq",
	Short:   "Generate and serve FAQs distilled from Wikipedia pages",
	Version: version,
}

func main() {
	rootCmd.AddCommand(serveCmd, workerCmd, runCmd, repairCmd, seedCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
