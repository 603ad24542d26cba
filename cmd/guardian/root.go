package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "guardian",
	Short: "Personal-safety dashboard backend",
	Long:  "guardian keeps the dashboard state (location, SOS countdown, reports, chat)\nand brokers every call to the hosted model API.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}
