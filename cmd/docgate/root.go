package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "docgate",
	Short: "Accept or reject uploaded documents by their content",
	Long: `docgate decides whether a document is an accepted financial or
real-estate record. It renders the first pages, extracts text with OCR,
scores the text against a versioned lexicon and gates on the result.

Settings come from the same environment variables as the API and worker.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default: LOG_LEVEL or info)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(lexiconCmd)
}
