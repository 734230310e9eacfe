package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/docgate/internal/core/lexicon"
)

var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "Inspect lexicon assets",
}

var lexiconCheckCmd = &cobra.Command{
	Use:   "check [PATH]",
	Short: "Load and validate a lexicon asset",
	Long: `Check compiles a lexicon the way the pipeline does at startup and prints
its counts. Without PATH the embedded default lexicon is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		return runLexiconCheck(cmd, path)
	},
}

func init() {
	lexiconCmd.AddCommand(lexiconCheckCmd)
}

type lexiconSummary struct {
	Source     string   `json:"source"`
	Version    string   `json:"version"`
	Languages  int      `json:"languages"`
	Categories int      `json:"categories"`
	Accepted   []string `json:"accepted"`
	Detectors  int      `json:"detectors"`
	Signals    int      `json:"signals"`
	Rules      int      `json:"rules"`
}

func runLexiconCheck(cmd *cobra.Command, path string) error {
	lex, err := lexicon.LoadFile(path)
	if err != nil {
		return fmt.Errorf("check lexicon: %w", err)
	}

	source := path
	if source == "" {
		source = "embedded"
	}
	accepted := make([]string, 0, len(lex.Accepted()))
	for _, c := range lex.Accepted() {
		accepted = append(accepted, string(c))
	}
	return writeJSON(cmd.OutOrStdout(), lexiconSummary{
		Source:     source,
		Version:    lex.Version(),
		Languages:  len(lex.Languages()),
		Categories: len(lex.Categories()),
		Accepted:   accepted,
		Detectors:  len(lex.Detectors()),
		Signals:    len(lex.Signals()),
		Rules:      len(lex.Rules()),
	})
}
