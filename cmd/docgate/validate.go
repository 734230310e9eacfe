package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kirillkom/docgate/internal/bootstrap"
	"github.com/kirillkom/docgate/internal/config"
	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/usecase"
	"github.com/kirillkom/docgate/internal/observability/logging"
)

// errRejected makes the process exit with status 2 after the outcome is printed.
var errRejected = errors.New("document rejected")

var mimeOverride string

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Validate a local document and print the outcome as JSON",
	Long: `Validate runs the full pipeline on FILE without storing it.

The exit status is 0 when the document is accepted, 2 when it is rejected
and 1 when it could not be read or the pipeline could not start.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd, config.Load(), args[0], mimeOverride)
	},
}

func init() {
	validateCmd.Flags().StringVar(&mimeOverride, "mime", "", "media type override (default: detected from name and content)")
}

type validateOutput struct {
	File      string         `json:"file"`
	MediaType string         `json:"media_type"`
	Outcome   domain.Outcome `json:"outcome"`
}

func runValidate(cmd *cobra.Command, cfg config.Config, path, mediaType string) error {
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger := logging.NewJSONLoggerTo(cmd.ErrOrStderr(), "docgate-cli", cfg.LogLevel)

	in, err := usecase.LoadLocalInput(path, mediaType, cfg.APIMaxUploadBytes)
	if err != nil {
		return err
	}

	pipeline, err := bootstrap.NewPipeline(cfg, nil, logger)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	outcome := pipeline.Validator.Validate(cmd.Context(), in)
	if err := writeJSON(cmd.OutOrStdout(), validateOutput{File: path, MediaType: in.MediaType, Outcome: outcome}); err != nil {
		return err
	}
	if !outcome.Accepted {
		return fmt.Errorf("%w: %s", errRejected, outcome.Reason)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

