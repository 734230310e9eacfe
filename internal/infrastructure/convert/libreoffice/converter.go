// Package libreoffice converts office documents to PDF with a headless soffice.
package libreoffice

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirillkom/docgate/internal/infrastructure/command"
)

type Config struct {
	Binary  string
	Timeout time.Duration
}

type Converter struct {
	cfg    Config
	runner command.Runner
	logger *slog.Logger
}

func NewConverter(cfg Config, runner command.Runner, logger *slog.Logger) *Converter {
	if cfg.Binary == "" {
		cfg.Binary = "soffice"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = command.NewExecRunner(logger)
	}
	return &Converter{cfg: cfg, runner: runner, logger: logger}
}

// ConvertToPDF writes <stem>.pdf into outputDir. Each call gets its own
// soffice profile under outputDir so concurrent conversions do not contend
// for the user installation lock.
func (c *Converter) ConvertToPDF(ctx context.Context, inputPath, outputDir string) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	profile := filepath.Join(outputDir, "profile")
	args := []string{
		"-env:UserInstallation=file://" + filepath.ToSlash(profile),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outputDir,
		inputPath,
	}
	start := time.Now()
	_, stderr, err := c.runner.Run(ctx, nil, c.cfg.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("soffice: %w: %s", err, command.Truncate(strings.TrimSpace(string(stderr)), 512))
	}

	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	out := filepath.Join(outputDir, stem+".pdf")
	info, err := os.Stat(out)
	if err != nil {
		return "", fmt.Errorf("soffice produced no pdf: %w", err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("soffice produced an empty pdf")
	}
	c.logger.Debug("office_converted", "input", filepath.Base(inputPath), "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}
