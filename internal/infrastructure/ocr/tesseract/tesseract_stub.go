//go:build !ocr

// Package tesseract recognizes page text locally with Tesseract. This build
// was compiled without the "ocr" tag, so New always fails.
package tesseract

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/ports"
)

var ErrOCRNotEnabled = errors.New("tesseract support not compiled in; rebuild with -tags ocr")

type Config struct {
	Languages []string
	Workers   int
}

type Recognizer struct{}

func New(Config, *slog.Logger) (*Recognizer, error) {
	return nil, domain.WrapError(domain.ErrInvalidConfig, "tesseract", ErrOCRNotEnabled)
}

func (*Recognizer) Close() error { return nil }

func (*Recognizer) Recognize(context.Context, *domain.PageImage, []string) (ports.Recognition, error) {
	return ports.Recognition{}, ErrOCRNotEnabled
}
