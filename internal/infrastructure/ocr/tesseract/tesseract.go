//go:build ocr

// Package tesseract recognizes page text locally with Tesseract via
// gosseract. It is compiled only with the "ocr" build tag and needs the
// tesseract libraries and the configured traineddata installed.
package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/ports"
)

type Config struct {
	// Languages are tesseract codes such as "heb" and "eng".
	Languages []string
	// Workers bounds concurrent recognitions; each holds its own engine.
	Workers int
}

// Recognizer keeps a pool of engines because a gosseract client is not
// safe for concurrent use.
type Recognizer struct {
	pool   chan *gosseract.Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Recognizer, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recognizer{pool: make(chan *gosseract.Client, cfg.Workers), logger: logger}
	for range cfg.Workers {
		client := gosseract.NewClient()
		if err := client.SetLanguage(cfg.Languages...); err != nil {
			_ = client.Close()
			_ = r.Close()
			return nil, domain.WrapError(domain.ErrInvalidConfig, "tesseract set language", err)
		}
		r.pool <- client
	}
	return r, nil
}

func (r *Recognizer) Close() error {
	for {
		select {
		case c := <-r.pool:
			_ = c.Close()
		default:
			return nil
		}
	}
}

// Recognize ignores language hints; languages are fixed per engine. The
// engine cannot be interrupted, so on cancellation the call returns early
// and the engine rejoins the pool when it finishes.
func (r *Recognizer) Recognize(ctx context.Context, page *domain.PageImage, _ []string) (ports.Recognition, error) {
	data, err := page.Bytes()
	if err != nil {
		return ports.Recognition{}, err
	}

	var client *gosseract.Client
	select {
	case client = <-r.pool:
	case <-ctx.Done():
		return ports.Recognition{}, ctx.Err()
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() { r.pool <- client }()
		if err := client.SetImageFromBytes(data); err != nil {
			done <- result{err: fmt.Errorf("tesseract set image: %w", err)}
			return
		}
		text, err := client.Text()
		if err != nil {
			done <- result{err: fmt.Errorf("tesseract recognize: %w", err)}
			return
		}
		done <- result{text: strings.TrimSpace(text)}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return ports.Recognition{}, res.err
		}
		r.logger.Debug("tesseract_page_recognized", "page", page.Index, "text_bytes", len(res.text))
		return ports.Recognition{Text: res.text}, nil
	case <-ctx.Done():
		return ports.Recognition{}, ctx.Err()
	}
}
