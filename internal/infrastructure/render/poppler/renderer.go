// Package poppler rasterizes PDF pages with pdftoppm.
package poppler

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/scope"
	"github.com/kirillkom/docgate/internal/infrastructure/command"
)

const pagePrefix = "page"

type Config struct {
	Binary  string
	DPI     int
	Timeout time.Duration
}

type Renderer struct {
	cfg    Config
	runner command.Runner
	logger *slog.Logger
}

func NewRenderer(cfg Config, runner command.Runner, logger *slog.Logger) *Renderer {
	if cfg.Binary == "" {
		cfg.Binary = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = command.NewExecRunner(logger)
	}
	return &Renderer{cfg: cfg, runner: runner, logger: logger}
}

// RenderPDF streams the document to pdftoppm on stdin.
func (r *Renderer) RenderPDF(ctx context.Context, data []byte, lastPage int) ([]*domain.PageImage, error) {
	return r.render(ctx, bytes.NewReader(data), "-", lastPage)
}

func (r *Renderer) RenderPDFFile(ctx context.Context, path string, lastPage int) ([]*domain.PageImage, error) {
	return r.render(ctx, nil, path, lastPage)
}

func (r *Renderer) render(ctx context.Context, stdin io.Reader, source string, lastPage int) ([]*domain.PageImage, error) {
	if lastPage <= 0 {
		return nil, fmt.Errorf("render pdf: last page must be positive, got %d", lastPage)
	}
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	var pages []*domain.PageImage
	err := scope.Use(scope.TempDir("docgate-render-"), func(dir string) error {
		prefix := filepath.Join(dir, pagePrefix)
		args := []string{
			"-png",
			"-r", strconv.Itoa(r.cfg.DPI),
			"-f", "1",
			"-l", strconv.Itoa(lastPage),
			source, prefix,
		}
		_, stderr, err := r.runner.Run(ctx, stdin, r.cfg.Binary, args...)
		if err != nil {
			return fmt.Errorf("pdftoppm: %w: %s", err, command.Truncate(strings.TrimSpace(string(stderr)), 512))
		}

		files, err := renderedPages(dir)
		if err != nil {
			return err
		}
		if len(files) > lastPage {
			files = files[:lastPage]
		}
		for i, file := range files {
			page, err := loadPage(i+1, file)
			if err != nil {
				domain.ReleasePages(pages)
				pages = nil
				return err
			}
			pages = append(pages, page)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("pdf_rendered", "pages", len(pages), "last_page", lastPage, "dpi", r.cfg.DPI)
	return pages, nil
}

// renderedPages lists page-N.png outputs ordered by N. pdftoppm zero-pads
// the number to the width of the document's page count, so lexical order
// is not enough across documents.
func renderedPages(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pagePrefix+"-*.png"))
	if err != nil {
		return nil, fmt.Errorf("list rendered pages: %w", err)
	}
	type numbered struct {
		n    int
		path string
	}
	out := make([]numbered, 0, len(matches))
	for _, m := range matches {
		base := strings.TrimSuffix(filepath.Base(m), ".png")
		n, err := strconv.Atoi(strings.TrimPrefix(base, pagePrefix+"-"))
		if err != nil {
			continue
		}
		out = append(out, numbered{n: n, path: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].n < out[j].n })

	paths := make([]string, len(out))
	for i, p := range out {
		paths[i] = p.path
	}
	return paths, nil
}

func loadPage(index int, path string) (*domain.PageImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rendered page %d: %w", index+1, err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode rendered page %d: %w", index+1, err)
	}
	return domain.NewPageImage(index, "png", cfg.Width, cfg.Height, data), nil
}
