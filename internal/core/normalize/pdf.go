package normalize

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/docgate/internal/core/domain"
)

var errNoPages = errors.New("document has no pages")

// CountPDFPages reads the page tree from memory. The parser panics on some
// malformed inputs, so panics are turned into errors.
func CountPDFPages(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %w", err)
	}
	return reader.NumPage(), nil
}

func (n *Normalizer) normalizePDF(ctx context.Context, in domain.ValidationInput) ([]*domain.PageImage, error) {
	if len(in.Data) == 0 {
		return nil, domain.WrapError(domain.ErrCorruptInput, "read pdf", errNoPages)
	}
	last := n.maxPages
	count, err := CountPDFPages(in.Data)
	switch {
	case err != nil:
		// Encrypted or unusual files can defeat the parser but still render.
		n.logger.Warn("pdf_page_count_failed", "error", err, "filename", in.Filename)
	case count == 0:
		return nil, domain.WrapError(domain.ErrCorruptInput, "read pdf", errNoPages)
	case count < last:
		last = count
	}

	pages, err := n.renderer.RenderPDF(ctx, in.Data, last)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCorruptInput, "render pdf", err)
	}
	if len(pages) == 0 {
		return nil, domain.WrapError(domain.ErrCorruptInput, "render pdf", errNoPages)
	}
	return pages, nil
}
