// Package normalize turns an uploaded file into a capped sequence of page
// images, whatever container format it arrived in.
package normalize

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/ports"
)

type Kind int

const (
	KindUnsupported Kind = iota
	KindImage
	KindPDF
	KindOffice
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	case KindOffice:
		return "office"
	default:
		return "unsupported"
	}
}

var (
	DefaultImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/bmp", "image/webp", "image/tiff"}
	DefaultPDFTypes   = []string{"application/pdf"}
)

var DefaultOfficeTypes = []string{
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

const DefaultMaxPages = 3

// Options selects the accepted media types per family. A nil set keeps the
// defaults; an empty non-nil set disables the family.
type Options struct {
	ImageTypes  []string
	PDFTypes    []string
	OfficeTypes []string
	MaxPages    int
}

type Normalizer struct {
	renderer  ports.PDFRenderer
	converter ports.OfficeConverter
	kinds     map[string]Kind
	maxPages  int
	logger    *slog.Logger
}

func New(renderer ports.PDFRenderer, converter ports.OfficeConverter, opts Options, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	n := &Normalizer{
		renderer:  renderer,
		converter: converter,
		kinds:     make(map[string]Kind),
		maxPages:  opts.MaxPages,
		logger:    logger,
	}
	register := func(types, fallback []string, k Kind) {
		if types == nil {
			types = fallback
		}
		for _, t := range types {
			n.kinds[strings.ToLower(strings.TrimSpace(t))] = k
		}
	}
	register(opts.ImageTypes, DefaultImageTypes, KindImage)
	register(opts.PDFTypes, DefaultPDFTypes, KindPDF)
	register(opts.OfficeTypes, DefaultOfficeTypes, KindOffice)
	return n
}

func (n *Normalizer) MaxPages() int { return n.maxPages }

// KindOf classifies a declared media type. Content is never sniffed.
func (n *Normalizer) KindOf(mediaType string) Kind {
	return n.kinds[domain.ValidationInput{MediaType: mediaType}.NormalizedMediaType()]
}

func (n *Normalizer) Supports(mediaType string) bool {
	return n.KindOf(mediaType) != KindUnsupported
}

// Normalize produces at most MaxPages page images. The caller owns the
// returned pages and must release them.
func (n *Normalizer) Normalize(ctx context.Context, in domain.ValidationInput) ([]*domain.PageImage, error) {
	kind := n.KindOf(in.MediaType)
	var (
		pages []*domain.PageImage
		err   error
	)
	switch kind {
	case KindImage:
		pages, err = n.normalizeImage(in)
	case KindPDF:
		pages, err = n.normalizePDF(ctx, in)
	case KindOffice:
		pages, err = n.normalizeOffice(ctx, in)
	default:
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "normalize", errUnsupported(in.MediaType))
	}
	if err != nil {
		return nil, err
	}
	return capPages(pages, n.maxPages), nil
}

func capPages(pages []*domain.PageImage, maxPages int) []*domain.PageImage {
	if len(pages) <= maxPages {
		return pages
	}
	domain.ReleasePages(pages[maxPages:])
	return pages[:maxPages]
}
