// Package analysis runs OCR and label detection over rendered pages and
// aggregates the per-page results in page order.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/ports"
)

var DefaultLabelAllowlist = []string{"document", "paper", "receipt", "invoice", "text", "book", "page"}

type Options struct {
	LabelAllowlist []string
	LanguageHints  []string
	// Timeout bounds every single recognizer call.
	Timeout     time.Duration
	Parallelism int
}

type Analyzer struct {
	recognizer  ports.PageRecognizer
	allow       map[string]struct{}
	hints       []string
	timeout     time.Duration
	parallelism int
	logger      *slog.Logger
}

func New(recognizer ports.PageRecognizer, opts Options, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	allowlist := opts.LabelAllowlist
	if len(allowlist) == 0 {
		allowlist = DefaultLabelAllowlist
	}
	allow := make(map[string]struct{}, len(allowlist))
	for _, name := range allowlist {
		allow[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	return &Analyzer{
		recognizer:  recognizer,
		allow:       allow,
		hints:       append([]string(nil), opts.LanguageHints...),
		timeout:     opts.Timeout,
		parallelism: opts.Parallelism,
		logger:      logger,
	}
}

// Analyze recognizes every page with bounded parallelism. Any page failure
// fails the whole document with ErrExternalService. Pages are released
// before Analyze returns, whatever the outcome.
func (a *Analyzer) Analyze(ctx context.Context, pages []*domain.PageImage) (domain.DocumentText, error) {
	defer domain.ReleasePages(pages)

	results := make([]domain.PageResult, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)
	for i, page := range pages {
		g.Go(func() (err error) {
			defer page.Close()
			// Recognizers run on this goroutine, out of reach of the
			// pipeline's own recover.
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("page_recognition_panic", "page", page.Index, "panic", r, "stack", string(debug.Stack()))
					err = domain.WrapError(domain.ErrExternalService, fmt.Sprintf("analyze page %d", page.Index),
						fmt.Errorf("recognizer panic: %v", r))
				}
			}()
			res, err := a.AnalyzePage(gctx, page)
			if err != nil {
				return domain.WrapError(domain.ErrExternalService, fmt.Sprintf("analyze page %d", page.Index), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.DocumentText{}, err
	}
	return Aggregate(results), nil
}

// AnalyzePage runs one recognizer call under the configured timeout.
func (a *Analyzer) AnalyzePage(ctx context.Context, page *domain.PageImage) (domain.PageResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	started := time.Now()
	rec, err := a.recognizer.Recognize(callCtx, page, a.hints)
	if err != nil {
		a.logger.Warn("page_recognition_failed",
			"page", page.Index,
			"duration_ms", time.Since(started).Milliseconds(),
			"error", err,
		)
		return domain.PageResult{}, err
	}

	text := strings.TrimSpace(rec.Text)
	res := domain.PageResult{
		Index:           page.Index,
		Text:            text,
		Chars:           utf8.RuneCountInString(text),
		LabelConfidence: a.bestLabel(rec.Labels),
	}
	a.logger.Debug("page_recognized",
		"page", page.Index,
		"chars", res.Chars,
		"label_confidence", res.LabelConfidence,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return res, nil
}

func (a *Analyzer) bestLabel(labels []ports.Label) float64 {
	best := 0.0
	for _, l := range labels {
		if _, ok := a.allow[strings.ToLower(strings.TrimSpace(l.Name))]; !ok {
			continue
		}
		if l.Score > best {
			best = l.Score
		}
	}
	return best
}

// Aggregate joins page texts in order, sums character counts and keeps the
// highest label confidence.
func Aggregate(results []domain.PageResult) domain.DocumentText {
	doc := domain.DocumentText{Pages: results}
	texts := make([]string, 0, len(results))
	for _, r := range results {
		doc.Chars += r.Chars
		if r.LabelConfidence > doc.LabelConfidence {
			doc.LabelConfidence = r.LabelConfidence
		}
		if r.Text != "" {
			texts = append(texts, r.Text)
		}
	}
	doc.Text = norm.NFC.String(strings.Join(texts, "\n"))
	return doc
}
