package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/ports"
)

type normalizerFake struct {
	supported bool
	pages     []*domain.PageImage
	err       error
	calls     int
}

func (f *normalizerFake) Supports(string) bool { return f.supported }

func (f *normalizerFake) Normalize(context.Context, domain.ValidationInput) ([]*domain.PageImage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

type analyzerFake struct {
	doc   domain.DocumentText
	err   error
	calls int
}

func (f *analyzerFake) Analyze(context.Context, []*domain.PageImage) (domain.DocumentText, error) {
	f.calls++
	if f.err != nil {
		return domain.DocumentText{}, f.err
	}
	return f.doc, nil
}

type classifierFake struct {
	cls      domain.Classification
	accepted map[domain.Category]bool
	panicMsg string
	calls    int
}

func (f *classifierFake) Classify(string, float64) domain.Classification {
	f.calls++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.cls
}

func (f *classifierFake) IsAccepted(c domain.Category) bool { return f.accepted[c] }

func (f *classifierFake) Version() string { return "test-lexicon" }

type observerFake struct {
	mu       sync.Mutex
	stages   []domain.Stage
	outcomes []domain.Outcome
}

func (f *observerFake) ObserveStage(stage domain.Stage, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages = append(f.stages, stage)
}

func (f *observerFake) ObserveOutcome(o domain.Outcome, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, o)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func onePage() []*domain.PageImage {
	return []*domain.PageImage{domain.NewPageImage(1, "png", 1, 1, []byte("x"))}
}

func newGateUseCase(n *normalizerFake, a *analyzerFake, c *classifierFake, o ports.ValidationObserver) *ValidateDocumentUseCase {
	return NewValidateDocumentUseCase(n, a, c, o, GateConfig{MinChars: 64, Threshold: 3.2}, discardLogger())
}

func longDoc(conf float64) domain.DocumentText {
	return domain.DocumentText{Text: "statement", Chars: 200, LabelConfidence: conf}
}

func TestValidateAccepts(t *testing.T) {
	obs := &observerFake{}
	c := &classifierFake{
		cls:      domain.Classification{Category: "bank_statement", Score: 4.1},
		accepted: map[domain.Category]bool{"bank_statement": true},
	}
	uc := newGateUseCase(&normalizerFake{supported: true, pages: onePage()}, &analyzerFake{doc: longDoc(0.3)}, c, obs)

	out := uc.Validate(context.Background(), domain.ValidationInput{Data: []byte("x"), MediaType: "image/png"})
	if !out.Accepted || out.Reason != domain.ReasonNone || out.Stage != domain.StageDecided {
		t.Fatalf("expected acceptance, got %+v", out)
	}
	if out.Classification == nil || out.Classification.Category != "bank_statement" {
		t.Fatalf("expected classification in outcome, got %+v", out.Classification)
	}
	if out.LexiconVersion != "test-lexicon" || out.Pages != 1 || out.Chars != 200 {
		t.Fatalf("unexpected outcome details: %+v", out)
	}
	if len(obs.stages) != 3 || len(obs.outcomes) != 1 {
		t.Fatalf("unexpected observations: stages=%v outcomes=%d", obs.stages, len(obs.outcomes))
	}
	if out.Err() != nil {
		t.Fatalf("accepted outcome must not carry an error")
	}
}

func TestValidateInsufficientContentIgnoresLabelConfidence(t *testing.T) {
	c := &classifierFake{accepted: map[domain.Category]bool{}}
	a := &analyzerFake{doc: domain.DocumentText{Text: "short", Chars: 5, LabelConfidence: 0.99}}
	uc := newGateUseCase(&normalizerFake{supported: true, pages: onePage()}, a, c, nil)

	out := uc.Validate(context.Background(), domain.ValidationInput{MediaType: "image/png"})
	if out.Accepted || out.Reason != domain.ReasonInsufficientContent {
		t.Fatalf("expected insufficient_content, got %+v", out)
	}
	if c.calls != 0 {
		t.Fatalf("classification must not run below the floor")
	}
	if !errors.Is(out.Err(), domain.ErrInsufficientContent) {
		t.Fatalf("unexpected Err(): %v", out.Err())
	}
}

func TestValidateUnsupportedSkipsNormalization(t *testing.T) {
	n := &normalizerFake{supported: false}
	uc := newGateUseCase(n, &analyzerFake{}, &classifierFake{}, nil)

	out := uc.Validate(context.Background(), domain.ValidationInput{MediaType: "text/plain"})
	if out.Reason != domain.ReasonUnsupportedFormat || out.Stage != domain.StageReceived {
		t.Fatalf("expected unsupported_format at received, got %+v", out)
	}
	if n.calls != 0 {
		t.Fatalf("normalizer must not run for unsupported types")
	}
}

func TestValidateGateRejections(t *testing.T) {
	cases := []struct {
		name   string
		cls    domain.Classification
		reason domain.ReasonCode
	}{
		{
			name:   "unaccepted category with high score",
			cls:    domain.Classification{Category: "building_permit", Score: 9.5},
			reason: domain.ReasonCategoryNotAccepted,
		},
		{
			name:   "accepted category below threshold",
			cls:    domain.Classification{Category: "invoice", Score: 3.19},
			reason: domain.ReasonBelowThreshold,
		},
		{
			name:   "no category",
			cls:    domain.Classification{},
			reason: domain.ReasonCategoryNotAccepted,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &classifierFake{cls: tc.cls, accepted: map[domain.Category]bool{"invoice": true}}
			uc := newGateUseCase(&normalizerFake{supported: true, pages: onePage()}, &analyzerFake{doc: longDoc(0)}, c, nil)
			out := uc.Validate(context.Background(), domain.ValidationInput{MediaType: "image/png"})
			if out.Accepted || out.Reason != tc.reason {
				t.Fatalf("expected %s, got %+v", tc.reason, out)
			}
			if out.Classification == nil {
				t.Fatalf("gate rejections keep the classification")
			}
		})
	}
}

func TestValidateThresholdIsInclusive(t *testing.T) {
	c := &classifierFake{
		cls:      domain.Classification{Category: "invoice", Score: 3.2},
		accepted: map[domain.Category]bool{"invoice": true},
	}
	uc := newGateUseCase(&normalizerFake{supported: true, pages: onePage()}, &analyzerFake{doc: longDoc(0)}, c, nil)
	if out := uc.Validate(context.Background(), domain.ValidationInput{MediaType: "image/png"}); !out.Accepted {
		t.Fatalf("score equal to threshold must be accepted, got %+v", out)
	}
}

func TestValidatePropagatesTypedFailures(t *testing.T) {
	cases := []struct {
		name   string
		n      *normalizerFake
		a      *analyzerFake
		reason domain.ReasonCode
		stage  domain.Stage
	}{
		{
			name:   "corrupt input",
			n:      &normalizerFake{supported: true, err: domain.WrapError(domain.ErrCorruptInput, "decode", errors.New("bad png"))},
			a:      &analyzerFake{},
			reason: domain.ReasonCorruptInput,
			stage:  domain.StageReceived,
		},
		{
			name:   "external service",
			n:      &normalizerFake{supported: true, pages: onePage()},
			a:      &analyzerFake{err: domain.WrapError(domain.ErrExternalService, "ocr", context.DeadlineExceeded)},
			reason: domain.ReasonExternalService,
			stage:  domain.StageNormalized,
		},
		{
			name:   "unclassified error",
			n:      &normalizerFake{supported: true, err: errors.New("disk on fire")},
			a:      &analyzerFake{},
			reason: domain.ReasonInternalError,
			stage:  domain.StageReceived,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := newGateUseCase(tc.n, tc.a, &classifierFake{}, nil)
			out := uc.Validate(context.Background(), domain.ValidationInput{MediaType: "application/pdf"})
			if out.Accepted || out.Reason != tc.reason || out.Stage != tc.stage {
				t.Fatalf("expected %s at %s, got %+v", tc.reason, tc.stage, out)
			}
			if out.Detail == "" {
				t.Fatalf("expected diagnostic detail")
			}
		})
	}
}

func TestValidateRecoversFromPanics(t *testing.T) {
	c := &classifierFake{panicMsg: "nil map"}
	uc := newGateUseCase(&normalizerFake{supported: true, pages: onePage()}, &analyzerFake{doc: longDoc(0)}, c, nil)

	out := uc.Validate(context.Background(), domain.ValidationInput{MediaType: "image/png"})
	if out.Accepted || out.Reason != domain.ReasonInternalError {
		t.Fatalf("expected internal_error rejection, got %+v", out)
	}
	if out.Stage != domain.StageAnalyzed {
		t.Fatalf("expected panic at analyzed stage, got %s", out.Stage)
	}
}

func TestValidateReleasesPages(t *testing.T) {
	pages := onePage()
	uc := newGateUseCase(
		&normalizerFake{supported: true, pages: pages},
		&analyzerFake{err: domain.WrapError(domain.ErrExternalService, "ocr", errors.New("503"))},
		&classifierFake{},
		nil,
	)
	_ = uc.Validate(context.Background(), domain.ValidationInput{MediaType: "image/png"})
	if !pages[0].Released() {
		t.Fatalf("expected page to be released after a failed analysis")
	}
}
