package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/ports"
)

const (
	DefaultMinChars  = 64
	DefaultThreshold = 3.2
)

type GateConfig struct {
	// MinChars is the floor on extracted characters below which
	// classification is not attempted.
	MinChars  int
	Threshold float64
}

// ValidateDocumentUseCase runs normalize, analyze, score and gate for one
// upload. It is fail-closed: every failure, panics included, becomes a
// rejected outcome with a reason code.
type ValidateDocumentUseCase struct {
	normalizer ports.Normalizer
	analyzer   ports.PageAnalyzer
	classifier ports.Classifier
	observer   ports.ValidationObserver
	gate       GateConfig
	logger     *slog.Logger
}

func NewValidateDocumentUseCase(
	normalizer ports.Normalizer,
	analyzer ports.PageAnalyzer,
	classifier ports.Classifier,
	observer ports.ValidationObserver,
	gate GateConfig,
	logger *slog.Logger,
) *ValidateDocumentUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidateDocumentUseCase{
		normalizer: normalizer,
		analyzer:   analyzer,
		classifier: classifier,
		observer:   observer,
		gate:       gate,
		logger:     logger,
	}
}

func (uc *ValidateDocumentUseCase) Validate(ctx context.Context, in domain.ValidationInput) (out domain.Outcome) {
	logger := uc.logger.With("validation_id", in.ID, "media_type", in.MediaType, "filename", in.Filename)
	started := time.Now()
	stage := domain.StageReceived

	defer func() {
		if r := recover(); r != nil {
			logger.Error("validation_panic", "stage", stage, "panic", r, "stack", string(debug.Stack()))
			out = uc.reject(logger, out, stage, fmt.Errorf("panic during %s stage: %v", stage, r))
		}
		out.LexiconVersion = uc.classifier.Version()
		uc.observer.ObserveOutcome(out, time.Since(started))
		logger.Info("validation_decided",
			"accepted", out.Accepted,
			"reason", out.Reason,
			"stage", out.Stage,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}()

	if !uc.normalizer.Supports(in.MediaType) {
		err := domain.WrapError(domain.ErrUnsupportedFormat, "validate", fmt.Errorf("media type %q is not accepted", in.MediaType))
		return uc.reject(logger, out, stage, err)
	}

	stageStarted := time.Now()
	pages, err := uc.normalizer.Normalize(ctx, in)
	defer domain.ReleasePages(pages)
	if err != nil {
		return uc.reject(logger, out, stage, err)
	}
	stage = uc.advance(domain.StageNormalized, stageStarted)
	out.Pages = len(pages)

	stageStarted = time.Now()
	doc, err := uc.analyzer.Analyze(ctx, pages)
	if err != nil {
		return uc.reject(logger, out, stage, err)
	}
	stage = uc.advance(domain.StageAnalyzed, stageStarted)
	out.Chars = doc.Chars
	out.LabelConfidence = doc.LabelConfidence

	if doc.Chars < uc.gate.MinChars {
		err := domain.WrapError(domain.ErrInsufficientContent, "validate",
			fmt.Errorf("extracted %d characters, need at least %d", doc.Chars, uc.gate.MinChars))
		return uc.reject(logger, out, stage, err)
	}

	stageStarted = time.Now()
	cls := uc.classifier.Classify(doc.Text, doc.LabelConfidence)
	stage = uc.advance(domain.StageScored, stageStarted)
	out.Classification = &cls
	logger.Debug("document_scored", "category", cls.Category, "score", cls.Score, "scores", cls.Scores)

	if err := uc.decide(cls); err != nil {
		return uc.reject(logger, out, stage, err)
	}
	out.Accepted = true
	out.Stage = domain.StageDecided
	return out
}

func (uc *ValidateDocumentUseCase) decide(cls domain.Classification) error {
	if cls.Category == "" || !uc.classifier.IsAccepted(cls.Category) {
		return domain.WrapError(domain.ErrCategoryNotAccepted, "gate",
			fmt.Errorf("best category %q is not accepted", cls.Category))
	}
	if cls.Score < uc.gate.Threshold {
		return domain.WrapError(domain.ErrBelowThreshold, "gate",
			fmt.Errorf("score %.2f for %q below threshold %.2f", cls.Score, cls.Category, uc.gate.Threshold))
	}
	return nil
}

func (uc *ValidateDocumentUseCase) advance(stage domain.Stage, started time.Time) domain.Stage {
	uc.observer.ObserveStage(stage, time.Since(started))
	return stage
}

func (uc *ValidateDocumentUseCase) reject(logger *slog.Logger, out domain.Outcome, stage domain.Stage, err error) domain.Outcome {
	out.Accepted = false
	out.Stage = stage
	out.Reason = domain.ReasonFor(err)
	out.Detail = err.Error()
	if out.Reason == domain.ReasonInternalError {
		logger.Error("validation_failed", "stage", stage, "error", err)
	} else if errors.Is(err, domain.ErrExternalService) {
		logger.Warn("validation_rejected", "stage", stage, "reason", out.Reason, "error", err)
	} else {
		logger.Info("validation_rejected", "stage", stage, "reason", out.Reason, "error", err)
	}
	return out
}

type noopObserver struct{}

func (noopObserver) ObserveStage(domain.Stage, time.Duration) {}
func (noopObserver) ObserveOutcome(domain.Outcome, time.Duration) {}
