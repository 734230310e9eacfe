package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/docgate/internal/core/domain"
)

// Label is an image label with its detection confidence.
type Label struct {
	Name  string
	Score float64
}

// Recognition is the raw output of one OCR call.
type Recognition struct {
	Text   string
	Labels []Label
}

// PageRecognizer runs OCR and labeling on a single page.
type PageRecognizer interface {
	Recognize(ctx context.Context, page *domain.PageImage, languageHints []string) (Recognition, error)
}

// PDFRenderer rasterizes the first pages of a PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, data []byte, lastPage int) ([]*domain.PageImage, error)
	RenderPDFFile(ctx context.Context, path string, lastPage int) ([]*domain.PageImage, error)
}

// OfficeConverter converts an office document on disk to PDF and returns the output path.
type OfficeConverter interface {
	ConvertToPDF(ctx context.Context, inputPath, outputDir string) (string, error)
}

// Normalizer turns an upload into at most N page images.
type Normalizer interface {
	Supports(mediaType string) bool
	Normalize(ctx context.Context, in domain.ValidationInput) ([]*domain.PageImage, error)
}

// PageAnalyzer extracts text and label confidence from page images.
type PageAnalyzer interface {
	Analyze(ctx context.Context, pages []*domain.PageImage) (domain.DocumentText, error)
}

// Classifier scores text against the lexicon.
type Classifier interface {
	Classify(text string, labelConfidence float64) domain.Classification
	IsAccepted(c domain.Category) bool
	Version() string
}

// ValidationRepository persists validation records.
type ValidationRepository interface {
	Create(ctx context.Context, rec *domain.ValidationRecord) error
	GetByID(ctx context.Context, id string) (*domain.ValidationRecord, error)
	UpdateStatus(ctx context.Context, id string, status domain.ValidationStatus, errMessage string) error
	SaveOutcome(ctx context.Context, rec *domain.ValidationRecord) error
}

// ObjectStorage stores quarantined uploads.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes validation events.
type MessageQueue interface {
	PublishValidationRequested(ctx context.Context, validationID string) error
	SubscribeValidationRequested(ctx context.Context, handler func(context.Context, string) error) error
	PublishValidationDecided(ctx context.Context, decision domain.Decision) error
}

// ValidationObserver receives pipeline telemetry.
type ValidationObserver interface {
	ObserveStage(stage domain.Stage, d time.Duration)
	ObserveOutcome(outcome domain.Outcome, d time.Duration)
}
