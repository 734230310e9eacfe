package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docgate/internal/core/domain"
)

// DocumentValidator is the inbound contract for the accept/reject pipeline.
// It never fails: every error becomes a rejected Outcome.
type DocumentValidator interface {
	Validate(ctx context.Context, in domain.ValidationInput) domain.Outcome
}

// ValidationSubmitter validates uploads synchronously or queues them.
type ValidationSubmitter interface {
	Validate(ctx context.Context, filename, mediaType string, body io.Reader) (*domain.ValidationRecord, domain.Outcome, error)
	Enqueue(ctx context.Context, filename, mediaType string, body io.Reader) (*domain.ValidationRecord, error)
}

// ValidationReader is the inbound read model for validation records.
type ValidationReader interface {
	GetByID(ctx context.Context, id string) (*domain.ValidationRecord, error)
}

// ValidationProcessor handles queued validations.
type ValidationProcessor interface {
	ProcessByID(ctx context.Context, validationID string) error
}
