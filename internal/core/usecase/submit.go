package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/normalize"
	"github.com/kirillkom/docgate/internal/core/ports"
)

// SubmitValidationUseCase accepts uploads either for an immediate decision
// or for the asynchronous worker.
type SubmitValidationUseCase struct {
	validator ports.DocumentValidator
	repo      ports.ValidationRepository
	storage   ports.ObjectStorage
	queue     ports.MessageQueue
	logger    *slog.Logger
}

func NewSubmitValidationUseCase(
	validator ports.DocumentValidator,
	repo ports.ValidationRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	logger *slog.Logger,
) *SubmitValidationUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitValidationUseCase{
		validator: validator,
		repo:      repo,
		storage:   storage,
		queue:     queue,
		logger:    logger,
	}
}

// Validate decides synchronously and records the outcome. A rejection is a
// normal result; the error is reserved for persistence failures.
func (uc *SubmitValidationUseCase) Validate(
	ctx context.Context,
	filename, mediaType string,
	body io.Reader,
) (*domain.ValidationRecord, domain.Outcome, error) {
	data, err := readBody(body)
	if err != nil {
		return nil, domain.Outcome{}, err
	}

	rec := newRecord(filename, mediaType)
	outcome := uc.validator.Validate(ctx, domain.ValidationInput{
		ID:        rec.ID,
		Data:      data,
		MediaType: mediaType,
		Filename:  filename,
	})
	rec.ApplyOutcome(outcome)
	rec.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Create(ctx, rec); err != nil {
		return nil, outcome, fmt.Errorf("create validation record: %w", err)
	}
	return rec, outcome, nil
}

// Enqueue quarantines the upload, records it as pending and hands the id to
// the worker queue.
func (uc *SubmitValidationUseCase) Enqueue(
	ctx context.Context,
	filename, mediaType string,
	body io.Reader,
) (*domain.ValidationRecord, error) {
	data, err := readBody(body)
	if err != nil {
		return nil, err
	}

	rec := newRecord(filename, mediaType)
	rec.StoragePath = fmt.Sprintf("%s_%s", rec.ID, sanitizeFilename(filename))

	if err := uc.storage.Save(ctx, rec.StoragePath, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("save to quarantine: %w", err)
	}
	if err := uc.repo.Create(ctx, rec); err != nil {
		if delErr := uc.storage.Delete(context.WithoutCancel(ctx), rec.StoragePath); delErr != nil {
			uc.logger.Error("quarantine_cleanup_failed", "validation_id", rec.ID, "path", rec.StoragePath, "error", delErr)
		}
		return nil, fmt.Errorf("create validation record: %w", err)
	}
	if err := uc.queue.PublishValidationRequested(ctx, rec.ID); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, rec.ID, domain.StatusFailed, err.Error()); failErr != nil {
			uc.logger.Error("mark_failed_status_failed", "validation_id", rec.ID, "error", failErr)
		}
		return nil, fmt.Errorf("publish validation request: %w", err)
	}

	uc.logger.Info("validation_enqueued", "validation_id", rec.ID, "media_type", mediaType, "size_bytes", len(data))
	return rec, nil
}

func newRecord(filename, mediaType string) *domain.ValidationRecord {
	now := time.Now().UTC()
	return &domain.ValidationRecord{
		ID:        uuid.NewString(),
		Filename:  filename,
		MediaType: mediaType,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func readBody(body io.Reader) ([]byte, error) {
	if body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read upload", errors.New("missing body"))
	}
	data, err := normalize.ReadAll(body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
	}
	return data, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "_" {
		return "upload.bin"
	}
	return base
}
