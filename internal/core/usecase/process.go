package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/normalize"
	"github.com/kirillkom/docgate/internal/core/ports"
)

// ProcessValidationUseCase decides a queued upload, records the decision,
// purges the quarantined bytes and announces the result.
type ProcessValidationUseCase struct {
	repo      ports.ValidationRepository
	storage   ports.ObjectStorage
	validator ports.DocumentValidator
	queue     ports.MessageQueue
	logger    *slog.Logger
}

func NewProcessValidationUseCase(
	repo ports.ValidationRepository,
	storage ports.ObjectStorage,
	validator ports.DocumentValidator,
	queue ports.MessageQueue,
	logger *slog.Logger,
) *ProcessValidationUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessValidationUseCase{
		repo:      repo,
		storage:   storage,
		validator: validator,
		queue:     queue,
		logger:    logger,
	}
}

func (uc *ProcessValidationUseCase) ProcessByID(ctx context.Context, validationID string) error {
	rec, err := uc.loadRecord(ctx, validationID)
	if err != nil {
		return err
	}
	if rec.Status != domain.StatusPending {
		// Redelivered message for a validation that is already decided.
		uc.logger.Info("validation_already_decided", "validation_id", rec.ID, "status", rec.Status)
		return nil
	}

	data, err := uc.loadUpload(ctx, rec)
	if err != nil {
		if failErr := uc.markFailed(ctx, rec.ID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	outcome := uc.validator.Validate(ctx, domain.ValidationInput{
		ID:        rec.ID,
		Data:      data,
		MediaType: rec.MediaType,
		Filename:  rec.Filename,
	})
	rec.ApplyOutcome(outcome)
	rec.UpdatedAt = time.Now().UTC()

	if err := uc.repo.SaveOutcome(ctx, rec); err != nil {
		err = fmt.Errorf("save outcome: %w", err)
		if failErr := uc.markFailed(ctx, rec.ID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	uc.purge(ctx, rec)

	decision := domain.Decision{
		ID:       rec.ID,
		Accepted: outcome.Accepted,
		Reason:   outcome.Reason,
		Category: rec.Category,
		Score:    rec.Score,
	}
	if err := uc.queue.PublishValidationDecided(ctx, decision); err != nil {
		return fmt.Errorf("publish decision: %w", err)
	}
	return nil
}

func (uc *ProcessValidationUseCase) loadRecord(ctx context.Context, validationID string) (*domain.ValidationRecord, error) {
	rec, err := uc.repo.GetByID(ctx, validationID)
	if err != nil {
		return nil, fmt.Errorf("fetch validation by id: %w", err)
	}
	return rec, nil
}

func (uc *ProcessValidationUseCase) loadUpload(ctx context.Context, rec *domain.ValidationRecord) ([]byte, error) {
	rc, err := uc.storage.Open(ctx, rec.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open quarantined upload: %w", err)
	}
	defer rc.Close()

	data, err := normalize.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read quarantined upload: %w", err)
	}
	return data, nil
}

func (uc *ProcessValidationUseCase) purge(ctx context.Context, rec *domain.ValidationRecord) {
	if rec.StoragePath == "" {
		return
	}
	if err := uc.storage.Delete(ctx, rec.StoragePath); err != nil {
		uc.logger.Warn("quarantine_purge_failed", "validation_id", rec.ID, "key", rec.StoragePath, "error", err)
	}
}

func (uc *ProcessValidationUseCase) markFailed(ctx context.Context, validationID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.repo.UpdateStatus(ctx, validationID, domain.StatusFailed, processErr.Error())
}
