package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/docgate/internal/core/domain"
)

func acceptedOutcome() domain.Outcome {
	return domain.Outcome{
		Accepted:       true,
		Stage:          domain.StageDecided,
		LexiconVersion: "v1",
		Classification: &domain.Classification{Category: "invoice", Score: 4.2},
	}
}

func TestSubmitValidatePersistsOutcome(t *testing.T) {
	repo := newRepoFake()
	v := &validatorFake{outcome: acceptedOutcome()}
	uc := NewSubmitValidationUseCase(v, repo, newStorageFake(), &queueFake{}, discardLogger())

	rec, out, err := uc.Validate(context.Background(), "invoice.pdf", "application/pdf", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !out.Accepted || rec.Status != domain.StatusAccepted || rec.Category != "invoice" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(v.inputs) != 1 || string(v.inputs[0].Data) != "%PDF" || v.inputs[0].ID != rec.ID {
		t.Fatalf("unexpected validator input: %+v", v.inputs)
	}
	if _, ok := repo.records[rec.ID]; !ok {
		t.Fatalf("expected record to be persisted")
	}
}

func TestSubmitValidateRecordsRejection(t *testing.T) {
	v := &validatorFake{outcome: domain.Outcome{Reason: domain.ReasonUnsupportedFormat, Detail: "text/plain", Stage: domain.StageReceived}}
	uc := NewSubmitValidationUseCase(v, newRepoFake(), newStorageFake(), &queueFake{}, discardLogger())

	rec, out, err := uc.Validate(context.Background(), "notes.txt", "text/plain", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if out.Accepted || rec.Status != domain.StatusRejected || rec.Reason != domain.ReasonUnsupportedFormat {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestSubmitValidateNilBody(t *testing.T) {
	uc := NewSubmitValidationUseCase(&validatorFake{}, newRepoFake(), newStorageFake(), &queueFake{}, discardLogger())
	_, _, err := uc.Validate(context.Background(), "x", "image/png", nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEnqueueStoresAndPublishes(t *testing.T) {
	repo := newRepoFake()
	storage := newStorageFake()
	queue := &queueFake{}
	uc := NewSubmitValidationUseCase(&validatorFake{}, repo, storage, queue, discardLogger())

	rec, err := uc.Enqueue(context.Background(), "my scan (1).png", "image/png", strings.NewReader("raw"))
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if rec.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", rec.Status)
	}
	if !strings.HasSuffix(rec.StoragePath, "_my_scan__1_.png") {
		t.Fatalf("unexpected storage key %q", rec.StoragePath)
	}
	if string(storage.objects[rec.StoragePath]) != "raw" {
		t.Fatalf("expected quarantined bytes")
	}
	if len(queue.requested) != 1 || queue.requested[0] != rec.ID {
		t.Fatalf("expected publish of %s, got %v", rec.ID, queue.requested)
	}
}

func TestEnqueueMarksFailedWhenPublishFails(t *testing.T) {
	repo := newRepoFake()
	queue := &queueFake{publishErr: errors.New("nats down")}
	uc := NewSubmitValidationUseCase(&validatorFake{}, repo, newStorageFake(), queue, discardLogger())

	_, err := uc.Enqueue(context.Background(), "a.pdf", "application/pdf", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "publish validation request") {
		t.Fatalf("expected publish error, got %v", err)
	}
	if len(repo.statusCalls) != 1 || repo.statusCalls[0].status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", repo.statusCalls)
	}
}

func TestEnqueueStorageFailure(t *testing.T) {
	storage := newStorageFake()
	storage.saveErr = errors.New("disk full")
	repo := newRepoFake()
	uc := NewSubmitValidationUseCase(&validatorFake{}, repo, storage, &queueFake{}, discardLogger())

	if _, err := uc.Enqueue(context.Background(), "a.pdf", "application/pdf", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.records) != 0 {
		t.Fatalf("no record may be created when quarantine fails")
	}
}

func TestEnqueueRemovesQuarantinedFileWhenRecordFails(t *testing.T) {
	storage := newStorageFake()
	repo := newRepoFake()
	repo.createErr = errors.New("db down")
	queue := &queueFake{}
	uc := NewSubmitValidationUseCase(&validatorFake{}, repo, storage, queue, discardLogger())

	_, err := uc.Enqueue(context.Background(), "a.pdf", "application/pdf", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "create validation record") {
		t.Fatalf("expected create error, got %v", err)
	}
	if len(storage.objects) != 0 {
		t.Fatalf("quarantined file left behind: %v", storage.objects)
	}
	if len(storage.deleted) != 1 || !strings.HasSuffix(storage.deleted[0], "_a.pdf") {
		t.Fatalf("unexpected deletes %v", storage.deleted)
	}
	if len(queue.requested) != 0 {
		t.Fatalf("nothing may be published, got %v", queue.requested)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd": "passwd",
		"דף חשבון.pdf":     "________.pdf",
		"":                 "upload.bin",
		"ok-name_1.PDF":    "ok-name_1.PDF",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
