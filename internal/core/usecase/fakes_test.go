package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/kirillkom/docgate/internal/core/domain"
)

type statusCall struct {
	status domain.ValidationStatus
	errMsg string
}

type repoFake struct {
	mu          sync.Mutex
	records     map[string]*domain.ValidationRecord
	createErr   error
	getErr      error
	saveErr     error
	statusCalls []statusCall
	saved       []*domain.ValidationRecord
}

func newRepoFake() *repoFake {
	return &repoFake{records: map[string]*domain.ValidationRecord{}}
}

func (f *repoFake) Create(_ context.Context, rec *domain.ValidationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	copyRec := *rec
	f.records[rec.ID] = &copyRec
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.ValidationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get validation", errors.New(id))
	}
	copyRec := *rec
	return &copyRec, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, id string, status domain.ValidationStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if rec, ok := f.records[id]; ok {
		rec.Status = status
		rec.Error = errMessage
	}
	return nil
}

func (f *repoFake) SaveOutcome(_ context.Context, rec *domain.ValidationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	copyRec := *rec
	f.records[rec.ID] = &copyRec
	f.saved = append(f.saved, &copyRec)
	return nil
}

type storageFake struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
	deleted []string
}

func newStorageFake() *storageFake {
	return &storageFake{objects: map[string][]byte{}}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "open object", errors.New(key))
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type queueFake struct {
	requested  []string
	decisions  []domain.Decision
	publishErr error
}

func (f *queueFake) PublishValidationRequested(_ context.Context, id string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.requested = append(f.requested, id)
	return nil
}

func (f *queueFake) SubscribeValidationRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

func (f *queueFake) PublishValidationDecided(_ context.Context, d domain.Decision) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.decisions = append(f.decisions, d)
	return nil
}

type validatorFake struct {
	outcome domain.Outcome
	inputs  []domain.ValidationInput
}

func (f *validatorFake) Validate(_ context.Context, in domain.ValidationInput) domain.Outcome {
	f.inputs = append(f.inputs, in)
	return f.outcome
}
