package domain

import (
	"errors"
	"fmt"
)

// Rejection kinds produced by the validation pipeline.
var (
	ErrUnsupportedFormat   = errors.New("unsupported format")
	ErrCorruptInput        = errors.New("corrupt input")
	ErrConversionFailure   = errors.New("conversion failure")
	ErrExternalService     = errors.New("external service failure")
	ErrInsufficientContent = errors.New("insufficient content")
	ErrBelowThreshold      = errors.New("classification below threshold")
	ErrCategoryNotAccepted = errors.New("category not accepted")
)

// Service-level kinds.
var (
	ErrNotFound      = errors.New("validation not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTemporary     = errors.New("temporary failure")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

var reasonKinds = []struct {
	kind   error
	reason ReasonCode
}{
	{ErrUnsupportedFormat, ReasonUnsupportedFormat},
	{ErrCorruptInput, ReasonCorruptInput},
	{ErrConversionFailure, ReasonConversionFailure},
	{ErrExternalService, ReasonExternalService},
	{ErrInsufficientContent, ReasonInsufficientContent},
	{ErrBelowThreshold, ReasonBelowThreshold},
	{ErrCategoryNotAccepted, ReasonCategoryNotAccepted},
}

// ReasonFor maps an error chain to its rejection reason. Errors that carry
// no pipeline kind map to ReasonInternalError.
func ReasonFor(err error) ReasonCode {
	if err == nil {
		return ReasonNone
	}
	for _, rk := range reasonKinds {
		if errors.Is(err, rk.kind) {
			return rk.reason
		}
	}
	return ReasonInternalError
}

// KindFor is the inverse of ReasonFor.
func KindFor(reason ReasonCode) error {
	for _, rk := range reasonKinds {
		if rk.reason == reason {
			return rk.kind
		}
	}
	return nil
}
