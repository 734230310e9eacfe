package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestReasonFor(t *testing.T) {
	cases := []struct {
		err  error
		want ReasonCode
	}{
		{nil, ReasonNone},
		{WrapError(ErrCorruptInput, "decode", errors.New("eof")), ReasonCorruptInput},
		{fmt.Errorf("outer: %w", WrapError(ErrExternalService, "ocr", errors.New("503"))), ReasonExternalService},
		{WrapError(ErrBelowThreshold, "gate", errors.New("low")), ReasonBelowThreshold},
		{errors.New("boom"), ReasonInternalError},
		{WrapError(ErrNotFound, "get", errors.New("x")), ReasonInternalError},
	}
	for _, tc := range cases {
		if got := ReasonFor(tc.err); got != tc.want {
			t.Fatalf("ReasonFor(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	if !errors.Is(KindFor(ReasonConversionFailure), ErrConversionFailure) {
		t.Fatalf("KindFor mismatch")
	}
}

func TestScoreVectorBestPrefersDeclaredOrder(t *testing.T) {
	v := ScoreVector{{"a", 1}, {"b", 2}, {"c", 2}}
	best, ok := v.Best()
	if !ok || best.Category != "b" {
		t.Fatalf("expected b, got %+v", best)
	}
	if _, ok := (ScoreVector{}).Best(); ok {
		t.Fatalf("empty vector has no best")
	}
	if s, ok := v.Get("c"); !ok || s != 2 {
		t.Fatalf("Get(c) = %v, %v", s, ok)
	}
}

func TestApplyOutcome(t *testing.T) {
	rec := &ValidationRecord{Status: StatusPending}
	rec.ApplyOutcome(Outcome{
		Reason:         ReasonCategoryNotAccepted,
		Detail:         "utility_bill",
		LexiconVersion: "v2",
		Classification: &Classification{Category: "utility_bill", Score: 5},
	})
	if rec.Status != StatusRejected || rec.Category != "utility_bill" || rec.Reason != ReasonCategoryNotAccepted || rec.Error != "utility_bill" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestPageImageClose(t *testing.T) {
	p := NewPageImage(1, "png", 1, 1, []byte("x"))
	_ = p.Close()
	_ = p.Close()
	if _, err := p.Bytes(); !errors.Is(err, ErrPageReleased) {
		t.Fatalf("expected ErrPageReleased, got %v", err)
	}
}
