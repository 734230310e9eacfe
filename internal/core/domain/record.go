package domain

import "time"

type ValidationStatus string

const (
	StatusPending  ValidationStatus = "pending"
	StatusAccepted ValidationStatus = "accepted"
	StatusRejected ValidationStatus = "rejected"
	StatusFailed   ValidationStatus = "failed"
)

// ValidationRecord is the audit row kept for every validated upload.
type ValidationRecord struct {
	ID             string           `json:"id"`
	Filename       string           `json:"filename"`
	MediaType      string           `json:"media_type"`
	StoragePath    string           `json:"storage_path,omitempty"`
	Status         ValidationStatus `json:"status"`
	Reason         ReasonCode       `json:"reason,omitempty"`
	Category       Category         `json:"category,omitempty"`
	Score          float64          `json:"score"`
	Scores         ScoreVector      `json:"scores,omitempty"`
	LexiconVersion string           `json:"lexicon_version,omitempty"`
	Error          string           `json:"error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ApplyOutcome copies a decision onto the record.
func (r *ValidationRecord) ApplyOutcome(o Outcome) {
	r.Status = StatusRejected
	if o.Accepted {
		r.Status = StatusAccepted
	}
	r.Reason = o.Reason
	r.Error = o.Detail
	r.LexiconVersion = o.LexiconVersion
	if o.Classification != nil {
		r.Category = o.Classification.Category
		r.Score = o.Classification.Score
		r.Scores = o.Classification.Scores
	}
}

// Decision is the event published once a queued validation is decided.
type Decision struct {
	ID       string     `json:"id"`
	Accepted bool       `json:"accepted"`
	Reason   ReasonCode `json:"reason,omitempty"`
	Category Category   `json:"category,omitempty"`
	Score    float64    `json:"score"`
}
