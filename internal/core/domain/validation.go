package domain

import "strings"

// Category names a document type known to the lexicon.
type Category string

type ReasonCode string

const (
	ReasonNone                ReasonCode = ""
	ReasonUnsupportedFormat   ReasonCode = "unsupported_format"
	ReasonCorruptInput        ReasonCode = "corrupt_input"
	ReasonConversionFailure   ReasonCode = "conversion_failure"
	ReasonExternalService     ReasonCode = "external_service_failure"
	ReasonInsufficientContent ReasonCode = "insufficient_content"
	ReasonBelowThreshold      ReasonCode = "classification_below_threshold"
	ReasonCategoryNotAccepted ReasonCode = "category_not_accepted"
	ReasonInternalError       ReasonCode = "internal_error"
)

// Stage is the last pipeline state a validation reached.
type Stage string

const (
	StageReceived   Stage = "received"
	StageNormalized Stage = "normalized"
	StageAnalyzed   Stage = "analyzed"
	StageScored     Stage = "scored"
	StageDecided    Stage = "decided"
)

// ValidationInput is one uploaded file as handed to the pipeline.
type ValidationInput struct {
	// ID correlates logs and records; it may be empty.
	ID        string
	Data      []byte
	MediaType string
	Filename  string
}

// NormalizedMediaType lowercases the declared type and drops parameters.
func (in ValidationInput) NormalizedMediaType() string {
	mt := strings.ToLower(strings.TrimSpace(in.MediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// PageResult is the recognition output for a single page.
type PageResult struct {
	Index           int     `json:"index"`
	Text            string  `json:"-"`
	Chars           int     `json:"chars"`
	LabelConfidence float64 `json:"label_confidence"`
}

// DocumentText aggregates page results in page order.
type DocumentText struct {
	Text            string       `json:"-"`
	Chars           int          `json:"chars"`
	LabelConfidence float64      `json:"label_confidence"`
	Pages           []PageResult `json:"pages"`
}

type CategoryScore struct {
	Category Category `json:"category"`
	Score    float64  `json:"score"`
}

// ScoreVector holds one score per known category, in lexicon order.
type ScoreVector []CategoryScore

func (v ScoreVector) Get(c Category) (float64, bool) {
	for _, cs := range v {
		if cs.Category == c {
			return cs.Score, true
		}
	}
	return 0, false
}

// Best returns the highest score. Ties go to the category declared first.
func (v ScoreVector) Best() (CategoryScore, bool) {
	if len(v) == 0 {
		return CategoryScore{}, false
	}
	best := v[0]
	for _, cs := range v[1:] {
		if cs.Score > best.Score {
			best = cs
		}
	}
	return best, true
}

type Classification struct {
	Category Category    `json:"category"`
	Score    float64     `json:"score"`
	Scores   ScoreVector `json:"scores"`
}

// Outcome is the final accept/reject decision for one document.
type Outcome struct {
	Accepted        bool            `json:"accepted"`
	Reason          ReasonCode      `json:"reason,omitempty"`
	Detail          string          `json:"detail,omitempty"`
	Stage           Stage           `json:"stage"`
	Pages           int             `json:"pages"`
	Chars           int             `json:"chars"`
	LabelConfidence float64         `json:"label_confidence"`
	LexiconVersion  string          `json:"lexicon_version,omitempty"`
	Classification  *Classification `json:"classification,omitempty"`
}

// Err returns the typed error behind a rejection, or nil when accepted.
func (o Outcome) Err() error {
	if o.Accepted {
		return nil
	}
	if kind := KindFor(o.Reason); kind != nil {
		return kind
	}
	return ErrInvalidInput
}
