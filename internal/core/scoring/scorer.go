// Package scoring turns document text into a per-category score vector.
package scoring

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/lexicon"
)

const DefaultLabelBonusCap = 0.6

type Scorer struct {
	lex           *lexicon.Lexicon
	labelBonusCap float64
}

func NewScorer(lex *lexicon.Lexicon, labelBonusCap float64) *Scorer {
	if labelBonusCap < 0 {
		labelBonusCap = 0
	}
	return &Scorer{lex: lex, labelBonusCap: labelBonusCap}
}

func (s *Scorer) Version() string { return s.lex.Version() }

func (s *Scorer) IsAccepted(c domain.Category) bool { return s.lex.IsAccepted(c) }

// Score computes the full vector in lexicon order: keyword base scores,
// rule boosts and penalties, clamping at zero, then the label bonus.
func (s *Scorer) Score(text string, labelConfidence float64) domain.ScoreVector {
	text = norm.NFC.String(text)
	folded := strings.ToLower(text)

	cats := s.lex.Categories()
	vec := make(domain.ScoreVector, len(cats))
	pos := make(map[domain.Category]int, len(cats))
	for i, c := range cats {
		pos[c.Name] = i
		vec[i] = domain.CategoryScore{Category: c.Name}
		for _, lang := range s.lex.Languages() {
			haystack := text
			if lang.FoldCase {
				haystack = folded
			}
			vec[i].Score += lang.HitWeight * float64(keywordHits(c.Keywords[lang.Code], haystack))
		}
	}

	f := Extract(s.lex, text)
	for _, r := range s.lex.Rules() {
		vec[pos[r.Category]].Score += r.Contribution(f.Counts, f.Signals)
	}

	bonus := labelConfidence
	if bonus < 0 {
		bonus = 0
	}
	if bonus > s.labelBonusCap {
		bonus = s.labelBonusCap
	}
	for i := range vec {
		if vec[i].Score < 0 {
			vec[i].Score = 0
		}
		vec[i].Score += bonus
	}
	return vec
}

// Classify scores text and picks the best category; ties resolve to the
// category declared first in the lexicon.
func (s *Scorer) Classify(text string, labelConfidence float64) domain.Classification {
	vec := s.Score(text, labelConfidence)
	best, _ := vec.Best()
	return domain.Classification{Category: best.Category, Score: best.Score, Scores: vec}
}
