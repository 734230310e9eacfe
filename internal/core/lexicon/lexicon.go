// Package lexicon holds the immutable keyword, detector and rule tables the
// classifier scores documents against.
package lexicon

import (
	"regexp"

	"github.com/kirillkom/docgate/internal/core/domain"
)

// Language carries the per-hit keyword weight for one language.
type Language struct {
	Code      string
	HitWeight float64
	FoldCase  bool
}

// CategoryDef is one known category in declared priority order.
type CategoryDef struct {
	Name     domain.Category
	Accepted bool
	// Keywords per language code. Keywords of case-folding languages are
	// stored lowercased.
	Keywords map[string][]string
}

// Detector is a named RE2 pattern counted over the whole document text.
type Detector struct {
	Name    string
	Pattern *regexp.Regexp
}

// Count returns the number of non-overlapping matches in text.
func (d Detector) Count(text string) int {
	return len(d.Pattern.FindAllStringIndex(text, -1))
}

// Signal is a named boolean over detector counts and earlier signals.
type Signal struct {
	Name string
	Any  []Term
	All  []Term
}

// Eval reports whether the signal holds. Any needs one true term, All needs
// every term; a signal with both needs both groups to hold.
func (s Signal) Eval(counts map[string]int, signals map[string]bool) bool {
	if len(s.Any) > 0 {
		hit := false
		for _, t := range s.Any {
			if t.Eval(counts, signals) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for _, t := range s.All {
		if !t.Eval(counts, signals) {
			return false
		}
	}
	return true
}

// Rule adds Weight to Category when every When term holds. With Count set,
// the weight is multiplied by the summed detector counts capped at Cap.
type Rule struct {
	Category domain.Category
	When     []Term
	Count    []string
	Cap      int
	Weight   float64
}

// Contribution returns the score delta the rule yields for the given features.
func (r Rule) Contribution(counts map[string]int, signals map[string]bool) float64 {
	for _, t := range r.When {
		if !t.Eval(counts, signals) {
			return 0
		}
	}
	if len(r.Count) == 0 {
		return r.Weight
	}
	n := 0
	for _, name := range r.Count {
		n += counts[name]
	}
	if n > r.Cap {
		n = r.Cap
	}
	return r.Weight * float64(n)
}

// Lexicon is built once at startup and shared read-only across validations.
type Lexicon struct {
	version    string
	languages  []Language
	categories []CategoryDef
	index      map[domain.Category]int
	detectors  []Detector
	signals    []Signal
	rules      []Rule
}

func (l *Lexicon) Version() string { return l.version }

func (l *Lexicon) Languages() []Language {
	return append([]Language(nil), l.languages...)
}

// Categories returns the known categories in declared order.
func (l *Lexicon) Categories() []CategoryDef {
	return append([]CategoryDef(nil), l.categories...)
}

func (l *Lexicon) Detectors() []Detector {
	return append([]Detector(nil), l.detectors...)
}

func (l *Lexicon) Signals() []Signal {
	return append([]Signal(nil), l.signals...)
}

func (l *Lexicon) Rules() []Rule {
	return append([]Rule(nil), l.rules...)
}

// Has reports whether c is a known category.
func (l *Lexicon) Has(c domain.Category) bool {
	_, ok := l.index[c]
	return ok
}

// IsAccepted reports whether c belongs to the accepted category set.
func (l *Lexicon) IsAccepted(c domain.Category) bool {
	i, ok := l.index[c]
	return ok && l.categories[i].Accepted
}

// Accepted lists the accepted categories in declared order.
func (l *Lexicon) Accepted() []domain.Category {
	out := make([]domain.Category, 0, len(l.categories))
	for _, c := range l.categories {
		if c.Accepted {
			out = append(out, c.Name)
		}
	}
	return out
}
