package scoring

import (
	"strings"

	"github.com/kirillkom/docgate/internal/core/lexicon"
)

// Features are the detector counts and derived signals of one document text.
type Features struct {
	Counts  map[string]int
	Signals map[string]bool
}

// Extract evaluates every detector over text, then every signal in
// declared order so later signals can build on earlier ones.
func Extract(lex *lexicon.Lexicon, text string) Features {
	detectors := lex.Detectors()
	signals := lex.Signals()
	f := Features{
		Counts:  make(map[string]int, len(detectors)),
		Signals: make(map[string]bool, len(signals)),
	}
	for _, d := range detectors {
		f.Counts[d.Name] = d.Count(text)
	}
	for _, s := range signals {
		f.Signals[s.Name] = s.Eval(f.Counts, f.Signals)
	}
	return f
}

// keywordHits counts each distinct keyword of lang found in text once.
func keywordHits(keywords []string, text string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}
