package lexicon

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/docgate/internal/core/domain"
)

//go:embed lexicon.yaml
var defaultAsset []byte

//go:embed lexicon.schema.json
var schemaAsset []byte

type rawLexicon struct {
	Version    string        `yaml:"version"`
	Languages  []rawLanguage `yaml:"languages"`
	Categories []rawCategory `yaml:"categories"`
	Detectors  []rawDetector `yaml:"detectors"`
	Signals    []rawSignal   `yaml:"signals"`
	Rules      []rawRule     `yaml:"rules"`
}

type rawLanguage struct {
	Code      string  `yaml:"code"`
	HitWeight float64 `yaml:"hit_weight"`
	FoldCase  bool    `yaml:"fold_case"`
}

type rawCategory struct {
	Name     string              `yaml:"name"`
	Accepted bool                `yaml:"accepted"`
	Keywords map[string][]string `yaml:"keywords"`
}

type rawDetector struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

type rawSignal struct {
	Name string   `yaml:"name"`
	Any  []string `yaml:"any"`
	All  []string `yaml:"all"`
}

type rawRule struct {
	Category string   `yaml:"category"`
	When     []string `yaml:"when"`
	Count    []string `yaml:"count"`
	Cap      int      `yaml:"cap"`
	Weight   float64  `yaml:"weight"`
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("lexicon.schema.json", bytes.NewReader(schemaAsset)); err != nil {
		return nil, fmt.Errorf("add lexicon schema: %w", err)
	}
	return compiler.Compile("lexicon.schema.json")
})

// Default loads the lexicon asset compiled into the binary.
func Default() (*Lexicon, error) {
	return Load(defaultAsset)
}

// DefaultAsset returns a copy of the embedded YAML asset.
func DefaultAsset() []byte {
	return append([]byte(nil), defaultAsset...)
}

// LoadFile loads a lexicon asset from disk. An empty path loads the default.
func LoadFile(path string) (*Lexicon, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "read lexicon", err)
	}
	return Load(data)
}

// Load parses, schema-checks and cross-validates a YAML lexicon asset.
// Every problem found is reported, joined into one ErrInvalidConfig error.
func Load(data []byte) (*Lexicon, error) {
	if err := validateSchema(data); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "validate lexicon schema", err)
	}
	var raw rawLexicon
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "decode lexicon", err)
	}
	lex, err := compile(raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "compile lexicon", err)
	}
	return lex, nil
}

func validateSchema(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert yaml to json: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("lexicon does not match schema: %w", err)
	}
	return nil
}

func compile(raw rawLexicon) (*Lexicon, error) {
	var problems []error
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	lex := &Lexicon{
		version: raw.Version,
		index:   make(map[domain.Category]int, len(raw.Categories)),
	}

	langs := make(map[string]Language, len(raw.Languages))
	for _, rl := range raw.Languages {
		if _, dup := langs[rl.Code]; dup {
			fail("duplicate language %q", rl.Code)
			continue
		}
		l := Language{Code: rl.Code, HitWeight: rl.HitWeight, FoldCase: rl.FoldCase}
		langs[rl.Code] = l
		lex.languages = append(lex.languages, l)
	}

	for _, rc := range raw.Categories {
		name := domain.Category(rc.Name)
		if _, dup := lex.index[name]; dup {
			fail("duplicate category %q", rc.Name)
			continue
		}
		def := CategoryDef{Name: name, Accepted: rc.Accepted, Keywords: make(map[string][]string, len(rc.Keywords))}
		for code, words := range rc.Keywords {
			lang, ok := langs[code]
			if !ok {
				fail("category %q: unknown language %q", rc.Name, code)
				continue
			}
			out := make([]string, 0, len(words))
			for _, w := range words {
				w = norm.NFC.String(strings.TrimSpace(w))
				if lang.FoldCase {
					w = strings.ToLower(w)
				}
				if w == "" {
					fail("category %q: empty %s keyword", rc.Name, code)
					continue
				}
				out = append(out, w)
			}
			def.Keywords[code] = out
		}
		lex.index[name] = len(lex.categories)
		lex.categories = append(lex.categories, def)
	}

	detectors := make(map[string]bool, len(raw.Detectors))
	for _, rd := range raw.Detectors {
		if detectors[rd.Name] {
			fail("duplicate detector %q", rd.Name)
			continue
		}
		re, err := regexp.Compile(rd.Pattern)
		if err != nil {
			fail("detector %q: %w", rd.Name, err)
			continue
		}
		detectors[rd.Name] = true
		lex.detectors = append(lex.detectors, Detector{Name: rd.Name, Pattern: re})
	}

	signals := make(map[string]bool, len(raw.Signals))
	resolve := func(owner string, raws []string) []Term {
		terms := make([]Term, 0, len(raws))
		for _, r := range raws {
			t, err := parseTerm(r)
			if err != nil {
				fail("%s: %w", owner, err)
				continue
			}
			switch {
			case detectors[t.Ref]:
			case signals[t.Ref]:
				t.signal = true
				if t.Op != OpPresent {
					fail("%s: term %q compares a signal", owner, r)
					continue
				}
			default:
				fail("%s: term %q references an unknown or later-declared name", owner, r)
				continue
			}
			terms = append(terms, t)
		}
		return terms
	}

	for _, rs := range raw.Signals {
		owner := fmt.Sprintf("signal %q", rs.Name)
		if signals[rs.Name] || detectors[rs.Name] {
			fail("%s: name already in use", owner)
			continue
		}
		s := Signal{Name: rs.Name, Any: resolve(owner, rs.Any), All: resolve(owner, rs.All)}
		signals[rs.Name] = true
		lex.signals = append(lex.signals, s)
	}

	for i, rr := range raw.Rules {
		owner := fmt.Sprintf("rule #%d (%s)", i+1, rr.Category)
		if _, ok := lex.index[domain.Category(rr.Category)]; !ok {
			fail("%s: unknown category %q", owner, rr.Category)
			continue
		}
		rule := Rule{
			Category: domain.Category(rr.Category),
			When:     resolve(owner, rr.When),
			Cap:      rr.Cap,
			Weight:   rr.Weight,
		}
		for _, name := range rr.Count {
			if !detectors[name] {
				fail("%s: count references unknown detector %q", owner, name)
				continue
			}
			rule.Count = append(rule.Count, name)
		}
		if len(rr.Count) > 0 && rr.Cap < 1 {
			fail("%s: count rules need a positive cap", owner)
		}
		lex.rules = append(lex.rules, rule)
	}

	if len(lex.categories) == 0 {
		fail("no categories declared")
	}
	if err := errors.Join(problems...); err != nil {
		return nil, err
	}
	return lex, nil
}
