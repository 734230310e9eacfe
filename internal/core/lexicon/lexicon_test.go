package lexicon

import (
	"strings"
	"testing"

	"github.com/kirillkom/docgate/internal/core/domain"
)

const minimalAsset = `
version: "test"
languages:
  - {code: en, hit_weight: 0.7, fold_case: true}
categories:
  - name: invoice
    accepted: true
    keywords:
      en: [Tax Invoice]
  - name: memo
    accepted: false
detectors:
  - {name: money_amount, pattern: '\d+\.\d{2}'}
signals:
  - {name: has_money, any: [money_amount]}
rules:
  - {category: invoice, when: [has_money], weight: 1.0}
`

func TestDefaultLexiconLoads(t *testing.T) {
	lex, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if lex.Version() == "" {
		t.Fatalf("expected lexicon version")
	}

	cats := lex.Categories()
	if len(cats) == 0 || cats[0].Name != "bank_statement" {
		t.Fatalf("expected bank_statement first, got %+v", cats)
	}
	if !lex.Has("building_permit") {
		t.Fatalf("expected building_permit to be a known category")
	}
	if lex.IsAccepted("building_permit") {
		t.Fatalf("building_permit must not be accepted")
	}
	for _, c := range []domain.Category{"bank_statement", "invoice", "paystub", "real_estate_deed", "loan_agreement", "appraisal", "account_confirmation"} {
		if !lex.IsAccepted(c) {
			t.Fatalf("expected %s to be accepted", c)
		}
	}
	if lex.IsAccepted("unknown") {
		t.Fatalf("unknown category must not be accepted")
	}
	if len(lex.Rules()) == 0 || len(lex.Detectors()) == 0 || len(lex.Signals()) == 0 {
		t.Fatalf("expected rules, detectors and signals")
	}
}

func TestLoadFoldsLatinKeywords(t *testing.T) {
	lex, err := Load([]byte(minimalAsset))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	kw := lex.Categories()[0].Keywords["en"]
	if len(kw) != 1 || kw[0] != "tax invoice" {
		t.Fatalf("expected folded keyword, got %v", kw)
	}
	if got := lex.Accepted(); len(got) != 1 || got[0] != "invoice" {
		t.Fatalf("unexpected accepted set: %v", got)
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	lex, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !lex.Has("invoice") {
		t.Fatalf("expected default lexicon")
	}
}

func TestLoadRejectsInvalidAssets(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(string) string
		wantMsg string
	}{
		{
			name:    "rule references unknown category",
			mutate:  func(s string) string { return strings.Replace(s, "category: invoice, when", "category: building_permit, when", 1) },
			wantMsg: `unknown category "building_permit"`,
		},
		{
			name:    "signal references unknown detector",
			mutate:  func(s string) string { return strings.Replace(s, "any: [money_amount]", "any: [iban]", 1) },
			wantMsg: `"iban"`,
		},
		{
			name:    "bad regex",
			mutate:  func(s string) string { return strings.Replace(s, `'\d+\.\d{2}'`, `'(?<=x)\d'`, 1) },
			wantMsg: `detector "money_amount"`,
		},
		{
			name:    "duplicate category",
			mutate:  func(s string) string { return strings.Replace(s, "name: memo", "name: invoice", 1) },
			wantMsg: `duplicate category "invoice"`,
		},
		{
			name:    "schema violation",
			mutate:  func(s string) string { return strings.Replace(s, `version: "test"`, "", 1) },
			wantMsg: "schema",
		},
		{
			name:    "comparison on a signal",
			mutate:  func(s string) string { return strings.Replace(s, "when: [has_money]", "when: [has_money>=2]", 1) },
			wantMsg: "compares a signal",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.mutate(minimalAsset)))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !domain.IsKind(err, domain.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("expected error to mention %q, got %v", tc.wantMsg, err)
			}
		})
	}
}

func TestLoadRejectsForwardSignalReference(t *testing.T) {
	asset := strings.Replace(minimalAsset,
		"  - {name: has_money, any: [money_amount]}",
		"  - {name: either, any: [has_money]}\n  - {name: has_money, any: [money_amount]}", 1)
	_, err := Load([]byte(asset))
	if err == nil || !strings.Contains(err.Error(), `"has_money"`) {
		t.Fatalf("expected forward reference error, got %v", err)
	}
}

func TestTermEval(t *testing.T) {
	counts := map[string]int{"money_amount": 3}
	signals := map[string]bool{"bank_table": true}

	cases := []struct {
		raw    string
		signal bool
		want   bool
	}{
		{raw: "money_amount", want: true},
		{raw: "money_amount>=3", want: true},
		{raw: "money_amount>=4", want: false},
		{raw: "money_amount<=2", want: false},
		{raw: "!money_amount<=2", want: true},
		{raw: "date", want: false},
		{raw: "bank_table", signal: true, want: true},
		{raw: "!bank_table", signal: true, want: false},
	}
	for _, tc := range cases {
		term, err := parseTerm(tc.raw)
		if err != nil {
			t.Fatalf("parseTerm(%q) error = %v", tc.raw, err)
		}
		term.signal = tc.signal
		if got := term.Eval(counts, signals); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.raw, got, tc.want)
		}
		if term.String() != tc.raw {
			t.Fatalf("String() = %q, want %q", term.String(), tc.raw)
		}
	}
}

func TestRuleContributionCapsCounts(t *testing.T) {
	r := Rule{Category: "invoice", Count: []string{"a", "b"}, Cap: 3, Weight: 0.5}
	got := r.Contribution(map[string]int{"a": 2, "b": 5}, nil)
	if got != 1.5 {
		t.Fatalf("expected capped contribution 1.5, got %v", got)
	}
}
