package scoring

import (
	"math"
	"reflect"
	"testing"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/lexicon"
)

const hebrewStatement = `בנק לאומי
דף חשבון
תאריך    תיאור    חובה    זכות    יתרה
01/03/2024 העברה 1,200.00 5,300.00
05/03/2024 משכורת 8,450.00 13,750.00
10/03/2024 כרטיס אשראי 2,310.50 11,439.50
14/03/2024 עמלה 15.00 11,424.50
IBAN IL620108000000099999999
`

const englishInvoice = `Tax Invoice
Invoice No: INV-20931
Invoice Date: 02/01/2024
Bill To: Acme Ltd, account 123456789
Item 1 01/01/2024 100.00
Item 2 03/01/2024 250.00
Item 3 04/01/2024 75.50
Item 4 05/01/2024 20.00
Subtotal 445.50
VAT 75.74
Amount Due 521.24
`

func newDefaultScorer(t *testing.T) *Scorer {
	t.Helper()
	lex, err := lexicon.Default()
	if err != nil {
		t.Fatalf("lexicon.Default() error = %v", err)
	}
	return NewScorer(lex, DefaultLabelBonusCap)
}

func score(t *testing.T, vec domain.ScoreVector, c domain.Category) float64 {
	t.Helper()
	v, ok := vec.Get(c)
	if !ok {
		t.Fatalf("category %s missing from vector", c)
	}
	return v
}

func TestHebrewBankStatementClassifies(t *testing.T) {
	s := newDefaultScorer(t)
	got := s.Classify(hebrewStatement, 0)
	if got.Category != "bank_statement" {
		t.Fatalf("expected bank_statement, got %s (%v)", got.Category, got.Scores)
	}
	if got.Score < 3.2 {
		t.Fatalf("expected score >= 3.2, got %v", got.Score)
	}
}

func TestInvoiceBeatsBankSignature(t *testing.T) {
	s := newDefaultScorer(t)
	lex, _ := lexicon.Default()

	f := Extract(lex, englishInvoice)
	if !f.Signals["bank_bulk"] {
		t.Fatalf("expected amount/date/account heuristic to fire, counts=%v", f.Counts)
	}
	if f.Signals["bank_table"] {
		t.Fatalf("no transaction table expected")
	}

	vec := s.Score(englishInvoice, 0)
	inv, bank := score(t, vec, "invoice"), score(t, vec, "bank_statement")
	if inv <= bank {
		t.Fatalf("expected invoice > bank_statement, got %v <= %v", inv, bank)
	}
	if best, _ := vec.Best(); best.Category != "invoice" {
		t.Fatalf("expected invoice to win, got %s", best.Category)
	}
}

func TestGenericProseScoresLow(t *testing.T) {
	s := newDefaultScorer(t)
	got := s.Classify("The quick brown fox jumps over the lazy dog near the river on a sunny afternoon.", 0)
	if got.Score >= 3.2 {
		t.Fatalf("expected best score below threshold, got %v (%s)", got.Score, got.Category)
	}
	for _, cs := range got.Scores {
		if cs.Score > 1 {
			t.Fatalf("expected near-zero scores, %s = %v", cs.Category, cs.Score)
		}
	}
}

func TestLandRegistryExtract(t *testing.T) {
	s := newDefaultScorer(t)
	got := s.Classify("נסח טאבו\nגוש 6638 חלקה 112\nבעלים רשומים: ישראל ישראלי", 0)
	if got.Category != "real_estate_deed" {
		t.Fatalf("expected real_estate_deed, got %s (%v)", got.Category, got.Scores)
	}
}

func TestScoresAreClampedBeforeLabelBonus(t *testing.T) {
	s := newDefaultScorer(t)
	vec := s.Score("Tax Invoice", 0.5)
	if got := score(t, vec, "bank_statement"); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected clamped bank_statement score 0.5, got %v", got)
	}
	for _, cs := range vec {
		if cs.Score < 0 {
			t.Fatalf("negative score for %s: %v", cs.Category, cs.Score)
		}
	}
}

func TestLabelBonusIsCapped(t *testing.T) {
	s := newDefaultScorer(t)
	low := s.Score("", 0)
	high := s.Score("", 0.95)
	for i := range low {
		if diff := high[i].Score - low[i].Score; math.Abs(diff-0.6) > 1e-9 {
			t.Fatalf("%s: expected bonus 0.6, got %v", low[i].Category, diff)
		}
	}
}

func TestScoreIsDeterministicAndComplete(t *testing.T) {
	s := newDefaultScorer(t)
	lex, _ := lexicon.Default()

	a := s.Score(hebrewStatement, 0.4)
	b := s.Score(hebrewStatement, 0.4)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical vectors")
	}
	cats := lex.Categories()
	if len(a) != len(cats) {
		t.Fatalf("expected %d categories, got %d", len(cats), len(a))
	}
	for i, c := range cats {
		if a[i].Category != c.Name {
			t.Fatalf("vector order mismatch at %d: %s vs %s", i, a[i].Category, c.Name)
		}
	}
}

func TestTiesGoToDeclaredOrder(t *testing.T) {
	lex, err := lexicon.Load([]byte(`
version: "tie"
languages:
  - {code: en, hit_weight: 1.0, fold_case: true}
categories:
  - {name: declared_first, accepted: false, keywords: {en: [alpha]}}
  - {name: declared_second, accepted: true, keywords: {en: [alpha]}}
detectors: []
rules: []
`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got := NewScorer(lex, 0.6).Classify("alpha", 0)
	if got.Category != "declared_first" {
		t.Fatalf("expected declared-first category to win tie, got %s", got.Category)
	}
}

func TestKeywordsMatchPerLanguageCase(t *testing.T) {
	s := newDefaultScorer(t)
	upper := s.Score("PAYSLIP", 0)
	lower := s.Score("payslip", 0)
	if score(t, upper, "paystub") != score(t, lower, "paystub") {
		t.Fatalf("expected English keywords to match case-insensitively")
	}
	if score(t, s.Score("תלוש שכר", 0), "paystub") < 1.5 {
		t.Fatalf("expected Hebrew paystub keyword and rule to fire")
	}
}

const balanceLines = "opening balance\nclosing balance\n"

func TestRuleContributions(t *testing.T) {
	s := newDefaultScorer(t)
	tests := []struct {
		name     string
		base     string
		added    string
		category domain.Category
		want     float64
	}{
		{"mortgage bonus", balanceLines, "The mortgage is recorded.", "loan_agreement", 1.2},
		{"lien bonus", balanceLines, "A lien is registered.", "loan_agreement", 0.8},
		{"hebrew lien bonus", balanceLines, "שעבוד לטובת הבנק", "loan_agreement", 0.8},
		{"english appraisal bonus", balanceLines, "Estimated market value stated.", "appraisal", 1.2},
		{"hebrew appraisal bonus", balanceLines, "שווי שוק של הנכס", "appraisal", 1.2},
		{"letter opening bonus", balanceLines, "To whom it may concern,", "account_confirmation", 1.2},
		{"letter closing bonus", balanceLines, "Sincerely,", "account_confirmation", 0.6},
		{"bank name bonus", balanceLines, "Bank Leumi", "account_confirmation", 0.8},
		{"account triplet bonus", balanceLines, "Reference 12-345-678901", "account_confirmation", 0.8},
		{"url bonus", balanceLines, "www.example.co.il", "account_confirmation", 0.3},
		{"no table bonus lost above two amounts", balanceLines + "Fees 10.00 and 20.00\n", "Fee 30.00", "account_confirmation", -0.5},
		{"letter penalty on statement", balanceLines, "Sincerely,", "bank_statement", -0.8},
		{"letter penalty needs no table", balanceLines + "Date Description Debit Balance\n", "Sincerely,", "bank_statement", 0},
		{"letter penalty needs few amounts", balanceLines + "1.00 2.00 3.00\n", "Sincerely,", "bank_statement", 0},
		{"deed marker penalty on statement", balanceLines, "גוש 6638", "bank_statement", -0.8},
		{"one parcel for contract", balanceLines, "גוש 6638", "real_estate_contract", 0.3},
		{"two parcels for contract", balanceLines, "גוש 6638 חלקה 112", "real_estate_contract", 0.6},
		{"contract parcels capped at two", balanceLines, "גוש 6638 חלקה 112 חלקה 113", "real_estate_contract", 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := score(t, s.Score(tt.base, 0), tt.category)
			after := score(t, s.Score(tt.base+tt.added, 0), tt.category)
			if got := after - before; math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("%s contribution = %v, want %v (before %v, after %v)", tt.category, got, tt.want, before, after)
			}
		})
	}
}

const hebrewConfirmationLetter = `לכבוד
מר ישראל ישראלי
הנדון: אישור ניהול חשבון
הרינו לאשר כי מר ישראל ישראלי הינו בעל החשבון מספר 12-345-678901 בבנק לאומי, סניף 800.
יתרה נכון להיום: 1,250.00
בברכה,
בנק לאומי
www.leumi.co.il
`

func TestHebrewConfirmationLetterIsNotAStatement(t *testing.T) {
	s := newDefaultScorer(t)
	got := s.Classify(hebrewConfirmationLetter, 0)
	if got.Category != "account_confirmation" {
		t.Fatalf("expected account_confirmation, got %s (%v)", got.Category, got.Scores)
	}
	if got.Score < 3.2 {
		t.Fatalf("expected a confident score, got %v", got.Score)
	}
	if bank := score(t, got.Scores, "bank_statement"); bank >= 1 {
		t.Fatalf("expected the letter penalty to hold bank_statement down, got %v", bank)
	}
}
