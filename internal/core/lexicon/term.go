package lexicon

import (
	"fmt"
	"regexp"
	"strconv"
)

type CompareOp int

const (
	OpPresent CompareOp = iota
	OpAtLeast
	OpAtMost
)

// Term is one condition of a signal or rule: a detector or signal name,
// optionally negated with "!" and, for detectors, compared with ">=N" or "<=N".
type Term struct {
	Ref       string
	Negate    bool
	Op        CompareOp
	Threshold int
	signal    bool
}

var termPattern = regexp.MustCompile(`^(!)?([a-z][a-z0-9_]*)(?:(>=|<=)(\d+))?$`)

func parseTerm(raw string) (Term, error) {
	m := termPattern.FindStringSubmatch(raw)
	if m == nil {
		return Term{}, fmt.Errorf("malformed term %q", raw)
	}
	t := Term{Ref: m[2], Negate: m[1] == "!"}
	switch m[3] {
	case ">=":
		t.Op = OpAtLeast
	case "<=":
		t.Op = OpAtMost
	}
	if m[4] != "" {
		n, err := strconv.Atoi(m[4])
		if err != nil {
			return Term{}, fmt.Errorf("term %q: %w", raw, err)
		}
		t.Threshold = n
	}
	return t, nil
}

// IsSignal reports whether the term refers to a signal rather than a detector.
func (t Term) IsSignal() bool { return t.signal }

func (t Term) Eval(counts map[string]int, signals map[string]bool) bool {
	var v bool
	if t.signal {
		v = signals[t.Ref]
	} else {
		n := counts[t.Ref]
		switch t.Op {
		case OpAtLeast:
			v = n >= t.Threshold
		case OpAtMost:
			v = n <= t.Threshold
		default:
			v = n > 0
		}
	}
	if t.Negate {
		return !v
	}
	return v
}

func (t Term) String() string {
	s := t.Ref
	if t.Negate {
		s = "!" + s
	}
	switch t.Op {
	case OpAtLeast:
		s += ">=" + strconv.Itoa(t.Threshold)
	case OpAtMost:
		s += "<=" + strconv.Itoa(t.Threshold)
	}
	return s
}
