package flow

import (
	"strings"

	"golang.org/x/text/cases"
)

// FlowType is the semantic category of a link.
type FlowType string

const (
	Revenue         FlowType = "revenue"
	AdjacentRevenue FlowType = "adjacentRevenue"
	Profit          FlowType = "profit"
	Expense         FlowType = "expense"
)

// FlowTypes lists every flow type in classification priority order.
var FlowTypes = []FlowType{AdjacentRevenue, Revenue, Profit, Expense}

// Valid reports whether t is one of the known flow types.
func (t FlowType) Valid() bool {
	switch t {
	case Revenue, AdjacentRevenue, Profit, Expense:
		return true
	}
	return false
}

// Vocabulary holds the substrings that drive classification. Terms are
// matched case-insensitively anywhere in a label.
type Vocabulary struct {
	Misc   []string `toml:"misc" json:"misc,omitempty"`
	Income []string `toml:"income" json:"income,omitempty"`
	Profit []string `toml:"profit" json:"profit,omitempty"`
}

// DefaultVocabulary returns the built-in Russian and English terms.
// Stems are used where Russian inflection would otherwise defeat matching.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Misc:   []string{"прочие", "прочий", "прочая", "прочее", "other", "misc"},
		Income: []string{"доход", "выручк", "income", "revenue", "sales"},
		Profit: []string{"прибыль", "ebitda", "ebit", "чистый результат", "profit", "net result", "margin"},
	}
}

// Merge returns v extended with the terms of o.
func (v Vocabulary) Merge(o Vocabulary) Vocabulary {
	return Vocabulary{
		Misc:   append(append([]string(nil), v.Misc...), o.Misc...),
		Income: append(append([]string(nil), v.Income...), o.Income...),
		Profit: append(append([]string(nil), v.Profit...), o.Profit...),
	}
}

// Classifier classifies rows against a fixed vocabulary. It is immutable
// after construction and safe for concurrent use.
type Classifier struct {
	misc, income, profit []string
}

// NewClassifier folds the vocabulary once so Classify only folds labels.
func NewClassifier(v Vocabulary) *Classifier {
	return &Classifier{
		misc:   foldAll(v.Misc),
		income: foldAll(v.Income),
		profit: foldAll(v.Profit),
	}
}

var defaultClassifier = NewClassifier(DefaultVocabulary())

// Classify labels a row with the default vocabulary.
func Classify(source, target string) FlowType {
	return defaultClassifier.Classify(source, target)
}

// Classify returns the flow type of source → target. The first matching
// rule wins: adjacent revenue, revenue, profit, then expense.
func (c *Classifier) Classify(source, target string) FlowType {
	src := fold(source)
	if containsAny(src, c.income) {
		if containsAny(src, c.misc) {
			return AdjacentRevenue
		}
		return Revenue
	}
	if containsAny(fold(target), c.profit) {
		return Profit
	}
	return Expense
}

// fold applies Unicode case folding. A Caser keeps internal state, so a
// fresh one is used per call.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func foldAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if f := fold(t); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
