package category

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Category is a validated category identifier.
type Category string

// General is the reserved fallback category. It is always a member of
// every Table and never carries keywords.
const General Category = "general"

// DefaultWeight applies to keywords configured without an explicit weight.
const DefaultWeight = 1.0

// ErrUnknown is returned when a name is not part of the closed set.
var ErrUnknown = errors.New("unknown category")

// Keyword is a weighted term.
type Keyword struct {
	Term   string
	Weight float64
}

// Entry is one category definition as loaded from configuration.
type Entry struct {
	Name     string
	Keywords []Keyword
}

// Table is the closed, read-only set of categories and their keywords.
// Iteration order is the configuration order.
type Table struct {
	order    []Category
	keywords map[Category][]Keyword
}

// NewTable validates entries and builds a Table. Names are lowercased and
// must be unique; "general" is reserved. A zero weight defaults to 1.0.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{keywords: make(map[Category][]Keyword, len(entries))}
	for i, e := range entries {
		name := strings.ToLower(strings.TrimSpace(e.Name))
		if name == "" {
			return nil, fmt.Errorf("category %d: name is required", i)
		}
		cat := Category(name)
		if cat == General {
			return nil, fmt.Errorf("category %q is reserved", General)
		}
		if _, dup := t.keywords[cat]; dup {
			return nil, fmt.Errorf("category %q defined twice", name)
		}

		kws := make([]Keyword, 0, len(e.Keywords))
		for _, kw := range e.Keywords {
			term := strings.TrimSpace(kw.Term)
			if term == "" {
				return nil, fmt.Errorf("category %q: empty keyword", name)
			}
			w := kw.Weight
			if w == 0 {
				w = DefaultWeight
			}
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("category %q: keyword %q has invalid weight %v", name, term, w)
			}
			kws = append(kws, Keyword{Term: term, Weight: w})
		}

		t.order = append(t.order, cat)
		t.keywords[cat] = kws
	}
	return t, nil
}

// Categories returns the configured categories in table order, excluding
// General.
func (t *Table) Categories() []Category {
	out := make([]Category, len(t.order))
	copy(out, t.order)
	return out
}

// Keywords returns the keywords of c in configuration order.
func (t *Table) Keywords(c Category) []Keyword {
	return t.keywords[c]
}

// Contains reports whether c is General or a configured category.
func (t *Table) Contains(c Category) bool {
	if c == General {
		return true
	}
	_, ok := t.keywords[c]
	return ok
}

// Parse resolves a name (case-insensitive) against the closed set.
func (t *Table) Parse(name string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(name)))
	if t.Contains(c) {
		return c, nil
	}
	valid := make([]string, 0, len(t.order)+1)
	for _, o := range t.order {
		valid = append(valid, string(o))
	}
	valid = append(valid, string(General))
	return "", fmt.Errorf("%w %q (valid: %s)", ErrUnknown, name, strings.Join(valid, ", "))
}

// Sanitize returns c when it is a member of the table and General
// otherwise.
func (t *Table) Sanitize(c Category) Category {
	if t.Contains(c) {
		return c
	}
	return General
}
