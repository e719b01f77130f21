package category

import (
	"errors"
	"math"
	"testing"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable([]Entry{
		{Name: "Finance", Keywords: []Keyword{{Term: "bank", Weight: 2}, {Term: "loan"}}},
		{Name: "tourism", Keywords: []Keyword{{Term: "hotel", Weight: 2}}},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func TestNewTableOrderAndDefaults(t *testing.T) {
	tbl := sampleTable(t)

	cats := tbl.Categories()
	if len(cats) != 2 || cats[0] != "finance" || cats[1] != "tourism" {
		t.Fatalf("unexpected categories: %v", cats)
	}
	kws := tbl.Keywords("finance")
	if len(kws) != 2 {
		t.Fatalf("expected 2 finance keywords, got %d", len(kws))
	}
	if kws[1].Weight != DefaultWeight {
		t.Errorf("expected default weight %v, got %v", DefaultWeight, kws[1].Weight)
	}
}

func TestNewTableRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty name", []Entry{{Name: " "}}},
		{"reserved general", []Entry{{Name: "General"}}},
		{"duplicate", []Entry{{Name: "energy"}, {Name: "ENERGY"}}},
		{"empty keyword", []Entry{{Name: "energy", Keywords: []Keyword{{Term: ""}}}}},
		{"negative weight", []Entry{{Name: "energy", Keywords: []Keyword{{Term: "oil", Weight: -1}}}}},
		{"nan weight", []Entry{{Name: "finance", Keywords: []Keyword{{Term: "bank", Weight: math.NaN()}}}}},
		{"inf weight", []Entry{{Name: "sports", Keywords: []Keyword{{Term: "cricket", Weight: math.Inf(1)}}}}},
		{"negative inf weight", []Entry{{Name: "sports", Keywords: []Keyword{{Term: "cricket", Weight: math.Inf(-1)}}}}},
	}
	for _, tt := range tests {
		if _, err := NewTable(tt.entries); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestContainsAndParse(t *testing.T) {
	tbl := sampleTable(t)

	if !tbl.Contains(General) {
		t.Error("general must always be a member")
	}
	got, err := tbl.Parse(" Tourism ")
	if err != nil || got != "tourism" {
		t.Errorf("Parse(Tourism) = %q, %v", got, err)
	}
	if _, err := tbl.Parse("sports"); !errors.Is(err, ErrUnknown) {
		t.Errorf("expected ErrUnknown, got %v", err)
	}
	if tbl.Sanitize("sports") != General {
		t.Error("expected unknown category to sanitize to general")
	}
	if tbl.Sanitize("finance") != "finance" {
		t.Error("expected known category to be kept")
	}
}
