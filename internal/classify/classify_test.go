package classify

import (
	"math"
	"testing"

	"github.com/lankasignal/lankasignal/internal/category"
)

func testTable(t *testing.T) *category.Table {
	t.Helper()
	tbl, err := category.NewTable([]category.Entry{
		{Name: "business", Keywords: []category.Keyword{{Term: "CEO", Weight: 2}, {Term: "profit", Weight: 2}, {Term: "company", Weight: 2}}},
		{Name: "finance", Keywords: []category.Keyword{{Term: "bank", Weight: 2}, {Term: "interest rate", Weight: 2}, {Term: "loan", Weight: 2}}},
		{Name: "infrastructure", Keywords: []category.Keyword{{Term: "port", Weight: 2}, {Term: "highway", Weight: 2}}},
		{Name: "economic", Keywords: []category.Keyword{{Term: "market", Weight: 1.5}, {Term: "growth", Weight: 1.5}}},
		{Name: "social", Keywords: []category.Keyword{{Term: "public"}}},
		{Name: "political", Keywords: []category.Keyword{{Term: "policy"}}},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func newCategorizer(t *testing.T) *Categorizer {
	return New(NewScorer(testTable(t)), 0.3)
}

func TestCategorizeNoKeywords(t *testing.T) {
	c := newCategorizer(t)
	for _, title := range []string{"", "Weather forecast for the weekend", "CEOship programme launched"} {
		got := c.Categorize(title)
		if got.Category != category.General || got.Confidence != 0 {
			t.Errorf("Categorize(%q) = %+v, want (general, 0)", title, got)
		}
	}
}

func TestCategorizeSingleCategory(t *testing.T) {
	c := newCategorizer(t)
	got := c.Categorize("Bank cuts loan interest rate")
	if got.Category != "finance" {
		t.Errorf("expected finance, got %s", got.Category)
	}
	if got.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %v", got.Confidence)
	}
}

func TestCategorizeConfidenceIsShareOfTotal(t *testing.T) {
	c := newCategorizer(t)
	// finance: bank(2) + loan(2) = 4, business: company(2) = 2
	got := c.Categorize("Bank extends loan to company")
	if got.Category != "finance" {
		t.Fatalf("expected finance, got %s", got.Category)
	}
	if math.Abs(got.Confidence-4.0/6.0) > 1e-9 {
		t.Errorf("expected confidence 0.667, got %v", got.Confidence)
	}
}

func TestCategorizeOccurrencesMultiply(t *testing.T) {
	s := NewScorer(testTable(t))
	best, score, _, ok := s.Scores("Port to port: new port link")
	if !ok || best != "infrastructure" || score != 6 {
		t.Errorf("expected infrastructure with score 6, got %s %v %v", best, score, ok)
	}
}

func TestCategorizeLowConfidenceFallsBack(t *testing.T) {
	c := New(NewScorer(testTable(t)), 0.5)
	// Four categories at 1.0 each except economic 1.5: confidence 1.5/3.5 < 0.5, score 1.5 < 3
	got := c.Categorize("Public policy on market")
	if got.Category != category.General {
		t.Errorf("expected general fallback, got %s", got.Category)
	}
	if got.Confidence == 0 {
		t.Error("expected fallback to keep the computed confidence")
	}
}

func TestCategorizeLowConfidenceButStrongScoreKept(t *testing.T) {
	c := New(NewScorer(testTable(t)), 0.9)
	// finance 4 vs business 2: confidence 0.667 < 0.9 but score 4 >= 3
	got := c.Categorize("Bank loan for company")
	if got.Category != "finance" {
		t.Errorf("expected strong score to keep finance, got %s", got.Category)
	}
}

func TestWordBoundaryCEO(t *testing.T) {
	s := NewScorer(testTable(t))
	if got := s.Score("CEOship training starts"); got.Category != category.General {
		t.Errorf("CEO must not match inside CEOship, got %s", got.Category)
	}
	if got := s.Score("New CEO named"); got.Category != "business" {
		t.Errorf("expected business, got %s", got.Category)
	}
}

func TestScoreSkipsGuard(t *testing.T) {
	s := NewScorer(testTable(t))
	got := s.Score("Public policy on market")
	if got.Category != "economic" {
		t.Errorf("unguarded score should return the best category, got %s", got.Category)
	}
}
