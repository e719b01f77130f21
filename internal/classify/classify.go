// Package classify scores article titles against the weighted category
// keyword table.
package classify

import (
	"github.com/lankasignal/lankasignal/internal/category"
	"github.com/lankasignal/lankasignal/internal/keyword"
)

// ScoreFloor is the raw score a best category must reach to be kept when
// its confidence is below the configured minimum.
const ScoreFloor = 3.0

// Result is a category decision with its confidence in [0, 1].
type Result struct {
	Category   category.Category `json:"category"`
	Confidence float64           `json:"confidence"`
}

type weightedMatcher struct {
	m      *keyword.Matcher
	weight float64
}

type compiledCategory struct {
	cat      category.Category
	keywords []weightedMatcher
}

// Scorer computes keyword scores for every category in a table.
type Scorer struct {
	table      *category.Table
	categories []compiledCategory
}

// NewScorer compiles the keyword table once.
func NewScorer(table *category.Table) *Scorer {
	s := &Scorer{table: table}
	for _, cat := range table.Categories() {
		cc := compiledCategory{cat: cat}
		for _, kw := range table.Keywords(cat) {
			cc.keywords = append(cc.keywords, weightedMatcher{m: keyword.Compile(kw.Term), weight: kw.Weight})
		}
		s.categories = append(s.categories, cc)
	}
	return s
}

// Table returns the table the scorer was built from.
func (s *Scorer) Table() *category.Table {
	return s.table
}

// Scores returns the best category, its raw score and its share of the
// total score. When several categories share the best score the first in
// table order wins. ok is false when no category scores above zero.
func (s *Scorer) Scores(title string) (best category.Category, bestScore, confidence float64, ok bool) {
	total := 0.0
	for _, cc := range s.categories {
		score := 0.0
		for _, wm := range cc.keywords {
			if n := wm.m.Count(title); n > 0 {
				score += wm.weight * float64(n)
			}
		}
		if score <= 0 {
			continue
		}
		total += score
		if score > bestScore {
			best, bestScore = cc.cat, score
		}
	}
	if total == 0 {
		return category.General, 0, 0, false
	}
	return best, bestScore, bestScore / total, true
}

// Score returns the unguarded keyword decision: (general, 0) when nothing
// matches, otherwise the best category and its confidence.
func (s *Scorer) Score(title string) Result {
	best, _, conf, ok := s.Scores(title)
	if !ok {
		return Result{Category: category.General}
	}
	return Result{Category: best, Confidence: conf}
}

// Categorizer applies the low-confidence guard on top of the scorer.
type Categorizer struct {
	scorer        *Scorer
	minConfidence float64
}

// New returns a Categorizer. minConfidence is CATEGORY_MIN_CONFIDENCE.
func New(scorer *Scorer, minConfidence float64) *Categorizer {
	return &Categorizer{scorer: scorer, minConfidence: minConfidence}
}

// Scorer returns the underlying scorer.
func (c *Categorizer) Scorer() *Scorer {
	return c.scorer
}

// Categorize classifies a title. A winner whose confidence is below the
// minimum and whose raw score is below ScoreFloor falls back to general,
// keeping its confidence.
func (c *Categorizer) Categorize(title string) Result {
	best, bestScore, conf, ok := c.scorer.Scores(title)
	if !ok {
		return Result{Category: category.General}
	}
	if conf < c.minConfidence && bestScore < ScoreFloor {
		return Result{Category: category.General, Confidence: conf}
	}
	return Result{Category: best, Confidence: conf}
}
