package sentiment

import (
	"fmt"

	"github.com/jonreiter/govader"
)

// Vader scores text with the VADER rule set. Polarity is the compound
// score, already in [-1, 1].
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *Vader) Polarity(text string) (float64, error) {
	return v.analyzer.PolarityScores(text).Compound, nil
}

// ForName returns the analyzer configured by name: "vader" (the default
// when empty) or "lexicon".
func ForName(name string) (Analyzer, error) {
	switch name {
	case "", "vader":
		return NewVader(), nil
	case "lexicon":
		return NewLexicon(), nil
	default:
		return nil, fmt.Errorf("unknown sentiment analyzer %q (valid: vader, lexicon)", name)
	}
}
