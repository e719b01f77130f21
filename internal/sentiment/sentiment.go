// Package sentiment scores headline polarity in [-1, 1].
package sentiment

import (
	"errors"
	"log/slog"
	"math"
	"regexp"
	"strings"
)

// Analyzer computes a raw polarity for a piece of text. Implementations may
// fail or return values outside [-1, 1]; Scorer normalizes both.
type Analyzer interface {
	Polarity(text string) (float64, error)
}

// Scorer wraps an Analyzer and never fails: empty text, analyzer errors and
// non-finite results all score 0.
type Scorer struct {
	analyzer Analyzer
	logger   *slog.Logger
}

// New returns a Scorer. A nil analyzer uses the built-in lexicon.
func New(a Analyzer) *Scorer {
	if a == nil {
		a = NewLexicon()
	}
	return &Scorer{analyzer: a, logger: slog.Default()}
}

// Score returns the clamped polarity of text.
func (s *Scorer) Score(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	p, err := s.analyzer.Polarity(text)
	if err != nil {
		s.logger.Debug("sentiment analysis failed", "error", err)
		return 0
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, p))
}

// ErrNoText is returned by Lexicon for text without words.
var ErrNoText = errors.New("no words to score")

// Lexicon is a word-polarity analyzer. The polarity of a text is the mean of
// its scored words; a negator flips the next scored word within three
// tokens and an intensifier scales it.
type Lexicon struct {
	words        map[string]float64
	negators     map[string]bool
	intensifiers map[string]float64
}

var wordRe = regexp.MustCompile(`[a-z]+(?:'[a-z]+)?`)

// NewLexicon returns the built-in news headline lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{words: lexicon, negators: negators, intensifiers: intensifiers}
}

func (l *Lexicon) Polarity(text string) (float64, error) {
	tokens := wordRe.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return 0, ErrNoText
	}

	sum, n := 0.0, 0
	negateFor := 0
	scale := 1.0
	for _, tok := range tokens {
		if l.negators[tok] {
			negateFor = 3
			continue
		}
		if m, ok := l.intensifiers[tok]; ok {
			scale *= m
			continue
		}
		if p, ok := l.words[tok]; ok {
			p *= scale
			if negateFor > 0 {
				p *= -0.5
			}
			sum += p
			n++
			negateFor = 0
			scale = 1
			continue
		}
		if negateFor > 0 {
			negateFor--
		}
		scale = 1
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "without": true, "fails": true,
	"isn't": true, "won't": true, "don't": true, "doesn't": true, "didn't": true,
}

var intensifiers = map[string]float64{
	"very": 1.3, "sharply": 1.4, "highly": 1.3, "extremely": 1.5,
	"slightly": 0.6, "marginally": 0.5, "significantly": 1.3,
}

var lexicon = map[string]float64{
	// positive
	"good": 0.7, "great": 0.8, "strong": 0.43, "growth": 0.4, "grow": 0.4, "grows": 0.4,
	"rise": 0.3, "rises": 0.3, "rising": 0.3, "gain": 0.4, "gains": 0.4, "surge": 0.6,
	"surges": 0.6, "boost": 0.5, "boosts": 0.5, "improve": 0.5, "improves": 0.5,
	"improved": 0.5, "improvement": 0.5, "recovery": 0.45, "recover": 0.4, "recovers": 0.4,
	"record": 0.3, "success": 0.8, "successful": 0.75, "win": 0.8, "wins": 0.8,
	"positive": 0.5, "profit": 0.4, "profits": 0.4, "profitable": 0.5, "expand": 0.35,
	"expands": 0.35, "expansion": 0.35, "stable": 0.3, "stability": 0.3, "best": 1.0,
	"benefit": 0.4, "benefits": 0.4, "optimistic": 0.6, "upbeat": 0.5, "welcome": 0.6,
	"welcomes": 0.6, "launch": 0.2, "launches": 0.2, "new": 0.14, "innovative": 0.5,
	"opportunity": 0.4, "opportunities": 0.4, "agreement": 0.3, "deal": 0.2, "partnership": 0.35,
	"support": 0.3, "relief": 0.4, "high": 0.16, "higher": 0.25, "increase": 0.2,
	"increases": 0.2, "up": 0.1, "healthy": 0.5, "robust": 0.5, "award": 0.5,
	// negative
	"bad": -0.7, "poor": -0.4, "weak": -0.38, "weaker": -0.4, "decline": -0.4,
	"declines": -0.4, "fall": -0.3, "falls": -0.3, "drop": -0.3, "drops": -0.3,
	"loss": -0.5, "losses": -0.5, "crisis": -0.6, "collapse": -0.7, "shortage": -0.5,
	"shortages": -0.5, "disaster": -0.8, "failure": -0.6, "fail": -0.5, "failed": -0.5,
	"default": -0.5, "bankrupt": -0.7, "bankruptcy": -0.7, "protest": -0.3,
	"protests": -0.3, "strike": -0.3, "strikes": -0.3, "concern": -0.3, "concerns": -0.3,
	"warning": -0.35, "warns": -0.35, "risk": -0.3, "risks": -0.3, "threat": -0.4,
	"threatens": -0.4, "delay": -0.3, "delays": -0.3, "slump": -0.6, "plunge": -0.6,
	"plunges": -0.6, "crash": -0.7, "corruption": -0.6, "fraud": -0.7, "dead": -0.2,
	"death": -0.4, "deaths": -0.4, "killed": -0.6, "attack": -0.5, "emergency": -0.4,
	"difficult": -0.5, "difficulty": -0.5, "problem": -0.4, "problems": -0.4,
	"uncertain": -0.3, "uncertainty": -0.3, "low": -0.2, "lower": -0.2, "worst": -1.0,
	"negative": -0.3, "cut": -0.2, "cuts": -0.2, "suspend": -0.3, "suspended": -0.3,
	"slow": -0.3, "slows": -0.3, "inflation": -0.2, "debt": -0.2, "flood": -0.4,
	"floods": -0.4, "drought": -0.5,
}
