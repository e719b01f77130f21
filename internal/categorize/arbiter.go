// Package categorize reconciles the keyword and statistical classifiers and
// runs the processing pass over stored articles.
package categorize

import (
	"math"

	"github.com/lankasignal/lankasignal/internal/classify"
)

// Trust thresholds, checked in this order.
const (
	statisticalTrusted = 0.5
	lexicalPreferred   = 0.6
	lexicalReasonable  = 0.4
	statisticalMinimum = 0.3
	agreementBonus     = 0.2
)

// Predictor is the statistical classifier as seen by the arbiter.
type Predictor interface {
	Trained() bool
	Predict(title string) classify.Result
}

// Arbiter combines the guarded keyword decision with the statistical one.
type Arbiter struct {
	lexical     *classify.Categorizer
	statistical Predictor
}

// NewArbiter returns an Arbiter. statistical may be nil, in which case the
// keyword decision is always used.
func NewArbiter(lexical *classify.Categorizer, statistical Predictor) *Arbiter {
	return &Arbiter{lexical: lexical, statistical: statistical}
}

// Categorize returns the reconciled category and confidence for a title.
// The category is always a member of the configured table or general.
func (a *Arbiter) Categorize(title string) classify.Result {
	kw := a.lexical.Categorize(title)

	var (
		ml   classify.Result
		have bool
	)
	if a.statistical != nil && a.statistical.Trained() {
		ml = a.statistical.Predict(title)
		have = ml.Category != ""
	}

	res := decide(kw, ml, have)
	res.Category = a.lexical.Scorer().Table().Sanitize(res.Category)
	return res
}

func decide(kw, ml classify.Result, have bool) classify.Result {
	switch {
	case have && ml.Confidence >= statisticalTrusted:
		if kw.Category == ml.Category {
			return classify.Result{
				Category:   ml.Category,
				Confidence: math.Min(1, (ml.Confidence+kw.Confidence)/2+agreementBonus),
			}
		}
		if kw.Confidence >= lexicalPreferred {
			return kw
		}
		return ml
	case kw.Confidence >= lexicalReasonable:
		return kw
	case have && ml.Confidence >= statisticalMinimum:
		return ml
	default:
		return kw
	}
}
