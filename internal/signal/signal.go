// Package signal derives risks, opportunities, trending topics and volume
// anomalies from the articles in a window. Nothing here is stored state:
// every call recomputes from the store.
package signal

import (
	"time"

	"github.com/lankasignal/lankasignal/internal/category"
	"github.com/lankasignal/lankasignal/internal/store"
)

// Severity ranks risks and anomalies.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}

// Signal types as stored.
const (
	TypeRisk        = "risk"
	TypeOpportunity = "opportunity"
	TypeTrending    = "trending"
	TypeAnomaly     = "anomaly"
)

// Anomaly kinds.
const (
	HighVolume    = "high_volume"
	CategorySpike = "category_spike"
)

type Risk struct {
	Severity    Severity          `json:"severity"`
	Description string            `json:"description"`
	Category    category.Category `json:"category"`
	Source      string            `json:"source"`
	URL         string            `json:"url"`
	Keyword     string            `json:"keyword"`
	DetectedAt  time.Time         `json:"detected_at"`
}

type Opportunity struct {
	Description string            `json:"description"`
	Category    category.Category `json:"category"`
	Source      string            `json:"source"`
	URL         string            `json:"url"`
	Keyword     string            `json:"keyword"`
	Sentiment   float64           `json:"sentiment"`
	DetectedAt  time.Time         `json:"detected_at"`
}

type Trend struct {
	Topic     string `json:"topic"`
	Count     int    `json:"count"`
	Timeframe string `json:"timeframe"`
}

type Anomaly struct {
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Category    category.Category `json:"category,omitempty"`
	Severity    Severity          `json:"severity"`
	Recent      int               `json:"recent"`
	BaselineAvg float64           `json:"baseline_avg"`
	DetectedAt  time.Time         `json:"detected_at"`
}

// Bundle is the output of GenerateAll.
type Bundle struct {
	Risks         []Risk        `json:"risks"`
	Opportunities []Opportunity `json:"opportunities"`
	Trending      []Trend       `json:"trending"`
	Anomalies     []Anomaly     `json:"anomalies"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

// Signals flattens the bundle into storable records. Every record except
// anomalies is stamped with the bundle's generation time; the article's own
// timestamp goes into the metadata as "article_at".
func (b *Bundle) Signals() []store.Signal {
	var out []store.Signal
	for _, r := range b.Risks {
		out = append(out, store.Signal{
			Type:        TypeRisk,
			Description: r.Description,
			Severity:    string(r.Severity),
			Category:    string(r.Category),
			DetectedAt:  b.stamp(r.DetectedAt),
			Metadata: map[string]any{
				"source": r.Source, "url": r.URL, "keyword": r.Keyword,
				"article_at": r.DetectedAt.UTC().Format(time.RFC3339),
			},
		})
	}
	for _, o := range b.Opportunities {
		out = append(out, store.Signal{
			Type:        TypeOpportunity,
			Description: o.Description,
			Category:    string(o.Category),
			DetectedAt:  b.stamp(o.DetectedAt),
			Metadata: map[string]any{
				"source": o.Source, "url": o.URL, "keyword": o.Keyword, "sentiment": o.Sentiment,
				"article_at": o.DetectedAt.UTC().Format(time.RFC3339),
			},
		})
	}
	for _, t := range b.Trending {
		out = append(out, store.Signal{
			Type:        TypeTrending,
			Description: t.Topic,
			DetectedAt:  b.stamp(time.Time{}),
			Metadata:    map[string]any{"count": t.Count, "timeframe": t.Timeframe},
		})
	}
	for _, a := range b.Anomalies {
		out = append(out, store.Signal{
			Type:        TypeAnomaly,
			Description: a.Description,
			Severity:    string(a.Severity),
			Category:    string(a.Category),
			DetectedAt:  a.DetectedAt,
			Metadata:    map[string]any{"kind": a.Type, "recent": a.Recent, "baseline_avg": a.BaselineAvg},
		})
	}
	return out
}

func (b *Bundle) stamp(fallback time.Time) time.Time {
	if b.GeneratedAt.IsZero() {
		return fallback
	}
	return b.GeneratedAt
}
