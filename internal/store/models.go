package store

import (
	"time"

	"github.com/lankasignal/lankasignal/internal/category"
)

// Article is a persisted news article. Category and Sentiment are nil until
// the article has been processed.
type Article struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	URL         string             `json:"url"`
	Source      string             `json:"source"`
	Category    *category.Category `json:"category,omitempty"`
	Sentiment   *float64           `json:"sentiment,omitempty"`
	CollectedAt time.Time          `json:"collected_at"`
	Processed   bool               `json:"processed"`
}

// CategoryOrGeneral returns the article category, or General when unset.
func (a Article) CategoryOrGeneral() category.Category {
	if a.Category == nil || *a.Category == "" {
		return category.General
	}
	return *a.Category
}

// SentimentOrNeutral returns the article sentiment, or 0 when unset.
func (a Article) SentimentOrNeutral() float64 {
	if a.Sentiment == nil {
		return 0
	}
	return *a.Sentiment
}

// NewArticle is the collector-facing record handed to Add.
type NewArticle struct {
	Title       string
	URL         string
	Source      string
	CollectedAt time.Time
}

// Signal is a persisted snapshot of a derived signal.
type Signal struct {
	ID          int64          `json:"id"`
	Type        string         `json:"signal_type"`
	Description string         `json:"description"`
	Severity    string         `json:"severity,omitempty"`
	Category    string         `json:"category,omitempty"`
	DetectedAt  time.Time      `json:"detected_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
