package api

import (
	"github.com/lankasignal/lankasignal/internal/analytics"
	"github.com/lankasignal/lankasignal/internal/category"
	"github.com/lankasignal/lankasignal/internal/store"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Articles int    `json:"articles"`
}

type ArticleResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Source      string  `json:"source"`
	Category    string  `json:"category"`
	Sentiment   float64 `json:"sentiment"`
	CollectedAt string  `json:"collected_at"`
	Processed   bool    `json:"processed"`
}

type ArticlesResponse struct {
	Window   string            `json:"window"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Articles []ArticleResponse `json:"articles"`
}

type CategoryDistributionResponse struct {
	Window       string                    `json:"window"`
	Distribution map[category.Category]int `json:"distribution"`
}

type SourceDistributionResponse struct {
	Window       string         `json:"window"`
	Distribution map[string]int `json:"distribution"`
}

type SentimentResponse struct {
	Window    string                        `json:"window"`
	Sentiment map[category.Category]float64 `json:"sentiment"`
}

type TrendingResponse struct {
	Window string            `json:"window"`
	Topics []analytics.Topic `json:"topics"`
}

type SignalHistoryResponse struct {
	Window  string         `json:"window"`
	Type    string         `json:"type,omitempty"`
	Signals []store.Signal `json:"signals"`
}
