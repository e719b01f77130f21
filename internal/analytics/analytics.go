// Package analytics answers windowed aggregate questions about stored
// articles: keyword trends, category and source mix, and sentiment.
package analytics

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lankasignal/lankasignal/internal/category"
	"github.com/lankasignal/lankasignal/internal/store"
	"github.com/lankasignal/lankasignal/internal/window"
)

// Store is the read side of the article store.
type Store interface {
	QueryWindow(w window.Window, sources []string) ([]store.Article, error)
	CategoryDistribution(w window.Window, sources []string) (map[category.Category]int, error)
	SourceDistribution(w window.Window, sources []string) (map[string]int, error)
}

// Topic is a keyword and the number of times it occurred.
type Topic struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// SourceCount is a source name and its article count.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

type Engine struct {
	store Store
}

func New(s Store) *Engine {
	return &Engine{store: s}
}

var keywordRe = regexp.MustCompile(`\b[a-z]{4,}\b`)

// ExtractKeywords returns the lowercase alphabetic words of four or more
// letters in title, minus stop words, in order of appearance.
func ExtractKeywords(title string) []string {
	words := keywordRe.FindAllString(strings.ToLower(title), -1)
	out := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// TrendingTopics counts keywords across all titles in w and returns the
// topN most frequent with at least minOccurrences hits. Equal counts keep
// first-seen order. topN <= 0 means no limit.
func (e *Engine) TrendingTopics(w window.Window, sources []string, topN, minOccurrences int) ([]Topic, error) {
	articles, err := e.store.QueryWindow(w, sources)
	if err != nil {
		return nil, fmt.Errorf("trending topics: %w", err)
	}
	return trending(articles, topN, minOccurrences), nil
}

func trending(articles []store.Article, topN, minOccurrences int) []Topic {
	counts := map[string]int{}
	var order []string
	for _, a := range articles {
		for _, kw := range ExtractKeywords(a.Title) {
			if counts[kw] == 0 {
				order = append(order, kw)
			}
			counts[kw]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if topN > 0 && len(order) > topN {
		order = order[:topN]
	}

	topics := []Topic{}
	for _, kw := range order {
		if counts[kw] >= minOccurrences {
			topics = append(topics, Topic{Keyword: kw, Count: counts[kw]})
		}
	}
	return topics
}

func (e *Engine) CategoryDistribution(w window.Window, sources []string) (map[category.Category]int, error) {
	return e.store.CategoryDistribution(w, sources)
}

func (e *Engine) SourceDistribution(w window.Window, sources []string) (map[string]int, error) {
	return e.store.SourceDistribution(w, sources)
}

// SentimentByCategory averages sentiment per category over articles that
// carry both. Categories without such articles are omitted.
func (e *Engine) SentimentByCategory(w window.Window, sources []string) (map[category.Category]float64, error) {
	articles, err := e.store.QueryWindow(w, sources)
	if err != nil {
		return nil, fmt.Errorf("sentiment by category: %w", err)
	}
	sums := map[category.Category]float64{}
	counts := map[category.Category]int{}
	for _, a := range articles {
		if a.Category == nil || a.Sentiment == nil {
			continue
		}
		sums[*a.Category] += *a.Sentiment
		counts[*a.Category]++
	}
	out := make(map[category.Category]float64, len(counts))
	for c, n := range counts {
		out[c] = sums[c] / float64(n)
	}
	return out, nil
}

// ActiveSources returns up to limit sources ranked by article count.
func (e *Engine) ActiveSources(w window.Window, limit int) ([]SourceCount, error) {
	dist, err := e.store.SourceDistribution(w, nil)
	if err != nil {
		return nil, err
	}
	return RankSources(dist, limit), nil
}

// RankSources orders a source distribution by count, then name, keeping at
// most limit entries. limit <= 0 keeps all.
func RankSources(dist map[string]int, limit int) []SourceCount {
	sorted := make([]SourceCount, 0, len(dist))
	for name, count := range dist {
		sorted = append(sorted, SourceCount{Source: name, Count: count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Source < sorted[j].Source
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// Summary is a one-call overview of a window.
type Summary struct {
	Window     string                        `json:"window"`
	Total      int                           `json:"total"`
	Categories map[category.Category]int     `json:"categories"`
	Sources    map[string]int                `json:"sources"`
	Sentiment  map[category.Category]float64 `json:"sentiment"`
	Trending   []Topic                       `json:"trending"`
}

// Summary gathers the distributions, sentiment and trending topics of w.
func (e *Engine) Summary(w window.Window, sources []string, topN, minOccurrences int) (*Summary, error) {
	w = window.Normalize(w.Older, w.Newer)
	articles, err := e.store.QueryWindow(w, sources)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	cats, err := e.store.CategoryDistribution(w, sources)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	srcs, err := e.store.SourceDistribution(w, sources)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	sent, err := e.SentimentByCategory(w, sources)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Window:     w.String(),
		Total:      len(articles),
		Categories: cats,
		Sources:    srcs,
		Sentiment:  sent,
		Trending:   trending(articles, topN, minOccurrences),
	}, nil
}

var stopWords = map[string]bool{
	"about": true, "after": true, "before": true, "been": true, "being": true,
	"between": true, "both": true, "could": true, "does": true, "each": true,
	"every": true, "from": true, "have": true, "into": true, "just": true,
	"might": true, "more": true, "most": true, "other": true, "over": true,
	"should": true, "some": true, "such": true, "than": true, "that": true,
	"their": true, "them": true, "these": true, "they": true, "this": true,
	"those": true, "under": true, "very": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "will": true, "with": true,
	"would": true, "your": true, "above": true, "used": true, "using": true,
	"lanka": true, "lankan": true, "says": true, "said": true, "sri": true,
}
