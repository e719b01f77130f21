package categorize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lankasignal/lankasignal/internal/category"
	"github.com/lankasignal/lankasignal/internal/store"
)

// Store is the persistence the processor needs.
type Store interface {
	Unprocessed() ([]store.Article, error)
	MarkProcessed(id int64, cat category.Category, sentiment float64) error
}

// SentimentScorer returns a polarity in [-1, 1] and never fails.
type SentimentScorer interface {
	Score(text string) float64
}

// Processed is the outcome for one article.
type Processed struct {
	ID         int64             `json:"id"`
	Title      string            `json:"title"`
	Source     string            `json:"source"`
	Category   category.Category `json:"category"`
	Confidence float64           `json:"confidence"`
	Sentiment  float64           `json:"sentiment"`
}

// Processor categorizes and scores every unprocessed article.
type Processor struct {
	store     Store
	arbiter   *Arbiter
	sentiment SentimentScorer
	logger    *slog.Logger
}

func NewProcessor(s Store, a *Arbiter, sent SentimentScorer, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: s, arbiter: a, sentiment: sent, logger: logger}
}

// ProcessArticles runs one pass. Each article is marked processed exactly
// once; a failed update is logged and the article is left for the next
// pass. The returned slice holds only the articles that were persisted.
func (p *Processor) ProcessArticles(ctx context.Context) ([]Processed, error) {
	articles, err := p.store.Unprocessed()
	if err != nil {
		return nil, fmt.Errorf("loading unprocessed articles: %w", err)
	}

	out := make([]Processed, 0, len(articles))
	failed := 0
	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res := p.arbiter.Categorize(a.Title)
		sent := p.sentiment.Score(a.Title)
		if err := p.store.MarkProcessed(a.ID, res.Category, sent); err != nil {
			p.logger.Error("marking article processed", "id", a.ID, "error", err)
			failed++
			continue
		}
		out = append(out, Processed{
			ID:         a.ID,
			Title:      a.Title,
			Source:     a.Source,
			Category:   res.Category,
			Confidence: res.Confidence,
			Sentiment:  sent,
		})
	}

	p.logger.Info("processed articles", "count", len(out), "failed", failed)
	return out, nil
}
