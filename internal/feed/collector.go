package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lankasignal/lankasignal/internal/config"
	"github.com/lankasignal/lankasignal/internal/store"
)

// Adder persists collected articles, deduplicating by URL.
type Adder interface {
	Add(a store.NewArticle) (id int64, added bool, err error)
}

// SourceResult is the outcome for one source.
type SourceResult struct {
	Source string
	Found  int
	Added  int
	Err    error
}

// Result summarizes a collection run.
type Result struct {
	Sources []SourceResult
	Found   int
	Added   int
}

// Errors returns the per-source failures of the run.
func (r Result) Errors() []error {
	var errs []error
	for _, s := range r.Sources {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Source, s.Err))
		}
	}
	return errs
}

// Collector fetches all sources concurrently and inserts the results
// sequentially, in source order.
type Collector struct {
	store       Adder
	fetchers    map[string]Fetcher
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

// NewCollector builds a collector from the collector section of the config.
func NewCollector(s Adder, cfg *config.Config, logger *slog.Logger) *Collector {
	opts := Options{
		UserAgent:    cfg.Collector.UserAgent,
		MaxPerSource: cfg.Collector.MaxPerSource,
	}
	rss := NewRSSFetcher(opts)
	c := &Collector{
		store: s,
		fetchers: map[string]Fetcher{
			"rss":  rss,
			"atom": rss,
			"html": NewHTMLFetcher(opts),
		},
		concurrency: cfg.Collector.Concurrency,
		timeout:     cfg.FetchTimeout(),
		logger:      logger,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// SetFetcher overrides the fetcher used for a source type.
func (c *Collector) SetFetcher(sourceType string, f Fetcher) {
	c.fetchers[sourceType] = f
}

// Collect fetches every source and stores new articles. A failing source is
// recorded in its SourceResult and does not stop the others.
func (c *Collector) Collect(ctx context.Context, sources []config.Source) Result {
	fetched := make([][]store.NewArticle, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			fetched[i], errs[i] = c.fetch(ctx, src)
			return nil
		})
	}
	g.Wait()

	res := Result{Sources: make([]SourceResult, len(sources))}
	for i, src := range sources {
		sr := SourceResult{Source: src.Name, Err: errs[i], Found: len(fetched[i])}
		for _, a := range fetched[i] {
			if ctx.Err() != nil {
				sr.Err = ctx.Err()
				break
			}
			_, added, err := c.store.Add(a)
			if err != nil {
				c.logger.Warn("storing article failed", "source", src.Name, "url", a.URL, "error", err)
				continue
			}
			if added {
				sr.Added++
			}
		}
		if sr.Err != nil {
			c.logger.Warn("source failed", "source", src.Name, "error", sr.Err)
		} else {
			c.logger.Info("source collected", "source", src.Name, "found", sr.Found, "new", sr.Added)
		}
		res.Sources[i] = sr
		res.Found += sr.Found
		res.Added += sr.Added
	}
	return res
}

func (c *Collector) fetch(ctx context.Context, src config.Source) ([]store.NewArticle, error) {
	f, ok := c.fetchers[src.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported source type %q", src.Type)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return f.Fetch(ctx, src)
}
