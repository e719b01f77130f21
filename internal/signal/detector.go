package signal

import (
	"fmt"
	"sort"
	"time"

	"github.com/lankasignal/lankasignal/internal/analytics"
	"github.com/lankasignal/lankasignal/internal/category"
	"github.com/lankasignal/lankasignal/internal/keyword"
	"github.com/lankasignal/lankasignal/internal/window"
)

// Store is what the detector reads.
type Store interface {
	analytics.Store
	Now() time.Time
}

// RiskTiers holds the risk keyword lists, checked high to low.
type RiskTiers struct {
	High   []string
	Medium []string
	Low    []string
}

// Config carries the detector's thresholds and keyword lists.
type Config struct {
	Risks                  RiskTiers
	Opportunities          []string
	LookbackHours          float64
	TrendingThreshold      int
	TrendingTopN           int
	TrendingMinOccurrences int
	AnomalyMultiplier      float64
	RecentHours            float64
	BaselineHours          float64
	CategorySpikeFloor     int
}

type tier struct {
	severity Severity
	keywords keyword.List
}

type Detector struct {
	store         Store
	analytics     *analytics.Engine
	cfg           Config
	tiers         []tier
	opportunities keyword.List
}

func New(s Store, cfg Config) *Detector {
	return &Detector{
		store:     s,
		analytics: analytics.New(s),
		cfg:       cfg,
		tiers: []tier{
			{SeverityHigh, keyword.NewList(cfg.Risks.High)},
			{SeverityMedium, keyword.NewList(cfg.Risks.Medium)},
			{SeverityLow, keyword.NewList(cfg.Risks.Low)},
		},
		opportunities: keyword.NewList(cfg.Opportunities),
	}
}

// Lookback is the default window for risks, opportunities and trends.
func (d *Detector) Lookback() window.Window {
	return window.Last(d.cfg.LookbackHours)
}

// DetectRisks returns one risk per matching article, high severity first.
// An article is assigned the first tier it matches.
func (d *Detector) DetectRisks(w window.Window, sources []string) ([]Risk, error) {
	articles, err := d.store.QueryWindow(w, sources)
	if err != nil {
		return nil, fmt.Errorf("detecting risks: %w", err)
	}

	risks := []Risk{}
	for _, a := range articles {
		for _, t := range d.tiers {
			kw, ok := t.keywords.First(a.Title)
			if !ok {
				continue
			}
			risks = append(risks, Risk{
				Severity:    t.severity,
				Description: a.Title,
				Category:    a.CategoryOrGeneral(),
				Source:      a.Source,
				URL:         a.URL,
				Keyword:     kw,
				DetectedAt:  a.CollectedAt,
			})
			break
		}
	}
	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].Severity.rank() < risks[j].Severity.rank()
	})
	return risks, nil
}

// DetectOpportunities returns articles matching any opportunity keyword,
// most positive sentiment first.
func (d *Detector) DetectOpportunities(w window.Window, sources []string) ([]Opportunity, error) {
	articles, err := d.store.QueryWindow(w, sources)
	if err != nil {
		return nil, fmt.Errorf("detecting opportunities: %w", err)
	}

	opps := []Opportunity{}
	for _, a := range articles {
		kw, ok := d.opportunities.First(a.Title)
		if !ok {
			continue
		}
		opps = append(opps, Opportunity{
			Description: a.Title,
			Category:    a.CategoryOrGeneral(),
			Source:      a.Source,
			URL:         a.URL,
			Keyword:     kw,
			Sentiment:   a.SentimentOrNeutral(),
			DetectedAt:  a.CollectedAt,
		})
	}
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Sentiment > opps[j].Sentiment
	})
	return opps, nil
}

// DetectTrendingTopics keeps the trending keywords of w that reach the
// trending threshold.
func (d *Detector) DetectTrendingTopics(w window.Window, sources []string) ([]Trend, error) {
	w = window.Normalize(w.Older, w.Newer)
	topics, err := d.analytics.TrendingTopics(w, sources, d.cfg.TrendingTopN, d.cfg.TrendingMinOccurrences)
	if err != nil {
		return nil, fmt.Errorf("detecting trends: %w", err)
	}
	trends := []Trend{}
	for _, t := range topics {
		if t.Count >= d.cfg.TrendingThreshold {
			trends = append(trends, Trend{Topic: t.Keyword, Count: t.Count, Timeframe: w.String()})
		}
	}
	return trends, nil
}

// DetectAnomalies compares the last recentHours against the hourly average
// of the last baselineHours, overall and per category.
func (d *Detector) DetectAnomalies(recentHours, baselineHours float64) ([]Anomaly, error) {
	recent := window.Last(recentHours)
	baseline := window.Last(baselineHours)
	anomalies := []Anomaly{}

	hours := baseline.Length()
	if hours <= 0 {
		return anomalies, nil
	}
	now := d.store.Now()

	recentArticles, err := d.store.QueryWindow(recent, nil)
	if err != nil {
		return nil, fmt.Errorf("detecting anomalies: %w", err)
	}
	baselineArticles, err := d.store.QueryWindow(baseline, nil)
	if err != nil {
		return nil, fmt.Errorf("detecting anomalies: %w", err)
	}

	recentCount := len(recentArticles)
	avg := float64(len(baselineArticles)) / hours
	if float64(recentCount) > avg*d.cfg.AnomalyMultiplier {
		anomalies = append(anomalies, Anomaly{
			Type:        HighVolume,
			Description: fmt.Sprintf("Unusual spike in news activity: %d articles in last %s (avg: %.1f/hour)", recentCount, hoursLabel(recent.Length()), avg),
			Severity:    SeverityMedium,
			Recent:      recentCount,
			BaselineAvg: avg,
			DetectedAt:  now,
		})
	}

	recentDist, err := d.store.CategoryDistribution(recent, nil)
	if err != nil {
		return nil, fmt.Errorf("detecting anomalies: %w", err)
	}
	baselineDist, err := d.store.CategoryDistribution(baseline, nil)
	if err != nil {
		return nil, fmt.Errorf("detecting anomalies: %w", err)
	}

	cats := make([]string, 0, len(recentDist))
	for c := range recentDist {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)
	for _, name := range cats {
		c := category.Category(name)
		count := recentDist[c]
		catAvg := float64(baselineDist[c]) / hours
		if float64(count) > catAvg*d.cfg.AnomalyMultiplier && count >= d.cfg.CategorySpikeFloor {
			anomalies = append(anomalies, Anomaly{
				Type:        CategorySpike,
				Description: fmt.Sprintf("Spike in %s news: %d articles in last %s", c, count, hoursLabel(recent.Length())),
				Category:    c,
				Severity:    SeverityLow,
				Recent:      count,
				BaselineAvg: catAvg,
				DetectedAt:  now,
			})
		}
	}
	return anomalies, nil
}

func hoursLabel(h float64) string {
	if h == 1 {
		return "hour"
	}
	return fmt.Sprintf("%g hours", h)
}

// GenerateAll runs every detector with its default window.
func (d *Detector) GenerateAll() (*Bundle, error) {
	return d.Generate(d.Lookback(), nil)
}

// Generate runs the risk, opportunity and trend detectors over w and
// sources. Anomalies always cover every source with the configured recent
// and baseline windows.
func (d *Detector) Generate(w window.Window, sources []string) (*Bundle, error) {
	b := &Bundle{GeneratedAt: d.store.Now()}

	var err error
	if b.Risks, err = d.DetectRisks(w, sources); err != nil {
		return nil, err
	}
	if b.Opportunities, err = d.DetectOpportunities(w, sources); err != nil {
		return nil, err
	}
	if b.Trending, err = d.DetectTrendingTopics(w, sources); err != nil {
		return nil, err
	}
	if b.Anomalies, err = d.DetectAnomalies(d.cfg.RecentHours, d.cfg.BaselineHours); err != nil {
		return nil, err
	}
	return b, nil
}
