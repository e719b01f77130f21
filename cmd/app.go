package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lankasignal/lankasignal/internal/bayes"
	"github.com/lankasignal/lankasignal/internal/categorize"
	"github.com/lankasignal/lankasignal/internal/classify"
	"github.com/lankasignal/lankasignal/internal/config"
	"github.com/lankasignal/lankasignal/internal/sentiment"
	"github.com/lankasignal/lankasignal/internal/signal"
	"github.com/lankasignal/lankasignal/internal/store"
)

// app holds the components shared by the subcommands.
type app struct {
	cfg        *config.Config
	store      *store.Store
	scorer     *classify.Scorer
	classifier *bayes.Classifier
	analyzer   sentiment.Analyzer
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	table, err := cfg.CategoryTable()
	if err != nil {
		return nil, fmt.Errorf("building category table: %w", err)
	}
	analyzer, err := sentiment.ForName(cfg.SentimentAnalyzer)
	if err != nil {
		return nil, err
	}
	s, err := store.Open(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	scorer := classify.NewScorer(table)
	return &app{
		cfg:        cfg,
		store:      s,
		scorer:     scorer,
		classifier: bayes.New(scorer, cfg.ModelFile()),
		analyzer:   analyzer,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// processor loads or trains the statistical model and returns the
// categorization pipeline.
func (a *app) processor() (*categorize.Processor, bayes.TrainResult) {
	res := a.classifier.EnsureTrained(a.store, a.cfg.TrainingLookbackHours)
	arbiter := categorize.NewArbiter(classify.New(a.scorer, a.cfg.CategoryMinConfidence), a.classifier)
	return categorize.NewProcessor(a.store, arbiter, sentiment.New(a.analyzer), nil), res
}

func (a *app) detector() *signal.Detector {
	return signal.New(a.store, detectorConfig(a.cfg))
}

func detectorConfig(cfg *config.Config) signal.Config {
	return signal.Config{
		Risks: signal.RiskTiers{
			High:   cfg.RiskKeywords.High,
			Medium: cfg.RiskKeywords.Medium,
			Low:    cfg.RiskKeywords.Low,
		},
		Opportunities:          cfg.OpportunityKeywords,
		LookbackHours:          cfg.SignalLookbackHours,
		TrendingThreshold:      cfg.TrendingThreshold,
		TrendingTopN:           cfg.Trending.TopN,
		TrendingMinOccurrences: cfg.Trending.MinOccurrences,
		AnomalyMultiplier:      cfg.AnomalyMultiplier,
		RecentHours:            cfg.Anomaly.RecentHours,
		BaselineHours:          cfg.Anomaly.BaselineHours,
		CategorySpikeFloor:     cfg.Anomaly.CategorySpikeFloor,
	}
}

func hoursDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

// parseHours reads a window offset: "7d", a Go duration like "36h" or
// "90m", or a bare number of hours.
func parseHours(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	var h float64
	if len(s) > 1 && s[len(s)-1] == 'd' {
		days, err := strconv.ParseFloat(s[:len(s)-1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		h = days * 24
	} else if v, err := strconv.ParseFloat(s, 64); err == nil {
		h = v
	} else {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, err
		}
		h = d.Hours()
	}
	if h < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return h, nil
}
