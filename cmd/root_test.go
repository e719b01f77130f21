package cmd

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lankasignal/lankasignal/internal/config"
)

func TestParseHours(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		err   bool
	}{
		{"7d", 168, false},
		{"1d", 24, false},
		{"24h", 24, false},
		{"30m", 0.5, false},
		{"2h30m", 2.5, false},
		{"36", 36, false},
		{"0", 0, false},
		{"invalid", 0, true},
		{"", 0, true},
		{"d", 0, true},
		{"-3", 0, true},
		{"-2h", 0, true},
	}

	for _, tt := range tests {
		got, err := parseHours(tt.input)
		if tt.err {
			if err == nil {
				t.Errorf("parseHours(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseHours(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseHours(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestHoursDuration(t *testing.T) {
	if got := hoursDuration(1.5); got != 90*time.Minute {
		t.Errorf("hoursDuration(1.5) = %v, want 90m", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerLevel(t *testing.T) {
	l := newLogger(config.LogConfig{Level: "warn", Format: "json"})
	if l.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !l.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestDetectorConfig(t *testing.T) {
	cfg := &config.Config{
		SignalLookbackHours: 48,
		TrendingThreshold:   4,
		AnomalyMultiplier:   2.5,
		OpportunityKeywords: []string{"investment"},
	}
	cfg.RiskKeywords.High = []string{"flood"}
	cfg.RiskKeywords.Medium = []string{"strike"}
	cfg.RiskKeywords.Low = []string{"delay"}
	cfg.Trending.TopN = 7
	cfg.Trending.MinOccurrences = 3
	cfg.Anomaly.RecentHours = 2
	cfg.Anomaly.BaselineHours = 24
	cfg.Anomaly.CategorySpikeFloor = 5

	got := detectorConfig(cfg)
	if got.LookbackHours != 48 || got.TrendingThreshold != 4 || got.AnomalyMultiplier != 2.5 {
		t.Errorf("scalar fields not copied: %+v", got)
	}
	if got.TrendingTopN != 7 || got.TrendingMinOccurrences != 3 {
		t.Errorf("trending = %d/%d, want 7/3", got.TrendingTopN, got.TrendingMinOccurrences)
	}
	if got.RecentHours != 2 || got.BaselineHours != 24 || got.CategorySpikeFloor != 5 {
		t.Errorf("anomaly fields not copied: %+v", got)
	}
	if len(got.Risks.High) != 1 || got.Risks.High[0] != "flood" || got.Risks.Low[0] != "delay" {
		t.Errorf("risk tiers = %+v", got.Risks)
	}
	if len(got.Opportunities) != 1 || got.Opportunities[0] != "investment" {
		t.Errorf("opportunities = %v", got.Opportunities)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(90 * 24 * time.Hour); got != "90d" {
		t.Errorf("formatDuration(90d) = %q", got)
	}
	if got := formatDuration(5 * time.Hour); got != "5h" {
		t.Errorf("formatDuration(5h) = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type countingPruner struct {
	calls int
	got   time.Duration
}

func (p *countingPruner) Prune(olderThan time.Duration) (int64, error) {
	p.calls++
	p.got = olderThan
	return 3, nil
}

func TestAutoPrune(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p := &countingPruner{}
	if n := autoPrune(p, 0, logger); n != 0 || p.calls != 0 {
		t.Errorf("zero retention must keep everything, got n=%d calls=%d", n, p.calls)
	}

	if n := autoPrune(p, 30*24*time.Hour, logger); n != 3 || p.calls != 1 {
		t.Errorf("expected one prune removing 3, got n=%d calls=%d", n, p.calls)
	}
	if p.got != 30*24*time.Hour {
		t.Errorf("expected retention 720h, got %v", p.got)
	}
}
