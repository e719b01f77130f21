package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/lankasignal/lankasignal/internal/category"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const appName = "lankasignal"

type Source struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	URL      string `yaml:"url"`
	Selector string `yaml:"selector,omitempty"` // html sources only
	Enabled  bool   `yaml:"enabled"`
}

type AnomalyConfig struct {
	RecentHours        float64 `yaml:"recent_hours"`
	BaselineHours      float64 `yaml:"baseline_hours"`
	CategorySpikeFloor int     `yaml:"category_spike_floor"`
}

type TrendingConfig struct {
	TopN           int `yaml:"top_n"`
	MinOccurrences int `yaml:"min_occurrences"`
}

type CollectorConfig struct {
	Concurrency  int    `yaml:"concurrency"`
	Timeout      string `yaml:"timeout"`
	MaxPerSource int    `yaml:"max_per_source"`
	UserAgent    string `yaml:"user_agent"`
}

type APIConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
	TTL      string `yaml:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RiskKeywords struct {
	High   []string `yaml:"high"`
	Medium []string `yaml:"medium"`
	Low    []string `yaml:"low"`
}

type Config struct {
	RefreshInterval       string  `yaml:"refresh_interval"`
	Retention             string  `yaml:"retention"`
	Database              string  `yaml:"database,omitempty"`
	ModelPath             string  `yaml:"model_path,omitempty"`
	CategoryMinConfidence float64 `yaml:"category_min_confidence"`
	TrendingThreshold     int     `yaml:"trending_threshold"`
	AnomalyMultiplier     float64 `yaml:"anomaly_multiplier"`
	SignalLookbackHours   float64 `yaml:"signal_lookback_hours"`
	TrainingLookbackHours float64 `yaml:"training_lookback_hours"`
	SentimentAnalyzer     string  `yaml:"sentiment_analyzer"`

	Anomaly   AnomalyConfig   `yaml:"anomaly"`
	Trending  TrendingConfig  `yaml:"trending"`
	Collector CollectorConfig `yaml:"collector"`
	API       APIConfig       `yaml:"api"`
	Redis     RedisConfig     `yaml:"redis"`
	Log       LogConfig       `yaml:"log"`

	Sources             []Source     `yaml:"sources"`
	Categories          Categories   `yaml:"categories"`
	RiskKeywords        RiskKeywords `yaml:"risk_keywords"`
	OpportunityKeywords []string     `yaml:"opportunity_keywords"`
}

func (c *Config) RefreshDuration() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// RetentionDuration is how long articles are kept: "90d", "720h" and
// similar. Zero means keep everything, which is the default.
func (c *Config) RetentionDuration() time.Duration {
	d, err := parseRetention(c.Retention)
	if err != nil {
		return 0
	}
	return d
}

func parseRetention(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	if len(s) > 1 && s[len(s)-1] == 'd' {
		days, err := strconv.Atoi(s[:len(s)-1])
		if err != nil || days < 0 {
			return 0, fmt.Errorf("invalid retention %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid retention %q", s)
	}
	return d, nil
}

// FetchTimeout is the per-request collector timeout, defaulting to 10s.
func (c *Config) FetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Collector.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// RedisTTL is how long a published snapshot lives. Zero means no expiry.
func (c *Config) RedisTTL() time.Duration {
	if c.Redis.TTL == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Redis.TTL)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) SourceNames() []string {
	var names []string
	for _, s := range c.EnabledSources() {
		names = append(names, s.Name)
	}
	return names
}

// CategoryTable builds the validated category table.
func (c *Config) CategoryTable() (*category.Table, error) {
	return category.NewTable(c.Categories.Entries())
}

// DatabaseDSN returns the configured database, or the default SQLite file
// under the XDG data directory.
func (c *Config) DatabaseDSN() string {
	if c.Database != "" {
		return c.Database
	}
	return DataPath()
}

// ModelFile returns where the trained classifier is kept.
func (c *Config) ModelFile() string {
	if c.ModelPath != "" {
		return c.ModelPath
	}
	return filepath.Join(xdg.DataHome, appName, "model.json")
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

func DataPath() string {
	return filepath.Join(xdg.DataHome, appName, appName+".db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads path (the XDG default when empty) on top of the embedded
// defaults, then applies LANKASIGNAL_* environment overrides. A missing
// file is created from the defaults.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Non-fatal: the embedded defaults still apply.
		_ = writeDefaults(path)
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
		mergeDefaultSources(cfg, defaults)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeDefaultSources refreshes the type and URL of sources that also exist
// in the defaults and appends default sources the user does not list.
func mergeDefaultSources(cfg, defaults *Config) {
	index := map[string]int{}
	for i, s := range cfg.Sources {
		index[s.Name] = i
	}
	for _, d := range defaults.Sources {
		if i, ok := index[d.Name]; ok {
			cfg.Sources[i].URL = d.URL
			cfg.Sources[i].Type = d.Type
			if cfg.Sources[i].Selector == "" {
				cfg.Sources[i].Selector = d.Selector
			}
			continue
		}
		cfg.Sources = append(cfg.Sources, d)
	}
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	validTypes := map[string]bool{"rss": true, "atom": true, "html": true}
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
		if !validTypes[s.Type] {
			return fmt.Errorf("source %q: unknown type %q (valid: rss, atom, html)", s.Name, s.Type)
		}
		if s.Type == "html" && strings.TrimSpace(s.Selector) == "" {
			return fmt.Errorf("source %q: html sources need a selector", s.Name)
		}
	}

	if _, err := parseRetention(cfg.Retention); err != nil {
		return err
	}
	switch cfg.SentimentAnalyzer {
	case "", "vader", "lexicon":
	default:
		return fmt.Errorf("sentiment_analyzer must be vader or lexicon, got %q", cfg.SentimentAnalyzer)
	}
	if cfg.CategoryMinConfidence < 0 || cfg.CategoryMinConfidence > 1 {
		return fmt.Errorf("category_min_confidence must be in [0, 1], got %v", cfg.CategoryMinConfidence)
	}
	if cfg.AnomalyMultiplier <= 0 {
		return fmt.Errorf("anomaly_multiplier must be positive, got %v", cfg.AnomalyMultiplier)
	}
	if cfg.TrendingThreshold < 0 || cfg.Trending.MinOccurrences < 0 || cfg.Anomaly.CategorySpikeFloor < 0 {
		return fmt.Errorf("trending and anomaly thresholds must not be negative")
	}
	for name, h := range map[string]float64{
		"signal_lookback_hours":   cfg.SignalLookbackHours,
		"training_lookback_hours": cfg.TrainingLookbackHours,
		"anomaly.recent_hours":    cfg.Anomaly.RecentHours,
		"anomaly.baseline_hours":  cfg.Anomaly.BaselineHours,
	} {
		if h < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, h)
		}
	}
	if _, err := cfg.CategoryTable(); err != nil {
		return fmt.Errorf("categories: %w", err)
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format %q is not one of text, json", cfg.Log.Format)
	}
	return nil
}
