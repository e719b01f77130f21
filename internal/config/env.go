package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "LANKASIGNAL"

// applyEnv overrides scalar options from LANKASIGNAL_* variables, e.g.
// LANKASIGNAL_ANOMALY_RECENT_HOURS for anomaly.recent_hours.
func applyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	strs := map[string]*string{
		"refresh_interval":   &cfg.RefreshInterval,
		"retention":          &cfg.Retention,
		"database":           &cfg.Database,
		"model_path":         &cfg.ModelPath,
		"sentiment_analyzer": &cfg.SentimentAnalyzer,
		"api.addr":           &cfg.API.Addr,
		"redis.addr":         &cfg.Redis.Addr,
		"redis.password":     &cfg.Redis.Password,
		"redis.key":          &cfg.Redis.Key,
		"redis.ttl":          &cfg.Redis.TTL,
		"log.level":          &cfg.Log.Level,
		"log.format":         &cfg.Log.Format,
		"collector.timeout":  &cfg.Collector.Timeout,
	}
	floats := map[string]*float64{
		"category_min_confidence": &cfg.CategoryMinConfidence,
		"anomaly_multiplier":      &cfg.AnomalyMultiplier,
		"signal_lookback_hours":   &cfg.SignalLookbackHours,
		"training_lookback_hours": &cfg.TrainingLookbackHours,
		"anomaly.recent_hours":    &cfg.Anomaly.RecentHours,
		"anomaly.baseline_hours":  &cfg.Anomaly.BaselineHours,
	}
	ints := map[string]*int{
		"trending_threshold":           &cfg.TrendingThreshold,
		"anomaly.category_spike_floor": &cfg.Anomaly.CategorySpikeFloor,
		"trending.top_n":               &cfg.Trending.TopN,
		"trending.min_occurrences":     &cfg.Trending.MinOccurrences,
		"collector.concurrency":        &cfg.Collector.Concurrency,
		"collector.max_per_source":     &cfg.Collector.MaxPerSource,
		"redis.db":                     &cfg.Redis.DB,
	}

	for key, dst := range strs {
		if err := v.BindEnv(key); err != nil {
			return err
		}
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	for key, dst := range floats {
		if err := v.BindEnv(key); err != nil {
			return err
		}
		if !v.IsSet(key) {
			continue
		}
		f, err := strconv.ParseFloat(v.GetString(key), 64)
		if err != nil {
			return fmt.Errorf("env %s: %w", envName(key), err)
		}
		*dst = f
	}
	for key, dst := range ints {
		if err := v.BindEnv(key); err != nil {
			return err
		}
		if !v.IsSet(key) {
			continue
		}
		n, err := strconv.Atoi(v.GetString(key))
		if err != nil {
			return fmt.Errorf("env %s: %w", envName(key), err)
		}
		*dst = n
	}
	return nil
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
