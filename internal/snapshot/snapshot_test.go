package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lankasignal/lankasignal/internal/signal"
)

type memKV struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	m.data[key] = string(value.([]byte))
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *memKV) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestPublishAndLatest(t *testing.T) {
	kv := newMemKV()
	p := New(kv, "", 2*time.Hour)
	if p.Key() != DefaultKey {
		t.Errorf("expected default key, got %s", p.Key())
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := &signal.Bundle{
		Risks:         []signal.Risk{{Severity: signal.SeverityHigh, Description: "Fuel crisis deepens", Category: "energy", DetectedAt: at}},
		Opportunities: []signal.Opportunity{},
		Trending:      []signal.Trend{{Topic: "colombo", Count: 4, Timeframe: "24h->0h"}},
		Anomalies:     []signal.Anomaly{},
		GeneratedAt:   at,
	}
	if err := p.Publish(context.Background(), b); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if kv.ttls[DefaultKey] != 2*time.Hour {
		t.Errorf("expected ttl 2h, got %v", kv.ttls[DefaultKey])
	}

	got, err := p.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(got.Risks) != 1 || got.Risks[0].Description != "Fuel crisis deepens" {
		t.Errorf("unexpected risks: %+v", got.Risks)
	}
	if got.Trending[0].Count != 4 || !got.GeneratedAt.Equal(at) {
		t.Errorf("unexpected bundle: %+v", got)
	}
}

func TestLatestMissing(t *testing.T) {
	p := New(newMemKV(), "custom:key", 0)
	_, err := p.Latest(context.Background())
	if !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestPublishError(t *testing.T) {
	kv := newMemKV()
	kv.err = errors.New("connection refused")
	p := New(kv, "k", 0)
	if err := p.Publish(context.Background(), &signal.Bundle{}); err == nil {
		t.Error("expected publish error")
	}
}

func TestLatestCorrupt(t *testing.T) {
	kv := newMemKV()
	kv.data["k"] = "{not json"
	p := New(kv, "k", 0)
	if _, err := p.Latest(context.Background()); err == nil || errors.Is(err, ErrNoSnapshot) {
		t.Errorf("expected decode error, got %v", err)
	}
}
