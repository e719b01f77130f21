// Package snapshot publishes the latest signal bundle to Redis so dashboards
// can read it without touching the article store.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lankasignal/lankasignal/internal/signal"
)

const DefaultKey = "lankasignal:signals:latest"

// ErrNoSnapshot is returned by Latest when nothing has been published.
var ErrNoSnapshot = errors.New("no signal snapshot published")

// KV is the subset of the Redis client the publisher uses.
type KV interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type Publisher struct {
	kv  KV
	key string
	ttl time.Duration
}

// New returns a publisher writing to key. A zero ttl keeps the snapshot
// until it is overwritten.
func New(kv KV, key string, ttl time.Duration) *Publisher {
	if key == "" {
		key = DefaultKey
	}
	return &Publisher{kv: kv, key: key, ttl: ttl}
}

// Connect opens a Redis client from a redis:// URL or a host:port address
// and checks it with a ping.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	opt, err := redis.ParseURL(addr)
	if err != nil {
		opt = &redis.Options{Addr: addr, Password: password, DB: db}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opt.Addr, err)
	}
	return client, nil
}

func (p *Publisher) Key() string { return p.key }

// Publish overwrites the snapshot with b.
func (p *Publisher) Publish(ctx context.Context, b *signal.Bundle) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := p.kv.Set(ctx, p.key, data, p.ttl).Err(); err != nil {
		return fmt.Errorf("publishing snapshot: %w", err)
	}
	return nil
}

// Latest reads back the last published bundle.
func (p *Publisher) Latest(ctx context.Context) (*signal.Bundle, error) {
	data, err := p.kv.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var b signal.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &b, nil
}
