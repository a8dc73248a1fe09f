// Package ristretto adapts dgraph-io/ristretto to the provider interface.
// Admission is cost-based and probabilistic, so a Set may be silently
// rejected under pressure; the memo stores tolerate that (a rejected write
// reads as a miss next time).
package ristretto

import (
	"context"
	"time"

	rc "github.com/dgraph-io/ristretto"
)

type Config struct {
	// NumCounters should be ~10x the expected live entries.
	NumCounters int64
	// MaxCost caps total cost; memo stores pass cost 1 per entry, so this
	// is effectively a max entry count.
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

type Provider struct {
	c *rc.Cache
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = 1 << 20
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 1 << 16
	}
	if cfg.BufferItems <= 0 {
		cfg.BufferItems = 64
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// foreign value shape under our key; drop it
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	return p.c.SetWithTTL(key, value, cost, ttl), nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes the underlying cache metrics when Config.Metrics was set.
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
