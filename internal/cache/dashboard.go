// Package cache provides the optional Redis dashboard-summary cache.
// When Redis is disabled or unreachable the service falls back to a
// noop cache and every request recomputes the summary.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"dbusana/internal/config"
	"dbusana/pkg/contracts/domain"
)

const (
	summaryKeyPrefix = "dashboard:summary"
	scanBatchSize    = 100
	defaultTTL       = time.Minute
)

// SummaryFilter keys a cached summary by the requested date range.
type SummaryFilter struct {
	From time.Time
	To   time.Time
}

// DashboardSummaryCache caches KPI summaries keyed by filter. Imports
// invalidate the whole cache since any merge can change every range.
type DashboardSummaryCache interface {
	GetSummary(ctx context.Context, filter SummaryFilter) (*domain.DashboardSummary, bool, error)
	SetSummary(ctx context.Context, filter SummaryFilter, summary *domain.DashboardSummary) error
	InvalidateAll(ctx context.Context) error
}

type redisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSummaryCache struct{}

// NewDashboardCache returns a Redis-backed cache when enabled, a noop
// cache otherwise. A failed ping is an error so misconfiguration is
// loud rather than silently uncached.
func NewDashboardCache(cfg config.CacheConfig) (DashboardSummaryCache, error) {
	if !cfg.Enabled {
		return &noopSummaryCache{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := cfg.SummaryTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &redisSummaryCache{client: client, ttl: ttl}, nil
}

// NewNoopDashboardCache returns the cache that caches nothing.
func NewNoopDashboardCache() DashboardSummaryCache {
	return &noopSummaryCache{}
}

func (c *redisSummaryCache) GetSummary(ctx context.Context, filter SummaryFilter) (*domain.DashboardSummary, bool, error) {
	payload, err := c.client.Get(ctx, summaryKey(filter)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summary domain.DashboardSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false, fmt.Errorf("decode cached summary: %w", err)
	}
	return &summary, true, nil
}

func (c *redisSummaryCache) SetSummary(ctx context.Context, filter SummaryFilter, summary *domain.DashboardSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey(filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisSummaryCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, summaryKeyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (n *noopSummaryCache) GetSummary(ctx context.Context, filter SummaryFilter) (*domain.DashboardSummary, bool, error) {
	return nil, false, nil
}

func (n *noopSummaryCache) SetSummary(ctx context.Context, filter SummaryFilter, summary *domain.DashboardSummary) error {
	return nil
}

func (n *noopSummaryCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func summaryKey(filter SummaryFilter) string {
	if filter.From.IsZero() && filter.To.IsZero() {
		return summaryKeyPrefix + ":default"
	}

	var parts []string
	if !filter.From.IsZero() {
		parts = append(parts, "from="+filter.From.Format("2006-01-02"))
	}
	if !filter.To.IsZero() {
		parts = append(parts, "to="+filter.To.Format("2006-01-02"))
	}

	raw := strings.Join(parts, "|")
	hash := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", summaryKeyPrefix, hex.EncodeToString(hash[:]))
}
