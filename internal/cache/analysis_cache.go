// Package cache provides Redis-based caching for phase analysis results.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"wyckoff-trading-bot/config"
	"wyckoff-trading-bot/internal/wyckoff"
)

// keyAnalysis is the cache key pattern for phase results.
const keyAnalysis = "wyckoff:analysis:%s:%s" // symbol, timeframe

// DefaultAnalysisTTL bounds how stale a cached phase result may be.
const DefaultAnalysisTTL = 5 * time.Minute

// ErrCacheMiss is returned when no cached result exists for a key.
var ErrCacheMiss = errors.New("cache miss")

// AnalysisCache caches phase classification results with graceful
// degradation. When Redis is unavailable, reads report misses and writes
// are dropped; the scanner recomputes from fresh bars either way.
type AnalysisCache struct {
	client       *redis.Client
	ttl          time.Duration
	mu           sync.RWMutex
	healthy      bool
	failureCount int

	maxFailures int
}

// NewAnalysisCache creates a cache over the configured Redis instance.
func NewAnalysisCache(cfg config.RedisConfig, ttl time.Duration) (*AnalysisCache, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled in configuration")
	}
	if ttl <= 0 {
		ttl = DefaultAnalysisTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ac := &AnalysisCache{
		client:      client,
		ttl:         ttl,
		maxFailures: 3,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("address", cfg.Address).Msg("initial Redis connection failed, cache degraded")
		return ac, nil // degraded mode, scanner falls back to recomputation
	}

	ac.healthy = true
	log.Info().Str("address", cfg.Address).Msg("Redis connected")

	return ac, nil
}

// IsHealthy returns whether Redis is currently available.
func (ac *AnalysisCache) IsHealthy() bool {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return ac.healthy
}

func (ac *AnalysisCache) recordFailure() {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	ac.failureCount++
	if ac.failureCount >= ac.maxFailures {
		if ac.healthy {
			log.Warn().Int("failures", ac.failureCount).Msg("Redis marked unhealthy")
		}
		ac.healthy = false
	}
}

func (ac *AnalysisCache) recordSuccess() {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if !ac.healthy {
		log.Info().Msg("Redis recovered")
	}
	ac.healthy = true
	ac.failureCount = 0
}

// GetPhaseResult reads a cached phase result. Returns ErrCacheMiss when the
// key is absent or Redis is down.
func (ac *AnalysisCache) GetPhaseResult(ctx context.Context, symbol, timeframe string) (*wyckoff.PhaseResult, error) {
	key := fmt.Sprintf(keyAnalysis, symbol, timeframe)

	data, err := ac.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		ac.recordFailure()
		return nil, ErrCacheMiss
	}
	ac.recordSuccess()

	var result wyckoff.PhaseResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("corrupt cached phase result for %s: %w", symbol, err)
	}
	return &result, nil
}

// SetPhaseResult caches a phase result with the configured TTL. Failures
// are logged, never propagated; caching is best effort.
func (ac *AnalysisCache) SetPhaseResult(ctx context.Context, symbol, timeframe string, result *wyckoff.PhaseResult) {
	key := fmt.Sprintf(keyAnalysis, symbol, timeframe)

	data, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("cannot marshal phase result for cache")
		return
	}

	if err := ac.client.Set(ctx, key, data, ac.ttl).Err(); err != nil {
		ac.recordFailure()
		log.Debug().Err(err).Str("symbol", symbol).Msg("phase result cache write failed")
		return
	}
	ac.recordSuccess()
}

// Invalidate drops the cached result for one symbol/timeframe.
func (ac *AnalysisCache) Invalidate(ctx context.Context, symbol, timeframe string) {
	key := fmt.Sprintf(keyAnalysis, symbol, timeframe)
	if err := ac.client.Del(ctx, key).Err(); err != nil {
		ac.recordFailure()
	}
}

// Close releases the Redis connection.
func (ac *AnalysisCache) Close() error {
	return ac.client.Close()
}
