package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xela07ax/carbon-assessment/internal/infra"
)

// ReportCache хранит готовые отчеты между записями.
// Записи привязаны к поколению: Bump после новой анкеты переводит читателей
// на новые ключи, поэтому запоздалый Set старого поколения никого не задевает.
// Ошибки кэша наружу не выходят: сбой равен промаху.
type ReportCache interface {
	// Generation возвращает текущее поколение; false означает "кэш не использовать".
	Generation(ctx context.Context) (int64, bool)
	Get(ctx context.Context, key string, gen int64, dst any) bool
	Set(ctx context.Context, key string, gen int64, v any)
	Bump(ctx context.Context)
}

// NopCache: кэш выключен.
type NopCache struct{}

func (NopCache) Generation(context.Context) (int64, bool)     { return 0, false }
func (NopCache) Get(context.Context, string, int64, any) bool { return false }
func (NopCache) Set(context.Context, string, int64, any)      {}
func (NopCache) Bump(context.Context)                         {}

// RedisCache: кэш отчетов в Redis за предохранителем.
type RedisCache struct {
	rdb     *redis.Client
	cb      *gobreaker.CircuitBreaker
	ttl     time.Duration
	metrics *infra.Metrics
	logger  *zap.Logger
	now     func() time.Time

	// bypassUntil: до этого момента (unix nano) кэш не читается и не пишется.
	// Выставляется, если Bump не дошел до Redis: записи старого поколения
	// доживают свой TTL и не должны отдаваться.
	bypassUntil atomic.Int64
}

func NewRedisCache(rdb *redis.Client, cfg infra.CacheConfig, metrics *infra.Metrics, logger *zap.Logger) *RedisCache {
	maxFailures := cfg.CBMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		// записи старых поколений обязаны истекать
		ttl = 30 * time.Second
	}
	logger = logger.Named("report-cache")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "report-cache",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &RedisCache{
		rdb:     rdb,
		cb:      cb,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

func (c *RedisCache) Generation(ctx context.Context) (int64, bool) {
	if c.now().UnixNano() < c.bypassUntil.Load() {
		return 0, false
	}
	res, err := c.cb.Execute(func() (interface{}, error) {
		gen, err := c.rdb.Get(ctx, infra.RedisKeyReportGen).Int64()
		if errors.Is(err, redis.Nil) {
			return int64(0), nil
		}
		return gen, err
	})
	if err != nil {
		c.logger.Debug("cache generation read failed", zap.Error(err))
		return 0, false
	}
	return res.(int64), true
}

// Bump начинает новое поколение отчетов.
func (c *RedisCache) Bump(ctx context.Context) {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.rdb.Incr(ctx, infra.RedisKeyReportGen).Err()
	})
	if err != nil {
		c.bypassUntil.Store(c.now().Add(c.ttl).UnixNano())
		c.logger.Warn("cache invalidation failed, bypassing cache",
			zap.Duration("for", c.ttl), zap.Error(err))
	}
}

func (c *RedisCache) Get(ctx context.Context, key string, gen int64, dst any) bool {
	res, err := c.cb.Execute(func() (interface{}, error) {
		data, err := c.rdb.Get(ctx, infra.ReportKey(key, gen)).Bytes()
		if errors.Is(err, redis.Nil) {
			// промах: не отказ Redis
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		c.observe(key, "error")
		c.logger.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}

	data, _ := res.([]byte)
	if data == nil {
		c.observe(key, "miss")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.observe(key, "error")
		c.logger.Warn("cache entry is corrupted", zap.String("key", key), zap.Error(err))
		return false
	}
	c.observe(key, "hit")
	return true
}

func (c *RedisCache) Set(ctx context.Context, key string, gen int64, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, c.rdb.Set(ctx, infra.ReportKey(key, gen), data, c.ttl).Err()
	})
	if err != nil {
		c.logger.Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) observe(key, result string) {
	if c.metrics != nil {
		c.metrics.CacheResults.WithLabelValues(key, result).Inc()
	}
}
