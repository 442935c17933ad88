package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Lei-jenny/Travel-with-Me/logger"
	"github.com/Lei-jenny/Travel-with-Me/models"
)

// ReportCache keeps the computed ledger of each trip in redis. Every write to
// a trip bumps its generation, so a report computed from an older snapshot is
// stored under a key nobody reads again.
//
// A nil *ReportCache, or one without a client, caches nothing.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

func (c *ReportCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func generationKey(tripID uuid.UUID) string {
	return "ledger:gen:" + tripID.String()
}

func reportKey(tripID uuid.UUID, gen int64) string {
	return fmt.Sprintf("ledger:report:%s:%d", tripID, gen)
}

// Generation returns the current generation of a trip's ledger.
func (c *ReportCache) Generation(ctx context.Context, tripID uuid.UUID) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	gen, err := c.client.Get(ctx, generationKey(tripID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get returns the cached report for the given generation.
func (c *ReportCache) Get(ctx context.Context, tripID uuid.UUID, gen int64) (*models.TripLedger, bool) {
	if !c.enabled() {
		return nil, false
	}
	raw, err := c.client.Get(ctx, reportKey(tripID, gen)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Warn("report cache read failed", zap.String("trip_id", tripID.String()), zap.Error(err))
		}
		return nil, false
	}
	var report models.TripLedger
	if err := json.Unmarshal(raw, &report); err != nil {
		logger.L().Warn("report cache entry corrupt", zap.String("trip_id", tripID.String()), zap.Error(err))
		return nil, false
	}
	return &report, true
}

func (c *ReportCache) Set(ctx context.Context, tripID uuid.UUID, gen int64, report models.TripLedger) {
	if !c.enabled() {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		logger.L().Warn("report cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, reportKey(tripID, gen), raw, c.ttl).Err(); err != nil {
		logger.L().Warn("report cache write failed", zap.String("trip_id", tripID.String()), zap.Error(err))
	}
}

// Invalidate moves the trip to a new generation and drops the current entry.
func (c *ReportCache) Invalidate(ctx context.Context, tripID uuid.UUID) {
	if !c.enabled() {
		return
	}
	gen, err := c.client.Incr(ctx, generationKey(tripID)).Result()
	if err != nil {
		logger.L().Warn("report cache invalidate failed", zap.String("trip_id", tripID.String()), zap.Error(err))
		return
	}
	c.client.Del(ctx, reportKey(tripID, gen-1))
}
