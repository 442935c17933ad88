package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Lei-jenny/Travel-with-Me/logger"
)

var Redis *redis.Client

// ConnectRedis is optional: on any failure it logs and leaves Redis nil, and
// the ledger is computed without a cache.
func ConnectRedis(url string) *redis.Client {
	if url == "" {
		logger.L().Warn("REDIS_URL not set, running without cache")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.L().Warn("invalid REDIS_URL, running without cache", zap.Error(err))
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.L().Warn("redis not available, running without cache", zap.Error(err))
		_ = client.Close()
		return nil
	}

	logger.L().Info("redis connected", zap.String("addr", opts.Addr))
	Redis = client
	return client
}
