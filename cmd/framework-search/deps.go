package main

import (
	"context"
	"fmt"
	"time"

	"framework-search/internal/common/config"
	"framework-search/internal/common/database"
	"framework-search/internal/common/logger"
)

// retryWithBackoff runs operation until it succeeds, doubling the delay
// between attempts.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func connectPostgres(ctx context.Context, cfg *config.Config, log logger.Logger) (*database.PostgresClient, error) {
	var pg *database.PostgresClient
	err := retryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			_ = pg.Close()
			return err
		}
		return nil
	}, 10, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected", nil)
	return pg, nil
}

func connectElasticsearch(ctx context.Context, cfg *config.Config, log logger.Logger) (*database.ElasticsearchClient, error) {
	var es *database.ElasticsearchClient
	err := retryWithBackoff(ctx, func() error {
		var err error
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	}, 10, 2*time.Second, log, "Elasticsearch connection")
	if err != nil {
		return nil, err
	}
	log.Info("Elasticsearch connected", nil)
	return es, nil
}

func connectRedis(ctx context.Context, cfg *config.Config, log logger.Logger) (*database.RedisClient, error) {
	rdb := database.NewRedis(cfg.Database.Redis)
	err := retryWithBackoff(ctx, func() error {
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	log.Info("Redis connected", nil)
	return rdb, nil
}
