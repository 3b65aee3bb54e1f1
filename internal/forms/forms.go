// Package forms serves the lookup lists used to populate the search and
// filter forms. The unparameterised lists are cached in Redis.
package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "framework-search/internal/common/errors"
	"framework-search/internal/common/logger"
	"framework-search/internal/common/metrics"
)

const (
	keyFilterForm = "forms:filter"
	keyIndustries = "forms:industries"
	keyValues     = "forms:framework_values"
)

// Source is the relational data behind the forms.
type Source interface {
	DistinctIndustries(ctx context.Context) ([]string, error)
	DistinctSubCategories(ctx context.Context, industries []string) ([]string, error)
	MissingIndustries(ctx context.Context, industries []string) ([]string, error)
	ListFrameworkValues(ctx context.Context) ([]string, error)
}

type FilterFormData struct {
	IndustryTypes []string `json:"industry_types"`
	SubCategories []string `json:"sub_categories"`
}

type Service struct {
	source Source
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewService(source Source, redisClient *redis.Client, ttl time.Duration, log logger.Logger) *Service {
	return &Service{source: source, redis: redisClient, ttl: ttl, logger: log}
}

// FilterFormData lists every industry and sub category in use.
func (s *Service) FilterFormData(ctx context.Context) (*FilterFormData, error) {
	var data FilterFormData
	err := s.cached(ctx, keyFilterForm, &data, func(ctx context.Context) (interface{}, error) {
		industries, err := s.source.DistinctIndustries(ctx)
		if err != nil {
			return nil, err
		}
		subCategories, err := s.source.DistinctSubCategories(ctx, nil)
		if err != nil {
			return nil, err
		}
		return FilterFormData{IndustryTypes: nonNil(industries), SubCategories: nonNil(subCategories)}, nil
	})
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// Industries lists the non-empty industries.
func (s *Service) Industries(ctx context.Context) ([]string, error) {
	var industries []string
	err := s.cached(ctx, keyIndustries, &industries, func(ctx context.Context) (interface{}, error) {
		out, err := s.source.DistinctIndustries(ctx)
		return nonNil(out), err
	})
	return industries, err
}

// FrameworkValues lists the value bucket names in display order.
func (s *Service) FrameworkValues(ctx context.Context) ([]string, error) {
	var values []string
	err := s.cached(ctx, keyValues, &values, func(ctx context.Context) (interface{}, error) {
		out, err := s.source.ListFrameworkValues(ctx)
		return nonNil(out), err
	})
	return values, err
}

// SubCategories lists the sub categories of the given industries. Every
// industry must be in use by at least one framework.
func (s *Service) SubCategories(ctx context.Context, industries []string) ([]string, error) {
	missing, err := s.source.MissingIndustries(ctx, industries)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("missing industries", err)
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError(map[string]string{
			"industry_types": fmt.Sprintf("%s is not Valid Industry type", missing[0]),
		})
	}

	out, err := s.source.DistinctSubCategories(ctx, industries)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("distinct sub categories", err)
	}
	return nonNil(out), nil
}

// Invalidate drops every cached list. The indexer calls it after a sync.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.redis.Del(ctx, keyFilterForm, keyIndustries, keyValues).Err()
}

// cached reads key into dst, or loads, stores and decodes it on a miss. A
// Redis failure falls back to the loader.
func (s *Service) cached(ctx context.Context, key string, dst interface{}, load func(context.Context) (interface{}, error)) error {
	val, err := s.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal([]byte(val), dst); jsonErr == nil {
			metrics.CacheLookups.WithLabelValues(key, "hit").Inc()
			return nil
		}
		metrics.CacheLookups.WithLabelValues(key, "corrupt").Inc()
	case errors.Is(err, redis.Nil):
		metrics.CacheLookups.WithLabelValues(key, "miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues(key, "error").Inc()
		s.logger.Warn("Form data cache unavailable", map[string]interface{}{"key": key, "error": err})
	}

	fresh, err := load(ctx)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("load "+key, err)
	}
	data, err := json.Marshal(fresh)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("Failed to cache form data", map[string]interface{}{"key": key, "error": err})
	}
	return json.Unmarshal(data, dst)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
