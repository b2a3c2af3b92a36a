package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-tracker/internal/domain"
)

const shiftCachePrefix = "sla:shifts:"

type cachedShiftRepository struct {
	inner  ShiftRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedShiftRepository wraps inner with a redis cache-aside layer. A nil client or
// non-positive ttl returns inner unchanged.
func NewCachedShiftRepository(inner ShiftRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) ShiftRepository {
	if client == nil || ttl <= 0 {
		return inner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedShiftRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (r *cachedShiftRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Shift, error) {
	key := shiftCacheKey(from, to)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var shifts []domain.Shift
		if jerr := json.Unmarshal(raw, &shifts); jerr == nil {
			return shifts, nil
		}
		r.logger.Warn("discarding unreadable shift cache entry", zap.String("key", key))
	case err != redis.Nil:
		r.logger.Warn("shift cache read failed", zap.String("key", key), zap.Error(err))
	}

	shifts, err := r.inner.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(shifts)
	if err != nil {
		return shifts, nil
	}
	if err := r.client.Set(ctx, key, encoded, r.ttl).Err(); err != nil {
		r.logger.Warn("shift cache write failed", zap.String("key", key), zap.Error(err))
	}
	return shifts, nil
}

func shiftCacheKey(from, to time.Time) string {
	return fmt.Sprintf("%s%d:%d", shiftCachePrefix, from.Unix(), to.Unix())
}
