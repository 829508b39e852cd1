package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/shopspring/decimal"
)

// ErrRateNotCached is returned when no live cache entry exists for a pair.
var ErrRateNotCached = errors.New("exchange rate not found in cache")

// ExchangeRateCacheRepository provides cached exchange rates using Redis
type ExchangeRateCacheRepository struct {
	client *redis.Client
	exp    time.Duration // expiration duration for cached rates
}

// NewExchangeRateCacheRepository creates a new repository instance with the given TTL
func NewExchangeRateCacheRepository(client *redis.Client, expiration time.Duration) *ExchangeRateCacheRepository {
	return &ExchangeRateCacheRepository{
		client: client,
		exp:    expiration,
	}
}

func rateKey(from, to string) string {
	return fmt.Sprintf("exchange_rate:%s:%s", from, to)
}

// GetRate fetches a cached rate for one unit of from expressed in to
func (r *ExchangeRateCacheRepository) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	key := rateKey(from, to)

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		logger.Log.Infow(
			"exchange rate cache miss",
			"key", key,
			"result", val,
			"error", err,
		)
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, fmt.Errorf("%w for %s->%s", ErrRateNotCached, from, to)
		}
		return decimal.Zero, err
	}

	rate, err := decimal.NewFromString(val)

	logger.Log.Infow(
		"exchange rate cache hit",
		"key", key,
		"value", val,
		"result", rate,
		"error", err,
	)

	if err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}

// SetRate caches a rate in Redis with expiration
func (r *ExchangeRateCacheRepository) SetRate(ctx context.Context, from, to string, rate decimal.Decimal) error {
	key := rateKey(from, to)
	err := r.client.Set(ctx, key, rate.String(), r.exp).Err()

	logger.Log.Infow(
		"exchange rate cached",
		"key", key,
		"rate", rate,
		"result", "ok",
		"error", err,
	)

	return err
}
