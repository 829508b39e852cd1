package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/metrics"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

//go:generate mockgen -source=rate.go -destination=mock_rate.go -package=services

// ExchangeRateReader fetches live rates from the external feed.
type ExchangeRateReader interface {
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) // Returns the price of one unit of from in to
}

// ExchangeRateCache caches rates between feed calls.
type ExchangeRateCache interface {
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, error)    // Returns a cached rate
	SetRate(ctx context.Context, from, to string, rate decimal.Decimal) error // Stores a rate until it expires
}

// DefaultFallbackRates prices one unit of the settlement asset in common fiat
// currencies. Used when neither the cache nor the live feed can answer.
var DefaultFallbackRates = map[string]decimal.Decimal{
	"USD": decimal.RequireFromString("0.12"),
	"CAD": decimal.RequireFromString("0.16"),
	"EUR": decimal.RequireFromString("0.11"),
	"GBP": decimal.RequireFromString("0.095"),
	"RUB": decimal.RequireFromString("11.5"),
	"MXN": decimal.RequireFromString("2.2"),
	"NGN": decimal.RequireFromString("180"),
}

// RateService resolves exchange rates: cache, then live feed, then a static table.
type RateService struct {
	reader    ExchangeRateReader
	cache     ExchangeRateCache
	assetCode string
	fallback  map[string]decimal.Decimal
	group     singleflight.Group
}

// NewRateService creates a new RateService. reader and cache may be nil.
// fallback maps a fiat currency to the price of one unit of assetCode in it.
func NewRateService(
	reader ExchangeRateReader,
	cache ExchangeRateCache,
	assetCode string,
	fallback map[string]decimal.Decimal,
) *RateService {
	table := make(map[string]decimal.Decimal, len(fallback))
	for currency, rate := range fallback {
		table[strings.ToUpper(currency)] = rate
	}
	return &RateService{
		reader:    reader,
		cache:     cache,
		assetCode: strings.ToUpper(assetCode),
		fallback:  table,
	}
}

// GetRate returns the price of one unit of from expressed in to.
func (s *RateService) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	if s.cache != nil {
		rate, err := s.cache.GetRate(ctx, from, to)
		if err == nil && rate.IsPositive() {
			metrics.RateLookups.WithLabelValues("cache").Inc()
			return rate, nil
		}
	}

	if s.reader != nil {
		v, err, _ := s.group.Do(from+":"+to, func() (interface{}, error) {
			return s.reader.GetRate(ctx, from, to)
		})
		if err == nil {
			rate := v.(decimal.Decimal)
			if s.cache != nil {
				if err := s.cache.SetRate(ctx, from, to, rate); err != nil {
					logger.Log.Errorw("failed to cache exchange rate", "from", from, "to", to, "rate", rate.String(), "error", err)
				}
			}
			metrics.RateLookups.WithLabelValues("live").Inc()
			return rate, nil
		}
		logger.Log.Warnw("live exchange rate unavailable, using fallback", "from", from, "to", to, "error", err)
	}

	rate, ok := s.fallbackRate(from, to)
	if !ok {
		metrics.RateLookups.WithLabelValues("miss").Inc()
		return decimal.Zero, fmt.Errorf("no exchange rate available for %s->%s", from, to)
	}
	metrics.RateLookups.WithLabelValues("fallback").Inc()
	return rate, nil
}

// fallbackRate derives a pair from the static table by crossing through the asset.
func (s *RateService) fallbackRate(from, to string) (decimal.Decimal, bool) {
	price := func(currency string) (decimal.Decimal, bool) {
		if currency == s.assetCode {
			return decimal.NewFromInt(1), true
		}
		rate, ok := s.fallback[currency]
		return rate, ok && rate.IsPositive()
	}

	fromPrice, ok := price(from)
	if !ok {
		return decimal.Zero, false
	}
	toPrice, ok := price(to)
	if !ok {
		return decimal.Zero, false
	}
	return toPrice.DivRound(fromPrice, 8), true
}
