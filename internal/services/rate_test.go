package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateService_GetRate(t *testing.T) {
	ctx := context.Background()
	errDown := errors.New("exchanger unavailable")

	tests := []struct {
		name    string
		from    string
		to      string
		setup   func(reader *MockExchangeRateReader, cache *MockExchangeRateCache)
		want    string
		wantErr bool
	}{
		{
			name: "same currency",
			from: "cad",
			to:   "CAD",
			setup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {
			},
			want: "1",
		},
		{
			name: "cache hit",
			from: "XLM",
			to:   "CAD",
			setup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {
				cache.EXPECT().GetRate(ctx, "XLM", "CAD").Return(dec("0.17"), nil)
			},
			want: "0.17",
		},
		{
			name: "cache miss, live rate cached",
			from: "xlm",
			to:   "eur",
			setup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {
				cache.EXPECT().GetRate(ctx, "XLM", "EUR").Return(decimal.Zero, errors.New("miss"))
				reader.EXPECT().GetRate(ctx, "XLM", "EUR").Return(dec("0.105"), nil)
				cache.EXPECT().SetRate(ctx, "XLM", "EUR", dec("0.105")).Return(nil)
			},
			want: "0.105",
		},
		{
			name: "cache write failure is not fatal",
			from: "XLM",
			to:   "USD",
			setup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {
				cache.EXPECT().GetRate(ctx, "XLM", "USD").Return(decimal.Zero, errors.New("miss"))
				reader.EXPECT().GetRate(ctx, "XLM", "USD").Return(dec("0.13"), nil)
				cache.EXPECT().SetRate(ctx, "XLM", "USD", dec("0.13")).Return(errors.New("read only replica"))
			},
			want: "0.13",
		},
		{
			name: "live feed down, static table",
			from: "XLM",
			to:   "CAD",
			setup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {
				cache.EXPECT().GetRate(ctx, "XLM", "CAD").Return(decimal.Zero, errors.New("miss"))
				reader.EXPECT().GetRate(ctx, "XLM", "CAD").Return(decimal.Zero, errDown)
			},
			want: "0.16",
		},
		{
			name: "static table crosses through the asset",
			from: "USD",
			to:   "CAD",
			setup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {
				cache.EXPECT().GetRate(ctx, "USD", "CAD").Return(decimal.Zero, errors.New("miss"))
				reader.EXPECT().GetRate(ctx, "USD", "CAD").Return(decimal.Zero, errDown)
			},
			want: "1.33333333",
		},
		{
			name: "no rate anywhere",
			from: "XLM",
			to:   "JPY",
			setup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {
				cache.EXPECT().GetRate(ctx, "XLM", "JPY").Return(decimal.Zero, errors.New("miss"))
				reader.EXPECT().GetRate(ctx, "XLM", "JPY").Return(decimal.Zero, errDown)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			reader := NewMockExchangeRateReader(ctrl)
			cache := NewMockExchangeRateCache(ctrl)
			tt.setup(reader, cache)

			svc := NewRateService(reader, cache, "XLM", DefaultFallbackRates)
			rate, err := svc.GetRate(ctx, tt.from, tt.to)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rate.String())
		})
	}
}

func TestRateService_WithoutLiveSources(t *testing.T) {
	svc := NewRateService(nil, nil, "XLM", map[string]decimal.Decimal{"cad": dec("0.2")})

	rate, err := svc.GetRate(context.Background(), "XLM", "CAD")
	require.NoError(t, err)
	assert.Equal(t, "0.2", rate.String())

	rate, err = svc.GetRate(context.Background(), "CAD", "XLM")
	require.NoError(t, err)
	assert.Equal(t, "5", rate.String())
}

func TestRateService_DeduplicatesConcurrentFetches(t *testing.T) {
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := NewMockExchangeRateReader(ctrl)
	release := make(chan struct{})
	reader.EXPECT().GetRate(gomock.Any(), "XLM", "CAD").DoAndReturn(
		func(context.Context, string, string) (decimal.Decimal, error) {
			<-release
			return dec("0.16"), nil
		}).MinTimes(1).MaxTimes(2)

	svc := NewRateService(reader, nil, "XLM", nil)

	const callers = 10
	var wg sync.WaitGroup
	results := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rate, err := svc.GetRate(ctx, "XLM", "CAD")
			if err == nil {
				results <- rate.String()
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	count := 0
	for r := range results {
		assert.Equal(t, "0.16", r)
		count++
	}
	assert.Equal(t, callers, count)
}
