package facades

import (
	"context"
	"fmt"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	pb "github.com/sbilibin2017/proto-exchange/exchange"
	"github.com/shopspring/decimal"
)

// ExchangeRatesGRPCFacade reads live rates from the exchanger service over gRPC.
type ExchangeRatesGRPCFacade struct {
	client pb.ExchangeServiceClient
}

// NewExchangeRatesGRPCFacade creates a new facade with a gRPC client.
func NewExchangeRatesGRPCFacade(client pb.ExchangeServiceClient) *ExchangeRatesGRPCFacade {
	return &ExchangeRatesGRPCFacade{client: client}
}

// GetRates fetches all rates published by the exchanger keyed by currency code.
func (f *ExchangeRatesGRPCFacade) GetRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	resp, err := f.client.GetExchangeRates(ctx, &pb.Empty{})
	if err != nil {
		logger.Log.Errorw("failed to fetch exchange rates via gRPC", "error", err)
		return nil, err
	}

	rates := make(map[string]decimal.Decimal, len(resp.Rates))
	for currency, rate := range resp.Rates {
		rates[currency] = decimal.NewFromFloat32(rate)
	}
	return rates, nil
}

// GetRate fetches the price of one unit of from expressed in to.
func (f *ExchangeRatesGRPCFacade) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	req := &pb.CurrencyRequest{
		FromCurrency: from,
		ToCurrency:   to,
	}

	resp, err := f.client.GetExchangeRateForCurrency(ctx, req)
	if err != nil {
		logger.Log.Errorw("failed to fetch exchange rate for currency via gRPC",
			"from", from, "to", to, "error", err)
		return decimal.Zero, err
	}
	if resp.Rate <= 0 {
		return decimal.Zero, fmt.Errorf("exchanger returned non positive rate %v for %s->%s", resp.Rate, from, to)
	}

	return decimal.NewFromFloat32(resp.Rate), nil
}
