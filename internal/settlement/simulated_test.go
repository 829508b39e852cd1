package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNetwork(t *testing.T) *Simulated {
	t.Helper()
	net := NewSimulated("XLM", 0)
	require.NoError(t, net.CreateAccount("GDIST", "SDIST", decimal.NewFromInt(1000)))
	require.NoError(t, net.CreateAccount("GALICE", "SALICE", decimal.Zero))
	return net
}

func settlementCode(t *testing.T, err error) string {
	t.Helper()
	var se *apperrors.SettlementError
	require.True(t, errors.As(err, &se), "expected settlement error, got %v", err)
	return se.Code
}

func TestSimulated_SubmitPayment(t *testing.T) {
	ctx := context.Background()
	net := newNetwork(t)

	res, err := net.SubmitPayment(ctx, "SDIST", "GALICE", decimal.RequireFromString("12.5"))
	require.NoError(t, err)
	assert.Len(t, res.Hash, 64)
	assert.Equal(t, int64(1), res.Ledger)

	dist, err := net.LoadAccount(ctx, "GDIST")
	require.NoError(t, err)
	assert.Equal(t, "987.5", dist.Balance("XLM").String())
	assert.Equal(t, int64(1), dist.Sequence)

	alice, err := net.LoadAccount(ctx, "GALICE")
	require.NoError(t, err)
	assert.Equal(t, "12.5", alice.Balance("XLM").String())
	assert.True(t, alice.Balance("USDC").IsZero())
}

func TestSimulated_Rejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		secret      string
		destination string
		amount      decimal.Decimal
		code        string
	}{
		{"underfunded", "SALICE", "GDIST", decimal.NewFromInt(1), CodeUnderfunded},
		{"unknown destination", "SDIST", "GNOBODY", decimal.NewFromInt(1), CodeNoDestination},
		{"unknown signer", "SNOBODY", "GDIST", decimal.NewFromInt(1), CodeBadAuth},
		{"non positive amount", "SDIST", "GALICE", decimal.Zero, CodeMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := newNetwork(t)
			_, err := net.SubmitPayment(ctx, tt.secret, tt.destination, tt.amount)
			assert.Equal(t, tt.code, settlementCode(t, err))

			dist, err := net.LoadAccount(ctx, "GDIST")
			require.NoError(t, err)
			assert.Equal(t, "1000", dist.Balance("XLM").String(), "rejected payments move nothing")
		})
	}
}

func TestSimulated_Timeout(t *testing.T) {
	net := NewSimulated("XLM", time.Second)
	require.NoError(t, net.CreateAccount("GDIST", "SDIST", decimal.NewFromInt(10)))
	require.NoError(t, net.CreateAccount("GALICE", "SALICE", decimal.Zero))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := net.SubmitPayment(ctx, "SDIST", "GALICE", decimal.NewFromInt(1))
	assert.Equal(t, CodeTimeout, settlementCode(t, err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSimulated_LoadAccount(t *testing.T) {
	net := newNetwork(t)

	_, err := net.LoadAccount(context.Background(), "GNOBODY")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Error(t, net.CreateAccount("GDIST", "SOTHER", decimal.Zero))
}
