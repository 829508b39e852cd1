package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
)

//go:generate mockgen -source=balance.go -destination=mock_balance.go -package=handlers

// BalanceReader defines the interface that the service must implement.
type BalanceReader interface {
	GetBalanceSummary(ctx context.Context, email string) (*models.BalanceSummary, error)
}

// NewGetBalanceHandler returns an HTTP handler that returns the user's fiat balance.
// @Summary Get user balance
// @Description Returns the fiat balance derived from the ledger and the settlement account backing it
// @Tags balance
// @Produce json
// @Success 200 {object} models.BalanceSummary
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "Wallet not found"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /balance [get]
// @Security BearerAuth
func NewGetBalanceHandler(svc BalanceReader, userGetter func(ctx context.Context) (string, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		email, ok := userGetter(ctx)
		if !ok || email == "" {
			writeUnauthorized(w)
			return
		}

		summary, err := svc.GetBalanceSummary(ctx, email)
		if err != nil {
			logger.Log.Errorw("failed to get balance", "email", email, "error", err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}
