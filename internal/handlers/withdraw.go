package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=withdraw.go -destination=mock_withdraw.go -package=handlers

// Withdrawer defines the interface that the service must implement.
type Withdrawer interface {
	Withdraw(ctx context.Context, email string, amount decimal.Decimal, currency, bankAccountID string) (*models.Transaction, error)
}

// WithdrawRequest represents the JSON body for withdrawing funds
// swagger:model WithdrawRequest
type WithdrawRequest struct {
	// Amount to withdraw
	// required: true
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"50.00"`

	// Currency, the wallet's preferred currency when empty
	Currency string `json:"currency" example:"CAD"`

	// Linked bank account receiving the money
	// required: true
	BankAccountID string `json:"bankAccountId" example:"ba_1"`
}

// NewWithdrawHandler returns an HTTP handler for withdrawing funds to a linked bank account.
// @Summary Withdraw funds
// @Description Moves money from the user's wallet to a linked bank account and records a withdrawal.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body handlers.WithdrawRequest true "Withdraw Request"
// @Success 200 {object} handlers.TransactionResponse "Withdrawal completed"
// @Failure 400 {object} handlers.ErrorResponse "Invalid amount, currency or bank account"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "Wallet or bank account not found"
// @Failure 502 {object} handlers.ErrorResponse "Settlement network rejected the payment"
// @Router /wallet/withdraw [post]
// @Security BearerAuth
func NewWithdrawHandler(svc Withdrawer, userGetter func(ctx context.Context) (string, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		email, ok := userGetter(ctx)
		if !ok || email == "" {
			writeUnauthorized(w)
			return
		}

		var req WithdrawRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode withdraw request", "error", err)
			writeBadRequest(w, "invalid request body")
			return
		}

		tx, err := svc.Withdraw(ctx, email, req.Amount, req.Currency, req.BankAccountID)
		if err != nil {
			logger.Log.Errorw("failed to withdraw funds", "email", email, "amount", req.Amount.String(), "currency", req.Currency, "error", err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, TransactionResponse{
			Message:     "Withdrawal completed",
			Transaction: tx,
		})
	}
}
