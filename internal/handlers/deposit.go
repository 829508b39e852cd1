package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=deposit.go -destination=mock_deposit.go -package=handlers

// Depositor defines the interface that the service must implement.
type Depositor interface {
	Deposit(ctx context.Context, email string, amount decimal.Decimal, currency, bankAccountID string) (*models.Transaction, error)
}

// DepositRequest represents the JSON body for depositing funds
// swagger:model DepositRequest
type DepositRequest struct {
	// Amount to deposit
	// required: true
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"100.00"`

	// Currency, the wallet's preferred currency when empty
	Currency string `json:"currency" example:"CAD"`

	// Linked bank account funding the deposit
	// required: true
	BankAccountID string `json:"bankAccountId" example:"ba_1"`
}

// TransactionResponse represents a finished flow
// swagger:model TransactionResponse
type TransactionResponse struct {
	// Success message
	Message string `json:"message"`

	// The completed transaction, balance stamped
	Transaction *models.Transaction `json:"transaction"`
}

// NewDepositHandler returns an HTTP handler for depositing funds from a linked bank account.
// @Summary Deposit funds
// @Description Moves money from a linked bank account into the user's wallet and records a deposit.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body handlers.DepositRequest true "Deposit Request"
// @Success 200 {object} handlers.TransactionResponse "Deposit completed"
// @Failure 400 {object} handlers.ErrorResponse "Invalid amount, currency or bank account"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "Wallet or bank account not found"
// @Failure 502 {object} handlers.ErrorResponse "Settlement network rejected the payment"
// @Router /wallet/deposit [post]
// @Security BearerAuth
func NewDepositHandler(svc Depositor, userGetter func(ctx context.Context) (string, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		email, ok := userGetter(ctx)
		if !ok || email == "" {
			writeUnauthorized(w)
			return
		}

		var req DepositRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode deposit request", "error", err)
			writeBadRequest(w, "invalid request body")
			return
		}

		tx, err := svc.Deposit(ctx, email, req.Amount, req.Currency, req.BankAccountID)
		if err != nil {
			logger.Log.Errorw("failed to deposit funds", "email", email, "amount", req.Amount.String(), "currency", req.Currency, "error", err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, TransactionResponse{
			Message:     "Deposit completed",
			Transaction: tx,
		})
	}
}
