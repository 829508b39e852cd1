package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=payment.go -destination=mock_payment.go -package=handlers

// Payer defines the interface that the service must implement.
type Payer interface {
	Pay(ctx context.Context, email, destination string, amount decimal.Decimal, currency, memo string) (*models.Transaction, error)
}

// PaymentRequest represents the JSON body for paying an external account
// swagger:model PaymentRequest
type PaymentRequest struct {
	// Settlement network account receiving the payment
	// required: true
	Destination string `json:"destination" example:"GMERCHANT"`

	// Amount to pay
	// required: true
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"25.00"`

	// Currency, the wallet's preferred currency when empty
	Currency string `json:"currency" example:"CAD"`

	// Free text shown in history
	Memo string `json:"memo" example:"coffee"`
}

// NewPaymentHandler returns an HTTP handler for paying an external settlement account.
// @Summary Pay external account
// @Description Sends money from the user's wallet to a public key on the settlement network.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body handlers.PaymentRequest true "Payment Request"
// @Success 200 {object} handlers.TransactionResponse "Payment completed"
// @Failure 400 {object} handlers.ErrorResponse "Invalid amount, currency or destination"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 502 {object} handlers.ErrorResponse "Settlement network rejected the payment"
// @Router /wallet/payment [post]
// @Security BearerAuth
func NewPaymentHandler(svc Payer, userGetter func(ctx context.Context) (string, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		email, ok := userGetter(ctx)
		if !ok || email == "" {
			writeUnauthorized(w)
			return
		}

		var req PaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode payment request", "error", err)
			writeBadRequest(w, "invalid request body")
			return
		}

		tx, err := svc.Pay(ctx, email, req.Destination, req.Amount, req.Currency, req.Memo)
		if err != nil {
			logger.Log.Errorw("failed to pay", "email", email, "destination", req.Destination, "amount", req.Amount.String(), "error", err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, TransactionResponse{
			Message:     "Payment completed",
			Transaction: tx,
		})
	}
}
