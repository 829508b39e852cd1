package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=transfer.go -destination=mock_transfer.go -package=handlers

// Transferrer defines the interface that the service must implement.
type Transferrer interface {
	Transfer(ctx context.Context, email, recipientEmail string, amount decimal.Decimal, currency, recipientCurrency string) (*models.Transaction, error)
}

// TransferRequest represents the JSON body for a peer transfer
// swagger:model TransferRequest
type TransferRequest struct {
	// Email of the receiving user
	// required: true
	RecipientEmail string `json:"recipientEmail" example:"bob@example.com"`

	// Amount debited from the sender, fee included
	// required: true
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"100.00"`

	// Sender currency, the sender wallet's currency when empty
	Currency string `json:"currency" example:"CAD"`

	// Recipient currency, the recipient wallet's currency when empty
	RecipientCurrency string `json:"recipientCurrency" example:"EUR"`
}

// NewTransferHandler returns an HTTP handler for sending money to another user.
// @Summary Transfer to user
// @Description Sends money to another user through the settlement network, converting to the recipient's currency.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body handlers.TransferRequest true "Transfer Request"
// @Success 200 {object} handlers.TransactionResponse "Transfer completed"
// @Failure 400 {object} handlers.ErrorResponse "Invalid amount, currency or recipient"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "Recipient not found"
// @Failure 502 {object} handlers.ErrorResponse "Settlement network rejected the payment"
// @Router /wallet/transfer [post]
// @Security BearerAuth
func NewTransferHandler(svc Transferrer, userGetter func(ctx context.Context) (string, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		email, ok := userGetter(ctx)
		if !ok || email == "" {
			writeUnauthorized(w)
			return
		}

		var req TransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode transfer request", "error", err)
			writeBadRequest(w, "invalid request body")
			return
		}

		tx, err := svc.Transfer(ctx, email, req.RecipientEmail, req.Amount, req.Currency, req.RecipientCurrency)
		if err != nil {
			logger.Log.Errorw("failed to transfer funds",
				"email", email,
				"recipient", req.RecipientEmail,
				"amount", req.Amount.String(),
				"error", err,
			)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, TransactionResponse{
			Message:     "Transfer completed",
			Transaction: tx,
		})
	}
}
