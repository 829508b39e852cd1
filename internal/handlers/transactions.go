package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
)

//go:generate mockgen -source=transactions.go -destination=mock_transactions.go -package=handlers

// TransactionReader defines the read side of the ledger used by history handlers.
type TransactionReader interface {
	ListTransactions(ctx context.Context, email string) ([]models.TransactionView, error) // Newest first with derived balances
	GetTransaction(ctx context.Context, email, id string) (*models.Transaction, error)    // One record owned by email
	GetStats(ctx context.Context, email string) (models.TransactionStats, error)          // Counts and totals
}

// TransactionsResponse represents the user's history
// swagger:model TransactionsResponse
type TransactionsResponse struct {
	Transactions []models.TransactionView `json:"transactions"`
}

// NewListTransactionsHandler returns an HTTP handler listing the user's transactions.
// @Summary List transactions
// @Description Returns the user's history newest first; records without a stamped balance carry calculatedBalance
// @Tags transactions
// @Produce json
// @Success 200 {object} handlers.TransactionsResponse
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /transactions [get]
// @Security BearerAuth
func NewListTransactionsHandler(svc TransactionReader, userGetter func(ctx context.Context) (string, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		email, ok := userGetter(ctx)
		if !ok || email == "" {
			writeUnauthorized(w)
			return
		}

		views, err := svc.ListTransactions(ctx, email)
		if err != nil {
			writeError(w, err)
			return
		}
		if views == nil {
			views = []models.TransactionView{}
		}

		writeJSON(w, http.StatusOK, TransactionsResponse{Transactions: views})
	}
}

// NewGetTransactionHandler returns an HTTP handler for one transaction.
// @Summary Get transaction
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction id"
// @Success 200 {object} models.Transaction
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "Transaction not found"
// @Router /transactions/{id} [get]
// @Security BearerAuth
func NewGetTransactionHandler(svc TransactionReader, userGetter func(ctx context.Context) (string, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		email, ok := userGetter(ctx)
		if !ok || email == "" {
			writeUnauthorized(w)
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			writeBadRequest(w, "transaction id is required")
			return
		}

		tx, err := svc.GetTransaction(ctx, email, id)
		if err != nil {
			logger.Log.Warnw("failed to get transaction", "email", email, "id", id, "error", err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, tx)
	}
}

// NewTransactionStatsHandler returns an HTTP handler summarizing the user's history.
// @Summary Transaction statistics
// @Tags transactions
// @Produce json
// @Success 200 {object} models.TransactionStats
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /transactions/stats [get]
// @Security BearerAuth
func NewTransactionStatsHandler(svc TransactionReader, userGetter func(ctx context.Context) (string, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		email, ok := userGetter(ctx)
		if !ok || email == "" {
			writeUnauthorized(w)
			return
		}

		stats, err := svc.GetStats(ctx, email)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, stats)
	}
}
