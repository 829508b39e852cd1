package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/apperrors"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
)

// ErrorResponse is the body of every failed API call
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	// default: invalid amount: must be positive
	Error string `json:"error"`

	// Id of the transaction the failed flow recorded, if any
	TransactionID string `json:"transactionId,omitempty"`

	// Settlement network result code
	// default: op_underfunded
	Code string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}

// writeError maps an error from the ledger or a flow onto a status code.
func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{
		Error:         err.Error(),
		TransactionID: apperrors.TransactionID(err),
	}

	var (
		validationErr *apperrors.ValidationError
		settlementErr *apperrors.SettlementError
		status        int
	)
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.As(err, &settlementErr):
		status = http.StatusBadGateway
		resp.Code = settlementErr.Code
	default:
		logger.Log.Errorw("request failed", "transaction_id", resp.TransactionID, "error", err)
		status = http.StatusInternalServerError
		resp.Error = "internal server error"
	}

	writeJSON(w, status, resp)
}
