package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=rate.go -destination=mock_rate.go -package=handlers

// RateGetter defines the interface that the service must implement.
type RateGetter interface {
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// RateResponse represents an exchange rate quote
// swagger:model RateResponse
type RateResponse struct {
	From string          `json:"from" example:"XLM"`
	To   string          `json:"to" example:"CAD"`
	Rate decimal.Decimal `json:"rate" swaggertype:"string" example:"0.16"`
}

// NewGetRateHandler returns an HTTP handler quoting one unit of from in to.
// @Summary Get exchange rate
// @Description Returns the price of one unit of from expressed in to
// @Tags rates
// @Produce json
// @Param from path string true "Source currency or asset"
// @Param to path string true "Target currency or asset"
// @Success 200 {object} handlers.RateResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid currency"
// @Failure 404 {object} handlers.ErrorResponse "No rate available"
// @Router /rates/{from}/{to} [get]
func NewGetRateHandler(svc RateGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "from")))
		to := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "to")))
		if !validCode(from) || !validCode(to) {
			writeBadRequest(w, "invalid currency")
			return
		}

		rate, err := svc.GetRate(r.Context(), from, to)
		if err != nil {
			logger.Log.Warnw("exchange rate unavailable", "from", from, "to", to, "error", err)
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "exchange rate not available"})
			return
		}

		writeJSON(w, http.StatusOK, RateResponse{From: from, To: to, Rate: rate})
	}
}

func validCode(code string) bool {
	if len(code) < 3 || len(code) > 12 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
