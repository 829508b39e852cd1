// Package settlement holds the settlement network contract types and an
// in-process simulated network used for the custodial bank simulation and tests.
package settlement

import (
	"github.com/sbilibin2017/gw-fiat-ledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Result codes reported by the settlement network.
const (
	CodeUnderfunded   = "op_underfunded"
	CodeNoDestination = "op_no_destination"
	CodeBadAuth       = "tx_bad_auth"
	CodeMalformed     = "op_malformed"
	CodeTimeout       = "timeout"
)

// AssetPrecision is the number of decimal places the network keeps for asset amounts.
const AssetPrecision = 7

// Balance is one asset balance held by an account.
type Balance struct {
	AssetCode string          `json:"assetCode"`
	Amount    decimal.Decimal `json:"balance"`
}

// Account is the loaded state of a settlement account.
type Account struct {
	PublicKey string    `json:"publicKey"`
	Sequence  int64     `json:"sequence"`
	Balances  []Balance `json:"balances"`
}

// Balance returns the amount held in assetCode, zero when absent.
func (a *Account) Balance(assetCode string) decimal.Decimal {
	for _, b := range a.Balances {
		if b.AssetCode == assetCode {
			return b.Amount
		}
	}
	return decimal.Zero
}

// PaymentResult is returned for an accepted payment.
type PaymentResult struct {
	Hash   string `json:"hash"`
	Ledger int64  `json:"ledger"`
}

// Error builds a settlement error carrying a result code.
func Error(code, message string) error {
	return &apperrors.SettlementError{Code: code, Message: message}
}
