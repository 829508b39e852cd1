package models

import "github.com/shopspring/decimal"

// BalanceSummary is a user's fiat ledger balance next to the custodial
// settlement account backing it.
type BalanceSummary struct {
	Balance      decimal.Decimal `json:"balance"`      // Fiat balance derived from the ledger
	Currency     string          `json:"currency"`     // Preferred fiat currency of the user
	PublicKey    string          `json:"publicKey"`    // Settlement account id
	AssetCode    string          `json:"assetCode"`    // Settlement asset code
	AssetBalance decimal.Decimal `json:"assetBalance"` // Asset held on the settlement network
}
