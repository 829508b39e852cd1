package models

import (
	"time"
)

// AssetXLM is the settlement network asset balances are converted through.
const AssetXLM = "XLM"

// WalletDB represents a user's custodial settlement account row in the database
type WalletDB struct {
	UserEmail  string    `json:"user_email" db:"user_email"` // Owner of the wallet
	PublicKey  string    `json:"public_key" db:"public_key"` // Settlement network account id
	SecretSeed string    `json:"-" db:"secret_seed"`         // Signing secret, never serialized
	Currency   string    `json:"currency" db:"currency"`     // Preferred fiat currency of the owner
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // Timestamp when the wallet was created
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"` // Timestamp of the last wallet update
}

// BankAccountDB represents a linked bank account row in the database
type BankAccountDB struct {
	BankAccountID string    `json:"bank_account_id" db:"bank_account_id"` // Unique bank account identifier
	UserEmail     string    `json:"user_email" db:"user_email"`           // Owner of the account
	BankName      string    `json:"bank_name" db:"bank_name"`             // Display name of the bank
	AccountNumber string    `json:"account_number" db:"account_number"`   // Account number as entered
	CreatedAt     time.Time `json:"created_at" db:"created_at"`           // Timestamp when the account was linked
}

// Label returns the human readable endpoint used in transaction records.
func (b *BankAccountDB) Label() string {
	return b.BankName + " " + b.AccountNumber
}
