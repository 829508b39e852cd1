package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a money movement.
type TransactionType string

// Supported transaction types.
const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeTransfer   TransactionType = "transfer"
	TypePayment    TransactionType = "payment"
	TypeOnRamp     TransactionType = "on-ramp"
	TypeOffRamp    TransactionType = "off-ramp"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeTransfer, TypePayment, TypeOnRamp, TypeOffRamp:
		return true
	}
	return false
}

// Credit reports whether the type increases the owner's fiat balance.
func (t TransactionType) Credit() bool {
	return t == TypeDeposit || t == TypeOnRamp
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

// Lifecycle states. Completed and failed are terminal.
const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Terminal reports whether no further transition is allowed out of s.
func (s TransactionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transaction is the only persisted ledger entity.
type Transaction struct {
	ID            string            `json:"id"`                               // Time-ordered unique identifier
	UserEmail     string            `json:"userEmail"`                        // Owner of the record
	Type          TransactionType   `json:"type"`                             // Kind of movement
	Amount        decimal.Decimal   `json:"amount"`                           // Fiat amount as understood at creation
	Currency      string            `json:"currency"`                         // ISO currency code
	Status        TransactionStatus `json:"status"`                           // pending, completed or failed
	FromAccount   string            `json:"fromAccount,omitempty"`            // Human readable source endpoint
	ToAccount     string            `json:"toAccount,omitempty"`              // Human readable destination endpoint
	SettlementRef string            `json:"stellarTransactionHash,omitempty"` // Settlement network payment hash
	Balance       *decimal.Decimal  `json:"balance,omitempty"`                // Fiat balance right after this transaction, stamped once
	Metadata      Metadata          `json:"metadata"`                         // Flow specific detail
	Timestamp     time.Time         `json:"timestamp"`                        // Creation time, immutable
	CompletedAt   *time.Time        `json:"completedAt,omitempty"`            // Time the record became terminal
	Description   string            `json:"description,omitempty"`            // Human readable label
}

// FiatAmount returns the canonical fiat amount used for balance math:
// metadata.originalAmount when set, otherwise amount.
func (t *Transaction) FiatAmount() decimal.Decimal {
	if t.Metadata.OriginalAmount != nil {
		return *t.Metadata.OriginalAmount
	}
	return t.Amount
}

// Stamped reports whether a balance has been attached to the transaction.
func (t *Transaction) Stamped() bool {
	return t.Balance != nil
}

// TransactionDraft carries caller input for creating a transaction.
type TransactionDraft struct {
	UserEmail   string
	Type        TransactionType
	Amount      decimal.Decimal
	Currency    string
	FromAccount string
	ToAccount   string
	Description string
	Metadata    Metadata
}

// TransactionView is a transaction as presented by the read API.
type TransactionView struct {
	Transaction
	CalculatedBalance *decimal.Decimal `json:"calculatedBalance,omitempty"` // Derived balance for records without a stamp
}

// TransactionStats summarizes a user's history.
type TransactionStats struct {
	TotalTransactions int             `json:"totalTransactions"`
	TotalDeposits     int             `json:"totalDeposits"`
	TotalTransfers    int             `json:"totalTransfers"`
	TotalPayments     int             `json:"totalPayments"`
	TotalWithdrawals  int             `json:"totalWithdrawals"`
	TotalOnRamps      int             `json:"totalOnRamps"`
	TotalOffRamps     int             `json:"totalOffRamps"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
}
