package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Metadata holds flow specific detail for a transaction.
// OriginalAmount is the fiat amount entered by the user; once set it never changes.
type Metadata struct {
	OriginalAmount *decimal.Decimal
	Detail         Detail
	Extra          map[string]any
}

// Detail is the typed part of the metadata, one variant per flow.
type Detail interface {
	Kind() string
}

// TransactionStep describes one leg of a combined flow recorded in a single
// transaction. Legs share the status of the transaction that carries them.
type TransactionStep struct {
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

// DepositDetail describes a bank to wallet deposit, or the credit side of a
// peer transfer when SenderEmail is set.
type DepositDetail struct {
	BankAccountID string          `json:"bankAccountId,omitempty"`
	BankName      string          `json:"bankName,omitempty"`
	SenderEmail   string          `json:"senderEmail,omitempty"`
	TransferID    string          `json:"transferId,omitempty"`
	AssetAmount   decimal.Decimal `json:"assetAmount"`
	Rate          decimal.Decimal `json:"rate"`
}

// WithdrawalDetail describes a wallet to bank withdrawal.
type WithdrawalDetail struct {
	BankAccountID string          `json:"bankAccountId"`
	BankName      string          `json:"bankName,omitempty"`
	AssetAmount   decimal.Decimal `json:"assetAmount"`
	Rate          decimal.Decimal `json:"rate"`
}

// TransferDetail describes a peer transfer, optionally with currency conversion.
// Fee and RecipientAmount are informational for the sender's accounting.
type TransferDetail struct {
	RecipientEmail     string            `json:"recipientEmail"`
	RecipientPublicKey string            `json:"recipientPublicKey"`
	Fee                decimal.Decimal   `json:"fee"`
	RecipientAmount    decimal.Decimal   `json:"recipientAmount"`
	RecipientCurrency  string            `json:"recipientCurrency"`
	ExchangeRate       decimal.Decimal   `json:"exchangeRate"`
	AssetAmount        decimal.Decimal   `json:"assetAmount"`
	Steps              []TransactionStep `json:"transactionSteps,omitempty"`
}

// PaymentDetail describes a payment to an external settlement account.
type PaymentDetail struct {
	CounterpartyPublicKey string          `json:"counterpartyPublicKey"`
	AssetAmount           decimal.Decimal `json:"assetAmount"`
	Rate                  decimal.Decimal `json:"rate"`
	Memo                  string          `json:"memo,omitempty"`
}

// RampDetail describes a standalone conversion between fiat and the settlement asset.
type RampDetail struct {
	AssetCode   string          `json:"assetCode"`
	AssetAmount decimal.Decimal `json:"assetAmount"`
	Rate        decimal.Decimal `json:"rate"`
}

// Kind values used to tag the detail variant in serialized metadata.
const (
	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
	KindTransfer   = "transfer"
	KindPayment    = "payment"
	KindRamp       = "ramp"
)

func (DepositDetail) Kind() string { return KindDeposit }
func (WithdrawalDetail) Kind() string { return KindWithdrawal }
func (TransferDetail) Kind() string { return KindTransfer }
func (PaymentDetail) Kind() string { return KindPayment }
func (RampDetail) Kind() string { return KindRamp }

// Steps returns the combined-flow legs carried by the metadata, if any.
func (m Metadata) Steps() []TransactionStep {
	if d, ok := m.Detail.(TransferDetail); ok {
		return d.Steps
	}
	return nil
}

type metadataJSON struct {
	OriginalAmount *decimal.Decimal `json:"originalAmount,omitempty"`
	Detail         *detailJSON      `json:"detail,omitempty"`
	Extra          map[string]any   `json:"extra,omitempty"`
}

type detailJSON struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the detail variant together with its kind tag.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := metadataJSON{
		OriginalAmount: m.OriginalAmount,
		Extra:          m.Extra,
	}
	if m.Detail != nil {
		data, err := json.Marshal(m.Detail)
		if err != nil {
			return nil, err
		}
		out.Detail = &detailJSON{Kind: m.Detail.Kind(), Data: data}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the detail variant selected by its kind tag.
func (m *Metadata) UnmarshalJSON(b []byte) error {
	var in metadataJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	m.OriginalAmount = in.OriginalAmount
	m.Extra = in.Extra
	m.Detail = nil
	if in.Detail == nil {
		return nil
	}

	detail, err := decodeDetail(in.Detail.Kind, in.Detail.Data)
	if err != nil {
		return err
	}
	m.Detail = detail
	return nil
}

func decodeDetail(kind string, data json.RawMessage) (Detail, error) {
	switch kind {
	case KindDeposit:
		var d DepositDetail
		err := json.Unmarshal(data, &d)
		return d, err
	case KindWithdrawal:
		var d WithdrawalDetail
		err := json.Unmarshal(data, &d)
		return d, err
	case KindTransfer:
		var d TransferDetail
		err := json.Unmarshal(data, &d)
		return d, err
	case KindPayment:
		var d PaymentDetail
		err := json.Unmarshal(data, &d)
		return d, err
	case KindRamp:
		var d RampDetail
		err := json.Unmarshal(data, &d)
		return d, err
	default:
		return nil, fmt.Errorf("unknown metadata detail kind %q", kind)
	}
}
