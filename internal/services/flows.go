package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/apperrors"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/metrics"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/settlement"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/tracing"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -source=flows.go -destination=mock_flows.go -package=services

// TransactionLedger records flow outcomes.
type TransactionLedger interface {
	CreateTransaction(ctx context.Context, draft models.TransactionDraft) (*models.Transaction, error) // Opens a pending record
	CompleteTransaction(ctx context.Context, id, settlementRef string) (*models.Transaction, error)    // Stamps and completes a record
	FailTransaction(ctx context.Context, id string) error                                              // Marks a record failed
	GetBalance(ctx context.Context, email string) (decimal.Decimal, error)                             // Returns the current fiat balance
}

// WalletDirectory resolves users to custodial wallets and linked bank accounts.
type WalletDirectory interface {
	GetWallet(ctx context.Context, email string) (*models.WalletDB, error)                          // Returns the user's wallet
	GetBankAccount(ctx context.Context, email, bankAccountID string) (*models.BankAccountDB, error) // Returns a bank account linked by the user
}

// SettlementClient talks to the settlement network.
type SettlementClient interface {
	LoadAccount(ctx context.Context, publicKey string) (*settlement.Account, error)                                                 // Returns account state
	SubmitPayment(ctx context.Context, sourceSecret, destination string, amount decimal.Decimal) (*settlement.PaymentResult, error) // Moves asset between accounts
}

// RateSource prices one unit of a currency or asset in another.
type RateSource interface {
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) // Returns the price of one unit of from in to
}

// FlowConfig holds the custodial settings shared by all flows.
type FlowConfig struct {
	AssetCode             string          // Settlement asset fiat amounts are converted through
	DistributionPublicKey string          // Custodial account receiving withdrawals
	DistributionSecret    string          // Signing secret of the custodial account funding deposits
	TransferFeePercent    decimal.Decimal // Fee charged on peer transfers, percent of the amount
	SettlementTimeout     time.Duration   // Upper bound for one settlement submission
}

// FlowService runs deposits, withdrawals, transfers and payments against the
// settlement network and records each one in the ledger.
type FlowService struct {
	ledger     TransactionLedger
	wallets    WalletDirectory
	settlement SettlementClient
	rates      RateSource
	cfg        FlowConfig
}

// NewFlowService creates a new FlowService.
func NewFlowService(
	ledger TransactionLedger,
	wallets WalletDirectory,
	settlementClient SettlementClient,
	rates RateSource,
	cfg FlowConfig,
) *FlowService {
	if cfg.AssetCode == "" {
		cfg.AssetCode = models.AssetXLM
	}
	return &FlowService{
		ledger:     ledger,
		wallets:    wallets,
		settlement: settlementClient,
		rates:      rates,
		cfg:        cfg,
	}
}

// settlementLeg is one payment on the settlement network.
type settlementLeg struct {
	source      string
	destination string
	amount      decimal.Decimal
}

func startSpan(ctx context.Context, name, email string) (context.Context, trace.Span) {
	return tracing.Tracer("flows").Start(ctx, name, trace.WithAttributes(attribute.String("user.email", email)))
}

func endSpan(span trace.Span, tx *models.Transaction, err error) {
	if tx != nil {
		span.SetAttributes(attribute.String("transaction.id", tx.ID))
	}
	if id := apperrors.TransactionID(err); id != "" {
		span.SetAttributes(attribute.String("transaction.id", id))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func shortKey(publicKey string) string {
	if len(publicKey) <= 8 {
		return publicKey
	}
	return publicKey[:4] + "..." + publicKey[len(publicKey)-4:]
}

// accountCurrency checks a requested currency against the account's preferred
// one; an empty request means the preferred currency.
func accountCurrency(field, requested, preferred string) (string, error) {
	requested = strings.ToUpper(strings.TrimSpace(requested))
	if requested == "" || requested == preferred {
		return preferred, nil
	}
	return "", apperrors.Validation(field, fmt.Sprintf("%s does not match account currency %s", requested, preferred))
}

// ensureFunds rejects a debit larger than the user's current ledger balance.
// The check runs before the record exists, so it does not serialize with
// concurrent debits; the settlement network rejects what the wallet cannot cover.
func (s *FlowService) ensureFunds(ctx context.Context, email string, amount decimal.Decimal) error {
	balance, err := s.ledger.GetBalance(ctx, email)
	if err != nil {
		return err
	}
	if balance.LessThan(amount) {
		return apperrors.Validation("amount", fmt.Sprintf("insufficient balance: %s available", balance.StringFixed(2)))
	}
	return nil
}

// assetRate returns the price of one unit of the settlement asset in currency.
func (s *FlowService) assetRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	pair := s.cfg.AssetCode + "->" + currency
	rate, err := s.rates.GetRate(ctx, s.cfg.AssetCode, currency)
	if err != nil {
		logger.Log.Warnw("no exchange rate for flow", "pair", pair, "error", err)
		return decimal.Zero, apperrors.NotFound("exchange rate", pair)
	}
	if !rate.IsPositive() {
		logger.Log.Warnw("non positive exchange rate for flow", "pair", pair, "rate", rate.String())
		return decimal.Zero, apperrors.NotFound("exchange rate", pair)
	}
	return rate, nil
}

// toAsset converts a fiat amount into the settlement asset at the current rate.
func (s *FlowService) toAsset(ctx context.Context, amount decimal.Decimal, currency string) (decimal.Decimal, decimal.Decimal, error) {
	rate, err := s.assetRate(ctx, currency)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	assetAmount := amount.DivRound(rate, settlement.AssetPrecision)
	if !assetAmount.IsPositive() {
		return decimal.Zero, decimal.Zero, apperrors.Validation("amount", "too small to settle")
	}
	return assetAmount, rate, nil
}

// settle submits one payment under the configured timeout.
func (s *FlowService) settle(ctx context.Context, txType models.TransactionType, leg settlementLeg) (*settlement.PaymentResult, error) {
	ctx, span := tracing.Tracer("flows").Start(ctx, "settlement.SubmitPayment", trace.WithAttributes(
		attribute.String("transaction.type", string(txType)),
		attribute.String("destination", leg.destination),
		attribute.String("asset.amount", leg.amount.String()),
	))
	defer span.End()

	if s.cfg.SettlementTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SettlementTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.settlement.SubmitPayment(ctx, leg.source, leg.destination, leg.amount)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		err = asSettlementError(ctx, err)
		var se *apperrors.SettlementError
		if errors.As(err, &se) {
			metrics.SettlementErrors.WithLabelValues(se.Code).Inc()
			span.SetAttributes(attribute.String("settlement.code", se.Code))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("settlement.hash", result.Hash))
	}
	metrics.SettlementLatency.WithLabelValues(string(txType), outcome).Observe(time.Since(start).Seconds())

	return result, err
}

// asSettlementError classifies errors that did not come from the network itself.
func asSettlementError(ctx context.Context, err error) error {
	var se *apperrors.SettlementError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &apperrors.SettlementError{Code: settlement.CodeTimeout, Message: "settlement call did not finish", Err: err}
	}
	return &apperrors.SettlementError{Code: "transport", Message: err.Error(), Err: err}
}

// execute creates the pending record, settles it and records the outcome.
// Every error after creation carries the transaction id.
func (s *FlowService) execute(ctx context.Context, draft models.TransactionDraft, leg settlementLeg) (*models.Transaction, *settlement.PaymentResult, error) {
	tx, err := s.ledger.CreateTransaction(ctx, draft)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.settle(ctx, tx.Type, leg)
	if err != nil {
		logger.Log.Errorw("settlement failed",
			"transaction_id", tx.ID,
			"user", tx.UserEmail,
			"type", tx.Type,
			"error", err,
		)
		if failErr := s.ledger.FailTransaction(context.WithoutCancel(ctx), tx.ID); failErr != nil {
			logger.Log.Errorw("failed to mark transaction failed", "transaction_id", tx.ID, "error", failErr)
		}
		return nil, nil, &apperrors.FlowError{TransactionID: tx.ID, Err: err}
	}

	completed, err := s.ledger.CompleteTransaction(context.WithoutCancel(ctx), tx.ID, result.Hash)
	if err != nil {
		metrics.StuckTransactions.WithLabelValues(string(tx.Type)).Inc()
		logger.Log.Errorw("payment settled but completion was not recorded",
			"transaction_id", tx.ID,
			"user", tx.UserEmail,
			"settlement_ref", result.Hash,
			"error", err,
		)
		return nil, nil, &apperrors.FlowError{TransactionID: tx.ID, Err: err}
	}

	return completed, result, nil
}

// Deposit moves funds from a linked bank account into the user's wallet.
func (s *FlowService) Deposit(ctx context.Context, email string, amount decimal.Decimal, currency, bankAccountID string) (tx *models.Transaction, err error) {
	ctx, span := startSpan(ctx, "flows.Deposit", email)
	defer func() { endSpan(span, tx, err) }()

	if !amount.IsPositive() {
		return nil, apperrors.Validation("amount", "must be positive")
	}
	if strings.TrimSpace(bankAccountID) == "" {
		return nil, apperrors.Validation("bankAccountId", "is required")
	}

	wallet, err := s.wallets.GetWallet(ctx, email)
	if err != nil {
		return nil, err
	}
	if currency, err = accountCurrency("currency", currency, wallet.Currency); err != nil {
		return nil, err
	}
	bank, err := s.wallets.GetBankAccount(ctx, email, bankAccountID)
	if err != nil {
		return nil, err
	}
	assetAmount, rate, err := s.toAsset(ctx, amount, currency)
	if err != nil {
		return nil, err
	}

	draft := models.TransactionDraft{
		UserEmail:   email,
		Type:        models.TypeDeposit,
		Amount:      amount,
		Currency:    currency,
		FromAccount: bank.Label(),
		ToAccount:   "Wallet " + shortKey(wallet.PublicKey),
		Description: "Deposit from " + bank.BankName,
		Metadata: models.Metadata{
			Detail: models.DepositDetail{
				BankAccountID: bank.BankAccountID,
				BankName:      bank.BankName,
				AssetAmount:   assetAmount,
				Rate:          rate,
			},
		},
	}
	leg := settlementLeg{
		source:      s.cfg.DistributionSecret,
		destination: wallet.PublicKey,
		amount:      assetAmount,
	}

	tx, _, err = s.execute(ctx, draft, leg)
	return tx, err
}

// Withdraw moves funds from the user's wallet out to a linked bank account.
func (s *FlowService) Withdraw(ctx context.Context, email string, amount decimal.Decimal, currency, bankAccountID string) (tx *models.Transaction, err error) {
	ctx, span := startSpan(ctx, "flows.Withdraw", email)
	defer func() { endSpan(span, tx, err) }()

	if !amount.IsPositive() {
		return nil, apperrors.Validation("amount", "must be positive")
	}
	if strings.TrimSpace(bankAccountID) == "" {
		return nil, apperrors.Validation("bankAccountId", "is required")
	}

	wallet, err := s.wallets.GetWallet(ctx, email)
	if err != nil {
		return nil, err
	}
	if currency, err = accountCurrency("currency", currency, wallet.Currency); err != nil {
		return nil, err
	}
	bank, err := s.wallets.GetBankAccount(ctx, email, bankAccountID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureFunds(ctx, email, amount); err != nil {
		return nil, err
	}
	assetAmount, rate, err := s.toAsset(ctx, amount, currency)
	if err != nil {
		return nil, err
	}

	draft := models.TransactionDraft{
		UserEmail:   email,
		Type:        models.TypeWithdrawal,
		Amount:      amount,
		Currency:    currency,
		FromAccount: "Wallet " + shortKey(wallet.PublicKey),
		ToAccount:   bank.Label(),
		Description: "Withdrawal to " + bank.BankName,
		Metadata: models.Metadata{
			Detail: models.WithdrawalDetail{
				BankAccountID: bank.BankAccountID,
				BankName:      bank.BankName,
				AssetAmount:   assetAmount,
				Rate:          rate,
			},
		},
	}
	leg := settlementLeg{
		source:      wallet.SecretSeed,
		destination: s.cfg.DistributionPublicKey,
		amount:      assetAmount,
	}

	tx, _, err = s.execute(ctx, draft, leg)
	return tx, err
}

// Transfer sends money to another user, converting into the recipient's
// currency. The sender is debited the full amount; the fee stays with the
// custodian and the rest reaches the recipient as a completed deposit.
func (s *FlowService) Transfer(
	ctx context.Context,
	email, recipientEmail string,
	amount decimal.Decimal,
	currency, recipientCurrency string,
) (tx *models.Transaction, err error) {
	ctx, span := startSpan(ctx, "flows.Transfer", email)
	defer func() { endSpan(span, tx, err) }()

	recipientEmail = strings.TrimSpace(recipientEmail)
	if !amount.IsPositive() {
		return nil, apperrors.Validation("amount", "must be positive")
	}
	if recipientEmail == "" {
		return nil, apperrors.Validation("recipientEmail", "is required")
	}
	if strings.EqualFold(recipientEmail, email) {
		return nil, apperrors.Validation("recipientEmail", "cannot transfer to yourself")
	}

	sender, err := s.wallets.GetWallet(ctx, email)
	if err != nil {
		return nil, err
	}
	recipient, err := s.wallets.GetWallet(ctx, recipientEmail)
	if err != nil {
		return nil, err
	}
	if currency, err = accountCurrency("currency", currency, sender.Currency); err != nil {
		return nil, err
	}
	if recipientCurrency, err = accountCurrency("recipientCurrency", recipientCurrency, recipient.Currency); err != nil {
		return nil, err
	}

	if err := s.ensureFunds(ctx, email, amount); err != nil {
		return nil, err
	}

	fee := amount.Mul(s.cfg.TransferFeePercent).Div(decimal.NewFromInt(100)).Round(2)
	net := amount.Sub(fee)
	if !net.IsPositive() {
		return nil, apperrors.Validation("amount", "does not cover the transfer fee")
	}

	assetAmount, senderRate, err := s.toAsset(ctx, net, currency)
	if err != nil {
		return nil, err
	}
	recipientRate := senderRate
	if recipientCurrency != currency {
		if recipientRate, err = s.assetRate(ctx, recipientCurrency); err != nil {
			return nil, err
		}
	}
	recipientAmount := assetAmount.Mul(recipientRate).Round(2)
	exchangeRate := recipientRate.DivRound(senderRate, 8)

	draft := models.TransactionDraft{
		UserEmail:   email,
		Type:        models.TypeTransfer,
		Amount:      amount,
		Currency:    currency,
		FromAccount: "Wallet " + shortKey(sender.PublicKey),
		ToAccount:   recipientEmail,
		Description: "Transfer to " + recipientEmail,
		Metadata: models.Metadata{
			Detail: models.TransferDetail{
				RecipientEmail:     recipientEmail,
				RecipientPublicKey: recipient.PublicKey,
				Fee:                fee,
				RecipientAmount:    recipientAmount,
				RecipientCurrency:  recipientCurrency,
				ExchangeRate:       exchangeRate,
				AssetAmount:        assetAmount,
				Steps: []models.TransactionStep{
					{
						Type:        models.TypeOnRamp,
						Description: fmt.Sprintf("Convert %s to %s", currency, s.cfg.AssetCode),
						Amount:      net,
						Currency:    currency,
					},
					{
						Type:        models.TypeTransfer,
						Description: fmt.Sprintf("Send %s to %s", s.cfg.AssetCode, recipientEmail),
						Amount:      assetAmount,
						Currency:    s.cfg.AssetCode,
					},
					{
						Type:        models.TypeOffRamp,
						Description: fmt.Sprintf("Convert %s to %s", s.cfg.AssetCode, recipientCurrency),
						Amount:      recipientAmount,
						Currency:    recipientCurrency,
					},
				},
			},
		},
	}
	leg := settlementLeg{
		source:      sender.SecretSeed,
		destination: recipient.PublicKey,
		amount:      assetAmount,
	}

	tx, result, err := s.execute(ctx, draft, leg)
	if err != nil {
		return nil, err
	}

	s.creditRecipient(context.WithoutCancel(ctx), tx, recipient, recipientAmount, recipientRate, assetAmount, result.Hash)
	return tx, nil
}

// creditRecipient records the incoming side of a settled transfer. The money
// has already moved, so failures are logged rather than returned.
func (s *FlowService) creditRecipient(
	ctx context.Context,
	transfer *models.Transaction,
	recipient *models.WalletDB,
	amount, rate, assetAmount decimal.Decimal,
	settlementRef string,
) {
	credit, err := s.ledger.CreateTransaction(ctx, models.TransactionDraft{
		UserEmail:   recipient.UserEmail,
		Type:        models.TypeDeposit,
		Amount:      amount,
		Currency:    recipient.Currency,
		FromAccount: transfer.UserEmail,
		ToAccount:   "Wallet " + shortKey(recipient.PublicKey),
		Description: "Transfer from " + transfer.UserEmail,
		Metadata: models.Metadata{
			Detail: models.DepositDetail{
				SenderEmail: transfer.UserEmail,
				TransferID:  transfer.ID,
				AssetAmount: assetAmount,
				Rate:        rate,
			},
		},
	})
	if err != nil {
		metrics.StuckTransactions.WithLabelValues(string(models.TypeDeposit)).Inc()
		logger.Log.Errorw("failed to record transfer credit",
			"transfer_id", transfer.ID,
			"recipient", recipient.UserEmail,
			"settlement_ref", settlementRef,
			"error", err,
		)
		return
	}

	if _, err := s.ledger.CompleteTransaction(ctx, credit.ID, settlementRef); err != nil {
		metrics.StuckTransactions.WithLabelValues(string(models.TypeDeposit)).Inc()
		logger.Log.Errorw("failed to complete transfer credit",
			"transfer_id", transfer.ID,
			"transaction_id", credit.ID,
			"recipient", recipient.UserEmail,
			"settlement_ref", settlementRef,
			"error", err,
		)
	}
}

// Pay sends money from the user's wallet to an external settlement account.
func (s *FlowService) Pay(
	ctx context.Context,
	email, destination string,
	amount decimal.Decimal,
	currency, memo string,
) (tx *models.Transaction, err error) {
	ctx, span := startSpan(ctx, "flows.Pay", email)
	defer func() { endSpan(span, tx, err) }()

	destination = strings.TrimSpace(destination)
	if !amount.IsPositive() {
		return nil, apperrors.Validation("amount", "must be positive")
	}
	if destination == "" {
		return nil, apperrors.Validation("destination", "is required")
	}

	wallet, err := s.wallets.GetWallet(ctx, email)
	if err != nil {
		return nil, err
	}
	if destination == wallet.PublicKey {
		return nil, apperrors.Validation("destination", "cannot pay your own wallet")
	}
	if currency, err = accountCurrency("currency", currency, wallet.Currency); err != nil {
		return nil, err
	}
	if err := s.ensureFunds(ctx, email, amount); err != nil {
		return nil, err
	}
	assetAmount, rate, err := s.toAsset(ctx, amount, currency)
	if err != nil {
		return nil, err
	}

	description := "Payment to " + shortKey(destination)
	if memo != "" {
		description = memo
	}

	draft := models.TransactionDraft{
		UserEmail:   email,
		Type:        models.TypePayment,
		Amount:      amount,
		Currency:    currency,
		FromAccount: "Wallet " + shortKey(wallet.PublicKey),
		ToAccount:   destination,
		Description: description,
		Metadata: models.Metadata{
			Detail: models.PaymentDetail{
				CounterpartyPublicKey: destination,
				AssetAmount:           assetAmount,
				Rate:                  rate,
				Memo:                  memo,
			},
		},
	}
	leg := settlementLeg{
		source:      wallet.SecretSeed,
		destination: destination,
		amount:      assetAmount,
	}

	tx, _, err = s.execute(ctx, draft, leg)
	return tx, err
}

// GetBalanceSummary returns the ledger balance together with the asset held
// by the user's settlement account.
func (s *FlowService) GetBalanceSummary(ctx context.Context, email string) (*models.BalanceSummary, error) {
	wallet, err := s.wallets.GetWallet(ctx, email)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.GetBalance(ctx, email)
	if err != nil {
		return nil, err
	}

	summary := &models.BalanceSummary{
		Balance:   balance,
		Currency:  wallet.Currency,
		PublicKey: wallet.PublicKey,
		AssetCode: s.cfg.AssetCode,
	}

	account, err := s.settlement.LoadAccount(ctx, wallet.PublicKey)
	if err != nil {
		logger.Log.Warnw("failed to load settlement account", "user", email, "public_key", wallet.PublicKey, "error", err)
		return summary, nil
	}
	summary.AssetBalance = account.Balance(s.cfg.AssetCode)
	return summary, nil
}
