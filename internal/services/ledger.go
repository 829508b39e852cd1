package services

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/apperrors"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/ledger"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/metrics"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=ledger.go -destination=mock_ledger.go -package=services

// amountScale is the number of decimal places every store keeps for money.
const amountScale = 7

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// withinScale reports whether d has no digits past amountScale decimal places.
func withinScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(amountScale))
}

// TransactionStore persists ledger records.
type TransactionStore interface {
	Put(ctx context.Context, tx *models.Transaction) error                      // Inserts or updates the mutable fields of a record
	Get(ctx context.Context, id string) (*models.Transaction, error)            // Returns a record or a not found error
	ListByUser(ctx context.Context, email string) ([]models.Transaction, error) // Returns every record owned by a user
}

// Locker serializes balance stamping per user.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error) // Blocks until key is held, returns the release function
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// LedgerService owns the transaction lifecycle and the derived balance views.
type LedgerService struct {
	store           TransactionStore
	locker          Locker
	kafkaWriter     KafkaWriter
	defaultCurrency string
	now             func() time.Time
}

// NewLedgerService creates a new LedgerService. A nil locker falls back to an
// in-process KeyedMutex; a nil kafkaWriter disables event publishing.
func NewLedgerService(
	store TransactionStore,
	locker Locker,
	kafkaWriter KafkaWriter,
	defaultCurrency string,
) *LedgerService {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	return &LedgerService{
		store:           store,
		locker:          locker,
		kafkaWriter:     kafkaWriter,
		defaultCurrency: strings.ToUpper(defaultCurrency),
		now:             time.Now,
	}
}

func (s *LedgerService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// publishEvent publishes a lifecycle event to Kafka.
func (s *LedgerService) publishEvent(ctx context.Context, event string, tx *models.Transaction) {
	if s.kafkaWriter == nil {
		logger.Log.Debugw("Kafka writer not configured, skipping publishing", "transaction_id", tx.ID, "event", event)
		return
	}

	data, err := json.Marshal(models.LedgerEvent{
		Event:       event,
		OccurredAt:  s.timestamp(),
		Transaction: *tx,
	})
	if err != nil {
		logger.Log.Errorw("Failed to marshal ledger event for Kafka", "transaction_id", tx.ID, "event", event, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(tx.ID),
		Value: data,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish ledger event to Kafka", "transaction_id", tx.ID, "event", event, "error", err)
	} else {
		logger.Log.Infow("Ledger event published to Kafka", "transaction_id", tx.ID, "event", event)
	}
}

// CreateTransaction validates a draft and persists it as a pending record.
func (s *LedgerService) CreateTransaction(ctx context.Context, draft models.TransactionDraft) (*models.Transaction, error) {
	email := strings.TrimSpace(draft.UserEmail)
	if email == "" {
		return nil, apperrors.Validation("userEmail", "is required")
	}
	if !draft.Type.Valid() {
		return nil, apperrors.Validation("type", "unknown transaction type "+string(draft.Type))
	}
	if !draft.Amount.IsPositive() {
		return nil, apperrors.Validation("amount", "must be positive")
	}
	if !withinScale(draft.Amount) {
		return nil, apperrors.Validation("amount", "more than 7 decimal places")
	}
	if original := draft.Metadata.OriginalAmount; original != nil && !withinScale(*original) {
		return nil, apperrors.Validation("metadata.originalAmount", "more than 7 decimal places")
	}
	currency := strings.ToUpper(strings.TrimSpace(draft.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	if currency == "" {
		return nil, apperrors.Validation("currency", "is required")
	}
	if !currencyCode.MatchString(currency) {
		return nil, apperrors.Validation("currency", "must be a three letter ISO code")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.Storage("generate id", err)
	}

	metadata := draft.Metadata
	if metadata.OriginalAmount == nil {
		original := draft.Amount
		metadata.OriginalAmount = &original
	}

	tx := &models.Transaction{
		ID:          id.String(),
		UserEmail:   email,
		Type:        draft.Type,
		Amount:      draft.Amount,
		Currency:    currency,
		Status:      models.StatusPending,
		FromAccount: draft.FromAccount,
		ToAccount:   draft.ToAccount,
		Metadata:    metadata,
		Timestamp:   s.timestamp(),
		Description: draft.Description,
	}

	if err := s.store.Put(ctx, tx); err != nil {
		logger.Log.Errorw("failed to create transaction", "user", email, "type", draft.Type, "error", err)
		return nil, apperrors.Storage("create transaction", err)
	}

	metrics.TransactionsCreated.WithLabelValues(string(tx.Type)).Inc()
	logger.Log.Infow("transaction created",
		"transaction_id", tx.ID,
		"user", tx.UserEmail,
		"type", tx.Type,
		"amount", tx.Amount.String(),
		"currency", tx.Currency,
	)
	s.publishEvent(ctx, models.EventTransactionCreated, tx)

	return tx, nil
}

// UpdateStatus moves a pending record to completed or failed.
// An unknown id is logged and ignored: the result is nil with a nil error.
// A completed record keeps settlementRef and balance when given; a failed one never does.
func (s *LedgerService) UpdateStatus(
	ctx context.Context,
	id string,
	status models.TransactionStatus,
	settlementRef string,
	balance *decimal.Decimal,
) (*models.Transaction, error) {
	return s.transition(ctx, id, status, settlementRef, balance, s.timestamp())
}

func (s *LedgerService) transition(
	ctx context.Context,
	id string,
	status models.TransactionStatus,
	settlementRef string,
	balance *decimal.Decimal,
	completedAt time.Time,
) (*models.Transaction, error) {
	if !status.Terminal() {
		return nil, apperrors.Validation("status", "must be completed or failed")
	}

	tx, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Log.Warnw("status update for unknown transaction ignored", "transaction_id", id, "status", status)
			return nil, nil
		}
		logger.Log.Errorw("failed to load transaction for status update", "transaction_id", id, "error", err)
		return nil, apperrors.Storage("update status", err)
	}

	if tx.Status.Terminal() {
		logger.Log.Warnw("status update on terminal transaction rejected",
			"transaction_id", id,
			"current", tx.Status,
			"requested", status,
		)
		return nil, apperrors.ErrInvalidTransition
	}

	tx.Status = status
	tx.CompletedAt = &completedAt
	if status == models.StatusCompleted {
		tx.SettlementRef = settlementRef
		tx.Balance = balance
	}

	if err := s.store.Put(ctx, tx); err != nil {
		logger.Log.Errorw("failed to update transaction status",
			"transaction_id", id,
			"status", status,
			"settlement_ref", settlementRef,
			"error", err,
		)
		return nil, apperrors.Storage("update status", err)
	}

	event := models.EventTransactionFailed
	if status == models.StatusCompleted {
		event = models.EventTransactionCompleted
		metrics.TransactionsCompleted.WithLabelValues(string(tx.Type)).Inc()
	} else {
		metrics.TransactionsFailed.WithLabelValues(string(tx.Type)).Inc()
	}
	logger.Log.Infow("transaction status updated", "transaction_id", id, "status", status, "settlement_ref", settlementRef)
	s.publishEvent(ctx, event, tx)

	return tx, nil
}

// CompleteTransaction stamps a pending record with the owner's balance after
// it and marks it completed. Stamping is serialized per user, and completion
// times of one user's stamped records strictly increase.
func (s *LedgerService) CompleteTransaction(ctx context.Context, id, settlementRef string) (*models.Transaction, error) {
	tx, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.Storage("complete transaction", err)
	}

	unlock, err := s.locker.Lock(ctx, tx.UserEmail)
	if err != nil {
		logger.Log.Errorw("failed to acquire balance lock", "user", tx.UserEmail, "transaction_id", id, "error", err)
		return nil, apperrors.Storage("lock balance", err)
	}
	defer unlock()

	history, err := s.store.ListByUser(ctx, tx.UserEmail)
	if err != nil {
		return nil, apperrors.Storage("complete transaction", err)
	}

	previous := decimal.Zero
	completedAt := s.timestamp()
	if last := ledger.LastStamped(history); last != nil {
		previous = *last.Balance
		if settled := ledger.SettledAt(last); !completedAt.After(settled) {
			completedAt = settled.Add(time.Millisecond)
		}
	}
	balance := ledger.Apply(previous, tx)

	updated, err := s.transition(ctx, id, models.StatusCompleted, settlementRef, &balance, completedAt)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperrors.NotFound("transaction", id)
	}
	return updated, nil
}

// FailTransaction marks a pending record failed.
func (s *LedgerService) FailTransaction(ctx context.Context, id string) error {
	_, err := s.UpdateStatus(ctx, id, models.StatusFailed, "", nil)
	return err
}

// GetBalance returns the user's current fiat balance.
func (s *LedgerService) GetBalance(ctx context.Context, email string) (decimal.Decimal, error) {
	history, err := s.store.ListByUser(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to load history for balance", "user", email, "error", err)
		return decimal.Zero, apperrors.Storage("get balance", err)
	}
	return ledger.CurrentBalance(history), nil
}

// GetTransaction returns one record owned by email.
func (s *LedgerService) GetTransaction(ctx context.Context, email, id string) (*models.Transaction, error) {
	tx, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.Storage("get transaction", err)
	}
	if tx.UserEmail != email {
		return nil, apperrors.NotFound("transaction", id)
	}
	return tx, nil
}

// ListTransactions returns the user's history newest first, with a derived
// balance on every record that was never stamped.
func (s *LedgerService) ListTransactions(ctx context.Context, email string) ([]models.TransactionView, error) {
	history, err := s.store.ListByUser(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to list transactions", "user", email, "error", err)
		return nil, apperrors.Storage("list transactions", err)
	}
	return ledger.Reconcile(history), nil
}

// GetStats summarizes the user's history.
func (s *LedgerService) GetStats(ctx context.Context, email string) (models.TransactionStats, error) {
	history, err := s.store.ListByUser(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to load history for stats", "user", email, "error", err)
		return models.TransactionStats{}, apperrors.Storage("get stats", err)
	}
	return ledger.Stats(history), nil
}
