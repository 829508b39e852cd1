package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/apperrors"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// transactionRow is the transactions table layout.
type transactionRow struct {
	ID            string              `db:"id"`
	UserEmail     string              `db:"user_email"`
	Type          string              `db:"type"`
	Amount        decimal.Decimal     `db:"amount"`
	Currency      string              `db:"currency"`
	Status        string              `db:"status"`
	FromAccount   string              `db:"from_account"`
	ToAccount     string              `db:"to_account"`
	SettlementRef sql.NullString      `db:"settlement_ref"`
	Balance       decimal.NullDecimal `db:"balance"`
	Metadata      []byte              `db:"metadata"`
	CreatedAt     time.Time           `db:"created_at"`
	CompletedAt   sql.NullTime        `db:"completed_at"`
	Description   string              `db:"description"`
}

const transactionColumns = `id, user_email, type, amount, currency, status, from_account, to_account,
	settlement_ref, balance, metadata, created_at, completed_at, description`

func toRow(tx *models.Transaction) (*transactionRow, error) {
	metadata, err := json.Marshal(tx.Metadata)
	if err != nil {
		return nil, err
	}
	row := &transactionRow{
		ID:          tx.ID,
		UserEmail:   tx.UserEmail,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Status:      string(tx.Status),
		FromAccount: tx.FromAccount,
		ToAccount:   tx.ToAccount,
		Metadata:    metadata,
		CreatedAt:   tx.Timestamp,
		Description: tx.Description,
	}
	if tx.SettlementRef != "" {
		row.SettlementRef = sql.NullString{String: tx.SettlementRef, Valid: true}
	}
	if tx.Balance != nil {
		row.Balance = decimal.NullDecimal{Decimal: *tx.Balance, Valid: true}
	}
	if tx.CompletedAt != nil {
		row.CompletedAt = sql.NullTime{Time: *tx.CompletedAt, Valid: true}
	}
	return row, nil
}

func (r *transactionRow) toModel() (models.Transaction, error) {
	tx := models.Transaction{
		ID:            r.ID,
		UserEmail:     r.UserEmail,
		Type:          models.TransactionType(r.Type),
		Amount:        r.Amount,
		Currency:      strings.TrimSpace(r.Currency),
		Status:        models.TransactionStatus(r.Status),
		FromAccount:   r.FromAccount,
		ToAccount:     r.ToAccount,
		SettlementRef: r.SettlementRef.String,
		Timestamp:     r.CreatedAt.UTC(),
		Description:   r.Description,
	}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &tx.Metadata); err != nil {
			return models.Transaction{}, err
		}
	}
	if r.Balance.Valid {
		balance := r.Balance.Decimal
		tx.Balance = &balance
	}
	if r.CompletedAt.Valid {
		completed := r.CompletedAt.Time.UTC()
		tx.CompletedAt = &completed
	}
	return tx, nil
}

// TransactionRepository is the Postgres transaction store.
type TransactionRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

// NewTransactionRepository creates a store on db. When txGetter returns a
// transaction for a context, reads and writes run inside it.
func NewTransactionRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *TransactionRepository {
	return &TransactionRepository{db: db, txGetter: txGetter}
}

func (r *TransactionRepository) executor(ctx context.Context) sqlx.ExtContext {
	if r.txGetter != nil {
		if tx := r.txGetter(ctx); tx != nil {
			return tx
		}
	}
	return r.db
}

// Put inserts tx or updates the mutable fields of an existing record.
// A stamped balance, a settlement reference and a completion time are never
// overwritten once stored; creation-time fields are never touched.
func (r *TransactionRepository) Put(ctx context.Context, tx *models.Transaction) error {
	const query = `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			settlement_ref = COALESCE(transactions.settlement_ref, EXCLUDED.settlement_ref),
			balance = COALESCE(transactions.balance, EXCLUDED.balance),
			completed_at = COALESCE(transactions.completed_at, EXCLUDED.completed_at)
	`

	row, err := toRow(tx)
	if err != nil {
		return apperrors.Storage("put", err)
	}

	args := []any{
		row.ID, row.UserEmail, row.Type, row.Amount, row.Currency, row.Status,
		row.FromAccount, row.ToAccount, row.SettlementRef, row.Balance,
		string(row.Metadata), row.CreatedAt, row.CompletedAt, row.Description,
	}
	res, err := r.executor(ctx).ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.Log.Infow(
		"transaction upserted",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{row.ID, row.UserEmail, row.Status},
		"result", rowsAffected,
		"error", err,
	)

	return apperrors.Storage("put", err)
}

// Get returns the transaction with the given id.
func (r *TransactionRepository) Get(ctx context.Context, id string) (*models.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	var row transactionRow
	err := sqlx.GetContext(ctx, r.executor(ctx), &row, query, id)

	logger.Log.Infow(
		"transaction fetched",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{id},
		"result", row.Status,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("transaction", id)
	}
	if err != nil {
		return nil, apperrors.Storage("get", err)
	}

	tx, err := row.toModel()
	if err != nil {
		return nil, apperrors.Storage("get", err)
	}
	return &tx, nil
}

// ListByUser returns every transaction owned by email, in no particular order.
func (r *TransactionRepository) ListByUser(ctx context.Context, email string) ([]models.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions WHERE user_email = $1`

	var rows []transactionRow
	err := sqlx.SelectContext(ctx, r.executor(ctx), &rows, query, email)

	logger.Log.Infow(
		"transactions listed",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{email},
		"result", len(rows),
		"error", err,
	)

	if err != nil {
		return nil, apperrors.Storage("list", err)
	}

	txs := make([]models.Transaction, 0, len(rows))
	for i := range rows {
		tx, err := rows[i].toModel()
		if err != nil {
			return nil, apperrors.Storage("list", err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
