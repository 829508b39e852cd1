package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/apperrors"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
)

// WalletRepository resolves users to their custodial settlement wallets and linked bank accounts.
type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetWallet returns the settlement wallet of a user.
func (r *WalletRepository) GetWallet(ctx context.Context, email string) (*models.WalletDB, error) {
	const query = `
		SELECT user_email, public_key, secret_seed, currency, created_at, updated_at
		FROM wallets
		WHERE user_email = $1
	`

	var wallet models.WalletDB
	err := r.db.GetContext(ctx, &wallet, query, email)

	// secret seed stays out of the log
	logger.Log.Infow(
		"wallet fetched",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{email},
		"result", wallet.PublicKey,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("wallet", email)
	}
	if err != nil {
		return nil, err
	}
	wallet.Currency = strings.TrimSpace(wallet.Currency)
	return &wallet, nil
}

// GetBankAccount returns a bank account linked by the given user.
func (r *WalletRepository) GetBankAccount(ctx context.Context, email, bankAccountID string) (*models.BankAccountDB, error) {
	const query = `
		SELECT bank_account_id, user_email, bank_name, account_number, created_at
		FROM bank_accounts
		WHERE bank_account_id = $1 AND user_email = $2
	`

	var account models.BankAccountDB
	err := r.db.GetContext(ctx, &account, query, bankAccountID, email)

	logger.Log.Infow(
		"bank account fetched",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{bankAccountID, email},
		"result", account.BankName,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("bank account", bankAccountID)
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ListWallets returns every custodial wallet, used to open the matching
// accounts on the simulated settlement network at startup.
func (r *WalletRepository) ListWallets(ctx context.Context) ([]models.WalletDB, error) {
	const query = `
		SELECT user_email, public_key, secret_seed, currency, created_at, updated_at
		FROM wallets
		ORDER BY created_at
	`

	var wallets []models.WalletDB
	err := r.db.SelectContext(ctx, &wallets, query)

	logger.Log.Infow(
		"wallets listed",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{},
		"result", len(wallets),
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	for i := range wallets {
		wallets[i].Currency = strings.TrimSpace(wallets[i].Currency)
	}
	return wallets, nil
}
