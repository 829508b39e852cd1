package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
)

// migrations create the ledger schema. Every statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_email VARCHAR(255) NOT NULL,
		type VARCHAR(16) NOT NULL,
		amount NUMERIC(24,7) NOT NULL,
		currency CHAR(3) NOT NULL,
		status VARCHAR(16) NOT NULL,
		from_account TEXT NOT NULL DEFAULT '',
		to_account TEXT NOT NULL DEFAULT '',
		settlement_ref TEXT NULL,
		balance NUMERIC(24,7) NULL,
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ NULL,
		description TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS transactions_user_email_idx ON transactions (user_email, created_at);`,
	`CREATE TABLE IF NOT EXISTS wallets (
		user_email VARCHAR(255) PRIMARY KEY,
		public_key VARCHAR(64) NOT NULL UNIQUE,
		secret_seed VARCHAR(64) NOT NULL,
		currency CHAR(3) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS bank_accounts (
		bank_account_id VARCHAR(64) PRIMARY KEY,
		user_email VARCHAR(255) NOT NULL,
		bank_name VARCHAR(100) NOT NULL,
		account_number VARCHAR(34) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);`,
}

// Migrate applies the schema to db.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			logger.Log.Errorw("migration failed", "error", err)
			return err
		}
	}
	return nil
}
