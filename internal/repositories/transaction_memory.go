package repositories

import (
	"context"
	"sync"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/apperrors"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
)

// TransactionMemoryRepository keeps transactions in process memory.
// It follows the same update rules as the Postgres store.
type TransactionMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]models.Transaction
}

func NewTransactionMemoryRepository() *TransactionMemoryRepository {
	return &TransactionMemoryRepository{items: make(map[string]models.Transaction)}
}

func (r *TransactionMemoryRepository) Put(ctx context.Context, tx *models.Transaction) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Storage("put", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[tx.ID]
	if !ok {
		r.items[tx.ID] = *tx
		return nil
	}

	existing.Status = tx.Status
	if existing.SettlementRef == "" {
		existing.SettlementRef = tx.SettlementRef
	}
	if existing.Balance == nil {
		existing.Balance = tx.Balance
	}
	if existing.CompletedAt == nil {
		existing.CompletedAt = tx.CompletedAt
	}
	r.items[tx.ID] = existing
	return nil
}

func (r *TransactionMemoryRepository) Get(ctx context.Context, id string) (*models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Storage("get", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.items[id]
	if !ok {
		return nil, apperrors.NotFound("transaction", id)
	}
	return &tx, nil
}

func (r *TransactionMemoryRepository) ListByUser(ctx context.Context, email string) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Storage("list", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var txs []models.Transaction
	for _, tx := range r.items {
		if tx.UserEmail == email {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}
