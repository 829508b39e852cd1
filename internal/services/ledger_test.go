package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/apperrors"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/repositories"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alice = "alice@example.com"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func draft(email string, typ models.TransactionType, amount string) models.TransactionDraft {
	return models.TransactionDraft{
		UserEmail: email,
		Type:      typ,
		Amount:    dec(amount),
		Currency:  "CAD",
	}
}

func newMemoryLedger() (*LedgerService, *repositories.TransactionMemoryRepository) {
	store := repositories.NewTransactionMemoryRepository()
	return NewLedgerService(store, nil, nil, "CAD"), store
}

func TestLedgerService_CreateTransaction_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name            string
		defaultCurrency string
		draft           models.TransactionDraft
		field           string
	}{
		{
			name:            "missing email",
			defaultCurrency: "CAD",
			draft:           draft("", models.TypeDeposit, "10"),
			field:           "userEmail",
		},
		{
			name:            "unknown type",
			defaultCurrency: "CAD",
			draft:           draft(alice, models.TransactionType("refund"), "10"),
			field:           "type",
		},
		{
			name:            "zero amount",
			defaultCurrency: "CAD",
			draft:           draft(alice, models.TypeDeposit, "0"),
			field:           "amount",
		},
		{
			name:            "negative amount",
			defaultCurrency: "CAD",
			draft:           draft(alice, models.TypeWithdrawal, "-5"),
			field:           "amount",
		},
		{
			name:            "no currency and no default",
			defaultCurrency: "",
			draft: models.TransactionDraft{
				UserEmail: alice,
				Type:      models.TypeDeposit,
				Amount:    dec("10"),
			},
			field: "currency",
		},
		{
			name:            "amount finer than the stored scale",
			defaultCurrency: "CAD",
			draft:           draft(alice, models.TypeDeposit, "10.123456789"),
			field:           "amount",
		},
		{
			name:            "original amount finer than the stored scale",
			defaultCurrency: "CAD",
			draft: models.TransactionDraft{
				UserEmail: alice,
				Type:      models.TypeDeposit,
				Amount:    dec("10"),
				Metadata:  models.Metadata{OriginalAmount: decPtr("10.00000001")},
			},
			field: "metadata.originalAmount",
		},
		{
			name:            "currency longer than an ISO code",
			defaultCurrency: "CAD",
			draft: models.TransactionDraft{
				UserEmail: alice,
				Type:      models.TypeDeposit,
				Amount:    dec("10"),
				Currency:  "DOLLARS",
			},
			field: "currency",
		},
		{
			name:            "currency with digits",
			defaultCurrency: "CAD",
			draft: models.TransactionDraft{
				UserEmail: alice,
				Type:      models.TypeDeposit,
				Amount:    dec("10"),
				Currency:  "U5D",
			},
			field: "currency",
		},
		{
			name:            "bad default currency",
			defaultCurrency: "dollars",
			draft: models.TransactionDraft{
				UserEmail: alice,
				Type:      models.TypeDeposit,
				Amount:    dec("10"),
			},
			field: "currency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repositories.NewTransactionMemoryRepository()
			svc := NewLedgerService(store, nil, nil, tt.defaultCurrency)

			tx, err := svc.CreateTransaction(ctx, tt.draft)
			assert.Nil(t, tx)

			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)

			history, err := store.ListByUser(ctx, alice)
			require.NoError(t, err)
			assert.Empty(t, history)
		})
	}
}

func TestLedgerService_CreateTransaction_StoredScale(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryLedger()

	tx, err := svc.CreateTransaction(ctx, draft(alice, models.TypeDeposit, "10.1234567"))
	require.NoError(t, err)
	assert.Equal(t, "10.1234567", tx.Amount.String())

	// trailing zeros past the scale change nothing
	tx, err = svc.CreateTransaction(ctx, draft(alice, models.TypeDeposit, "10.50000000000"))
	require.NoError(t, err)
	assert.Equal(t, "10.5", tx.Amount.String())
	assert.Equal(t, "CAD", tx.Currency)
}

func TestLedgerService_CreateTransaction(t *testing.T) {
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := repositories.NewTransactionMemoryRepository()
	writer := NewMockKafkaWriter(ctrl)

	svc := NewLedgerService(store, nil, writer, "cad")
	svc.now = func() time.Time {
		return time.Date(2025, 3, 1, 9, 30, 15, 123456789, time.FixedZone("EST", -5*3600))
	}

	var published models.LedgerEvent
	var key string
	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msgs ...kafka.Message) error {
			require.Len(t, msgs, 1)
			key = string(msgs[0].Key)
			return json.Unmarshal(msgs[0].Value, &published)
		})

	tx, err := svc.CreateTransaction(ctx, models.TransactionDraft{
		UserEmail:   alice,
		Type:        models.TypeDeposit,
		Amount:      dec("250.00"),
		FromAccount: "RBC 1234",
		ToAccount:   "Wallet GABC...WXYZ",
	})
	require.NoError(t, err)

	id, err := uuid.Parse(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	assert.Equal(t, models.StatusPending, tx.Status)
	assert.Equal(t, "CAD", tx.Currency)
	assert.Nil(t, tx.Balance)
	assert.Nil(t, tx.CompletedAt)
	assert.Empty(t, tx.SettlementRef)
	require.NotNil(t, tx.Metadata.OriginalAmount)
	assert.Equal(t, "250", tx.Metadata.OriginalAmount.String())
	assert.True(t, time.Date(2025, 3, 1, 14, 30, 15, 123000000, time.UTC).Equal(tx.Timestamp))
	assert.Equal(t, time.UTC, tx.Timestamp.Location())

	stored, err := store.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, stored.ID)
	assert.Equal(t, models.StatusPending, stored.Status)

	assert.Equal(t, tx.ID, key)
	assert.Equal(t, models.EventTransactionCreated, published.Event)
	assert.Equal(t, tx.ID, published.Transaction.ID)
}

func TestLedgerService_CreateTransaction_KeepsOriginalAmount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryLedger()

	d := draft(alice, models.TypeTransfer, "99.00")
	d.Metadata = models.Metadata{OriginalAmount: decPtr("100.00")}

	tx, err := svc.CreateTransaction(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "100", tx.Metadata.OriginalAmount.String())
	assert.Equal(t, "99", tx.Amount.String())
}

func TestLedgerService_CreateTransaction_StorageError(t *testing.T) {
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := NewMockTransactionStore(ctrl)
	writer := NewMockKafkaWriter(ctrl)

	store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	svc := NewLedgerService(store, nil, writer, "CAD")
	tx, err := svc.CreateTransaction(ctx, draft(alice, models.TypeDeposit, "10"))

	assert.Nil(t, tx)
	var se *apperrors.StorageError
	assert.ErrorAs(t, err, &se)
}

func TestLedgerService_BalanceAcrossFlows(t *testing.T) {
	ctx := context.Background()
	svc, store := newMemoryLedger()

	// deposit from zero
	deposit, err := svc.CreateTransaction(ctx, draft(alice, models.TypeDeposit, "250.00"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, deposit.Status)

	completed, err := svc.CompleteTransaction(ctx, deposit.ID, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	assert.Equal(t, "hash-a", completed.SettlementRef)
	require.NotNil(t, completed.Balance)
	assert.Equal(t, "250.00", completed.Balance.StringFixed(2))

	// withdrawal on top
	withdrawal, err := svc.CreateTransaction(ctx, draft(alice, models.TypeWithdrawal, "100.00"))
	require.NoError(t, err)
	completed, err = svc.CompleteTransaction(ctx, withdrawal.ID, "hash-b")
	require.NoError(t, err)
	assert.Equal(t, "150.00", completed.Balance.StringFixed(2))

	// settlement failure leaves the balance alone
	failing, err := svc.CreateTransaction(ctx, draft(alice, models.TypeWithdrawal, "50.00"))
	require.NoError(t, err)
	require.NoError(t, svc.FailTransaction(ctx, failing.ID))

	failed, err := store.Get(ctx, failing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, failed.Status)
	assert.Nil(t, failed.Balance)
	assert.Empty(t, failed.SettlementRef)
	assert.NotNil(t, failed.CompletedAt)

	balance, err := svc.GetBalance(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "150.00", balance.StringFixed(2))

	// a transfer debits the original amount, not the amount net of fee
	d := draft(alice, models.TypeTransfer, "100.00")
	d.Metadata = models.Metadata{
		OriginalAmount: decPtr("100.00"),
		Detail: models.TransferDetail{
			RecipientEmail:  "bob@example.com",
			Fee:             dec("1.00"),
			RecipientAmount: dec("99.00"),
		},
	}
	transfer, err := svc.CreateTransaction(ctx, d)
	require.NoError(t, err)
	completed, err = svc.CompleteTransaction(ctx, transfer.ID, "hash-d")
	require.NoError(t, err)
	assert.Equal(t, "50.00", completed.Balance.StringFixed(2))

	balance, err = svc.GetBalance(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "50.00", balance.StringFixed(2))
}

func TestLedgerService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id is ignored", func(t *testing.T) {
		svc, _ := newMemoryLedger()
		tx, err := svc.UpdateStatus(ctx, "missing", models.StatusCompleted, "hash", decPtr("1"))
		assert.NoError(t, err)
		assert.Nil(t, tx)
	})

	t.Run("pending is not a valid target", func(t *testing.T) {
		svc, _ := newMemoryLedger()
		created, err := svc.CreateTransaction(ctx, draft(alice, models.TypeDeposit, "10"))
		require.NoError(t, err)

		_, err = svc.UpdateStatus(ctx, created.ID, models.StatusPending, "", nil)
		var ve *apperrors.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("failed never carries a stamp", func(t *testing.T) {
		svc, store := newMemoryLedger()
		created, err := svc.CreateTransaction(ctx, draft(alice, models.TypeDeposit, "10"))
		require.NoError(t, err)

		updated, err := svc.UpdateStatus(ctx, created.ID, models.StatusFailed, "hash", decPtr("10"))
		require.NoError(t, err)
		assert.Nil(t, updated.Balance)
		assert.Empty(t, updated.SettlementRef)

		stored, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.Balance)
	})

	t.Run("terminal records reject transitions", func(t *testing.T) {
		svc, store := newMemoryLedger()
		created, err := svc.CreateTransaction(ctx, draft(alice, models.TypeDeposit, "10"))
		require.NoError(t, err)
		_, err = svc.CompleteTransaction(ctx, created.ID, "hash")
		require.NoError(t, err)

		_, err = svc.UpdateStatus(ctx, created.ID, models.StatusFailed, "", nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

		_, err = svc.CompleteTransaction(ctx, created.ID, "other")
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

		stored, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, stored.Status)
		assert.Equal(t, "hash", stored.SettlementRef)
		assert.Equal(t, "10", stored.Balance.String())
	})
}

func TestLedgerService_CompleteTransaction_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id", func(t *testing.T) {
		svc, _ := newMemoryLedger()
		_, err := svc.CompleteTransaction(ctx, "missing", "hash")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("lock not acquired", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		store := NewMockTransactionStore(ctrl)
		locker := NewMockLocker(ctrl)

		store.EXPECT().Get(gomock.Any(), "tx-1").Return(&models.Transaction{
			ID:        "tx-1",
			UserEmail: alice,
			Type:      models.TypeDeposit,
			Amount:    dec("10"),
			Status:    models.StatusPending,
		}, nil)
		locker.EXPECT().Lock(gomock.Any(), alice).Return(nil, errors.New("redis unavailable"))

		svc := NewLedgerService(store, locker, nil, "CAD")
		_, err := svc.CompleteTransaction(ctx, "tx-1", "hash")

		var se *apperrors.StorageError
		assert.ErrorAs(t, err, &se)
	})

	t.Run("history read fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		store := NewMockTransactionStore(ctrl)
		locker := NewMockLocker(ctrl)

		released := false
		store.EXPECT().Get(gomock.Any(), "tx-1").Return(&models.Transaction{
			ID:        "tx-1",
			UserEmail: alice,
			Type:      models.TypeDeposit,
			Amount:    dec("10"),
			Status:    models.StatusPending,
		}, nil)
		locker.EXPECT().Lock(gomock.Any(), alice).Return(func() { released = true }, nil)
		store.EXPECT().ListByUser(gomock.Any(), alice).Return(nil, errors.New("timeout"))

		svc := NewLedgerService(store, locker, nil, "CAD")
		_, err := svc.CompleteTransaction(ctx, "tx-1", "hash")

		var se *apperrors.StorageError
		assert.ErrorAs(t, err, &se)
		assert.True(t, released)
	})
}

func TestLedgerService_ConcurrentCompletions(t *testing.T) {
	ctx := context.Background()
	svc, store := newMemoryLedger()

	const n = 50
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tx, err := svc.CreateTransaction(ctx, draft(alice, models.TypeDeposit, "1.00"))
		require.NoError(t, err)
		ids = append(ids, tx.ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.CompleteTransaction(ctx, id, "hash-"+id)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	balance, err := svc.GetBalance(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "50.00", balance.StringFixed(2))

	history, err := store.ListByUser(ctx, alice)
	require.NoError(t, err)

	stamps := make([]int64, 0, n)
	for _, tx := range history {
		require.NotNil(t, tx.Balance)
		stamps = append(stamps, tx.Balance.IntPart())
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })
	for i, s := range stamps {
		assert.Equal(t, int64(i+1), s)
	}
}

func TestLedgerService_GetTransaction(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryLedger()

	created, err := svc.CreateTransaction(ctx, draft(alice, models.TypeDeposit, "10"))
	require.NoError(t, err)

	got, err := svc.GetTransaction(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetTransaction(ctx, "mallory@example.com", created.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.GetTransaction(ctx, alice, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLedgerService_ListTransactionsAndStats(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryLedger()

	deposit, err := svc.CreateTransaction(ctx, draft(alice, models.TypeDeposit, "100.00"))
	require.NoError(t, err)
	_, err = svc.CompleteTransaction(ctx, deposit.ID, "hash")
	require.NoError(t, err)

	pending, err := svc.CreateTransaction(ctx, draft(alice, models.TypePayment, "30.00"))
	require.NoError(t, err)

	views, err := svc.ListTransactions(ctx, alice)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, pending.ID, views[0].ID)
	require.NotNil(t, views[0].CalculatedBalance)
	assert.Equal(t, "100.00", views[0].CalculatedBalance.StringFixed(2))

	assert.Equal(t, deposit.ID, views[1].ID)
	assert.Nil(t, views[1].CalculatedBalance)
	assert.Equal(t, "100.00", views[1].Balance.StringFixed(2))

	stats, err := svc.GetStats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalTransactions)
	assert.Equal(t, 1, stats.TotalDeposits)
	assert.Equal(t, 1, stats.TotalPayments)
	assert.Equal(t, "100.00", stats.TotalAmount.StringFixed(2))

	empty, err := svc.ListTransactions(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLedgerService_ReadErrors(t *testing.T) {
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := NewMockTransactionStore(ctrl)
	store.EXPECT().ListByUser(gomock.Any(), alice).Return(nil, errors.New("db down")).Times(3)

	svc := NewLedgerService(store, nil, nil, "CAD")

	var se *apperrors.StorageError
	_, err := svc.GetBalance(ctx, alice)
	assert.ErrorAs(t, err, &se)
	_, err = svc.ListTransactions(ctx, alice)
	assert.ErrorAs(t, err, &se)
	_, err = svc.GetStats(ctx, alice)
	assert.ErrorAs(t, err, &se)
}
