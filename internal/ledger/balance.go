// Package ledger folds a user's transaction history into balances.
// Everything here is pure: callers load the history and pass it in.
package ledger

import (
	"sort"
	"time"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// SignedAmount returns the fiat amount of tx with the sign of its type applied:
// positive for deposit and on-ramp, negative for everything else.
func SignedAmount(tx *models.Transaction) decimal.Decimal {
	amount := tx.FiatAmount()
	if tx.Type.Credit() {
		return amount
	}
	return amount.Neg()
}

// Apply returns the balance after tx completes on top of previous.
func Apply(previous decimal.Decimal, tx *models.Transaction) decimal.Decimal {
	return previous.Add(SignedAmount(tx))
}

// Sort orders txs ascending by timestamp. Records sharing a timestamp are
// ordered by id, so repeated reads of the same snapshot give the same order
// whatever order the store returned them in.
func Sort(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return before(&txs[i], &txs[j])
	})
}

func before(a, b *models.Transaction) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.ID < b.ID
}

// CurrentBalance returns the balance stamped on the most recently completed
// transaction that carries one, or zero when no transaction is stamped yet.
func CurrentBalance(txs []models.Transaction) decimal.Decimal {
	latest := LastStamped(txs)
	if latest == nil {
		return decimal.Zero
	}
	return *latest.Balance
}

// LastStamped returns the stamped transaction that completed last, or nil.
// Completion time decides recency; records without one fall back to creation time.
func LastStamped(txs []models.Transaction) *models.Transaction {
	var latest *models.Transaction
	for i := range txs {
		tx := &txs[i]
		if !tx.Stamped() {
			continue
		}
		if latest == nil || stampedAfter(tx, latest) {
			latest = tx
		}
	}
	return latest
}

func stampedAfter(a, b *models.Transaction) bool {
	at, bt := SettledAt(a), SettledAt(b)
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return before(b, a)
}

// SettledAt returns the completion time of tx, or its creation time when unset.
func SettledAt(tx *models.Transaction) time.Time {
	if tx.CompletedAt != nil {
		return *tx.CompletedAt
	}
	return tx.Timestamp
}

// Reconcile derives a display balance for every transaction in the history and
// returns the views newest first.
//
// The walk starts from zero and visits transactions in the order they settled
// (completion time, then creation order), the same order CurrentBalance uses to
// pick the latest stamp. A stamped transaction resets the running total to its
// stamp. An unstamped completed transaction adds its signed amount. Pending and
// failed transactions do not move the total. Each unstamped transaction gets the
// running total after it as its calculated balance.
func Reconcile(txs []models.Transaction) []models.TransactionView {
	ordered := make([]models.Transaction, len(txs))
	copy(ordered, txs)
	Sort(ordered)

	walk := make([]int, len(ordered))
	for i := range walk {
		walk[i] = i
	}
	sort.SliceStable(walk, func(i, j int) bool {
		a, b := &ordered[walk[i]], &ordered[walk[j]]
		at, bt := SettledAt(a), SettledAt(b)
		if !at.Equal(bt) {
			return at.Before(bt)
		}
		return before(a, b)
	})

	calculated := make([]*decimal.Decimal, len(ordered))
	running := decimal.Zero
	for _, i := range walk {
		tx := &ordered[i]
		switch {
		case tx.Stamped():
			running = *tx.Balance
			continue
		case tx.Status == models.StatusCompleted:
			running = Apply(running, tx)
		}
		balance := running
		calculated[i] = &balance
	}

	views := make([]models.TransactionView, len(ordered))
	for i := range ordered {
		// newest first
		views[len(ordered)-1-i] = models.TransactionView{
			Transaction:       ordered[i],
			CalculatedBalance: calculated[i],
		}
	}
	return views
}

// Stats counts transactions per type and sums the fiat amount of completed ones.
func Stats(txs []models.Transaction) models.TransactionStats {
	stats := models.TransactionStats{TotalAmount: decimal.Zero}
	for i := range txs {
		tx := &txs[i]
		stats.TotalTransactions++

		switch tx.Type {
		case models.TypeDeposit:
			stats.TotalDeposits++
		case models.TypeWithdrawal:
			stats.TotalWithdrawals++
		case models.TypeTransfer:
			stats.TotalTransfers++
		case models.TypePayment:
			stats.TotalPayments++
		case models.TypeOnRamp:
			stats.TotalOnRamps++
		case models.TypeOffRamp:
			stats.TotalOffRamps++
		}

		if tx.Status == models.StatusCompleted {
			stats.TotalAmount = stats.TotalAmount.Add(tx.FiatAmount())
		}
	}
	return stats
}
