package models

import "time"

// Ledger event names published on every lifecycle change.
const (
	EventTransactionCreated   = "transaction.created"
	EventTransactionCompleted = "transaction.completed"
	EventTransactionFailed    = "transaction.failed"
)

// LedgerEvent is the message published to Kafka for a transaction lifecycle change.
type LedgerEvent struct {
	Event       string      `json:"event"`       // One of the Event* names
	OccurredAt  time.Time   `json:"occurredAt"`  // Time the change was recorded
	Transaction Transaction `json:"transaction"` // Record state after the change
}
