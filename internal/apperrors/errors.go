// Package apperrors defines the error taxonomy shared by the ledger, its stores and flows.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned when a terminal transaction is asked to change status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports malformed or missing caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageError wraps a transaction store read/write failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError unless it is nil or already one.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// SettlementError reports a rejection or timeout from the settlement network.
type SettlementError struct {
	Code    string
	Message string
	Err     error
}

func (e *SettlementError) Error() string {
	if e.Message == "" {
		return "settlement failed: " + e.Code
	}
	return fmt.Sprintf("settlement failed: %s: %s", e.Code, e.Message)
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a missing transaction, user, wallet or bank account.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// FlowError carries the id of the transaction a failed flow created so the
// caller can trace the record in history.
type FlowError struct {
	TransactionID string
	Err           error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.TransactionID, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// TransactionID returns the id carried by a FlowError in err's chain, if any.
func TransactionID(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.TransactionID
	}
	return ""
}
