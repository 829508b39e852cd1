package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorage(t *testing.T) {
	assert.NoError(t, Storage("put", nil))

	base := errors.New("disk full")
	err := Storage("put", base)

	var se *StorageError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "put", se.Op)
	assert.ErrorIs(t, err, base)

	// already wrapped errors are not wrapped twice
	again := Storage("get", err)
	assert.Same(t, err, again)
}

func TestNotFound(t *testing.T) {
	err := NotFound("transaction", "tx-1")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, `transaction "tx-1" not found`, err.Error())
}

func TestFlowError(t *testing.T) {
	settle := &SettlementError{Code: "op_underfunded", Message: "insufficient balance"}
	err := &FlowError{TransactionID: "tx-42", Err: settle}

	assert.Equal(t, "tx-42", TransactionID(err))
	assert.Equal(t, "", TransactionID(settle))

	var got *SettlementError
	assert.True(t, errors.As(err, &got))
	assert.Equal(t, "op_underfunded", got.Code)
	assert.Contains(t, err.Error(), "tx-42")
}

func TestValidation(t *testing.T) {
	err := Validation("amount", "must be positive")

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "invalid amount: must be positive", err.Error())
}
