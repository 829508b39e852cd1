package settlement

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/apperrors"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/shopspring/decimal"
)

type simAccount struct {
	secret   string
	balance  decimal.Decimal
	sequence int64
}

// Simulated is an in-process settlement network holding a single native asset.
type Simulated struct {
	mu        sync.Mutex
	assetCode string
	latency   time.Duration
	ledger    int64
	accounts  map[string]*simAccount
	bySecret  map[string]string
}

// NewSimulated creates an empty network. Each submission waits latency before settling.
func NewSimulated(assetCode string, latency time.Duration) *Simulated {
	return &Simulated{
		assetCode: assetCode,
		latency:   latency,
		accounts:  make(map[string]*simAccount),
		bySecret:  make(map[string]string),
	}
}

// CreateAccount opens an account funded with startingBalance.
func (s *Simulated) CreateAccount(publicKey, secret string, startingBalance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[publicKey]; ok {
		return fmt.Errorf("account %s already exists", publicKey)
	}
	s.accounts[publicKey] = &simAccount{secret: secret, balance: startingBalance}
	s.bySecret[secret] = publicKey
	return nil
}

// LoadAccount returns the current state of an account.
func (s *Simulated) LoadAccount(ctx context.Context, publicKey string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, timeoutError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[publicKey]
	if !ok {
		return nil, apperrors.NotFound("settlement account", publicKey)
	}
	return &Account{
		PublicKey: publicKey,
		Sequence:  acc.sequence,
		Balances:  []Balance{{AssetCode: s.assetCode, Amount: acc.balance}},
	}, nil
}

// SubmitPayment moves amount of the native asset from the account owning
// sourceSecret to destination.
func (s *Simulated) SubmitPayment(ctx context.Context, sourceSecret, destination string, amount decimal.Decimal) (*PaymentResult, error) {
	if s.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, timeoutError(ctx.Err())
		case <-time.After(s.latency):
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, timeoutError(err)
	}
	if !amount.IsPositive() {
		return nil, Error(CodeMalformed, "payment amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.bySecret[sourceSecret]
	if !ok {
		return nil, Error(CodeBadAuth, "unknown signing key")
	}
	from := s.accounts[source]
	to, ok := s.accounts[destination]
	if !ok {
		return nil, Error(CodeNoDestination, "destination account does not exist")
	}
	if from.balance.LessThan(amount) {
		return nil, Error(CodeUnderfunded, "source balance too low")
	}

	from.balance = from.balance.Sub(amount)
	to.balance = to.balance.Add(amount)
	from.sequence++
	s.ledger++

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s:%d", source, destination, amount.String(), from.sequence)))
	result := &PaymentResult{Hash: hex.EncodeToString(sum[:]), Ledger: s.ledger}

	logger.Log.Infow("simulated payment settled",
		"source", source,
		"destination", destination,
		"amount", amount.String(),
		"hash", result.Hash,
	)
	return result, nil
}

func timeoutError(err error) error {
	code := CodeTimeout
	if errors.Is(err, context.Canceled) {
		code = "canceled"
	}
	return &apperrors.SettlementError{Code: code, Message: "settlement call did not finish", Err: err}
}
