package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/apperrors"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// transactionDocument is the layout of a transaction in the transactions collection.
type transactionDocument struct {
	ID            string                `bson:"_id"`
	UserEmail     string                `bson:"user_email"`
	Type          string                `bson:"type"`
	Amount        primitive.Decimal128  `bson:"amount"`
	Currency      string                `bson:"currency"`
	Status        string                `bson:"status"`
	FromAccount   string                `bson:"from_account"`
	ToAccount     string                `bson:"to_account"`
	SettlementRef *string               `bson:"stellar_transaction_hash"`
	Balance       *primitive.Decimal128 `bson:"balance"`
	Metadata      bson.D                `bson:"metadata"`
	Timestamp     time.Time             `bson:"timestamp"`
	CompletedAt   *time.Time            `bson:"completed_at"`
	Description   string                `bson:"description"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	bi, exp, err := d.BigInt()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(bi, int32(exp)), nil
}

func (d *transactionDocument) toModel() (models.Transaction, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return models.Transaction{}, err
	}
	tx := models.Transaction{
		ID:          d.ID,
		UserEmail:   d.UserEmail,
		Type:        models.TransactionType(d.Type),
		Amount:      amount,
		Currency:    d.Currency,
		Status:      models.TransactionStatus(d.Status),
		FromAccount: d.FromAccount,
		ToAccount:   d.ToAccount,
		Timestamp:   d.Timestamp.UTC(),
		Description: d.Description,
	}
	if d.SettlementRef != nil {
		tx.SettlementRef = *d.SettlementRef
	}
	if d.Balance != nil {
		balance, err := fromDecimal128(*d.Balance)
		if err != nil {
			return models.Transaction{}, err
		}
		tx.Balance = &balance
	}
	if d.CompletedAt != nil {
		completed := d.CompletedAt.UTC()
		tx.CompletedAt = &completed
	}
	if len(d.Metadata) > 0 {
		raw, err := bson.MarshalExtJSON(d.Metadata, false, false)
		if err != nil {
			return models.Transaction{}, err
		}
		if err := json.Unmarshal(raw, &tx.Metadata); err != nil {
			return models.Transaction{}, err
		}
	}
	return tx, nil
}

// TransactionMongoRepository is the MongoDB transaction store.
type TransactionMongoRepository struct {
	collection *mongo.Collection
}

// NewTransactionMongoRepository creates a store on the given collection.
func NewTransactionMongoRepository(collection *mongo.Collection) *TransactionMongoRepository {
	return &TransactionMongoRepository{collection: collection}
}

// EnsureIndexes creates the per-user history index.
func (r *TransactionMongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_email", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	return err
}

// literal keeps string values that start with "$" from being read as field paths.
func literal(v any) bson.M {
	return bson.M{"$literal": v}
}

// keep stores v only when field is absent or null.
func keep(field string, v any) bson.M {
	return bson.M{"$ifNull": bson.A{"$" + field, literal(v)}}
}

// Put upserts tx with the same rules as the Postgres store: status always
// follows tx, settlement reference, balance and completion time are set once,
// everything else is written only on insert.
func (r *TransactionMongoRepository) Put(ctx context.Context, tx *models.Transaction) error {
	amount, err := toDecimal128(tx.Amount)
	if err != nil {
		return apperrors.Storage("put", err)
	}

	raw, err := json.Marshal(tx.Metadata)
	if err != nil {
		return apperrors.Storage("put", err)
	}
	var metadata bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &metadata); err != nil {
		return apperrors.Storage("put", err)
	}

	var settlementRef, balance, completedAt any
	if tx.SettlementRef != "" {
		settlementRef = tx.SettlementRef
	}
	if tx.Balance != nil {
		b, err := toDecimal128(*tx.Balance)
		if err != nil {
			return apperrors.Storage("put", err)
		}
		balance = b
	}
	if tx.CompletedAt != nil {
		completedAt = *tx.CompletedAt
	}

	set := bson.M{
		"user_email":               keep("user_email", tx.UserEmail),
		"type":                     keep("type", string(tx.Type)),
		"amount":                   keep("amount", amount),
		"currency":                 keep("currency", tx.Currency),
		"status":                   literal(string(tx.Status)),
		"from_account":             keep("from_account", tx.FromAccount),
		"to_account":               keep("to_account", tx.ToAccount),
		"stellar_transaction_hash": keep("stellar_transaction_hash", settlementRef),
		"balance":                  keep("balance", balance),
		"metadata":                 keep("metadata", metadata),
		"timestamp":                keep("timestamp", tx.Timestamp),
		"completed_at":             keep("completed_at", completedAt),
		"description":              keep("description", tx.Description),
	}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": tx.ID}, pipeline, options.Update().SetUpsert(true))

	var matched int64
	if res != nil {
		matched = res.MatchedCount
	}
	logger.Log.Infow(
		"transaction upserted",
		"collection", r.collection.Name(),
		"op", "upsert",
		"id", tx.ID,
		"result", matched,
		"error", err,
	)

	return apperrors.Storage("put", err)
}

// Get returns the transaction with the given id.
func (r *TransactionMongoRepository) Get(ctx context.Context, id string) (*models.Transaction, error) {
	var doc transactionDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)

	logger.Log.Infow(
		"transaction fetched",
		"collection", r.collection.Name(),
		"op", "find_one",
		"id", id,
		"error", err,
	)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("transaction", id)
	}
	if err != nil {
		return nil, apperrors.Storage("get", err)
	}

	tx, err := doc.toModel()
	if err != nil {
		return nil, apperrors.Storage("get", err)
	}
	return &tx, nil
}

// ListByUser returns every transaction owned by email.
func (r *TransactionMongoRepository) ListByUser(ctx context.Context, email string) ([]models.Transaction, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_email": email})
	if err != nil {
		logger.Log.Errorw("failed to query transactions", "user", email, "error", err)
		return nil, apperrors.Storage("list", err)
	}
	defer cursor.Close(ctx)

	var docs []transactionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		logger.Log.Errorw("failed to decode transactions", "user", email, "error", err)
		return nil, apperrors.Storage("list", err)
	}

	logger.Log.Infow(
		"transactions listed",
		"collection", r.collection.Name(),
		"op", "find",
		"user", email,
		"result", len(docs),
	)

	txs := make([]models.Transaction, 0, len(docs))
	for i := range docs {
		tx, err := docs[i].toModel()
		if err != nil {
			return nil, apperrors.Storage("list", err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
