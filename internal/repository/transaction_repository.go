package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/pkg/redis"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionRepository stores the per-user ledger
type TransactionRepository struct {
	redis *redis.Client
}

func NewTransactionRepository(redisClient *redis.Client) *TransactionRepository {
	return &TransactionRepository{redis: redisClient}
}

// Create stores tx, indexes it for its user and, while PENDING, in the
// pending set of its type
func (r *TransactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	pipe := r.redis.TxPipeline()
	if err := r.StageCreate(ctx, pipe, tx); err != nil {
		return err
	}
	_, err := pipe.Exec(ctx)
	return err
}

// StageCreate queues the writes of Create on pipe
func (r *TransactionRepository) StageCreate(ctx context.Context, pipe redis.Pipeliner, tx *model.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	tx.UpdatedAt = tx.CreatedAt

	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	pipe.Set(ctx, redis.TransactionKey(tx.ID), data, 0)
	pipe.ZAdd(ctx, redis.UserTransactionsKey(tx.UserID), redis.Z{
		Score:  float64(tx.CreatedAt.UnixNano()),
		Member: tx.ID,
	})
	if tx.Status == model.TxPending {
		pipe.ZAdd(ctx, redis.PendingTransactionsKey(string(tx.Type)), redis.Z{
			Score:  float64(tx.CreatedAt.UnixNano()),
			Member: tx.ID,
		})
	}
	return nil
}

// GetByID loads one transaction
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*model.Transaction, error) {
	var tx model.Transaction
	if err := r.redis.GetJSON(ctx, redis.TransactionKey(id), &tx); err != nil {
		if err == redis.Nil {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// Update stores tx and drops it from the pending index once settled
func (r *TransactionRepository) Update(ctx context.Context, tx *model.Transaction) error {
	pipe := r.redis.TxPipeline()
	if err := r.StageUpdate(ctx, pipe, tx); err != nil {
		return err
	}
	_, err := pipe.Exec(ctx)
	return err
}

// StageUpdate queues the writes of Update on pipe
func (r *TransactionRepository) StageUpdate(ctx context.Context, pipe redis.Pipeliner, tx *model.Transaction) error {
	tx.UpdatedAt = time.Now()
	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	pipe.Set(ctx, redis.TransactionKey(tx.ID), data, 0)
	if tx.Status != model.TxPending {
		pipe.ZRem(ctx, redis.PendingTransactionsKey(string(tx.Type)), tx.ID)
	}
	return nil
}

// ListByUser returns a user's transactions newest first
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, filter model.TransactionFilter) ([]*model.Transaction, int64, error) {
	ids, err := r.redis.ZRevRange(ctx, redis.UserTransactionsKey(userID), 0, -1)
	if err != nil {
		return nil, 0, err
	}

	txs, err := r.getMany(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	if filter.Type != "" {
		filtered := txs[:0]
		for _, tx := range txs {
			if tx.Type == filter.Type {
				filtered = append(filtered, tx)
			}
		}
		txs = filtered
	}

	total := int64(len(txs))
	return paginate(txs, filter.Limit, filter.Offset), total, nil
}

// ListPending returns PENDING transactions of txType, newest first
func (r *TransactionRepository) ListPending(ctx context.Context, txType model.TransactionType) ([]*model.Transaction, error) {
	ids, err := r.redis.ZRevRange(ctx, redis.PendingTransactionsKey(string(txType)), 0, -1)
	if err != nil {
		return nil, err
	}
	return r.getMany(ctx, ids)
}

// DeleteByUser removes a user's ledger
func (r *TransactionRepository) DeleteByUser(ctx context.Context, userID string) error {
	ids, err := r.redis.ZRevRange(ctx, redis.UserTransactionsKey(userID), 0, -1)
	if err != nil {
		return err
	}

	pipe := r.redis.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, redis.TransactionKey(id))
		pipe.ZRem(ctx, redis.PendingTransactionsKey(string(model.TxDeposit)), id)
		pipe.ZRem(ctx, redis.PendingTransactionsKey(string(model.TxWithdraw)), id)
	}
	pipe.Del(ctx, redis.UserTransactionsKey(userID))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *TransactionRepository) getMany(ctx context.Context, ids []string) ([]*model.Transaction, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redis.TransactionKey(id)
	}

	txs := make([]*model.Transaction, 0, len(ids))
	err := r.redis.MGetJSON(ctx, keys,
		func() interface{} { return &model.Transaction{} },
		func(v interface{}) { txs = append(txs, v.(*model.Transaction)) },
	)
	return txs, err
}
