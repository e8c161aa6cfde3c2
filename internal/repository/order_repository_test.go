package repository

import (
	"context"
	"testing"
	"time"

	"tslaglobal/backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(userID string, status model.OrderStatus, created time.Time) *model.Order {
	return &model.Order{
		UserID:    userID,
		Symbol:    "BTC",
		Side:      model.SideBuy,
		TradeType: model.TradeSpot,
		PriceType: model.PriceLimit,
		Price:     decimal.NewFromInt(60000),
		Amount:    decimal.RequireFromString("0.01"),
		Total:     decimal.NewFromInt(600),
		Leverage:  1,
		Status:    status,
		CreatedAt: created,
	}
}

func TestOrderRepositoryAssignsSequentialIDs(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewOrderRepository(client)
	ctx := context.Background()

	first := newOrder("u1", model.OrderOpen, time.Time{})
	second := newOrder("u1", model.OrderOpen, time.Time{})
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(60000)))

	_, err = repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderRepositoryStatusIndex(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewOrderRepository(client)
	ctx := context.Background()

	o := newOrder("u1", model.OrderOpen, time.Now())
	require.NoError(t, repo.Create(ctx, o))

	open, err := repo.ListByStatus(ctx, model.OrderOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)

	o.Status = model.OrderFilled
	require.NoError(t, repo.Update(ctx, o, model.OrderOpen))

	open, err = repo.ListByStatus(ctx, model.OrderOpen)
	require.NoError(t, err)
	assert.Empty(t, open)

	filled, err := repo.ListByStatus(ctx, model.OrderFilled)
	require.NoError(t, err)
	require.Len(t, filled, 1)
	assert.Equal(t, o.ID, filled[0].ID)
}

func TestOrderRepositoryListByUser(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewOrderRepository(client)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, newOrder("u1", model.OrderOpen, base)))
	require.NoError(t, repo.Create(ctx, newOrder("u1", model.OrderCancelled, base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, newOrder("u1", model.OrderOpen, base.Add(2*time.Minute))))
	require.NoError(t, repo.Create(ctx, newOrder("u2", model.OrderOpen, base)))

	orders, total, err := repo.ListByUser(ctx, "u1", model.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, orders, 3)
	assert.Equal(t, int64(3), orders[0].ID)
	assert.Equal(t, int64(1), orders[2].ID)

	orders, total, err = repo.ListByUser(ctx, "u1", model.OrderFilter{Status: model.OrderOpen, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(3), orders[0].ID)

	orders, _, err = repo.ListByUser(ctx, "u1", model.OrderFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderRepositoryDeleteByUser(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewOrderRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newOrder("u1", model.OrderOpen, time.Now())))
	require.NoError(t, repo.Create(ctx, newOrder("u2", model.OrderOpen, time.Now())))

	require.NoError(t, repo.DeleteByUser(ctx, "u1"))

	_, err := repo.GetByID(ctx, 1)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	open, err := repo.ListByStatus(ctx, model.OrderOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "u2", open[0].UserID)
}

func newTx(id, userID string, txType model.TransactionType, status model.TransactionStatus, created time.Time) *model.Transaction {
	return &model.Transaction{
		ID:        id,
		UserID:    userID,
		Type:      txType,
		Symbol:    "USDT",
		Amount:    decimal.NewFromInt(100),
		Status:    status,
		CreatedAt: created,
	}
}

func TestTransactionRepositoryPendingLifecycle(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewTransactionRepository(client)
	ctx := context.Background()

	dep := newTx("t1", "u1", model.TxDeposit, model.TxPending, time.Now())
	require.NoError(t, repo.Create(ctx, dep))
	require.NoError(t, repo.Create(ctx, newTx("t2", "u1", model.TxTransfer, model.TxCompleted, time.Now())))

	pending, err := repo.ListPending(ctx, model.TxDeposit)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "t1", pending[0].ID)

	withdrawals, err := repo.ListPending(ctx, model.TxWithdraw)
	require.NoError(t, err)
	assert.Empty(t, withdrawals)

	dep.Status = model.TxCompleted
	require.NoError(t, repo.Update(ctx, dep))

	pending, err = repo.ListPending(ctx, model.TxDeposit)
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.TxCompleted, got.Status)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestTransactionRepositoryListByUser(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewTransactionRepository(client)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, newTx("t1", "u1", model.TxDeposit, model.TxCompleted, base)))
	require.NoError(t, repo.Create(ctx, newTx("t2", "u1", model.TxMining, model.TxCompleted, base.Add(time.Second))))
	require.NoError(t, repo.Create(ctx, newTx("t3", "u1", model.TxDeposit, model.TxPending, base.Add(2*time.Second))))
	require.NoError(t, repo.Create(ctx, newTx("t4", "u2", model.TxDeposit, model.TxPending, base)))

	txs, total, err := repo.ListByUser(ctx, "u1", model.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"t3", "t2", "t1"}, []string{txs[0].ID, txs[1].ID, txs[2].ID})

	txs, total, err = repo.ListByUser(ctx, "u1", model.TransactionFilter{Type: model.TxDeposit, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, txs, 1)
	assert.Equal(t, "t1", txs[0].ID)

	require.NoError(t, repo.DeleteByUser(ctx, "u1"))
	txs, total, err = repo.ListByUser(ctx, "u1", model.TransactionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, txs)

	pending, err := repo.ListPending(ctx, model.TxDeposit)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "t4", pending[0].ID)
}
