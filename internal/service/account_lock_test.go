package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutateWithCommitsNothingWhenSaveFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "atomic@example.com", usdt("10"), nil)

	_, err := env.locker.MutateWith(ctx, user.ID, func(u *model.User, pipe redis.Pipeliner) error {
		u.FundingWallet.Credit(model.QuoteSymbol, d("5"))
		pipe.Set(ctx, "test:side-record", "x", 0)
		// the connection drops before the batch is committed
		env.mr.SetError("connection reset")
		return nil
	})
	env.mr.SetError("")
	requireCode(t, err, util.ErrCodeInternal)

	assert.False(t, env.mr.Exists("test:side-record"))
	assert.True(t, env.reload(t, user.ID).FundingWallet.Available("USDT").Equal(d("10")))
}

func TestMutateWithDiscardsBatchOnError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "rollback@example.com", usdt("10"), nil)

	_, err := env.locker.MutateWith(ctx, user.ID, func(u *model.User, pipe redis.Pipeliner) error {
		pipe.Set(ctx, "test:side-record", "x", 0)
		return util.ErrConflict("changed my mind")
	})
	requireCode(t, err, util.ErrCodeConflict)
	assert.False(t, env.mr.Exists("test:side-record"))

	// the lock is released either way
	_, err = env.locker.Mutate(ctx, user.ID, func(u *model.User) error { return nil })
	require.NoError(t, err)
}

// Logins, withdrawals and fills of one account race each other; every
// wallet change must survive.
func TestConcurrentMutationsLoseNoUpdates(t *testing.T) {
	env := newTestEnv(t)
	env.locker.timeout = 30 * time.Second
	ctx := context.Background()

	resp := env.register(t, "busy@example.com", "")
	userID := resp.User.ID
	_, err := env.wallet.Transfer(ctx, userID, &model.TransferRequest{
		Symbol: "USDT", Amount: d("500"), From: model.AccountFunding, To: model.AccountTrading,
	})
	require.NoError(t, err)

	const orders = 5
	for i := 0; i < orders; i++ {
		_, err := env.orderSvc.PlaceOrder(ctx, userID, limitBuy("50000", "0.001"))
		require.NoError(t, err)
	}
	env.prices["BTC"] = d("40000")

	const rounds = 25
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := env.auth.Login(ctx, &model.LoginRequest{Email: "busy@example.com", Password: "password123"}, "", "")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := env.wallet.Withdraw(ctx, userID, &model.WithdrawRequest{Symbol: "USDT", Amount: d("1"), Address: "0xabc"})
			assert.NoError(t, err)
		}()
	}
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.orderSvc.FillOpenOrders(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got := env.reload(t, userID)
	assert.True(t, got.FundingWallet.Available("USDT").Equal(d("475")), got.FundingWallet.Available("USDT").String())
	assert.True(t, got.TradingWallet.Available("USDT").Equal(d("250")), got.TradingWallet.Available("USDT").String())
	assert.True(t, got.TradingWallet.FrozenAmount("USDT").IsZero())
	// 5 fills of 0.001 less the 0.1% fee
	assert.True(t, got.TradingWallet.Available("BTC").Equal(d("0.004995")), got.TradingWallet.Available("BTC").String())
	assert.NotNil(t, got.LastLoginAt)

	pending, _, err := env.wallet.ListTransactions(ctx, userID, model.TransactionFilter{Type: model.TxWithdraw})
	require.NoError(t, err)
	assert.Len(t, pending, rounds)
	filled, total, err := env.orderSvc.ListOrders(ctx, userID, model.OrderFilter{Status: model.OrderFilled})
	require.NoError(t, err)
	assert.Equal(t, int64(orders), total, "filled %d", len(filled))
}
