package service

import (
	"context"
	"testing"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositWaitsForApproval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "dep@example.com", usdt("10"), nil)

	tx, err := env.wallet.Deposit(ctx, user.ID, &model.DepositRequest{Symbol: "usdt", Amount: d("250")})
	require.NoError(t, err)
	assert.Equal(t, model.TxPending, tx.Status)
	assert.Equal(t, "USDT", tx.Symbol)
	assert.True(t, env.reload(t, user.ID).FundingWallet.Available("USDT").Equal(d("10")))

	pending, err := env.wallet.ListPending(ctx, model.TxDeposit)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	approved, err := env.wallet.ApproveDeposit(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxCompleted, approved.Status)
	assert.True(t, env.reload(t, user.ID).FundingWallet.Available("USDT").Equal(d("260")))

	_, err = env.wallet.ApproveDeposit(ctx, tx.ID)
	requireCode(t, err, util.ErrCodeConflict)
	_, err = env.wallet.RejectDeposit(ctx, tx.ID)
	requireCode(t, err, util.ErrCodeConflict)

	pending, err = env.wallet.ListPending(ctx, model.TxDeposit)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRejectDepositMovesNoFunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "dep@example.com", usdt("10"), nil)

	tx, err := env.wallet.Deposit(ctx, user.ID, &model.DepositRequest{Symbol: "BTC", Amount: d("1")})
	require.NoError(t, err)

	rejected, err := env.wallet.RejectDeposit(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxFailed, rejected.Status)
	assert.True(t, env.reload(t, user.ID).FundingWallet.Available("BTC").IsZero())
}

func TestSettleChecksTransactionType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "dep@example.com", usdt("10"), nil)

	tx, err := env.wallet.Deposit(ctx, user.ID, &model.DepositRequest{Symbol: "USDT", Amount: d("1")})
	require.NoError(t, err)

	_, err = env.wallet.ApproveWithdrawal(ctx, tx.ID)
	requireCode(t, err, util.ErrCodeBadRequest)
	_, err = env.wallet.ApproveDeposit(ctx, "missing")
	requireCode(t, err, util.ErrCodeNotFound)
}

func TestWithdrawDebitsAndRejectRefunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "wd@example.com", usdt("100"), nil)

	tx, err := env.wallet.Withdraw(ctx, user.ID, &model.WithdrawRequest{Symbol: "USDT", Amount: d("40"), Address: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, model.TxPending, tx.Status)
	assert.Equal(t, "0xabc", tx.Address)
	assert.True(t, env.reload(t, user.ID).FundingWallet.Available("USDT").Equal(d("60")))

	_, err = env.wallet.RejectWithdrawal(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, env.reload(t, user.ID).FundingWallet.Available("USDT").Equal(d("100")))

	tx, err = env.wallet.Withdraw(ctx, user.ID, &model.WithdrawRequest{Symbol: "USDT", Amount: d("30"), Address: "0xabc"})
	require.NoError(t, err)
	approved, err := env.wallet.ApproveWithdrawal(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxCompleted, approved.Status)
	assert.True(t, env.reload(t, user.ID).FundingWallet.Available("USDT").Equal(d("70")))
}

func TestWithdrawValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "wd@example.com", usdt("100"), nil)
	_, err := env.tokens.Issue(ctx, &model.IssueTokenRequest{
		Symbol: "MOON", Name: "Moon", Price: d("2"), MinWithdraw: d("10"),
	})
	require.NoError(t, err)

	_, err = env.wallet.Withdraw(ctx, user.ID, &model.WithdrawRequest{Symbol: "USDT", Amount: d("500"), Address: "0x1"})
	requireCode(t, err, util.ErrCodeInsufficientBalance)

	_, err = env.wallet.Withdraw(ctx, user.ID, &model.WithdrawRequest{Symbol: "USDT", Amount: d("0"), Address: "0x1"})
	requireCode(t, err, util.ErrCodeValidation)

	_, err = env.wallet.Withdraw(ctx, user.ID, &model.WithdrawRequest{Symbol: "moon", Amount: d("5"), Address: "0x1"})
	requireCode(t, err, util.ErrCodeValidation)
}

func TestTransferBetweenWallets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "tr@example.com", usdt("100"), nil)

	tx, err := env.wallet.Transfer(ctx, user.ID, &model.TransferRequest{
		Symbol: "USDT", Amount: d("25.5"), From: model.AccountFunding, To: model.AccountTrading,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TxCompleted, tx.Status)
	assert.Equal(t, model.AccountTrading, tx.ToAccount)

	got := env.reload(t, user.ID)
	assert.True(t, got.FundingWallet.Available("USDT").Equal(d("74.5")))
	assert.True(t, got.TradingWallet.Available("USDT").Equal(d("25.5")))

	_, err = env.wallet.Transfer(ctx, user.ID, &model.TransferRequest{
		Symbol: "USDT", Amount: d("1"), From: model.AccountTrading, To: model.AccountTrading,
	})
	requireCode(t, err, util.ErrCodeValidation)

	_, err = env.wallet.Transfer(ctx, user.ID, &model.TransferRequest{
		Symbol: "USDT", Amount: d("26"), From: model.AccountTrading, To: model.AccountFunding,
	})
	requireCode(t, err, util.ErrCodeInsufficientBalance)
}

func TestFrozenAccountCannotMoveFunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "ice@example.com", usdt("100"), nil)
	frozen := true
	_, err := env.userSvc.AdminUpdateUser(ctx, user.ID, &model.AdminUpdateUserRequest{IsFrozen: &frozen})
	require.NoError(t, err)

	_, err = env.wallet.Deposit(ctx, user.ID, &model.DepositRequest{Symbol: "USDT", Amount: d("1")})
	requireCode(t, err, util.ErrCodeAccountFrozen)
	_, err = env.wallet.Withdraw(ctx, user.ID, &model.WithdrawRequest{Symbol: "USDT", Amount: d("1"), Address: "0x1"})
	requireCode(t, err, util.ErrCodeAccountFrozen)
	_, err = env.wallet.Transfer(ctx, user.ID, &model.TransferRequest{
		Symbol: "USDT", Amount: d("1"), From: model.AccountFunding, To: model.AccountTrading,
	})
	requireCode(t, err, util.ErrCodeAccountFrozen)
}

func TestOverviewValuesHoldings(t *testing.T) {
	env := newTestEnv(t)
	user := &model.User{
		FundingWallet: model.Wallet{
			{Symbol: "USDT", Amount: d("100")},
			{Symbol: "BTC", Amount: d("0.5")},
			{Symbol: "DOGE", Amount: d("1000")},
		},
		TradingWallet: model.Wallet{
			{Symbol: "USDT", Amount: d("10"), Frozen: d("5")},
		},
	}

	ov := env.wallet.Overview(context.Background(), user)

	assert.True(t, ov.FundingValue.Equal(d("30100")), ov.FundingValue.String())
	assert.True(t, ov.TradingValue.Equal(d("15")))
	assert.True(t, ov.TotalValueUSDT.Equal(d("30115")))
}

func TestListTransactionsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "ls@example.com", usdt("100"), nil)

	_, err := env.wallet.Deposit(ctx, user.ID, &model.DepositRequest{Symbol: "USDT", Amount: d("1")})
	require.NoError(t, err)
	_, err = env.wallet.Transfer(ctx, user.ID, &model.TransferRequest{
		Symbol: "USDT", Amount: d("1"), From: model.AccountFunding, To: model.AccountTrading,
	})
	require.NoError(t, err)

	txs, total, err := env.wallet.ListTransactions(ctx, user.ID, model.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, model.TxTransfer, txs[0].Type)

	txs, total, err = env.wallet.ListTransactions(ctx, user.ID, model.TransactionFilter{Type: model.TxDeposit})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, model.TxDeposit, txs[0].Type)
}
