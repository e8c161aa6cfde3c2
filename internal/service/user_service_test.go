package service

import (
	"context"
	"testing"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCenterUpdates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "center@example.com", nil, nil)

	profile, err := env.userSvc.BindWallet(ctx, user.ID, &model.BindWalletRequest{Address: " 0xdeadbeef "})
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", profile.ExternalWalletAddress)

	profile, err = env.userSvc.SubmitKYC(ctx, user.ID, &model.SubmitKYCRequest{FullName: "Alice Doe", DocumentNumber: "P1234567"})
	require.NoError(t, err)
	assert.Equal(t, 1, profile.KYCLevel)
	assert.Equal(t, "****4567", profile.KYCDocumentNumber)

	profile, err = env.userSvc.ToggleTwoFactor(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, profile.TwoFactorEnabled)
	profile, err = env.userSvc.ToggleTwoFactor(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, profile.TwoFactorEnabled)

	_, err = env.userSvc.GetProfile(ctx, "missing")
	requireCode(t, err, util.ErrCodeNotFound)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp := env.register(t, "pw@example.com", "")

	err := env.userSvc.ChangePassword(ctx, resp.User.ID, &model.ChangePasswordRequest{OldPassword: "nope-nope", NewPassword: "newpassword1"})
	requireCode(t, err, util.ErrCodeInvalidCredentials)

	err = env.userSvc.ChangePassword(ctx, resp.User.ID, &model.ChangePasswordRequest{OldPassword: "password123", NewPassword: "short"})
	requireCode(t, err, util.ErrCodeValidation)

	require.NoError(t, env.userSvc.ChangePassword(ctx, resp.User.ID, &model.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpassword1"}))

	_, err = env.auth.Login(ctx, &model.LoginRequest{Email: "pw@example.com", Password: "password123"}, "", "")
	requireCode(t, err, util.ErrCodeInvalidCredentials)
	_, err = env.auth.Login(ctx, &model.LoginRequest{Email: "pw@example.com", Password: "newpassword1"}, "", "")
	require.NoError(t, err)
}

func TestReferralInfo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp := env.register(t, "ref@example.com", "")

	info, err := env.userSvc.GetReferralInfo(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.User.InviteCode, info.InviteCode)
	assert.Equal(t, util.InviteLinkBase+info.InviteCode, info.InviteLink)
	assert.True(t, info.CommissionPct.Equal(d("20")))
}

func TestAdminUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "adm@example.com", usdt("1"), nil)

	isAdmin := true
	risk := model.RiskHigh
	fee := d("0.005")
	profile, err := env.userSvc.AdminUpdateUser(ctx, user.ID, &model.AdminUpdateUserRequest{
		IsAdmin:       &isAdmin,
		RiskLevel:     &risk,
		FeeRate:       &fee,
		FundingWallet: model.Wallet{{Symbol: "btc", Amount: d("2")}, {Symbol: "USDT", Amount: d("5")}},
	})
	require.NoError(t, err)
	assert.True(t, profile.IsAdmin)
	assert.Equal(t, model.RiskHigh, profile.RiskLevel)
	assert.Equal(t, "BTC", profile.FundingWallet[0].Symbol)

	got := env.reload(t, user.ID)
	assert.True(t, got.FeeRate.Equal(fee))
	assert.True(t, got.FundingWallet.Available("BTC").Equal(d("2")))

	_, err = env.userSvc.AdminUpdateUser(ctx, user.ID, &model.AdminUpdateUserRequest{
		TradingWallet: model.Wallet{{Symbol: "USDT", Amount: d("-1")}},
	})
	requireCode(t, err, util.ErrCodeValidation)

	badFee := d("1.5")
	_, err = env.userSvc.AdminUpdateUser(ctx, user.ID, &model.AdminUpdateUserRequest{FeeRate: &badFee})
	requireCode(t, err, util.ErrCodeValidation)
}

func TestAdminResetPasswordDropsSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp := env.register(t, "reset@example.com", "")

	require.NoError(t, env.userSvc.AdminResetPassword(ctx, resp.User.ID, &model.ResetPasswordRequest{NewPassword: "resetpass1"}))

	members, err := env.redis.SMembers(ctx, redis.UserSessionsKey(resp.User.ID))
	require.NoError(t, err)
	assert.Empty(t, members)

	_, err = env.auth.Login(ctx, &model.LoginRequest{Email: "reset@example.com", Password: "resetpass1"}, "", "")
	require.NoError(t, err)
}

func TestAdminDeleteUserRemovesEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "gone@example.com", usdt("100"), usdt("1000"))

	_, err := env.orderSvc.PlaceOrder(ctx, user.ID, limitBuy("50000", "0.01"))
	require.NoError(t, err)
	_, err = env.wallet.Deposit(ctx, user.ID, &model.DepositRequest{Symbol: "USDT", Amount: d("5")})
	require.NoError(t, err)

	require.NoError(t, env.userSvc.AdminDeleteUser(ctx, user.ID))

	_, err = env.userSvc.GetUser(ctx, user.ID)
	requireCode(t, err, util.ErrCodeNotFound)
	open, err := env.orders.ListByStatus(ctx, model.OrderOpen)
	require.NoError(t, err)
	assert.Empty(t, open)
	pending, err := env.wallet.ListPending(ctx, model.TxDeposit)
	require.NoError(t, err)
	assert.Empty(t, pending)

	err = env.userSvc.AdminDeleteUser(ctx, user.ID)
	requireCode(t, err, util.ErrCodeNotFound)
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "one@example.com", nil, nil)
	env.seedUser(t, "two@example.com", nil, nil)

	profiles, total, err := env.userSvc.ListUsers(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, profiles, 1)
}
