package service

import (
	"context"
	"testing"
	"time"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRigsFallsBackToDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rigs := env.mining.ListRigs(ctx)
	require.Len(t, rigs, 2)
	assert.Equal(t, "rig_1", rigs[0].ID)

	hashrate := d("20")
	rig, err := env.mining.UpdateRig(ctx, "rig_1", &model.UpdateRigRequest{Hashrate: &hashrate})
	require.NoError(t, err)
	assert.True(t, rig.Hashrate.Equal(d("20")))

	// stored in Redis and mirrored locally
	stored, err := env.contents.GetRigs(ctx)
	require.NoError(t, err)
	assert.True(t, stored[0].Hashrate.Equal(d("20")))
	local, err := env.local.ListRigs(ctx)
	require.NoError(t, err)
	assert.True(t, local[0].Hashrate.Equal(d("20")))

	// the local copy serves reads once Redis loses the catalog
	env.mr.Del(redis.MiningRigsKey())
	assert.True(t, env.mining.ListRigs(ctx)[0].Hashrate.Equal(d("20")))

	_, err = env.mining.UpdateRig(ctx, "nope", &model.UpdateRigRequest{})
	requireCode(t, err, util.ErrCodeNotFound)
}

func TestBuyRigStartTickAndClaim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "miner@example.com", usdt("150"), nil)

	_, err := env.mining.Start(ctx, user.ID)
	requireCode(t, err, util.ErrCodeBadRequest)

	status, err := env.mining.BuyRig(ctx, user.ID, "rig_1")
	require.NoError(t, err)
	assert.True(t, status.Hashrate.Equal(d("10")))
	require.Len(t, status.Rigs, 1)
	assert.Equal(t, "rig_1", status.Rigs[0].RigID)
	assert.True(t, env.reload(t, user.ID).FundingWallet.Available("USDT").Equal(d("50")))

	_, err = env.mining.BuyRig(ctx, user.ID, "rig_2")
	requireCode(t, err, util.ErrCodeInsufficientBalance)

	status, err = env.mining.Start(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, "TSLA", status.Symbol)

	for i := 0; i < 3; i++ {
		n, err := env.mining.Tick(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}
	// 3 ticks * 10 H/s * 0.0000001
	assert.True(t, env.reload(t, user.ID).MiningBalance.Equal(d("0.000003")))

	tx, err := env.mining.Claim(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxMining, tx.Type)
	assert.Equal(t, "TSLA", tx.Symbol)

	got := env.reload(t, user.ID)
	assert.True(t, got.MiningBalance.IsZero())
	assert.True(t, got.FundingWallet.Available("TSLA").Equal(d("0.000003")))

	_, err = env.mining.Claim(ctx, user.ID)
	requireCode(t, err, util.ErrCodeBadRequest)

	status, err = env.mining.Stop(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, status.Active)
	n, err := env.mining.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTickDropsFrozenAndDeletedMiners(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	frozen := env.seedUser(t, "frozen@example.com", nil, nil)
	_, err := env.mining.AddRigToUser(ctx, frozen.ID, "rig_1")
	require.NoError(t, err)
	_, err = env.mining.Start(ctx, frozen.ID)
	require.NoError(t, err)

	isFrozen := true
	_, err = env.userSvc.AdminUpdateUser(ctx, frozen.ID, &model.AdminUpdateUserRequest{IsFrozen: &isFrozen})
	require.NoError(t, err)
	require.NoError(t, env.redis.SAdd(ctx, redis.ActiveMinersKey(), frozen.ID, "ghost"))

	n, err := env.mining.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	members, err := env.redis.SMembers(ctx, redis.ActiveMinersKey())
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestBoostCooldown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "boost@example.com", nil, nil)

	status, err := env.mining.Boost(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, status.Hashrate.Equal(util.BoostHashrate))
	assert.Positive(t, status.BoostReadyIn)

	_, err = env.mining.Boost(ctx, user.ID)
	requireCode(t, err, util.ErrCodeRateLimit)

	env.mr.FastForward(time.Minute + time.Second)
	status, err = env.mining.Boost(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, status.Hashrate.Equal(util.BoostHashrate.Mul(d("2"))))
}

func TestAddRigToUserIsFree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "gift@example.com", nil, nil)

	got, err := env.mining.AddRigToUser(ctx, user.ID, "rig_2")
	require.NoError(t, err)
	assert.True(t, got.Hashrate.Equal(d("50")))
	assert.True(t, got.FundingWallet.Available("USDT").IsZero())

	_, err = env.mining.AddRigToUser(ctx, user.ID, "rig_9")
	requireCode(t, err, util.ErrCodeNotFound)
}

func TestAirdropClaimOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "drop@example.com", usdt("10"), nil)

	status, err := env.airdrop.Status(ctx, user)
	require.NoError(t, err)
	assert.True(t, status.HasDeposit)
	assert.False(t, status.HasTrade)
	assert.False(t, status.Eligible)

	_, err = env.airdrop.Claim(ctx, user.ID)
	requireCode(t, err, util.ErrCodeBadRequest)

	_, err = env.wallet.Transfer(ctx, user.ID, &model.TransferRequest{
		Symbol: "USDT", Amount: d("5"), From: model.AccountFunding, To: model.AccountTrading,
	})
	require.NoError(t, err)

	status, err = env.airdrop.Status(ctx, env.reload(t, user.ID))
	require.NoError(t, err)
	assert.True(t, status.Eligible)

	tx, err := env.airdrop.Claim(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxAirdrop, tx.Type)
	assert.True(t, env.reload(t, user.ID).FundingWallet.Available("TSLA").Equal(util.AirdropAmount))

	_, err = env.airdrop.Claim(ctx, user.ID)
	requireCode(t, err, util.ErrCodeConflict)

	status, err = env.airdrop.Status(ctx, env.reload(t, user.ID))
	require.NoError(t, err)
	assert.True(t, status.Claimed)
	assert.False(t, status.Eligible)
}
