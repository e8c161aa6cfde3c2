package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tslaglobal/backend/internal/config"
	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/repository"
	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/jwt"
	"tslaglobal/backend/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// staticPrices is a PriceSource backed by a map tests can change
type staticPrices map[string]decimal.Decimal

func (p staticPrices) PriceOf(symbol string) (decimal.Decimal, bool) {
	symbol = strings.ToUpper(symbol)
	if symbol == model.QuoteSymbol {
		return decimal.NewFromInt(1), true
	}
	v, ok := p[symbol]
	return v, ok
}

type testEnv struct {
	mr     *miniredis.Miniredis
	redis  *redis.Client
	local  *repository.LocalStore
	prices staticPrices

	users    *repository.UserRepository
	orders   *repository.OrderRepository
	txs      *repository.TransactionRepository
	tokenDB  *repository.TokenRepository
	contents *repository.ContentRepository

	notifier *NotificationService
	locker   *AccountLocker
	tokens   *TokenService
	auth     *AuthService
	userSvc  *UserService
	wallet   *WalletService
	orderSvc *OrderService
	mining   *MiningService
	airdrop  *AirdropService
	content  *ContentService
}

var testRigs = []model.MiningRig{
	{ID: "rig_1", Name: "Basic Miner", Hashrate: decimal.NewFromInt(10), Cost: decimal.NewFromInt(100), DailyOutput: decimal.NewFromInt(5)},
	{ID: "rig_2", Name: "Pro Miner", Hashrate: decimal.NewFromInt(50), Cost: decimal.NewFromInt(450), DailyOutput: decimal.NewFromInt(25)},
}

func testExchangeConfig() config.ExchangeConfig {
	return config.ExchangeConfig{
		DefaultFeeRate:      decimal.RequireFromString("0.001"),
		ReferralCommission:  decimal.RequireFromString("0.2"),
		WelcomeUSDT:         decimal.NewFromInt(1000),
		AdminEmails:         []string{"boss@tsla.test"},
		VerificationCodeTTL: 10 * time.Minute,
		ExposeVerifyCode:    true,
		OrderFillInterval:   time.Second,
		MiningTick:          time.Second,
		BoostCooldown:       time.Minute,
		LockTimeout:         time.Second,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	redis.InitKeys("test")
	client := redis.NewFromAddr(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })

	local, err := repository.NewLocalStore(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	cfg := testExchangeConfig()
	env := &testEnv{
		mr:       mr,
		redis:    client,
		local:    local,
		prices:   staticPrices{"BTC": decimal.NewFromInt(60000), "TSLA": decimal.RequireFromString("124.5")},
		users:    repository.NewUserRepository(client),
		orders:   repository.NewOrderRepository(client),
		txs:      repository.NewTransactionRepository(client),
		tokenDB:  repository.NewTokenRepository(client),
		contents: repository.NewContentRepository(client),
	}

	env.notifier = NewNotificationService(client)
	env.locker = NewAccountLocker(client, env.users, cfg.LockTimeout)
	env.tokens = NewTokenService(env.tokenDB, local, model.CustomTokenConfig{
		Symbol: "tsla", Name: "Tsla Coin", Price: decimal.RequireFromString("124.5"), Enabled: true,
	})
	env.auth = NewAuthService(env.users, env.locker, jwt.NewJWTManager("test-secret-at-least-32-characters!!", "tsla-test", 15*time.Minute, time.Hour), cfg)
	env.auth.SetPasswordCost(bcrypt.MinCost)
	env.userSvc = NewUserService(env.users, env.orders, env.txs, client, env.locker, env.notifier, cfg.ReferralCommission)
	env.userSvc.SetPasswordCost(bcrypt.MinCost)
	env.wallet = NewWalletService(env.locker, env.txs, env.tokens, env.prices, env.notifier)
	env.orderSvc = NewOrderService(env.orders, env.txs, env.locker, env.prices, env.notifier, cfg.ReferralCommission)
	env.mining = NewMiningService(client, env.contents, local, env.txs, env.locker, env.tokens, env.notifier, testRigs, cfg.MiningTick, cfg.BoostCooldown)
	env.airdrop = NewAirdropService(client, env.txs, env.locker, env.tokens, env.notifier)
	env.content = NewContentService(env.contents, env.notifier,
		[]model.NewsItem{{ID: "news_launch", Title: "Launch", Date: time.Now()}},
		model.SystemSettings{Telegram: "https://t.me/tsla"})
	return env
}

// seedUser stores a user directly with the given wallets
func (e *testEnv) seedUser(t *testing.T, email string, funding, trading model.Wallet) *model.User {
	t.Helper()
	now := time.Now()
	u := &model.User{
		ID:               uuid.New().String(),
		Email:            email,
		Role:             model.RoleUser,
		RiskLevel:        model.RiskLow,
		FeeRate:          decimal.RequireFromString("0.001"),
		FundingWallet:    funding,
		TradingWallet:    trading,
		MiningBalance:    decimal.Zero,
		Hashrate:         decimal.Zero,
		ReferralEarnings: decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) reload(t *testing.T, userID string) *model.User {
	t.Helper()
	u, err := e.users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return u
}

func usdt(amount string) model.Wallet {
	return model.Wallet{{Symbol: model.QuoteSymbol, Amount: decimal.RequireFromString(amount)}}
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// requireCode asserts err is an AppError with the given code
func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := util.GetAppError(err)
	require.NotNil(t, appErr, "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
}
