package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("SERVER_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "tsla", cfg.Redis.Prefix)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpire)
	assert.True(t, cfg.Exchange.DefaultFeeRate.Equal(decimal.RequireFromString("0.001")))
	assert.True(t, cfg.Exchange.WelcomeUSDT.Equal(decimal.NewFromInt(1000)))
	assert.True(t, cfg.Exchange.ExposeVerifyCode)
	assert.Equal(t, time.Minute, cfg.Exchange.BoostCooldown)
	assert.Equal(t, 60*time.Second, cfg.Market.RefreshInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("ADMIN_EMAILS", " Root@Example.com , ,ops@example.com")
	t.Setenv("MINING_BOOST_COOLDOWN", "90s")
	t.Setenv("EXCHANGE_FEE_RATE", "0.002")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Exchange.ExposeVerifyCode)
	assert.Equal(t, []string{"Root@Example.com", "ops@example.com"}, cfg.Exchange.AdminEmails)
	assert.True(t, cfg.Exchange.IsAdminEmail("root@example.com"))
	assert.False(t, cfg.Exchange.IsAdminEmail("alice@example.com"))
	assert.Equal(t, 90*time.Second, cfg.Exchange.BoostCooldown)
	assert.True(t, cfg.Exchange.DefaultFeeRate.Equal(decimal.RequireFromString("0.002")))
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret": {"JWT_SECRET": ""},
		"short secret":   {"JWT_SECRET": "short"},
		"fee too high":   {"JWT_SECRET": "0123456789abcdef0123", "EXCHANGE_FEE_RATE": "1"},
		"jitter too big": {"JWT_SECRET": "0123456789abcdef0123", "MARKET_TICKER_JITTER": "0.5"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	assert.Equal(t, "TSLA", c.FeaturedToken.Symbol)
	assert.True(t, c.FeaturedToken.Price.Equal(decimal.RequireFromString("124.50")))
	require.Len(t, c.Rigs, 3)
	assert.Equal(t, "rig_1", c.Rigs[0].ID)
	assert.True(t, c.Rigs[2].Hashrate.Equal(decimal.NewFromInt(110)))
	assert.NotEmpty(t, c.News)
	assert.NotEmpty(t, c.FallbackMarket)
	assert.NoError(t, c.validate())
}

func TestLoadCatalogOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rigs:
  - id: tiny
    name: Tiny Rig
    hashrate: "1"
    cost: "10"
    daily_output: "0.5"
`), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c.Rigs, 1)
	assert.Equal(t, "tiny", c.Rigs[0].ID)
	// untouched sections keep the embedded values
	assert.Equal(t, "TSLA", c.FeaturedToken.Symbol)
}

func TestLoadCatalogRejectsDuplicateRigs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rigs:
  - {id: a, name: A, hashrate: "1", cost: "1", daily_output: "1"}
  - {id: a, name: B, hashrate: "2", cost: "2", daily_output: "2"}
`), 0o644))

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
