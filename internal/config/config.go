package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Market    MarketConfig
	Exchange  ExchangeConfig
	Storage   StorageConfig
	Catalog   CatalogConfig
}

type ServerConfig struct {
	Host string
	Port string
	Env  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Prefix   string
}

type JWTConfig struct {
	Secret             string
	Issuer             string
	AccessTokenExpire  time.Duration
	RefreshTokenExpire time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	RequestsPerMinute     int
	AuthRequestsPerMinute int
}

type LogConfig struct {
	Level  string
	Format string
}

// MarketConfig controls the public market feed and the simulated ticker
type MarketConfig struct {
	CoinGeckoURL    string
	PerPage         int
	RequestTimeout  time.Duration
	MinRequestGap   time.Duration
	RefreshInterval time.Duration
	TickerInterval  time.Duration
	TickerJitter    float64
}

// ExchangeConfig holds the simulated exchange rules
type ExchangeConfig struct {
	DefaultFeeRate      decimal.Decimal
	ReferralCommission  decimal.Decimal
	WelcomeUSDT         decimal.Decimal
	AdminEmails         []string
	VerificationCodeTTL time.Duration
	ExposeVerifyCode    bool
	OrderFillInterval   time.Duration
	MiningTick          time.Duration
	BoostCooldown       time.Duration
	LockTimeout         time.Duration
}

// StorageConfig locates the local fallback store
type StorageConfig struct {
	LocalPath string
}

// CatalogConfig points to an optional YAML catalog overriding the embedded one
type CatalogConfig struct {
	Path string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	env := getEnv("SERVER_ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  env,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "tsla"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			Issuer:             getEnv("JWT_ISSUER", "tsla-global"),
			AccessTokenExpire:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", 15)) * time.Minute,
			RefreshTokenExpire: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}, ","),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute:     getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 120),
			AuthRequestsPerMinute: getEnvAsInt("RATE_LIMIT_AUTH_REQUESTS_PER_MINUTE", 10),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Market: MarketConfig{
			CoinGeckoURL:    getEnv("COINGECKO_API_URL", "https://api.coingecko.com/api/v3"),
			PerPage:         getEnvAsInt("MARKET_PER_PAGE", 50),
			RequestTimeout:  getEnvAsDuration("MARKET_REQUEST_TIMEOUT", 10*time.Second),
			MinRequestGap:   getEnvAsDuration("MARKET_MIN_REQUEST_GAP", 10*time.Second),
			RefreshInterval: getEnvAsDuration("MARKET_REFRESH_INTERVAL", 60*time.Second),
			TickerInterval:  getEnvAsDuration("MARKET_TICKER_INTERVAL", 3*time.Second),
			TickerJitter:    getEnvAsFloat("MARKET_TICKER_JITTER", 0.001),
		},
		Exchange: ExchangeConfig{
			DefaultFeeRate:      getEnvAsDecimal("EXCHANGE_FEE_RATE", "0.001"),
			ReferralCommission:  getEnvAsDecimal("EXCHANGE_REFERRAL_COMMISSION", "0.2"),
			WelcomeUSDT:         getEnvAsDecimal("EXCHANGE_WELCOME_USDT", "1000"),
			AdminEmails:         getEnvAsSlice("ADMIN_EMAILS", nil, ","),
			VerificationCodeTTL: getEnvAsDuration("VERIFICATION_CODE_TTL", 10*time.Minute),
			ExposeVerifyCode:    getEnvAsBool("EXPOSE_VERIFICATION_CODE", env != "production"),
			OrderFillInterval:   getEnvAsDuration("ORDER_FILL_INTERVAL", 2*time.Second),
			MiningTick:          getEnvAsDuration("MINING_TICK", time.Second),
			BoostCooldown:       getEnvAsDuration("MINING_BOOST_COOLDOWN", time.Minute),
			LockTimeout:         getEnvAsDuration("ACCOUNT_LOCK_TIMEOUT", 3*time.Second),
		},
		Storage: StorageConfig{
			LocalPath: getEnv("LOCAL_STORE_PATH", "data/local.db"),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", ""),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWT.Secret) < 16 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if cfg.Exchange.DefaultFeeRate.IsNegative() || cfg.Exchange.DefaultFeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("EXCHANGE_FEE_RATE must be in [0, 1)")
	}
	if cfg.Market.TickerJitter < 0 || cfg.Market.TickerJitter > 0.1 {
		return nil, fmt.Errorf("MARKET_TICKER_JITTER must be in [0, 0.1]")
	}

	return cfg, nil
}

// Address returns the full server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Address returns the full Redis address
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS
func (c *ExchangeConfig) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(e), email) {
			return true
		}
	}
	return false
}

func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings such as "90s" or "5m"
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func getEnvAsDecimal(key, defaultValue string) decimal.Decimal {
	if value, err := decimal.NewFromString(getEnv(key, "")); err == nil {
		return value
	}
	return decimal.RequireFromString(defaultValue)
}

func getEnvAsSlice(key string, defaultValue []string, separator string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, separator)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
