package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"tslaglobal/backend/internal/config"
	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/repository"
	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/crypto"
	"tslaglobal/backend/pkg/redis"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// seed creates or promotes an admin account and writes the catalog (featured
// token, rigs, news, settings) to Redis and the local store
func main() {
	_ = godotenv.Load()

	email := flag.String("email", os.Getenv("SEED_ADMIN_EMAIL"), "admin email")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "admin password (8-72 chars)")
	force := flag.Bool("force", false, "overwrite news and settings that already exist")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	catalog, err := config.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	redisClient, err := redis.New(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	redis.InitKeys(cfg.Redis.Prefix)

	localStore, err := repository.NewLocalStore(cfg.Storage.LocalPath)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer localStore.Close()

	ctx := context.Background()

	if *email != "" {
		if err := seedAdmin(ctx, repository.NewUserRepository(redisClient), cfg, *email, *password); err != nil {
			log.Fatalf("Failed to seed admin: %v", err)
		}
	} else {
		fmt.Println("No admin email given, skipping admin account")
	}

	if err := seedCatalog(ctx, catalog, repository.NewTokenRepository(redisClient), repository.NewContentRepository(redisClient), localStore, *force); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}
	fmt.Println("✓ Catalog written")
}

func seedAdmin(ctx context.Context, userRepo *repository.UserRepository, cfg *config.Config, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !crypto.ValidatePasswordStrength(password) {
		return fmt.Errorf("password must be 8-72 characters")
	}

	passwordHash, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}

	existing, err := userRepo.GetByEmail(ctx, email)
	if err == nil {
		fmt.Printf("User %s already exists. Updating password and role to admin...\n", email)
		existing.PasswordHash = passwordHash
		existing.Role = model.RoleAdmin
		existing.IsFrozen = false
		if err := userRepo.Update(ctx, existing); err != nil {
			return err
		}
		fmt.Println("✓ User updated successfully")
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	inviteCode, err := crypto.GenerateInviteCode(util.InviteCodeLength)
	if err != nil {
		return err
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		RiskLevel:    model.RiskLow,
		FeeRate:      cfg.Exchange.DefaultFeeRate,
		FundingWallet: model.Wallet{
			{Symbol: model.QuoteSymbol, Amount: cfg.Exchange.WelcomeUSDT},
		},
		TradingWallet: model.Wallet{
			{Symbol: model.QuoteSymbol, Amount: decimal.Zero},
		},
		Rigs:       []model.OwnedRig{},
		InviteCode: inviteCode,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		return err
	}

	fmt.Printf("✓ Admin user created successfully:\n")
	fmt.Printf("  Email: %s\n", email)
	fmt.Printf("  Role:  %s\n", model.RoleAdmin)
	return nil
}

func seedCatalog(
	ctx context.Context,
	catalog *config.Catalog,
	tokenRepo *repository.TokenRepository,
	contentRepo *repository.ContentRepository,
	local *repository.LocalStore,
	force bool,
) error {
	token := catalog.FeaturedToken
	token.Symbol = util.NormalizeSymbol(token.Symbol)
	if _, err := tokenRepo.Get(ctx, token.Symbol); errors.Is(err, repository.ErrTokenNotFound) {
		now := time.Now().UTC()
		token.CreatedAt, token.UpdatedAt = now, now
		if err := tokenRepo.Upsert(ctx, &token); err != nil {
			return fmt.Errorf("token %s: %w", token.Symbol, err)
		}
		if err := local.UpsertToken(ctx, &token); err != nil {
			return fmt.Errorf("local token %s: %w", token.Symbol, err)
		}
		fmt.Printf("  token %s issued\n", token.Symbol)
	} else if err != nil {
		return err
	}

	if err := contentRepo.SaveRigs(ctx, catalog.Rigs); err != nil {
		return fmt.Errorf("rigs: %w", err)
	}
	if err := local.ReplaceRigs(ctx, catalog.Rigs); err != nil {
		return fmt.Errorf("local rigs: %w", err)
	}
	fmt.Printf("  %d rigs written\n", len(catalog.Rigs))

	news, err := contentRepo.GetNews(ctx)
	if err != nil {
		return err
	}
	if news == nil || force {
		if err := contentRepo.SaveNews(ctx, catalog.News); err != nil {
			return fmt.Errorf("news: %w", err)
		}
		fmt.Printf("  %d news items written\n", len(catalog.News))
	}

	settings, err := contentRepo.GetSettings(ctx)
	if err != nil {
		return err
	}
	if settings == nil || force {
		if err := contentRepo.SaveSettings(ctx, &catalog.Settings); err != nil {
			return fmt.Errorf("settings: %w", err)
		}
		fmt.Println("  settings written")
	}
	return nil
}
