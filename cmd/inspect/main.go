package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"tslaglobal/backend/internal/config"
	"tslaglobal/backend/internal/repository"
	"tslaglobal/backend/pkg/redis"

	"github.com/joho/godotenv"
)

// inspect prints what the hosted and local stores currently hold
func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
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
	ctx := context.Background()

	dbSize, _ := redisClient.DBSize(ctx)
	fmt.Printf("Redis %s (prefix %q): %d keys in db %d\n", cfg.Redis.Address(), cfg.Redis.Prefix, dbSize, cfg.Redis.DB)

	counts := []struct {
		label string
		count func() (int64, error)
	}{
		{"users", func() (int64, error) { return redisClient.ZCard(ctx, redis.UsersIndexKey()) }},
		{"custom tokens", func() (int64, error) { return redisClient.ZCard(ctx, redis.CustomTokensIndexKey()) }},
		{"open orders", func() (int64, error) { return redisClient.SCard(ctx, redis.OrdersByStatusKey("OPEN")) }},
		{"pending deposits", func() (int64, error) { return redisClient.ZCard(ctx, redis.PendingTransactionsKey("DEPOSIT")) }},
		{"pending withdrawals", func() (int64, error) { return redisClient.ZCard(ctx, redis.PendingTransactionsKey("WITHDRAW")) }},
		{"active miners", func() (int64, error) { return redisClient.SCard(ctx, redis.ActiveMinersKey()) }},
	}
	for _, c := range counts {
		n, err := c.count()
		if err != nil {
			fmt.Printf("  %-20s error: %v\n", c.label, err)
			continue
		}
		fmt.Printf("  %-20s %d\n", c.label, n)
	}

	snap, err := repository.NewContentRepository(redisClient).GetMarketSnapshot(ctx)
	switch {
	case err != nil:
		fmt.Printf("  market snapshot      error: %v\n", err)
	case snap == nil:
		fmt.Println("  market snapshot      none")
	default:
		fmt.Printf("  market snapshot      %d coins (%s, %s)\n", len(snap.Coins), snap.Source, snap.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	local, err := repository.NewLocalStore(cfg.Storage.LocalPath)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer local.Close()

	stats, err := local.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to read local store: %v", err)
	}
	fmt.Printf("Local store %s:\n", cfg.Storage.LocalPath)
	for table, n := range stats {
		fmt.Printf("  %-20s %d\n", table, n)
	}
}
