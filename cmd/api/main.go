package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tslaglobal/backend/internal/config"
	"tslaglobal/backend/internal/handler"
	"tslaglobal/backend/internal/repository"
	"tslaglobal/backend/internal/service"
	"tslaglobal/backend/internal/service/market"
	"tslaglobal/backend/pkg/coingecko"
	"tslaglobal/backend/pkg/jwt"
	"tslaglobal/backend/pkg/logger"
	"tslaglobal/backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file (ignore error in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log := logger.GetLogger()

	log.Info("Starting Tsla Global backend...")
	log.Infof("Environment: %s", cfg.Server.Env)

	catalog, err := config.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		log.Fatal("Failed to load catalog", err)
	}

	log.Info("Connecting to Redis...")
	redisClient, err := redis.New(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	redis.InitKeys(cfg.Redis.Prefix)
	log.Info("✓ Redis connected")

	localStore, err := repository.NewLocalStore(cfg.Storage.LocalPath)
	if err != nil {
		log.Fatal("Failed to open local store", err)
	}
	defer localStore.Close()
	log.Infof("✓ Local store at %s", cfg.Storage.LocalPath)

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	jwtManager := jwt.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)

	// Repositories
	userRepo := repository.NewUserRepository(redisClient)
	orderRepo := repository.NewOrderRepository(redisClient)
	txRepo := repository.NewTransactionRepository(redisClient)
	tokenRepo := repository.NewTokenRepository(redisClient)
	contentRepo := repository.NewContentRepository(redisClient)

	// Services
	notifier := service.NewNotificationService(redisClient)
	locker := service.NewAccountLocker(redisClient, userRepo, cfg.Exchange.LockTimeout)
	tokenService := service.NewTokenService(tokenRepo, localStore, catalog.FeaturedToken)

	marketService := market.NewMarketDataService(
		coingecko.NewClient(cfg.Market.CoinGeckoURL, cfg.Market.RequestTimeout, cfg.Market.MinRequestGap),
		tokenService,
		contentRepo,
		notifier,
		catalog.FallbackMarket,
		market.Options{
			PerPage:         cfg.Market.PerPage,
			RefreshInterval: cfg.Market.RefreshInterval,
			TickerInterval:  cfg.Market.TickerInterval,
			TickerJitter:    cfg.Market.TickerJitter,
		},
	)
	marketService.Warm(context.Background())
	tokenService.OnChange(func(ctx context.Context) {
		if err := marketService.RefreshTokens(ctx); err != nil {
			log.Warnf("Market refresh after token change failed: %v", err)
		}
	})

	authService := service.NewAuthService(userRepo, locker, jwtManager, cfg.Exchange)
	userService := service.NewUserService(userRepo, orderRepo, txRepo, redisClient, locker, notifier, cfg.Exchange.ReferralCommission)
	walletService := service.NewWalletService(locker, txRepo, tokenService, marketService, notifier)
	orderService := service.NewOrderService(orderRepo, txRepo, locker, marketService, notifier, cfg.Exchange.ReferralCommission)
	miningService := service.NewMiningService(
		redisClient, contentRepo, localStore, txRepo, locker, tokenService, notifier,
		catalog.Rigs, cfg.Exchange.MiningTick, cfg.Exchange.BoostCooldown,
	)
	airdropService := service.NewAirdropService(redisClient, txRepo, locker, tokenService, notifier)
	contentService := service.NewContentService(contentRepo, notifier, catalog.News, catalog.Settings)
	orderFiller := service.NewOrderFiller(orderService, cfg.Exchange.OrderFillInterval)
	hub := service.NewWSHub(redisClient, cfg.CORS.AllowedOrigins)

	router := handler.NewRouter(cfg, redisClient, handler.Services{
		Auth:    authService,
		Users:   userService,
		Wallet:  walletService,
		Orders:  orderService,
		Tokens:  tokenService,
		Mining:  miningService,
		Airdrop: airdropService,
		Content: contentService,
		Market:  marketService,
		Hub:     hub,
	}, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return hub.StartPubSubListener(gctx) })
	g.Go(func() error { return marketService.Run(gctx) })
	g.Go(func() error { return orderFiller.Run(gctx) })
	g.Go(func() error { return miningService.Run(gctx) })

	g.Go(func() error {
		log.Infof("Server starting on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	log.Info("✓ Server started successfully")

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
