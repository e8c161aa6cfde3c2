package handler

import (
	"context"
	"net/http"
	"time"

	"tslaglobal/backend/internal/config"
	"tslaglobal/backend/internal/middleware"
	"tslaglobal/backend/internal/service"
	"tslaglobal/backend/internal/service/market"
	"tslaglobal/backend/pkg/logger"
	"tslaglobal/backend/pkg/redis"

	"github.com/gin-gonic/gin"
)

// Services bundles everything the HTTP layer calls into
type Services struct {
	Auth    *service.AuthService
	Users   *service.UserService
	Wallet  *service.WalletService
	Orders  *service.OrderService
	Tokens  *service.TokenService
	Mining  *service.MiningService
	Airdrop *service.AirdropService
	Content *service.ContentService
	Market  *market.MarketDataService
	Hub     *service.WSHub
}

// NewRouter builds the gin engine with middleware and every API route
func NewRouter(cfg *config.Config, redisClient *redis.Client, svc Services, log *logger.Logger) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(middleware.RateLimit(redisClient, cfg.RateLimit.RequestsPerMinute))

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "Redis connection failed",
			})
			return
		}

		body := gin.H{
			"status": "healthy",
			"redis":  "connected",
			"market": svc.Market.Snapshot().Source,
		}
		if svc.Hub != nil {
			body["ws_clients"] = svc.Hub.ClientCount()
		}
		c.JSON(http.StatusOK, body)
	})

	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users)
	walletHandler := NewWalletHandler(svc.Wallet)
	orderHandler := NewOrderHandler(svc.Orders)
	marketHandler := NewMarketHandler(svc.Market, svc.Tokens)
	miningHandler := NewMiningHandler(svc.Mining, svc.Airdrop)
	contentHandler := NewContentHandler(svc.Content)
	adminHandler := NewAdminHandler(svc.Users, svc.Wallet, svc.Tokens, svc.Mining, svc.Content)

	authRequired := middleware.AuthMiddleware(svc.Auth)
	active := middleware.RequireActiveAccount()
	authLimit := middleware.AuthRateLimit(redisClient, cfg.RateLimit.AuthRequestsPerMinute)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "pong",
				"time":    time.Now().Unix(),
			})
		})

		auth := v1.Group("/auth")
		{
			auth.POST("/send-code", authLimit, authHandler.SendCode)
			auth.POST("/register", authLimit, authHandler.Register)
			auth.POST("/login", authLimit, authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authRequired, authHandler.Logout)
			auth.GET("/me", authRequired, authHandler.GetMe)
		}

		mkt := v1.Group("/market")
		{
			mkt.GET("", marketHandler.List)
			mkt.GET("/featured", marketHandler.Featured)
			mkt.GET("/:symbol", marketHandler.Coin)
			mkt.GET("/:symbol/candles", marketHandler.Candles)
			mkt.GET("/:symbol/trades", marketHandler.Trades)
		}
		v1.GET("/tokens", marketHandler.Tokens)
		v1.GET("/news", contentHandler.News)
		v1.GET("/settings", contentHandler.Settings)
		v1.GET("/chat", contentHandler.Chat)
		v1.GET("/mining/rigs", miningHandler.Rigs)

		v1.GET("/ws", authRequired, svc.Hub.ServeWS)

		member := v1.Group("")
		member.Use(authRequired, active)
		{
			member.POST("/chat", contentHandler.SendChat)

			user := member.Group("/user")
			{
				user.GET("/profile", userHandler.GetProfile)
				user.PUT("/wallet-address", userHandler.BindWallet)
				user.POST("/kyc", userHandler.SubmitKYC)
				user.POST("/2fa", userHandler.ToggleTwoFactor)
				user.POST("/password", userHandler.ChangePassword)
				user.GET("/referral", userHandler.GetReferral)
			}

			wallet := member.Group("/wallet")
			{
				wallet.GET("", walletHandler.Overview)
				wallet.POST("/deposit", walletHandler.Deposit)
				wallet.POST("/withdraw", walletHandler.Withdraw)
				wallet.POST("/transfer", walletHandler.Transfer)
				wallet.GET("/transactions", walletHandler.Transactions)
			}

			orders := member.Group("/orders")
			{
				orders.POST("", orderHandler.Place)
				orders.GET("", orderHandler.List)
				orders.GET("/:id", orderHandler.Get)
				orders.DELETE("/:id", orderHandler.Cancel)
			}

			mining := member.Group("/mining")
			{
				mining.GET("", miningHandler.Status)
				mining.POST("/rigs/:id/buy", miningHandler.BuyRig)
				mining.POST("/start", miningHandler.Start)
				mining.POST("/stop", miningHandler.Stop)
				mining.POST("/boost", miningHandler.Boost)
				mining.POST("/claim", miningHandler.Claim)
			}

			member.GET("/airdrop", miningHandler.AirdropStatus)
			member.POST("/airdrop/claim", miningHandler.ClaimAirdrop)
		}

		admin := v1.Group("/admin")
		admin.Use(authRequired, middleware.RequireAdmin())
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.PATCH("/users/:id", adminHandler.UpdateUser)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.POST("/users/:id/reset-password", adminHandler.ResetPassword)
			admin.POST("/users/:id/rigs", adminHandler.AddRig)

			admin.GET("/deposits", adminHandler.PendingDeposits)
			admin.POST("/deposits/:id/approve", adminHandler.ApproveDeposit())
			admin.POST("/deposits/:id/reject", adminHandler.RejectDeposit())
			admin.GET("/withdrawals", adminHandler.PendingWithdrawals)
			admin.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal())
			admin.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal())

			admin.GET("/tokens", adminHandler.ListTokens)
			admin.POST("/tokens", adminHandler.IssueToken)
			admin.PATCH("/tokens/:symbol", adminHandler.UpdateToken)
			admin.DELETE("/tokens/:symbol", adminHandler.DeleteToken)

			admin.GET("/rigs", miningHandler.Rigs)
			admin.PATCH("/rigs/:id", adminHandler.UpdateRig)

			admin.POST("/news", adminHandler.AddNews)
			admin.DELETE("/news/:id", adminHandler.DeleteNews)
			admin.PATCH("/settings", adminHandler.UpdateSettings)

			admin.POST("/market/refresh", marketHandler.Refresh)
		}
	}

	return router
}
