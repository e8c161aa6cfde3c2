package handler

import (
	"errors"
	"net/http"

	"tslaglobal/backend/internal/service"
	"tslaglobal/backend/internal/service/market"
	"tslaglobal/backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MarketHandler struct {
	marketService *market.MarketDataService
	tokenService  *service.TokenService
}

func NewMarketHandler(marketService *market.MarketDataService, tokenService *service.TokenService) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
		tokenService:  tokenService,
	}
}

func marketError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, market.ErrUnknownSymbol):
		util.SendError(c, util.ErrNotFound("Coin not found"))
	case errors.Is(err, market.ErrUnknownInterval):
		util.SendError(c, util.ErrValidation("interval must be one of 15m, 1H, 4H, 1D"))
	default:
		util.SendError(c, err)
	}
}

// List returns the merged market list
// GET /api/v1/market
func (h *MarketHandler) List(c *gin.Context) {
	snap := h.marketService.Snapshot()
	util.SendSuccess(c, gin.H{
		"coins":      snap.Coins,
		"count":      len(snap.Coins),
		"source":     snap.Source,
		"updated_at": snap.UpdatedAt,
	})
}

// Coin returns one market row by id or symbol
// GET /api/v1/market/:symbol
func (h *MarketHandler) Coin(c *gin.Context) {
	coin, ok := h.marketService.Coin(c.Param("symbol"))
	if !ok {
		marketError(c, market.ErrUnknownSymbol)
		return
	}
	util.SendSuccess(c, coin)
}

// Candles returns synthetic OHLCV bars
// GET /api/v1/market/:symbol/candles?interval=1H
func (h *MarketHandler) Candles(c *gin.Context) {
	candles, err := h.marketService.Candles(c.Param("symbol"), c.DefaultQuery("interval", "1H"))
	if err != nil {
		marketError(c, err)
		return
	}
	util.SendSuccess(c, candles)
}

// Trades returns the synthetic recent trades tape
// GET /api/v1/market/:symbol/trades
func (h *MarketHandler) Trades(c *gin.Context) {
	trades, err := h.marketService.RecentTrades(c.Param("symbol"))
	if err != nil {
		marketError(c, err)
		return
	}
	util.SendSuccess(c, trades)
}

// Featured returns the token promoted by the landing page and airdrop
// GET /api/v1/market/featured
func (h *MarketHandler) Featured(c *gin.Context) {
	token := h.tokenService.Featured(c.Request.Context())
	util.SendSuccess(c, gin.H{
		"token": token,
		"coin":  token.ToCoinData(),
	})
}

// Tokens lists the enabled custom tokens
// GET /api/v1/tokens
func (h *MarketHandler) Tokens(c *gin.Context) {
	tokens, err := h.tokenService.ListEnabled(c.Request.Context())
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, tokens)
}

// Refresh forces a market rebuild
// POST /api/v1/admin/market/refresh
func (h *MarketHandler) Refresh(c *gin.Context) {
	if err := h.marketService.Refresh(c.Request.Context()); err != nil {
		util.SendError(c, util.NewAppError(http.StatusServiceUnavailable, util.ErrCodeMarketUnavailable, "Market refresh failed"))
		return
	}
	util.SendSuccess(c, h.marketService.Snapshot())
}
