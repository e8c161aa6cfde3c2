package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

type TradeType string

const (
	TradeSpot    TradeType = "SPOT"
	TradeFutures TradeType = "FUTURES"
)

type PriceType string

const (
	PriceLimit  PriceType = "LIMIT"
	PriceMarket PriceType = "MARKET"
	PriceStop   PriceType = "STOP"
)

type OrderStatus string

const (
	OrderOpen      OrderStatus = "OPEN"
	OrderFilled    OrderStatus = "FILLED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// QuoteSymbol is the asset every pair is priced in
const QuoteSymbol = "USDT"

// Order is a simulated spot order against the trading wallet
type Order struct {
	ID           int64           `json:"id"`
	UserID       string          `json:"user_id"`
	Symbol       string          `json:"symbol"`
	Side         OrderSide       `json:"side"`
	TradeType    TradeType       `json:"trade_type"`
	PriceType    PriceType       `json:"price_type"`
	Price        decimal.Decimal `json:"price"`
	TriggerPrice decimal.Decimal `json:"trigger_price"`
	Amount       decimal.Decimal `json:"amount"`
	Total        decimal.Decimal `json:"total"`
	Fee          decimal.Decimal `json:"fee"`
	Leverage     int             `json:"leverage"`
	Status       OrderStatus     `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	FilledAt     *time.Time      `json:"filled_at,omitempty"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
}

func (o *Order) IsOpen() bool {
	return o.Status == OrderOpen
}

// FrozenAsset returns the symbol and amount held in the trading wallet while the order is open
func (o *Order) FrozenAsset() (string, decimal.Decimal) {
	if o.Side == SideBuy {
		return QuoteSymbol, o.Total
	}
	return o.Symbol, o.Amount
}

// ShouldFill reports whether market price crosses the order's fill condition
func (o *Order) ShouldFill(market decimal.Decimal) bool {
	if !o.IsOpen() || !market.IsPositive() {
		return false
	}
	switch o.PriceType {
	case PriceMarket:
		return true
	case PriceStop:
		if o.Side == SideBuy {
			return market.GreaterThanOrEqual(o.TriggerPrice)
		}
		return market.LessThanOrEqual(o.TriggerPrice)
	default:
		if o.Side == SideBuy {
			return market.LessThanOrEqual(o.Price)
		}
		return market.GreaterThanOrEqual(o.Price)
	}
}

// PlaceOrderRequest is the order entry form
type PlaceOrderRequest struct {
	Symbol       string          `json:"symbol" binding:"required,alphanum,max=16"`
	Side         OrderSide       `json:"side" binding:"required,oneof=BUY SELL"`
	TradeType    TradeType       `json:"trade_type" binding:"omitempty,oneof=SPOT FUTURES"`
	PriceType    PriceType       `json:"price_type" binding:"omitempty,oneof=LIMIT MARKET STOP"`
	Price        decimal.Decimal `json:"price"`
	TriggerPrice decimal.Decimal `json:"trigger_price"`
	Amount       decimal.Decimal `json:"amount"`
	Leverage     int             `json:"leverage" binding:"omitempty,min=1,max=125"`
}

// OrderFilter narrows order listings
type OrderFilter struct {
	Status OrderStatus
	Limit  int
	Offset int
}
