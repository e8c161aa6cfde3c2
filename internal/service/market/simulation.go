package market

import (
	"errors"
	"math"
	"strings"
	"time"

	"tslaglobal/backend/internal/model"
)

var (
	ErrUnknownSymbol   = errors.New("symbol is not listed")
	ErrUnknownInterval = errors.New("unsupported candle interval")
)

const (
	candleCount = 100
	tradeCount  = 30
)

// Timeframes accepted by Candles, in seconds per bar
var Timeframes = map[string]int64{
	"15m": 900,
	"1H":  3600,
	"4H":  14400,
	"1D":  86400,
}

// Candles builds a synthetic history that ends at the current price. Bars
// are generated backwards, each bar's open becoming the previous close.
func (s *MarketDataService) Candles(symbol, interval string) ([]model.Candle, error) {
	if interval == "" {
		interval = "1H"
	}
	step, ok := Timeframes[interval]
	if !ok {
		step, ok = Timeframes[strings.ToUpper(interval)]
	}
	if !ok {
		return nil, ErrUnknownInterval
	}

	coin, ok := s.Coin(symbol)
	if !ok {
		return nil, ErrUnknownSymbol
	}

	candles := make([]model.Candle, candleCount)
	current := coin.CurrentPrice
	bar := time.Now().Unix() / step * step

	for i := candleCount - 1; i >= 0; i-- {
		vol := current * 0.015
		closePrice := current
		open := current - (s.float()-0.5)*vol
		high := math.Max(open, closePrice) + s.float()*vol*0.4
		low := math.Min(open, closePrice) - s.float()*vol*0.4

		candles[i] = model.Candle{
			Time:   bar,
			Open:   open,
			High:   high,
			Low:    math.Max(low, 0),
			Close:  closePrice,
			Volume: s.float() * 1000,
		}
		current = open
		bar -= step
	}
	return candles, nil
}

// RecentTrades returns a synthetic tape around the current price, newest first
func (s *MarketDataService) RecentTrades(symbol string) ([]model.MarketTrade, error) {
	coin, ok := s.Coin(symbol)
	if !ok {
		return nil, ErrUnknownSymbol
	}

	now := time.Now().UTC()
	trades := make([]model.MarketTrade, tradeCount)
	for i := range trades {
		side := model.SideBuy
		if s.float() < 0.5 {
			side = model.SideSell
		}
		trades[i] = model.MarketTrade{
			Side:   side,
			Price:  coin.CurrentPrice * (1 + (s.float()-0.5)*0.001),
			Amount: s.float(),
			Time:   now.Add(-time.Duration(i) * time.Second),
		}
	}
	return trades, nil
}
