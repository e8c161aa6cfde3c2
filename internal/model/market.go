package model

import "time"

// CoinData is one market row, shaped like a CoinGecko /coins/markets entry
type CoinData struct {
	ID                       string     `json:"id" yaml:"id"`
	Symbol                   string     `json:"symbol" yaml:"symbol"`
	Name                     string     `json:"name" yaml:"name"`
	Image                    string     `json:"image" yaml:"image"`
	CurrentPrice             float64    `json:"current_price" yaml:"current_price"`
	MarketCap                float64    `json:"market_cap" yaml:"market_cap"`
	MarketCapRank            int        `json:"market_cap_rank" yaml:"market_cap_rank"`
	FullyDilutedValuation    *float64   `json:"fully_diluted_valuation" yaml:"fully_diluted_valuation"`
	TotalVolume              float64    `json:"total_volume" yaml:"total_volume"`
	High24h                  float64    `json:"high_24h" yaml:"high_24h"`
	Low24h                   float64    `json:"low_24h" yaml:"low_24h"`
	PriceChange24h           float64    `json:"price_change_24h" yaml:"price_change_24h"`
	PriceChangePercentage24h float64    `json:"price_change_percentage_24h" yaml:"price_change_percentage_24h"`
	CirculatingSupply        float64    `json:"circulating_supply" yaml:"circulating_supply"`
	TotalSupply              *float64   `json:"total_supply" yaml:"total_supply"`
	MaxSupply                *float64   `json:"max_supply" yaml:"max_supply"`
	ATH                      float64    `json:"ath" yaml:"ath"`
	ATL                      float64    `json:"atl" yaml:"atl"`
	SparklineIn7d            *Sparkline `json:"sparkline_in_7d,omitempty" yaml:"sparkline_in_7d,omitempty"`
	IsCustom                 bool       `json:"is_custom" yaml:"is_custom"`
}

type Sparkline struct {
	Price []float64 `json:"price" yaml:"price"`
}

// Candle is one OHLCV bar, Time is a unix timestamp in seconds
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// MarketTrade is a synthetic tape entry
type MarketTrade struct {
	Side   OrderSide `json:"side"`
	Price  float64   `json:"price"`
	Amount float64   `json:"amount"`
	Time   time.Time `json:"time"`
}

// MarketSnapshot is the merged market list plus when it was built
type MarketSnapshot struct {
	Coins     []CoinData `json:"coins"`
	Source    string     `json:"source"`
	UpdatedAt time.Time  `json:"updated_at"`
}

const (
	MarketSourceLive     = "live"
	MarketSourceFallback = "fallback"
)
