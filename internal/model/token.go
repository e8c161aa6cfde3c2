package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CustomTokenConfig is an admin-issued synthetic asset with a manual price
type CustomTokenConfig struct {
	Symbol             string          `json:"symbol" yaml:"symbol"`
	Name               string          `json:"name" yaml:"name"`
	Price              decimal.Decimal `json:"price" yaml:"price"`
	PriceChangePercent float64         `json:"price_change_percent" yaml:"price_change_percent"`
	Supply             decimal.Decimal `json:"supply" yaml:"supply"`
	Volume24h          decimal.Decimal `json:"volume_24h" yaml:"volume_24h"`
	Description        string          `json:"description" yaml:"description"`
	Enabled            bool            `json:"enabled" yaml:"enabled"`
	ContractAddress    string          `json:"contract_address,omitempty" yaml:"contract_address"`
	LogoURL            string          `json:"logo_url,omitempty" yaml:"logo_url"`
	MinWithdraw        decimal.Decimal `json:"min_withdraw" yaml:"min_withdraw"`
	FeeRate            decimal.Decimal `json:"fee_rate" yaml:"fee_rate"`
	CreatedAt          time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt          time.Time       `json:"updated_at" yaml:"-"`
}

// CoinID is the market id a custom token is listed under
func (t *CustomTokenConfig) CoinID() string {
	return strings.ToLower(t.Symbol) + "-token"
}

// ToCoinData lists the token as a market row with derived statistics
func (t *CustomTokenConfig) ToCoinData() CoinData {
	price := t.Price.InexactFloat64()
	supply := t.Supply.InexactFloat64()
	change := t.PriceChangePercent

	image := t.LogoURL
	if image == "" && t.Symbol != "" {
		image = fmt.Sprintf("https://via.placeholder.com/64/0EA5E9/FFFFFF?text=%s", t.Symbol[:1])
	}

	volume := price * 50000
	if t.Volume24h.IsPositive() {
		volume = t.Volume24h.InexactFloat64()
	}

	spark := make([]float64, 168)
	for i := range spark {
		spark[i] = price
	}

	return CoinData{
		ID:                       t.CoinID(),
		Symbol:                   strings.ToLower(t.Symbol),
		Name:                     firstNonEmpty(t.Name, t.Symbol),
		Image:                    image,
		CurrentPrice:             price,
		MarketCap:                price * supply,
		MarketCapRank:            999,
		TotalVolume:              volume,
		High24h:                  price * 1.05,
		Low24h:                   price * 0.95,
		PriceChange24h:           price * (change / 100),
		PriceChangePercentage24h: change,
		CirculatingSupply:        supply,
		TotalSupply:              &supply,
		MaxSupply:                &supply,
		ATH:                      price * 1.2,
		ATL:                      price * 0.8,
		SparklineIn7d:            &Sparkline{Price: spark},
		IsCustom:                 true,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// IssueTokenRequest creates or replaces a custom token
type IssueTokenRequest struct {
	Symbol             string          `json:"symbol" binding:"required,alphanum,min=2,max=10"`
	Name               string          `json:"name" binding:"required,max=64"`
	Price              decimal.Decimal `json:"price"`
	PriceChangePercent float64         `json:"price_change_percent"`
	Supply             decimal.Decimal `json:"supply"`
	Volume24h          decimal.Decimal `json:"volume_24h"`
	Description        string          `json:"description" binding:"max=1000"`
	ContractAddress    string          `json:"contract_address" binding:"max=128"`
	LogoURL            string          `json:"logo_url" binding:"omitempty,url"`
	MinWithdraw        decimal.Decimal `json:"min_withdraw"`
	FeeRate            decimal.Decimal `json:"fee_rate"`
}

// UpdateTokenRequest is a partial token update
type UpdateTokenRequest struct {
	Name               *string          `json:"name" binding:"omitempty,max=64"`
	Price              *decimal.Decimal `json:"price"`
	PriceChangePercent *float64         `json:"price_change_percent"`
	Volume24h          *decimal.Decimal `json:"volume_24h"`
	Description        *string          `json:"description" binding:"omitempty,max=1000"`
	LogoURL            *string          `json:"logo_url" binding:"omitempty,url"`
	Enabled            *bool            `json:"enabled"`
	MinWithdraw        *decimal.Decimal `json:"min_withdraw"`
	FeeRate            *decimal.Decimal `json:"fee_rate"`
}

// TokenWriteResult tells the caller which store accepted the write
type TokenWriteResult struct {
	Token     *CustomTokenConfig `json:"token,omitempty"`
	LocalMode bool               `json:"local_mode"`
}
