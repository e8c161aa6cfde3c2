package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomTokenToCoinData(t *testing.T) {
	token := &CustomTokenConfig{
		Symbol:             "TSLA",
		Name:               "Tsla Token",
		Price:              d("2"),
		PriceChangePercent: 10,
		Supply:             d("1000"),
		Enabled:            true,
	}

	c := token.ToCoinData()
	assert.Equal(t, "tsla-token", c.ID)
	assert.Equal(t, "tsla", c.Symbol)
	assert.Equal(t, "Tsla Token", c.Name)
	assert.Equal(t, "https://via.placeholder.com/64/0EA5E9/FFFFFF?text=T", c.Image)
	assert.Equal(t, 2.0, c.CurrentPrice)
	assert.Equal(t, 2000.0, c.MarketCap)
	assert.Equal(t, 999, c.MarketCapRank)
	assert.Equal(t, 100000.0, c.TotalVolume)
	assert.InDelta(t, 2.1, c.High24h, 1e-9)
	assert.InDelta(t, 1.9, c.Low24h, 1e-9)
	assert.InDelta(t, 0.2, c.PriceChange24h, 1e-9)
	assert.InDelta(t, 2.4, c.ATH, 1e-9)
	assert.InDelta(t, 1.6, c.ATL, 1e-9)
	require.NotNil(t, c.TotalSupply)
	assert.Equal(t, 1000.0, *c.TotalSupply)
	require.NotNil(t, c.SparklineIn7d)
	assert.Len(t, c.SparklineIn7d.Price, 168)
	assert.True(t, c.IsCustom)
}

func TestCustomTokenToCoinDataOverrides(t *testing.T) {
	token := &CustomTokenConfig{
		Symbol:    "ABC",
		Price:     d("1"),
		Volume24h: d("42"),
		LogoURL:   "https://cdn.example/abc.png",
	}

	c := token.ToCoinData()
	assert.Equal(t, "ABC", c.Name)
	assert.Equal(t, "https://cdn.example/abc.png", c.Image)
	assert.Equal(t, 42.0, c.TotalVolume)
}

func TestMasking(t *testing.T) {
	assert.Equal(t, "al***@example.com", MaskEmail("alice@example.com"))
	assert.Equal(t, "a***@x.io", MaskEmail("a@x.io"))
	assert.Equal(t, "not-an-email", MaskEmail("not-an-email"))

	assert.Equal(t, "****5678", MaskTail("12345678", 4))
	assert.Equal(t, "abc", MaskTail("abc", 4))
}
