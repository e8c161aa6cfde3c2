package util

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RoundAmount rounds to AmountScale decimals, half away from zero
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// FloorAmount truncates to AmountScale decimals so credits never exceed their source
func FloorAmount(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(AmountScale)
}

// RequirePositive returns a validation error naming field unless d > 0
func RequirePositive(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrValidation(field + " must be a positive number")
	}
	return nil
}

// NormalizeSymbol trims and upper-cases an asset symbol
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ParsePagination reads limit/offset query params with bounds
func ParsePagination(c *gin.Context, defaultLimit, maxLimit int) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
