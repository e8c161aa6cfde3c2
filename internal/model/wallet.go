package model

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType selects one of the two wallets of a user
type AccountType string

const (
	AccountFunding AccountType = "FUNDING"
	AccountTrading AccountType = "TRADING"
)

func (a AccountType) Valid() bool {
	return a == AccountFunding || a == AccountTrading
}

// ErrInsufficientBalance is returned when a debit or freeze exceeds the available amount
var ErrInsufficientBalance = errors.New("insufficient balance")

// AssetBalance is one asset line of a wallet. Amount is available, Frozen is
// held by open orders.
type AssetBalance struct {
	Symbol string          `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
	Frozen decimal.Decimal `json:"frozen"`
}

// Wallet is a small list of asset lines keyed by upper-case symbol
type Wallet []AssetBalance

func (w Wallet) index(symbol string) int {
	symbol = strings.ToUpper(symbol)
	for i := range w {
		if w[i].Symbol == symbol {
			return i
		}
	}
	return -1
}

// line returns the asset line for symbol, appending an empty one if missing
func (w *Wallet) line(symbol string) *AssetBalance {
	if i := w.index(symbol); i >= 0 {
		return &(*w)[i]
	}
	*w = append(*w, AssetBalance{Symbol: strings.ToUpper(symbol)})
	return &(*w)[len(*w)-1]
}

// Available returns the spendable amount of symbol
func (w Wallet) Available(symbol string) decimal.Decimal {
	if i := w.index(symbol); i >= 0 {
		return w[i].Amount
	}
	return decimal.Zero
}

// FrozenAmount returns the amount of symbol held by orders
func (w Wallet) FrozenAmount(symbol string) decimal.Decimal {
	if i := w.index(symbol); i >= 0 {
		return w[i].Frozen
	}
	return decimal.Zero
}

// Credit adds amount to the available balance
func (w *Wallet) Credit(symbol string, amount decimal.Decimal) {
	l := w.line(symbol)
	l.Amount = l.Amount.Add(amount)
}

// Debit removes amount from the available balance
func (w *Wallet) Debit(symbol string, amount decimal.Decimal) error {
	if w.Available(symbol).LessThan(amount) {
		return ErrInsufficientBalance
	}
	l := w.line(symbol)
	l.Amount = l.Amount.Sub(amount)
	return nil
}

// Freeze moves amount from available to frozen
func (w *Wallet) Freeze(symbol string, amount decimal.Decimal) error {
	if err := w.Debit(symbol, amount); err != nil {
		return err
	}
	l := w.line(symbol)
	l.Frozen = l.Frozen.Add(amount)
	return nil
}

// Unfreeze moves up to amount from frozen back to available
func (w *Wallet) Unfreeze(symbol string, amount decimal.Decimal) {
	l := w.line(symbol)
	released := decimal.Min(l.Frozen, amount)
	l.Frozen = l.Frozen.Sub(released)
	l.Amount = l.Amount.Add(released)
}

// SpendFrozen consumes amount from the frozen balance. It fails without
// touching the wallet when less than amount is frozen.
func (w *Wallet) SpendFrozen(symbol string, amount decimal.Decimal) error {
	if w.FrozenAmount(symbol).LessThan(amount) {
		return ErrInsufficientBalance
	}
	l := w.line(symbol)
	l.Frozen = l.Frozen.Sub(amount)
	return nil
}

// HasPositive reports whether any asset line holds a positive available amount
func (w Wallet) HasPositive() bool {
	for _, l := range w {
		if l.Amount.IsPositive() {
			return true
		}
	}
	return false
}

// Normalized returns a sorted copy with upper-case symbols, never nil
func (w Wallet) Normalized() Wallet {
	out := make(Wallet, 0, len(w))
	for _, l := range w {
		l.Symbol = strings.ToUpper(l.Symbol)
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Validate rejects negative amounts and duplicate symbols
func (w Wallet) Validate() error {
	seen := make(map[string]bool, len(w))
	for _, l := range w {
		sym := strings.ToUpper(l.Symbol)
		if sym == "" {
			return errors.New("wallet line without symbol")
		}
		if seen[sym] {
			return errors.New("duplicate wallet symbol " + sym)
		}
		seen[sym] = true
		if l.Amount.IsNegative() || l.Frozen.IsNegative() {
			return errors.New("negative balance for " + sym)
		}
	}
	return nil
}

// WalletOverview is a user's wallets with a USDT valuation
type WalletOverview struct {
	FundingWallet  Wallet          `json:"funding_wallet"`
	TradingWallet  Wallet          `json:"trading_wallet"`
	FundingValue   decimal.Decimal `json:"funding_value_usdt"`
	TradingValue   decimal.Decimal `json:"trading_value_usdt"`
	TotalValueUSDT decimal.Decimal `json:"total_value_usdt"`
}
