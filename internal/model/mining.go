package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MiningRig is a catalog entry that can be bought with USDT
type MiningRig struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Hashrate    decimal.Decimal `json:"hashrate" yaml:"hashrate"`
	Cost        decimal.Decimal `json:"cost" yaml:"cost"`
	DailyOutput decimal.Decimal `json:"daily_output" yaml:"daily_output"`
}

// OwnedRig is a rig instance held by a user
type OwnedRig struct {
	ID          string          `json:"id"`
	RigID       string          `json:"rig_id"`
	Name        string          `json:"name"`
	Hashrate    decimal.Decimal `json:"hashrate"`
	DailyOutput decimal.Decimal `json:"daily_output"`
	PurchasedAt time.Time       `json:"purchased_date"`
}

// UpdateRigRequest edits a catalog rig
type UpdateRigRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=64"`
	Hashrate    *decimal.Decimal `json:"hashrate"`
	Cost        *decimal.Decimal `json:"cost"`
	DailyOutput *decimal.Decimal `json:"daily_output"`
}

// AddRigRequest grants a catalog rig to a user
type AddRigRequest struct {
	RigID string `json:"rig_id" binding:"required"`
}

// MiningStatus is the mining panel of one user
type MiningStatus struct {
	Active        bool            `json:"active"`
	Hashrate      decimal.Decimal `json:"hashrate"`
	MiningBalance decimal.Decimal `json:"mining_balance"`
	RewardPerTick decimal.Decimal `json:"reward_per_tick"`
	TickSeconds   float64         `json:"tick_seconds"`
	Symbol        string          `json:"symbol"`
	Rigs          []OwnedRig      `json:"rigs"`
	BoostReadyIn  int64           `json:"boost_ready_in"` // seconds
}

// AirdropStatus is the airdrop quest panel of one user
type AirdropStatus struct {
	HasDeposit bool            `json:"has_deposit"`
	HasTrade   bool            `json:"has_trade"`
	Eligible   bool            `json:"eligible"`
	Claimed    bool            `json:"claimed"`
	Symbol     string          `json:"symbol"`
	Amount     decimal.Decimal `json:"amount"`
}
