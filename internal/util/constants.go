package util

import "github.com/shopspring/decimal"

// Exchange-wide amounts. Config can override fee and commission rates, the
// values here are the defaults and the mining constants.

var (
	// DefaultFeeRate is charged on every fill unless the user has a custom rate
	DefaultFeeRate = decimal.RequireFromString("0.001")

	// ReferralCommissionRate is the share of a referee's trading fee paid to the inviter
	ReferralCommissionRate = decimal.RequireFromString("0.2")

	// MiningRewardPerHash is credited per hashrate unit on every mining tick
	MiningRewardPerHash = decimal.RequireFromString("0.0000001")

	// BoostHashrate is added by one boost
	BoostHashrate = decimal.NewFromInt(10)

	// AirdropAmount of the featured token granted by the airdrop quest
	AirdropAmount = decimal.NewFromInt(100)

	// MaxLeverage accepted on futures orders
	MaxLeverage = 125
)

const (
	// AmountScale is the number of decimals kept on stored amounts
	AmountScale = 8

	// InviteLinkBase is the registration link handed out by the referral program
	InviteLinkBase = "https://tsla-global.com/register?ref="

	VerificationCodeLength = 6
	InviteCodeLength       = 8

	ChatHistoryLimit = 100
)
