package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// User is a profile row: identity, wallets, mining state and referral data
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"` // never leaves the service, see ToProfile
	Role         string `json:"role"`

	IsFrozen  bool            `json:"is_frozen"`
	KYCLevel  int             `json:"kyc_level"`
	RiskLevel string          `json:"risk_level"`
	FeeRate   decimal.Decimal `json:"fee_rate"`

	FundingWallet Wallet `json:"funding_wallet"`
	TradingWallet Wallet `json:"trading_wallet"`

	MiningBalance decimal.Decimal `json:"mining_balance"`
	Hashrate      decimal.Decimal `json:"hashrate"`
	Rigs          []OwnedRig      `json:"rigs"`

	InviteCode       string          `json:"invite_code"`
	ReferredBy       string          `json:"referred_by,omitempty"`
	ReferralCount    int             `json:"referral_count"`
	ReferralEarnings decimal.Decimal `json:"referral_earnings"`

	ExternalWalletAddress string `json:"external_wallet_address,omitempty"`
	TwoFactorEnabled      bool   `json:"two_factor_enabled"`
	KYCFullName           string `json:"kyc_full_name,omitempty"`
	KYCDocumentNumber     string `json:"kyc_document_number,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Wallet returns the wallet backing the given account
func (u *User) Wallet(account AccountType) *Wallet {
	if account == AccountTrading {
		return &u.TradingWallet
	}
	return &u.FundingWallet
}

// Profile is the user as shown to its owner and to admins
type Profile struct {
	ID                    string          `json:"id"`
	Email                 string          `json:"email"`
	IsAdmin               bool            `json:"is_admin"`
	IsFrozen              bool            `json:"is_frozen"`
	KYCLevel              int             `json:"kyc_level"`
	RiskLevel             string          `json:"risk_level"`
	FeeRate               decimal.Decimal `json:"fee_rate"`
	FundingWallet         Wallet          `json:"funding_wallet"`
	TradingWallet         Wallet          `json:"trading_wallet"`
	MiningBalance         decimal.Decimal `json:"mining_balance"`
	Hashrate              decimal.Decimal `json:"hashrate"`
	Rigs                  []OwnedRig      `json:"rigs"`
	InviteCode            string          `json:"invite_code"`
	ReferralCount         int             `json:"referral_count"`
	ReferralEarnings      decimal.Decimal `json:"referral_earnings"`
	ExternalWalletAddress string          `json:"external_wallet_address,omitempty"`
	TwoFactorEnabled      bool            `json:"two_factor_enabled"`
	KYCFullName           string          `json:"kyc_full_name,omitempty"`
	KYCDocumentNumber     string          `json:"kyc_document_number,omitempty"`
	RegisterDate          time.Time       `json:"register_date"`
	LastLogin             *time.Time      `json:"last_login,omitempty"`
}

// ToProfile strips secrets and masks the KYC document number
func (u *User) ToProfile() *Profile {
	rigs := u.Rigs
	if rigs == nil {
		rigs = []OwnedRig{}
	}
	return &Profile{
		ID:                    u.ID,
		Email:                 u.Email,
		IsAdmin:               u.IsAdmin(),
		IsFrozen:              u.IsFrozen,
		KYCLevel:              u.KYCLevel,
		RiskLevel:             u.RiskLevel,
		FeeRate:               u.FeeRate,
		FundingWallet:         u.FundingWallet.Normalized(),
		TradingWallet:         u.TradingWallet.Normalized(),
		MiningBalance:         u.MiningBalance,
		Hashrate:              u.Hashrate,
		Rigs:                  rigs,
		InviteCode:            u.InviteCode,
		ReferralCount:         u.ReferralCount,
		ReferralEarnings:      u.ReferralEarnings,
		ExternalWalletAddress: u.ExternalWalletAddress,
		TwoFactorEnabled:      u.TwoFactorEnabled,
		KYCFullName:           u.KYCFullName,
		KYCDocumentNumber:     MaskTail(u.KYCDocumentNumber, 4),
		RegisterDate:          u.CreatedAt,
		LastLogin:             u.LastLoginAt,
	}
}

// MaskTail keeps the last n characters of s and replaces the rest with '*'
func MaskTail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.Repeat("*", len(s)-n) + s[len(s)-n:]
}

// MaskEmail renders "alice@example.com" as "al***@example.com"
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return email
	}
	keep := 2
	if at < keep {
		keep = at
	}
	return email[:keep] + "***" + email[at:]
}

// SendCodeRequest asks for an email verification code
type SendCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SendCodeResponse carries the code only outside production
type SendCodeResponse struct {
	Email     string `json:"email"`
	ExpiresIn int64  `json:"expires_in"`
	Code      string `json:"code,omitempty"`
}

type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
	Code       string `json:"code" binding:"required,len=6,numeric"`
	InviteCode string `json:"invite_code" binding:"omitempty,alphanum,max=16"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

type BindWalletRequest struct {
	Address string `json:"address" binding:"required,max=128"`
}

type SubmitKYCRequest struct {
	FullName       string `json:"full_name" binding:"required,min=2,max=100"`
	DocumentNumber string `json:"document_number" binding:"required,min=4,max=40"`
}

// AdminUpdateUserRequest is a partial update; nil fields are left untouched
type AdminUpdateUserRequest struct {
	IsFrozen      *bool            `json:"is_frozen"`
	IsAdmin       *bool            `json:"is_admin"`
	KYCLevel      *int             `json:"kyc_level" binding:"omitempty,min=0,max=3"`
	RiskLevel     *string          `json:"risk_level" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	FeeRate       *decimal.Decimal `json:"fee_rate"`
	FundingWallet Wallet           `json:"funding_wallet"`
	TradingWallet Wallet           `json:"trading_wallet"`
	MiningBalance *decimal.Decimal `json:"mining_balance"`
	Hashrate      *decimal.Decimal `json:"hashrate"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *Profile `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"` // seconds
}

// Session represents a refresh-token session
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UserAgent    string    `json:"user_agent"`
	IP           string    `json:"ip"`
}

// ReferralInfo summarizes the invite program for one user
type ReferralInfo struct {
	InviteCode    string          `json:"invite_code"`
	InviteLink    string          `json:"invite_link"`
	TotalInvited  int             `json:"total_invited"`
	TotalEarned   decimal.Decimal `json:"total_earned"`
	CommissionPct decimal.Decimal `json:"commission_pct"`
}
