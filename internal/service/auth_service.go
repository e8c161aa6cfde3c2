package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"tslaglobal/backend/internal/config"
	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/repository"
	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/crypto"
	"tslaglobal/backend/pkg/jwt"
	"tslaglobal/backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuthService handles registration, login and token lifecycle
type AuthService struct {
	userRepo     *repository.UserRepository
	locker       *AccountLocker
	jwtManager   *jwt.JWTManager
	cfg          config.ExchangeConfig
	passwordCost int
	log          *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, locker *AccountLocker, jwtManager *jwt.JWTManager, cfg config.ExchangeConfig) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		locker:       locker,
		jwtManager:   jwtManager,
		cfg:          cfg,
		passwordCost: crypto.BcryptCost,
		log:          logger.GetLogger().WithComponent("auth"),
	}
}

// SetPasswordCost overrides the bcrypt cost used for new hashes
func (s *AuthService) SetPasswordCost(cost int) {
	s.passwordCost = cost
}

func invalidCredentials() *util.AppError {
	return util.NewAppError(http.StatusUnauthorized, util.ErrCodeInvalidCredentials, "Invalid email or password")
}

// SendVerificationCode stores a fresh code for email. Delivery is simulated:
// the code is logged and, outside production, returned to the caller.
func (s *AuthService) SendVerificationCode(ctx context.Context, req *model.SendCodeRequest) (*model.SendCodeResponse, error) {
	email := normalizeEmail(req.Email)

	code, err := crypto.GenerateNumericCode(util.VerificationCodeLength)
	if err != nil {
		return nil, util.Internal("Failed to generate code", err)
	}

	if err := s.userRepo.StoreVerificationCode(ctx, email, code, s.cfg.VerificationCodeTTL); err != nil {
		return nil, util.Internal("Failed to store verification code", err)
	}
	s.log.Debugf("Verification code for %s: %s", email, code)

	resp := &model.SendCodeResponse{
		Email:     email,
		ExpiresIn: int64(s.cfg.VerificationCodeTTL.Seconds()),
	}
	if s.cfg.ExposeVerifyCode {
		resp.Code = code
	}
	return resp, nil
}

// Register creates an account after checking the emailed code
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest, userAgent, ip string) (*model.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	if !crypto.ValidatePasswordStrength(req.Password) {
		return nil, util.ErrValidation("Password must be 8-72 characters")
	}

	stored, err := s.userRepo.ConsumeVerificationCode(ctx, email)
	if err != nil {
		return nil, util.Internal("Failed to verify code", err)
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(req.Code)) != 1 {
		return nil, util.NewAppError(http.StatusBadRequest, util.ErrCodeInvalidCode, "Invalid or expired verification code")
	}

	var inviter *model.User
	if code := strings.TrimSpace(req.InviteCode); code != "" {
		inviter, err = s.userRepo.GetByInviteCode(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, util.ErrValidation("Invite code does not exist")
			}
			return nil, util.Internal("Failed to resolve invite code", err)
		}
	}

	passwordHash, err := crypto.HashPasswordWithCost(req.Password, s.passwordCost)
	if err != nil {
		return nil, util.Internal("Failed to hash password", err)
	}

	inviteCode, err := s.newInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	role := model.RoleUser
	if s.cfg.IsAdminEmail(email) {
		role = model.RoleAdmin
	}

	feeRate := s.cfg.DefaultFeeRate
	if feeRate.IsZero() {
		feeRate = util.DefaultFeeRate
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		KYCLevel:     0,
		RiskLevel:    model.RiskLow,
		FeeRate:      feeRate,
		FundingWallet: model.Wallet{
			{Symbol: model.QuoteSymbol, Amount: s.cfg.WelcomeUSDT},
			{Symbol: "BTC", Amount: decimal.Zero},
		},
		TradingWallet: model.Wallet{
			{Symbol: model.QuoteSymbol, Amount: decimal.Zero},
		},
		MiningBalance:    decimal.Zero,
		Hashrate:         decimal.Zero,
		Rigs:             []model.OwnedRig{},
		InviteCode:       inviteCode,
		ReferralEarnings: decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if inviter != nil {
		user.ReferredBy = inviter.ID
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, util.ErrConflict("Email already registered")
		}
		return nil, util.Internal("Failed to create user", err)
	}

	if inviter != nil {
		if _, err := s.locker.Mutate(ctx, inviter.ID, func(u *model.User) error {
			u.ReferralCount++
			return nil
		}); err != nil {
			s.log.Warnf("Failed to bump referral count of %s: %v", inviter.ID, err)
		}
	}

	s.log.Infof("User registered: %s (role=%s)", user.ID, user.Role)
	return s.issueTokens(ctx, user, userAgent, ip)
}

func (s *AuthService) newInviteCode(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		code, err := crypto.GenerateInviteCode(util.InviteCodeLength)
		if err != nil {
			return "", util.Internal("Failed to generate invite code", err)
		}
		exists, err := s.userRepo.InviteCodeExists(ctx, code)
		if err != nil {
			return "", util.Internal("Failed to check invite code", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", util.Internal("Failed to allocate a unique invite code", nil)
}

// Login authenticates a user and returns tokens. Frozen accounts may log in
// but every mutation is rejected afterwards.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest, userAgent, ip string) (*model.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, invalidCredentials()
		}
		return nil, util.Internal("Failed to load user", err)
	}

	if !crypto.CheckPassword(req.Password, user.PasswordHash) {
		return nil, invalidCredentials()
	}

	resp, err := s.issueTokens(ctx, user, userAgent, ip)
	if err != nil {
		return nil, err
	}

	// the login stamp rewrites the whole document, so it goes through the
	// account lock like any wallet mutation
	if _, err := s.locker.Mutate(ctx, user.ID, func(u *model.User) error {
		now := time.Now()
		u.LastLoginAt = &now
		return nil
	}); err != nil {
		s.log.Warnf("Failed to update last login for %s: %v", user.ID, err)
	}

	return resp, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User, userAgent, ip string) (*model.AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, util.Internal("Failed to generate access token", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, util.Internal("Failed to generate refresh token", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.jwtManager.RefreshTokenDuration()),
		CreatedAt:    now,
		UserAgent:    userAgent,
		IP:           ip,
	}
	if err := s.userRepo.CreateSession(ctx, session); err != nil {
		return nil, util.Internal("Failed to create session", err)
	}

	return &model.AuthResponse{
		User:         user.ToProfile(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.AccessTokenDuration().Seconds()),
	}, nil
}

// RefreshToken issues a new access token for a valid refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*model.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateTyped(refreshToken, jwt.TokenTypeRefresh)
	if err != nil {
		return nil, util.NewAppError(http.StatusUnauthorized, util.ErrCodeTokenInvalid, "Invalid refresh token")
	}

	blacklisted, err := s.userRepo.IsTokenBlacklisted(ctx, refreshToken)
	if err != nil {
		return nil, util.Internal("Failed to check token status", err)
	}
	if blacklisted {
		return nil, util.NewAppError(http.StatusUnauthorized, util.ErrCodeTokenInvalid, "Token has been revoked")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, util.NewAppError(http.StatusUnauthorized, util.ErrCodeTokenInvalid, "User no longer exists")
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, util.Internal("Failed to generate access token", err)
	}

	return &model.AuthResponse{
		User:         user.ToProfile(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.AccessTokenDuration().Seconds()),
	}, nil
}

// Logout blacklists both tokens until they would have expired anyway
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	for _, token := range []string{accessToken, refreshToken} {
		if token == "" {
			continue
		}
		claims, err := s.jwtManager.ValidateToken(token)
		if err != nil {
			continue
		}
		if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
			if err := s.userRepo.BlacklistToken(ctx, token, ttl); err != nil {
				return util.Internal("Failed to revoke token", err)
			}
		}
	}
	return nil
}

// ValidateToken validates an access token and returns the user behind it
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.jwtManager.ValidateTyped(token, jwt.TokenTypeAccess)
	if err != nil {
		return nil, util.NewAppError(http.StatusUnauthorized, util.ErrCodeTokenInvalid, "Invalid token")
	}

	blacklisted, err := s.userRepo.IsTokenBlacklisted(ctx, token)
	if err != nil {
		return nil, util.Internal("Failed to check token status", err)
	}
	if blacklisted {
		return nil, util.NewAppError(http.StatusUnauthorized, util.ErrCodeTokenInvalid, "Token has been revoked")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, util.NewAppError(http.StatusUnauthorized, util.ErrCodeTokenInvalid, "User no longer exists")
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
