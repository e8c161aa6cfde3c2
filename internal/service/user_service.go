package service

import (
	"context"
	"errors"
	"strings"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/repository"
	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/crypto"
	"tslaglobal/backend/pkg/logger"
	"tslaglobal/backend/pkg/redis"

	"github.com/shopspring/decimal"
)

// UserService handles the user center and the admin user console
type UserService struct {
	userRepo           *repository.UserRepository
	orderRepo          *repository.OrderRepository
	txRepo             *repository.TransactionRepository
	redis              *redis.Client
	locker             *AccountLocker
	notifier           *NotificationService
	referralCommission decimal.Decimal
	passwordCost       int
	log                *logger.Logger
}

func NewUserService(
	userRepo *repository.UserRepository,
	orderRepo *repository.OrderRepository,
	txRepo *repository.TransactionRepository,
	redisClient *redis.Client,
	locker *AccountLocker,
	notifier *NotificationService,
	referralCommission decimal.Decimal,
) *UserService {
	if referralCommission.IsZero() {
		referralCommission = util.ReferralCommissionRate
	}
	return &UserService{
		userRepo:           userRepo,
		orderRepo:          orderRepo,
		txRepo:             txRepo,
		redis:              redisClient,
		locker:             locker,
		notifier:           notifier,
		referralCommission: referralCommission,
		passwordCost:       crypto.BcryptCost,
		log:                logger.GetLogger().WithComponent("users"),
	}
}

// SetPasswordCost overrides the bcrypt cost used for new hashes
func (s *UserService) SetPasswordCost(cost int) {
	s.passwordCost = cost
}

// GetUser loads a user by id
func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, util.ErrNotFound("User not found")
		}
		return nil, util.Internal("Failed to load user", err)
	}
	return user, nil
}

// GetProfile returns the profile of a user
func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.ToProfile(), nil
}

// BindWallet stores the user's external withdrawal address
func (s *UserService) BindWallet(ctx context.Context, userID string, req *model.BindWalletRequest) (*model.Profile, error) {
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return nil, util.ErrValidation("address must not be empty")
	}

	user, err := s.locker.Mutate(ctx, userID, func(user *model.User) error {
		if err := requireActive(user); err != nil {
			return err
		}
		user.ExternalWalletAddress = address
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user.ToProfile(), nil
}

// SubmitKYC records identity details and raises the level to at least 1
func (s *UserService) SubmitKYC(ctx context.Context, userID string, req *model.SubmitKYCRequest) (*model.Profile, error) {
	user, err := s.locker.Mutate(ctx, userID, func(user *model.User) error {
		if err := requireActive(user); err != nil {
			return err
		}
		user.KYCFullName = strings.TrimSpace(req.FullName)
		user.KYCDocumentNumber = strings.TrimSpace(req.DocumentNumber)
		if user.KYCLevel < 1 {
			user.KYCLevel = 1
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Toast(ctx, userID, model.NotifySuccess, "Identity verification submitted")
	return user.ToProfile(), nil
}

// ToggleTwoFactor flips the 2FA flag
func (s *UserService) ToggleTwoFactor(ctx context.Context, userID string) (*model.Profile, error) {
	user, err := s.locker.Mutate(ctx, userID, func(user *model.User) error {
		if err := requireActive(user); err != nil {
			return err
		}
		user.TwoFactorEnabled = !user.TwoFactorEnabled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user.ToProfile(), nil
}

// ChangePassword replaces the password after checking the old one. Every
// session of the user is dropped.
func (s *UserService) ChangePassword(ctx context.Context, userID string, req *model.ChangePasswordRequest) error {
	if !crypto.ValidatePasswordStrength(req.NewPassword) {
		return util.ErrValidation("Password must be 8-72 characters")
	}

	_, err := s.locker.Mutate(ctx, userID, func(user *model.User) error {
		if !crypto.CheckPassword(req.OldPassword, user.PasswordHash) {
			return util.NewAppError(401, util.ErrCodeInvalidCredentials, "Current password is incorrect")
		}
		hash, err := crypto.HashPasswordWithCost(req.NewPassword, s.passwordCost)
		if err != nil {
			return util.Internal("Failed to hash password", err)
		}
		user.PasswordHash = hash
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.userRepo.DeleteUserSessions(ctx, userID); err != nil {
		s.log.Warnf("Failed to drop sessions of %s: %v", userID, err)
	}
	return nil
}

// GetReferralInfo summarizes the user's invite program
func (s *UserService) GetReferralInfo(ctx context.Context, userID string) (*model.ReferralInfo, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.ReferralInfo{
		InviteCode:    user.InviteCode,
		InviteLink:    util.InviteLinkBase + user.InviteCode,
		TotalInvited:  user.ReferralCount,
		TotalEarned:   user.ReferralEarnings,
		CommissionPct: s.referralCommission.Mul(decimal.NewFromInt(100)),
	}, nil
}

// ListUsers returns profiles newest first
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*model.Profile, int64, error) {
	users, total, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, util.Internal("Failed to list users", err)
	}

	profiles := make([]*model.Profile, len(users))
	for i, u := range users {
		profiles[i] = u.ToProfile()
	}
	return profiles, total, nil
}

// AdminUpdateUser applies a partial update. Wallets given in the request
// replace the stored ones.
func (s *UserService) AdminUpdateUser(ctx context.Context, userID string, req *model.AdminUpdateUserRequest) (*model.Profile, error) {
	if req.FeeRate != nil {
		if err := validFeeRate(*req.FeeRate); err != nil {
			return nil, err
		}
	}
	for _, w := range []model.Wallet{req.FundingWallet, req.TradingWallet} {
		if err := w.Validate(); err != nil {
			return nil, util.ErrValidation(err.Error())
		}
	}
	if req.MiningBalance != nil && req.MiningBalance.IsNegative() {
		return nil, util.ErrValidation("mining_balance must not be negative")
	}
	if req.Hashrate != nil && req.Hashrate.IsNegative() {
		return nil, util.ErrValidation("hashrate must not be negative")
	}

	user, err := s.locker.Mutate(ctx, userID, func(user *model.User) error {
		if req.IsFrozen != nil {
			user.IsFrozen = *req.IsFrozen
		}
		if req.IsAdmin != nil {
			user.Role = model.RoleUser
			if *req.IsAdmin {
				user.Role = model.RoleAdmin
			}
		}
		if req.KYCLevel != nil {
			user.KYCLevel = *req.KYCLevel
		}
		if req.RiskLevel != nil {
			user.RiskLevel = *req.RiskLevel
		}
		if req.FeeRate != nil {
			user.FeeRate = *req.FeeRate
		}
		if req.FundingWallet != nil {
			user.FundingWallet = req.FundingWallet.Normalized()
		}
		if req.TradingWallet != nil {
			user.TradingWallet = req.TradingWallet.Normalized()
		}
		if req.MiningBalance != nil {
			user.MiningBalance = *req.MiningBalance
		}
		if req.Hashrate != nil {
			user.Hashrate = *req.Hashrate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if user.IsFrozen {
		_ = s.redis.SRem(ctx, redis.ActiveMinersKey(), user.ID)
	}
	s.notifier.NotifyBalance(ctx, user)
	s.log.Infof("Admin updated user %s", user.ID)
	return user.ToProfile(), nil
}

// AdminResetPassword sets a new password and drops every session
func (s *UserService) AdminResetPassword(ctx context.Context, userID string, req *model.ResetPasswordRequest) error {
	if !crypto.ValidatePasswordStrength(req.NewPassword) {
		return util.ErrValidation("Password must be 8-72 characters")
	}
	hash, err := crypto.HashPasswordWithCost(req.NewPassword, s.passwordCost)
	if err != nil {
		return util.Internal("Failed to hash password", err)
	}

	if _, err := s.locker.Mutate(ctx, userID, func(user *model.User) error {
		user.PasswordHash = hash
		return nil
	}); err != nil {
		return err
	}

	if err := s.userRepo.DeleteUserSessions(ctx, userID); err != nil {
		s.log.Warnf("Failed to drop sessions of %s: %v", userID, err)
	}
	return nil
}

// AdminDeleteUser removes a user together with its orders and ledger
func (s *UserService) AdminDeleteUser(ctx context.Context, userID string) error {
	err := s.locker.WithUser(ctx, userID, func(user *model.User) error {
		if err := s.orderRepo.DeleteByUser(ctx, user.ID); err != nil {
			return util.Internal("Failed to delete orders", err)
		}
		if err := s.txRepo.DeleteByUser(ctx, user.ID); err != nil {
			return util.Internal("Failed to delete transactions", err)
		}
		if err := s.userRepo.Delete(ctx, user.ID); err != nil {
			return util.Internal("Failed to delete user", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Infof("Admin deleted user %s", userID)
	return nil
}
