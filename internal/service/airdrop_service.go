package service

import (
	"context"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/repository"
	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/redis"
)

// AirdropService pays the one-off featured token quest
type AirdropService struct {
	redis    *redis.Client
	txRepo   *repository.TransactionRepository
	locker   *AccountLocker
	tokens   *TokenService
	notifier *NotificationService
}

func NewAirdropService(
	redisClient *redis.Client,
	txRepo *repository.TransactionRepository,
	locker *AccountLocker,
	tokens *TokenService,
	notifier *NotificationService,
) *AirdropService {
	return &AirdropService{
		redis:    redisClient,
		txRepo:   txRepo,
		locker:   locker,
		tokens:   tokens,
		notifier: notifier,
	}
}

// Status reports the quest progress. A deposit counts once the funding
// wallet holds anything, a trade once the trading wallet does.
func (s *AirdropService) Status(ctx context.Context, user *model.User) (*model.AirdropStatus, error) {
	claimed, err := s.redis.Exists(ctx, redis.AirdropClaimKey(user.ID))
	if err != nil {
		return nil, util.Internal("Failed to read airdrop state", err)
	}

	hasDeposit := user.FundingWallet.HasPositive()
	hasTrade := user.TradingWallet.HasPositive()
	return &model.AirdropStatus{
		HasDeposit: hasDeposit,
		HasTrade:   hasTrade,
		Eligible:   hasDeposit && hasTrade && !claimed,
		Claimed:    claimed,
		Symbol:     s.tokens.FeaturedSymbol(ctx),
		Amount:     util.AirdropAmount,
	}, nil
}

// Claim credits the airdrop once per user
func (s *AirdropService) Claim(ctx context.Context, userID string) (*model.Transaction, error) {
	symbol := s.tokens.FeaturedSymbol(ctx)

	var tx *model.Transaction
	user, err := s.locker.MutateWith(ctx, userID, func(user *model.User, pipe redis.Pipeliner) error {
		if err := requireActive(user); err != nil {
			return err
		}
		if !user.FundingWallet.HasPositive() || !user.TradingWallet.HasPositive() {
			return util.ErrBadRequest("Fund both your funding and trading wallets to qualify")
		}

		// claims of one user are serialized by the account lock; the marker
		// is committed together with the credit
		claimed, err := s.redis.Exists(ctx, redis.AirdropClaimKey(user.ID))
		if err != nil {
			return util.Internal("Failed to claim airdrop", err)
		}
		if claimed {
			return util.ErrConflict("Airdrop already claimed")
		}
		pipe.Set(ctx, redis.AirdropClaimKey(user.ID), symbol, 0)

		user.FundingWallet.Credit(symbol, util.AirdropAmount)
		tx = newTransaction(user.ID, model.TxAirdrop, symbol, util.AirdropAmount, model.TxCompleted)
		tx.Account = model.AccountFunding
		if err := s.txRepo.StageCreate(ctx, pipe, tx); err != nil {
			return util.Internal("Failed to record airdrop", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyBalance(ctx, user)
	s.notifier.Toast(ctx, userID, model.NotifySuccess, "Airdrop of "+util.AirdropAmount.String()+" "+symbol+" received")
	return tx, nil
}
