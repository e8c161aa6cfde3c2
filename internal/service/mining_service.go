package service

import (
	"context"
	"errors"
	"time"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/repository"
	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/logger"
	"tslaglobal/backend/pkg/redis"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MiningService runs the mining mini-game: rig catalog, purchases, the
// per-tick reward loop, boosts and claims
type MiningService struct {
	redis       *redis.Client
	content     *repository.ContentRepository
	local       *repository.LocalStore
	txRepo      *repository.TransactionRepository
	locker      *AccountLocker
	tokens      *TokenService
	notifier    *NotificationService
	defaultRigs []model.MiningRig
	tick        time.Duration
	cooldown    time.Duration
	log         *logger.Logger
}

func NewMiningService(
	redisClient *redis.Client,
	content *repository.ContentRepository,
	local *repository.LocalStore,
	txRepo *repository.TransactionRepository,
	locker *AccountLocker,
	tokens *TokenService,
	notifier *NotificationService,
	defaultRigs []model.MiningRig,
	tick, cooldown time.Duration,
) *MiningService {
	if tick <= 0 {
		tick = time.Second
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &MiningService{
		redis:       redisClient,
		content:     content,
		local:       local,
		txRepo:      txRepo,
		locker:      locker,
		tokens:      tokens,
		notifier:    notifier,
		defaultRigs: defaultRigs,
		tick:        tick,
		cooldown:    cooldown,
		log:         logger.GetLogger().WithComponent("mining"),
	}
}

// ListRigs returns the rig catalog from Redis, the local store or the
// built-in defaults, in that order
func (s *MiningService) ListRigs(ctx context.Context) []model.MiningRig {
	rigs, err := s.content.GetRigs(ctx)
	if err == nil && len(rigs) > 0 {
		return rigs
	}
	if err != nil {
		s.log.Warnf("Redis rig read failed, using local store: %v", err)
	}
	if s.local != nil {
		if local, err := s.local.ListRigs(ctx); err == nil && len(local) > 0 {
			return local
		}
	}
	return append([]model.MiningRig(nil), s.defaultRigs...)
}

func (s *MiningService) findRig(ctx context.Context, rigID string) (*model.MiningRig, []model.MiningRig, error) {
	rigs := s.ListRigs(ctx)
	for i := range rigs {
		if rigs[i].ID == rigID {
			return &rigs[i], rigs, nil
		}
	}
	return nil, rigs, util.ErrNotFound("Rig not found")
}

// SaveRigs stores the catalog in Redis and mirrors it locally
func (s *MiningService) SaveRigs(ctx context.Context, rigs []model.MiningRig) error {
	redisErr := s.content.SaveRigs(ctx, rigs)
	if redisErr != nil {
		s.log.Warnf("Redis rig write failed, continuing in local mode: %v", redisErr)
	}
	if s.local != nil {
		if err := s.local.ReplaceRigs(ctx, rigs); err != nil {
			if redisErr != nil {
				return util.Internal("Failed to save rig catalog", err)
			}
			s.log.Warnf("Local rig mirror failed: %v", err)
		}
		return nil
	}
	if redisErr != nil {
		return util.Internal("Failed to save rig catalog", redisErr)
	}
	return nil
}

// UpdateRig edits one catalog entry
func (s *MiningService) UpdateRig(ctx context.Context, rigID string, req *model.UpdateRigRequest) (*model.MiningRig, error) {
	rig, rigs, err := s.findRig(ctx, rigID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != "" {
		rig.Name = *req.Name
	}
	if req.Hashrate != nil {
		if err := util.RequirePositive("hashrate", *req.Hashrate); err != nil {
			return nil, err
		}
		rig.Hashrate = *req.Hashrate
	}
	if req.Cost != nil {
		if req.Cost.IsNegative() {
			return nil, util.ErrValidation("cost must not be negative")
		}
		rig.Cost = *req.Cost
	}
	if req.DailyOutput != nil {
		if req.DailyOutput.IsNegative() {
			return nil, util.ErrValidation("daily_output must not be negative")
		}
		rig.DailyOutput = *req.DailyOutput
	}

	if err := s.SaveRigs(ctx, rigs); err != nil {
		return nil, err
	}
	return rig, nil
}

func ownRig(user *model.User, rig *model.MiningRig) {
	user.Rigs = append(user.Rigs, model.OwnedRig{
		ID:          uuid.New().String(),
		RigID:       rig.ID,
		Name:        rig.Name,
		Hashrate:    rig.Hashrate,
		DailyOutput: rig.DailyOutput,
		PurchasedAt: time.Now(),
	})
	user.Hashrate = user.Hashrate.Add(rig.Hashrate)
}

// BuyRig pays a rig's cost from the funding wallet
func (s *MiningService) BuyRig(ctx context.Context, userID, rigID string) (*model.MiningStatus, error) {
	rig, _, err := s.findRig(ctx, rigID)
	if err != nil {
		return nil, err
	}

	user, err := s.locker.MutateWith(ctx, userID, func(user *model.User, pipe redis.Pipeliner) error {
		if err := requireActive(user); err != nil {
			return err
		}
		if err := user.FundingWallet.Debit(model.QuoteSymbol, rig.Cost); err != nil {
			return balanceError(err, model.QuoteSymbol)
		}
		ownRig(user, rig)

		tx := newTransaction(user.ID, model.TxRigPurchase, model.QuoteSymbol, rig.Cost, model.TxCompleted)
		tx.Account = model.AccountFunding
		tx.Note = rig.Name
		return s.txRepo.StageCreate(ctx, pipe, tx)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyBalance(ctx, user)
	s.notifier.Toast(ctx, userID, model.NotifySuccess, rig.Name+" purchased")
	return s.status(ctx, user), nil
}

// AddRigToUser grants a catalog rig without charging for it
func (s *MiningService) AddRigToUser(ctx context.Context, userID, rigID string) (*model.User, error) {
	rig, _, err := s.findRig(ctx, rigID)
	if err != nil {
		return nil, err
	}

	user, err := s.locker.Mutate(ctx, userID, func(user *model.User) error {
		ownRig(user, rig)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Toast(ctx, userID, model.NotifySuccess, "You received a "+rig.Name)
	return user, nil
}

// Start adds the user to the set of miners credited every tick
func (s *MiningService) Start(ctx context.Context, userID string) (*model.MiningStatus, error) {
	var status *model.MiningStatus
	err := s.locker.WithUser(ctx, userID, func(user *model.User) error {
		if err := requireActive(user); err != nil {
			return err
		}
		if !user.Hashrate.IsPositive() {
			return util.ErrBadRequest("Buy a rig or boost before mining")
		}
		if err := s.redis.SAdd(ctx, redis.ActiveMinersKey(), user.ID); err != nil {
			return util.Internal("Failed to start mining", err)
		}
		status = s.status(ctx, user)
		return nil
	})
	return status, err
}

// Stop removes the user from the active miners
func (s *MiningService) Stop(ctx context.Context, userID string) (*model.MiningStatus, error) {
	var status *model.MiningStatus
	err := s.locker.WithUser(ctx, userID, func(user *model.User) error {
		if err := s.redis.SRem(ctx, redis.ActiveMinersKey(), user.ID); err != nil {
			return util.Internal("Failed to stop mining", err)
		}
		status = s.status(ctx, user)
		return nil
	})
	return status, err
}

// Boost adds BoostHashrate, at most once per cooldown
func (s *MiningService) Boost(ctx context.Context, userID string) (*model.MiningStatus, error) {
	user, err := s.locker.MutateWith(ctx, userID, func(user *model.User, pipe redis.Pipeliner) error {
		if err := requireActive(user); err != nil {
			return err
		}
		// the account lock serializes boosts, so check-then-set is safe and
		// the cooldown only starts if the hashrate is saved with it
		cooling, err := s.redis.Exists(ctx, redis.BoostCooldownKey(user.ID))
		if err != nil {
			return util.Internal("Failed to apply boost", err)
		}
		if cooling {
			return util.ErrRateLimit("Boost is cooling down")
		}
		pipe.Set(ctx, redis.BoostCooldownKey(user.ID), "1", s.cooldown)
		user.Hashrate = user.Hashrate.Add(util.BoostHashrate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.status(ctx, user), nil
}

// Claim moves the mining balance into the funding wallet as the featured token
func (s *MiningService) Claim(ctx context.Context, userID string) (*model.Transaction, error) {
	symbol := s.tokens.FeaturedSymbol(ctx)

	var tx *model.Transaction
	user, err := s.locker.MutateWith(ctx, userID, func(user *model.User, pipe redis.Pipeliner) error {
		if err := requireActive(user); err != nil {
			return err
		}
		amount := util.FloorAmount(user.MiningBalance)
		if !amount.IsPositive() {
			return util.ErrBadRequest("Nothing to claim")
		}
		user.MiningBalance = user.MiningBalance.Sub(amount)
		user.FundingWallet.Credit(symbol, amount)

		tx = newTransaction(user.ID, model.TxMining, symbol, amount, model.TxCompleted)
		tx.Account = model.AccountFunding
		return s.txRepo.StageCreate(ctx, pipe, tx)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyBalance(ctx, user)
	s.notifier.Toast(ctx, userID, model.NotifySuccess, "Claimed "+tx.Amount.String()+" "+symbol)
	return tx, nil
}

// Status returns the mining panel of a user
func (s *MiningService) Status(ctx context.Context, user *model.User) *model.MiningStatus {
	return s.status(ctx, user)
}

func (s *MiningService) status(ctx context.Context, user *model.User) *model.MiningStatus {
	active, err := s.redis.SIsMember(ctx, redis.ActiveMinersKey(), user.ID)
	if err != nil {
		s.log.Warnf("Failed to read miner state for %s: %v", user.ID, err)
	}

	var readyIn int64
	if ttl, err := s.redis.TTL(ctx, redis.BoostCooldownKey(user.ID)); err == nil && ttl > 0 {
		readyIn = int64(ttl.Round(time.Second).Seconds())
	}

	rigs := user.Rigs
	if rigs == nil {
		rigs = []model.OwnedRig{}
	}
	return &model.MiningStatus{
		Active:        active,
		Hashrate:      user.Hashrate,
		MiningBalance: user.MiningBalance,
		RewardPerTick: rewardFor(user.Hashrate),
		TickSeconds:   s.tick.Seconds(),
		Symbol:        s.tokens.FeaturedSymbol(ctx),
		Rigs:          rigs,
		BoostReadyIn:  readyIn,
	}
}

func rewardFor(hashrate decimal.Decimal) decimal.Decimal {
	return hashrate.Mul(util.MiningRewardPerHash)
}

// Tick credits one reward to every active miner. Frozen or vanished users
// are dropped from the active set.
func (s *MiningService) Tick(ctx context.Context) (int, error) {
	ids, err := s.redis.SMembers(ctx, redis.ActiveMinersKey())
	if err != nil {
		return 0, err
	}

	credited := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return credited, ctx.Err()
		}
		_, err := s.locker.Mutate(ctx, id, func(user *model.User) error {
			if user.IsFrozen || !user.Hashrate.IsPositive() {
				return errStopMining
			}
			user.MiningBalance = user.MiningBalance.Add(rewardFor(user.Hashrate))
			return nil
		})
		switch {
		case err == nil:
			credited++
		case errors.Is(err, errStopMining) || isNotFound(err):
			_ = s.redis.SRem(ctx, redis.ActiveMinersKey(), id)
		default:
			s.log.Debugf("Skipping mining tick for %s: %v", id, err)
		}
	}
	return credited, nil
}

var errStopMining = util.ErrBadRequest("mining stopped")

// Run credits active miners every tick until ctx is cancelled
func (s *MiningService) Run(ctx context.Context) error {
	s.log.Infof("Miner started (tick=%s)", s.tick)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Miner stopped")
			return nil
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil && ctx.Err() == nil {
				s.log.Errorf("Mining tick failed: %v", err)
			}
		}
	}
}
