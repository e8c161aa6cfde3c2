package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/repository"
	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/logger"

	"github.com/shopspring/decimal"
)

// TokenService manages admin-issued tokens. Redis is the primary store and
// every write is mirrored to the local SQLite store, which also serves reads
// while Redis is down or empty.
type TokenService struct {
	tokenRepo *repository.TokenRepository
	local     *repository.LocalStore
	initial   model.CustomTokenConfig
	log       *logger.Logger

	mu       sync.RWMutex
	onChange []func(ctx context.Context)
}

func NewTokenService(tokenRepo *repository.TokenRepository, local *repository.LocalStore, initial model.CustomTokenConfig) *TokenService {
	initial.Symbol = util.NormalizeSymbol(initial.Symbol)
	return &TokenService{
		tokenRepo: tokenRepo,
		local:     local,
		initial:   initial,
		log:       logger.GetLogger().WithComponent("tokens"),
	}
}

// OnChange registers a hook run after every successful write
func (s *TokenService) OnChange(fn func(ctx context.Context)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

func (s *TokenService) changed(ctx context.Context) {
	s.mu.RLock()
	hooks := append([]func(context.Context){}, s.onChange...)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

// List returns all tokens, newest first. The local store answers when Redis
// fails or holds no tokens.
func (s *TokenService) List(ctx context.Context) ([]*model.CustomTokenConfig, error) {
	tokens, err := s.tokenRepo.List(ctx)
	if err == nil && len(tokens) > 0 {
		return tokens, nil
	}
	if err != nil {
		s.log.Warnf("Redis token read failed, using local store: %v", err)
	}
	if s.local == nil {
		return tokens, err
	}

	localTokens, localErr := s.local.ListTokens(ctx)
	if localErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, localErr
	}
	return localTokens, nil
}

// ListEnabled returns the tokens that should be listed on the market
func (s *TokenService) ListEnabled(ctx context.Context) ([]*model.CustomTokenConfig, error) {
	tokens, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := tokens[:0]
	for _, t := range tokens {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out, nil
}

// Get looks a token up by symbol, falling back to the local store
func (s *TokenService) Get(ctx context.Context, symbol string) (*model.CustomTokenConfig, error) {
	symbol = util.NormalizeSymbol(symbol)

	token, err := s.tokenRepo.Get(ctx, symbol)
	if err == nil {
		return token, nil
	}
	if s.local != nil {
		if local, localErr := s.local.GetToken(ctx, symbol); localErr == nil && local != nil {
			return local, nil
		}
	}
	if errors.Is(err, repository.ErrTokenNotFound) {
		return nil, util.ErrNotFound("Token not found")
	}
	return nil, util.Internal("Failed to load token", err)
}

// Featured returns the most recently created enabled token, or the
// configured initial token when none is enabled
func (s *TokenService) Featured(ctx context.Context) model.CustomTokenConfig {
	tokens, err := s.ListEnabled(ctx)
	if err != nil || len(tokens) == 0 {
		return s.initial
	}
	return *tokens[0]
}

// FeaturedSymbol is the asset mining rewards and airdrops are paid in
func (s *TokenService) FeaturedSymbol(ctx context.Context) string {
	return util.NormalizeSymbol(s.Featured(ctx).Symbol)
}

// Issue creates or replaces a token
func (s *TokenService) Issue(ctx context.Context, req *model.IssueTokenRequest) (*model.TokenWriteResult, error) {
	if err := util.RequirePositive("price", req.Price); err != nil {
		return nil, err
	}
	if req.Supply.IsNegative() || req.Volume24h.IsNegative() || req.MinWithdraw.IsNegative() {
		return nil, util.ErrValidation("supply, volume_24h and min_withdraw must not be negative")
	}
	if err := validFeeRate(req.FeeRate); err != nil {
		return nil, err
	}

	now := time.Now()
	token := &model.CustomTokenConfig{
		Symbol:             util.NormalizeSymbol(req.Symbol),
		Name:               req.Name,
		Price:              req.Price,
		PriceChangePercent: req.PriceChangePercent,
		Supply:             req.Supply,
		Volume24h:          req.Volume24h,
		Description:        req.Description,
		Enabled:            true,
		ContractAddress:    req.ContractAddress,
		LogoURL:            req.LogoURL,
		MinWithdraw:        req.MinWithdraw,
		FeeRate:            req.FeeRate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	// an upsert keeps the original creation time
	if existing, err := s.tokenRepo.Get(ctx, token.Symbol); err == nil {
		token.CreatedAt = existing.CreatedAt
	}

	return s.write(ctx, token)
}

// Update applies a partial update to an existing token
func (s *TokenService) Update(ctx context.Context, symbol string, req *model.UpdateTokenRequest) (*model.TokenWriteResult, error) {
	token, err := s.Get(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		token.Name = *req.Name
	}
	if req.Price != nil {
		if err := util.RequirePositive("price", *req.Price); err != nil {
			return nil, err
		}
		token.Price = *req.Price
	}
	if req.PriceChangePercent != nil {
		token.PriceChangePercent = *req.PriceChangePercent
	}
	if req.Volume24h != nil {
		if req.Volume24h.IsNegative() {
			return nil, util.ErrValidation("volume_24h must not be negative")
		}
		token.Volume24h = *req.Volume24h
	}
	if req.Description != nil {
		token.Description = *req.Description
	}
	if req.LogoURL != nil {
		token.LogoURL = *req.LogoURL
	}
	if req.Enabled != nil {
		token.Enabled = *req.Enabled
	}
	if req.MinWithdraw != nil {
		if req.MinWithdraw.IsNegative() {
			return nil, util.ErrValidation("min_withdraw must not be negative")
		}
		token.MinWithdraw = *req.MinWithdraw
	}
	if req.FeeRate != nil {
		if err := validFeeRate(*req.FeeRate); err != nil {
			return nil, err
		}
		token.FeeRate = *req.FeeRate
	}
	token.UpdatedAt = time.Now()

	return s.write(ctx, token)
}

// write stores the token in Redis and mirrors it locally. A Redis failure
// still succeeds in local mode. Only a failure of both stores is an error.
func (s *TokenService) write(ctx context.Context, token *model.CustomTokenConfig) (*model.TokenWriteResult, error) {
	result := &model.TokenWriteResult{Token: token}

	redisErr := s.tokenRepo.Upsert(ctx, token)
	if redisErr != nil {
		s.log.Warnf("Redis token write failed for %s, continuing in local mode: %v", token.Symbol, redisErr)
		result.LocalMode = true
	}

	if s.local != nil {
		if err := s.local.UpsertToken(ctx, token); err != nil {
			if redisErr != nil {
				return nil, util.Internal("Failed to save token", errors.Join(redisErr, err))
			}
			s.log.Warnf("Local token mirror failed for %s: %v", token.Symbol, err)
		}
	} else if redisErr != nil {
		return nil, util.Internal("Failed to save token", redisErr)
	}

	s.changed(ctx)
	return result, nil
}

// Delete removes a token from both stores
func (s *TokenService) Delete(ctx context.Context, symbol string) (*model.TokenWriteResult, error) {
	symbol = util.NormalizeSymbol(symbol)
	if _, err := s.Get(ctx, symbol); err != nil {
		return nil, err
	}

	result := &model.TokenWriteResult{}
	redisErr := s.tokenRepo.Delete(ctx, symbol)
	if redisErr != nil {
		s.log.Warnf("Redis token delete failed for %s: %v", symbol, redisErr)
		result.LocalMode = true
	}
	if s.local != nil {
		if err := s.local.DeleteToken(ctx, symbol); err != nil && redisErr != nil {
			return nil, util.Internal("Failed to delete token", errors.Join(redisErr, err))
		}
	}

	s.changed(ctx)
	return result, nil
}

func validFeeRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return util.ErrValidation("fee_rate must be in [0, 1)")
	}
	return nil
}
