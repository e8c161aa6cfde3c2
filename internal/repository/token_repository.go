package repository

import (
	"context"
	"errors"
	"strings"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/pkg/redis"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenRepository keeps custom tokens in Redis
type TokenRepository struct {
	redis *redis.Client
}

func NewTokenRepository(redisClient *redis.Client) *TokenRepository {
	return &TokenRepository{redis: redisClient}
}

// Upsert stores a token and indexes it by creation time
func (r *TokenRepository) Upsert(ctx context.Context, token *model.CustomTokenConfig) error {
	symbol := strings.ToUpper(token.Symbol)
	if err := r.redis.SetJSON(ctx, redis.CustomTokenKey(symbol), token, 0); err != nil {
		return err
	}
	return r.redis.ZAdd(ctx, redis.CustomTokensIndexKey(), redis.Z{
		Score:  float64(token.CreatedAt.UnixMilli()),
		Member: symbol,
	})
}

func (r *TokenRepository) Get(ctx context.Context, symbol string) (*model.CustomTokenConfig, error) {
	var token model.CustomTokenConfig
	if err := r.redis.GetJSON(ctx, redis.CustomTokenKey(symbol), &token); err != nil {
		if err == redis.Nil {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

// List returns all tokens, newest first
func (r *TokenRepository) List(ctx context.Context) ([]*model.CustomTokenConfig, error) {
	symbols, err := r.redis.ZRevRange(ctx, redis.CustomTokensIndexKey(), 0, -1)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(symbols))
	for i, s := range symbols {
		keys[i] = redis.CustomTokenKey(s)
	}

	tokens := make([]*model.CustomTokenConfig, 0, len(symbols))
	err = r.redis.MGetJSON(ctx, keys,
		func() interface{} { return &model.CustomTokenConfig{} },
		func(v interface{}) { tokens = append(tokens, v.(*model.CustomTokenConfig)) },
	)
	return tokens, err
}

func (r *TokenRepository) Delete(ctx context.Context, symbol string) error {
	symbol = strings.ToUpper(symbol)
	if err := r.redis.Del(ctx, redis.CustomTokenKey(symbol)); err != nil {
		return err
	}
	return r.redis.ZRem(ctx, redis.CustomTokensIndexKey(), symbol)
}
