package service

import (
	"context"
	"errors"
	"time"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/repository"
	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/redis"
)

// AccountLocker serializes read-modify-write cycles on one user document
// across goroutines and API instances.
type AccountLocker struct {
	redis    *redis.Client
	userRepo *repository.UserRepository
	timeout  time.Duration
}

func NewAccountLocker(redisClient *redis.Client, userRepo *repository.UserRepository, timeout time.Duration) *AccountLocker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &AccountLocker{redis: redisClient, userRepo: userRepo, timeout: timeout}
}

// Mutate loads the user under its lock, runs fn and saves the user when fn
// succeeds. The saved user is returned.
func (l *AccountLocker) Mutate(ctx context.Context, userID string, fn func(user *model.User) error) (*model.User, error) {
	return l.MutateWith(ctx, userID, func(user *model.User, _ redis.Pipeliner) error {
		return fn(user)
	})
}

// MutateWith is Mutate for changes that write more than the user document.
// fn queues its side records on pipe; they are committed in the same
// MULTI/EXEC as the user, so either all of them land or none do.
func (l *AccountLocker) MutateWith(ctx context.Context, userID string, fn func(user *model.User, pipe redis.Pipeliner) error) (*model.User, error) {
	var saved *model.User
	err := l.WithUser(ctx, userID, func(user *model.User) error {
		pipe := l.redis.TxPipeline()
		if err := fn(user, pipe); err != nil {
			return err
		}
		if err := l.userRepo.StageUpdate(ctx, pipe, user); err != nil {
			return util.Internal("Failed to save account", err)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return util.Internal("Failed to save account", err)
		}
		saved = user
		return nil
	})
	return saved, err
}

// WithUser runs fn with the freshly loaded user while holding its lock
func (l *AccountLocker) WithUser(ctx context.Context, userID string, fn func(user *model.User) error) error {
	lockCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	// the lock outlives the wait so a slow writer is not cut off mid-save
	err := l.redis.WithLock(lockCtx, redis.UserLockKey(userID), 2*l.timeout+5*time.Second, func() error {
		user, err := l.userRepo.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return util.ErrNotFound("User not found")
			}
			return util.Internal("Failed to load account", err)
		}
		return fn(user)
	})
	if errors.Is(err, redis.ErrLockTimeout) {
		return util.ErrBusy()
	}
	return err
}

// requireActive rejects mutations on frozen accounts
func requireActive(user *model.User) error {
	if user.IsFrozen {
		return util.ErrAccountFrozen()
	}
	return nil
}

// balanceError maps wallet errors to API errors
func balanceError(err error, symbol string) error {
	if errors.Is(err, model.ErrInsufficientBalance) {
		return util.ErrInsufficientBalance("Insufficient " + symbol + " balance")
	}
	return err
}

func isNotFound(err error) bool {
	appErr := util.GetAppError(err)
	return appErr != nil && appErr.Code == util.ErrCodeNotFound
}
