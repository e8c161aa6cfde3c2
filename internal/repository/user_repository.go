// Package repository provides data access for the application and interacts with Redis.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/pkg/redis"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already exists")
	ErrSessionNotFound = errors.New("session not found")
)

// UserRepository handles user data operations
type UserRepository struct {
	redis *redis.Client
}

// NewUserRepository creates a new user repository
func NewUserRepository(redisClient *redis.Client) *UserRepository {
	return &UserRepository{
		redis: redisClient,
	}
}

// Create stores a new user with its email and invite code indices
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	// Claim the email first so two concurrent registrations cannot both win
	emailKey := redis.UserByEmailKey(user.Email)
	ok, err := r.redis.SetNX(ctx, emailKey, user.ID, 0)
	if err != nil {
		return err
	}
	if !ok {
		return ErrEmailExists
	}

	if err := r.redis.SetJSON(ctx, redis.UserKey(user.ID), user, 0); err != nil {
		_ = r.redis.Del(ctx, emailKey)
		return err
	}

	if user.InviteCode != "" {
		if err := r.redis.Set(ctx, redis.UserByInviteCodeKey(user.InviteCode), user.ID, 0); err != nil {
			return err
		}
	}

	return r.redis.ZAdd(ctx, redis.UsersIndexKey(), redis.Z{
		Score:  float64(user.CreatedAt.UnixMilli()),
		Member: user.ID,
	})
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := r.redis.GetJSON(ctx, redis.UserKey(userID), &user); err != nil {
		if err == redis.Nil {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// GetByEmail gets a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	userID, err := r.redis.Get(ctx, redis.UserByEmailKey(email))
	if err != nil {
		if err == redis.Nil {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return r.GetByID(ctx, userID)
}

// GetByInviteCode resolves a referral code to its owner
func (r *UserRepository) GetByInviteCode(ctx context.Context, code string) (*model.User, error) {
	userID, err := r.redis.Get(ctx, redis.UserByInviteCodeKey(strings.TrimSpace(code)))
	if err != nil {
		if err == redis.Nil {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return r.GetByID(ctx, userID)
}

// InviteCodeExists reports whether code is already assigned
func (r *UserRepository) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	return r.redis.Exists(ctx, redis.UserByInviteCodeKey(code))
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	pipe := r.redis.TxPipeline()
	if err := r.StageUpdate(ctx, pipe, user); err != nil {
		return err
	}
	_, err := pipe.Exec(ctx)
	return err
}

// StageUpdate queues the user document write on pipe
func (r *UserRepository) StageUpdate(ctx context.Context, pipe redis.Pipeliner, user *model.User) error {
	user.UpdatedAt = time.Now()
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	pipe.Set(ctx, redis.UserKey(user.ID), data, 0)
	return nil
}

// Delete removes a user, its indices and its sessions
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	keys := []string{redis.UserKey(userID), redis.UserByEmailKey(user.Email)}
	if user.InviteCode != "" {
		keys = append(keys, redis.UserByInviteCodeKey(user.InviteCode))
	}
	if err := r.redis.Del(ctx, keys...); err != nil {
		return err
	}
	if err := r.redis.ZRem(ctx, redis.UsersIndexKey(), userID); err != nil {
		return err
	}
	_ = r.redis.SRem(ctx, redis.ActiveMinersKey(), userID)

	return r.DeleteUserSessions(ctx, userID)
}

// List returns users newest first
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*model.User, int64, error) {
	total, err := r.redis.ZCard(ctx, redis.UsersIndexKey())
	if err != nil {
		return nil, 0, err
	}

	ids, err := r.redis.ZRevRange(ctx, redis.UsersIndexKey(), int64(offset), int64(offset+limit-1))
	if err != nil {
		return nil, 0, err
	}

	users, err := r.GetMany(ctx, ids)
	return users, total, err
}

// GetMany loads users in the order of ids, skipping missing ones
func (r *UserRepository) GetMany(ctx context.Context, ids []string) ([]*model.User, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redis.UserKey(id)
	}

	users := make([]*model.User, 0, len(ids))
	err := r.redis.MGetJSON(ctx, keys,
		func() interface{} { return &model.User{} },
		func(v interface{}) { users = append(users, v.(*model.User)) },
	)
	return users, err
}

// StoreVerificationCode keeps an email verification code for ttl
func (r *UserRepository) StoreVerificationCode(ctx context.Context, email, code string, ttl time.Duration) error {
	return r.redis.Set(ctx, redis.VerificationCodeKey(email), code, ttl)
}

// ConsumeVerificationCode returns the stored code and deletes it. An empty
// string means no code is pending.
func (r *UserRepository) ConsumeVerificationCode(ctx context.Context, email string) (string, error) {
	code, err := r.redis.GetDel(ctx, redis.VerificationCodeKey(email))
	if err == redis.Nil {
		return "", nil
	}
	return code, err
}

// CreateSession creates a new session
func (r *UserRepository) CreateSession(ctx context.Context, session *model.Session) error {
	if err := r.redis.SetJSON(ctx, redis.SessionKey(session.ID), session, time.Until(session.ExpiresAt)); err != nil {
		return err
	}

	return r.redis.SAdd(ctx, redis.UserSessionsKey(session.UserID), session.ID)
}

// GetSession gets a session by ID
func (r *UserRepository) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var session model.Session
	if err := r.redis.GetJSON(ctx, redis.SessionKey(sessionID), &session); err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return &session, nil
}

// DeleteSession deletes a session
func (r *UserRepository) DeleteSession(ctx context.Context, sessionID string) error {
	session, err := r.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := r.redis.Del(ctx, redis.SessionKey(sessionID)); err != nil {
		return err
	}

	return r.redis.SRem(ctx, redis.UserSessionsKey(session.UserID), sessionID)
}

// DeleteUserSessions deletes all sessions for a user
func (r *UserRepository) DeleteUserSessions(ctx context.Context, userID string) error {
	userSessionsKey := redis.UserSessionsKey(userID)

	sessionIDs, err := r.redis.SMembers(ctx, userSessionsKey)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(sessionIDs)+1)
	for _, id := range sessionIDs {
		keys = append(keys, redis.SessionKey(id))
	}
	keys = append(keys, userSessionsKey)

	return r.redis.Del(ctx, keys...)
}

// BlacklistToken adds a token to blacklist
func (r *UserRepository) BlacklistToken(ctx context.Context, token string, expiration time.Duration) error {
	return r.redis.Set(ctx, redis.TokenBlacklistKey(token), "blacklisted", expiration)
}

// IsTokenBlacklisted checks if a token is blacklisted
func (r *UserRepository) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	return r.redis.Exists(ctx, redis.TokenBlacklistKey(token))
}
