package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when a lock could not be acquired before the deadline
var ErrLockTimeout = errors.New("lock acquisition timed out")

// SetJSON sets a key with JSON-encoded value
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, expiration)
}

// GetJSON gets a key and decodes JSON value
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// SetNX sets a key only if it does not exist
func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, value, expiration).Result()
}

// GetDel gets and deletes a key atomically
func (c *Client) GetDel(ctx context.Context, key string) (string, error) {
	return c.client.GetDel(ctx, key).Result()
}

// MGetJSON decodes every present key into a fresh value produced by newFn.
// Missing keys are skipped.
func (c *Client) MGetJSON(ctx context.Context, keys []string, newFn func() interface{}, each func(v interface{})) error {
	if len(keys) == 0 {
		return nil
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}
	for _, raw := range values {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		v := newFn()
		if err := json.Unmarshal([]byte(s), v); err != nil {
			continue
		}
		each(v)
	}
	return nil
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockKey tries once to acquire a lock and returns the owner token on success
func (c *Client) LockKey(ctx context.Context, key string, expiration time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.SetNX(ctx, key, token, expiration)
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// UnlockKey releases a lock only if it is still held by token
func (c *Client) UnlockKey(ctx context.Context, key, token string) error {
	return unlockScript.Run(ctx, c.client, []string{key}, token).Err()
}

// WithLock spins on LockKey until it succeeds or ctx expires, runs fn and
// releases the lock.
func (c *Client) WithLock(ctx context.Context, key string, expiration time.Duration, fn func() error) error {
	backoff := 10 * time.Millisecond
	for {
		token, ok, err := c.LockKey(ctx, key, expiration)
		if err != nil {
			return err
		}
		if ok {
			defer c.UnlockKey(context.WithoutCancel(ctx), key, token)
			return fn()
		}

		select {
		case <-ctx.Done():
			return ErrLockTimeout
		case <-time.After(backoff):
		}
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}
