package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewFromAddr(mr.Addr())
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestKeysAreNamespaced(t *testing.T) {
	InitKeys("tsla:")
	t.Cleanup(func() { InitKeys("tsla") })

	assert.Equal(t, "tsla", Prefix())
	assert.Equal(t, "tsla:user:email:a@b.c", UserByEmailKey("A@B.c"))
	assert.Equal(t, "tsla:user:invite:ABCD1234", UserByInviteCodeKey("abcd1234"))

	InitKeys("")
	assert.Equal(t, "users:index", UsersIndexKey())
}

func TestJSONRoundTripAndMGet(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	type doc struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.SetJSON(ctx, "d:1", doc{Name: "one"}, 0))
	require.NoError(t, c.SetJSON(ctx, "d:2", doc{Name: "two"}, 0))
	require.NoError(t, mr.Set("d:bad", "{not json"))

	var got doc
	require.NoError(t, c.GetJSON(ctx, "d:1", &got))
	assert.Equal(t, "one", got.Name)
	assert.ErrorIs(t, c.GetJSON(ctx, "d:missing", &got), Nil)

	var names []string
	err := c.MGetJSON(ctx, []string{"d:2", "d:missing", "d:bad", "d:1"},
		func() interface{} { return &doc{} },
		func(v interface{}) { names = append(names, v.(*doc).Name) })
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "one"}, names)
}

func TestGetDelConsumes(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "code", "123456", time.Minute))
	v, err := c.GetDel(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, "123456", v)

	_, err = c.GetDel(ctx, "code")
	assert.ErrorIs(t, err, Nil)
}

func TestUnlockRequiresOwner(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	token, ok, err := c.LockKey(ctx, "lock:u1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = c.LockKey(ctx, "lock:u1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.UnlockKey(ctx, "lock:u1", "someone-else"))
	assert.True(t, mr.Exists("lock:u1"))

	require.NoError(t, c.UnlockKey(ctx, "lock:u1", token))
	assert.False(t, mr.Exists("lock:u1"))
}

func TestWithLockTimesOutWhileHeld(t *testing.T) {
	c, mr := newTestClient(t)

	_, ok, err := c.LockKey(context.Background(), "lock:u1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ran := false
	err = c.WithLock(ctx, "lock:u1", time.Minute, func() error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.False(t, ran)

	mr.Del("lock:u1")
	require.NoError(t, c.WithLock(context.Background(), "lock:u1", time.Minute, func() error {
		ran = true
		assert.True(t, mr.Exists("lock:u1"))
		return nil
	}))
	assert.True(t, ran)
	assert.False(t, mr.Exists("lock:u1"))
}
