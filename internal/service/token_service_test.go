package service

import (
	"context"
	"testing"
	"time"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueUpdateDeleteToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	changes := 0
	env.tokens.OnChange(func(context.Context) { changes++ })

	res, err := env.tokens.Issue(ctx, &model.IssueTokenRequest{
		Symbol: "moon", Name: "Moon", Price: d("2.5"), Supply: d("1000000"), FeeRate: d("0.002"),
	})
	require.NoError(t, err)
	assert.False(t, res.LocalMode)
	assert.Equal(t, "MOON", res.Token.Symbol)
	assert.True(t, res.Token.Enabled)

	mirrored, err := env.local.GetToken(ctx, "MOON")
	require.NoError(t, err)
	require.NotNil(t, mirrored)

	price := d("3")
	disabled := false
	res, err = env.tokens.Update(ctx, "Moon", &model.UpdateTokenRequest{Price: &price, Enabled: &disabled})
	require.NoError(t, err)
	assert.True(t, res.Token.Price.Equal(d("3")))

	enabled, err := env.tokens.ListEnabled(ctx)
	require.NoError(t, err)
	assert.Empty(t, enabled)
	assert.Equal(t, "TSLA", env.tokens.FeaturedSymbol(ctx))

	_, err = env.tokens.Delete(ctx, "MOON")
	require.NoError(t, err)
	_, err = env.tokens.Get(ctx, "MOON")
	requireCode(t, err, util.ErrCodeNotFound)
	_, err = env.tokens.Delete(ctx, "MOON")
	requireCode(t, err, util.ErrCodeNotFound)

	assert.Equal(t, 3, changes)
}

func TestIssueKeepsCreationTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.tokens.Issue(ctx, &model.IssueTokenRequest{Symbol: "AAA", Name: "A", Price: d("1")})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := env.tokens.Issue(ctx, &model.IssueTokenRequest{Symbol: "AAA", Name: "A2", Price: d("2")})
	require.NoError(t, err)

	assert.True(t, first.Token.CreatedAt.Equal(second.Token.CreatedAt))
	assert.Equal(t, "A2", second.Token.Name)
}

func TestFeaturedIsNewestEnabledToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.tokens.Issue(ctx, &model.IssueTokenRequest{Symbol: "OLD", Name: "Old", Price: d("1")})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = env.tokens.Issue(ctx, &model.IssueTokenRequest{Symbol: "NEW", Name: "New", Price: d("1")})
	require.NoError(t, err)

	assert.Equal(t, "NEW", env.tokens.FeaturedSymbol(ctx))
}

func TestIssueTokenValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *model.IssueTokenRequest
	}{
		{"zero price", &model.IssueTokenRequest{Symbol: "X1", Name: "x"}},
		{"negative supply", &model.IssueTokenRequest{Symbol: "X1", Name: "x", Price: d("1"), Supply: d("-1")}},
		{"fee rate of one", &model.IssueTokenRequest{Symbol: "X1", Name: "x", Price: d("1"), FeeRate: d("1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tokens.Issue(ctx, tt.req)
			requireCode(t, err, util.ErrCodeValidation)
		})
	}
}

func TestTokenWritesFallBackToLocalStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.tokens.Issue(ctx, &model.IssueTokenRequest{Symbol: "KEEP", Name: "Keep", Price: d("1")})
	require.NoError(t, err)

	env.mr.Close()

	res, err := env.tokens.Issue(ctx, &model.IssueTokenRequest{Symbol: "LOCAL", Name: "Local", Price: d("4")})
	require.NoError(t, err)
	assert.True(t, res.LocalMode)

	tokens, err := env.tokens.List(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	tok, err := env.tokens.Get(ctx, "local")
	require.NoError(t, err)
	assert.True(t, tok.Price.Equal(d("4")))
}
