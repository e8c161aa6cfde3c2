package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "market_cap_desc", r.URL.Query().Get("order"))
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))
		assert.Equal(t, "true", r.URL.Query().Get("sparkline"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":64000.5,
			"market_cap_rank":1,"max_supply":21000000,"total_supply":null,
			"sparkline_in_7d":{"price":[1,2,3]}}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, 0)
	coins, err := c.FetchMarkets(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, coins, 1)

	btc := coins[0]
	assert.Equal(t, "bitcoin", btc.ID)
	assert.Equal(t, 64000.5, btc.CurrentPrice)
	assert.Nil(t, btc.TotalSupply)
	require.NotNil(t, btc.MaxSupply)
	assert.Equal(t, 21000000.0, *btc.MaxSupply)
	require.NotNil(t, btc.SparklineIn7d)
	assert.Len(t, btc.SparklineIn7d.Price, 3)
}

func TestFetchMarketsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":{"error_code":429}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, 0).FetchMarkets(context.Background(), 10)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestFetchMarketsHonoursContext(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", time.Second, time.Hour)
	// the first call consumes the burst token, the second has to wait an hour
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _ = c.FetchMarkets(ctx, 1)
	_, err := c.FetchMarkets(ctx, 1)
	assert.Error(t, err)
}
