package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, env *testEnv, origins []string) (*WSHub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewWSHub(env.redis, origins)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	go hub.StartPubSubListener(ctx)

	require.Eventually(t, func() bool {
		return env.mr.PubSubNumSub(redis.WSBroadcastChannel())[redis.WSBroadcastChannel()] == 1 &&
			env.mr.PubSubNumPat() == 1
	}, 2*time.Second, 10*time.Millisecond)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("user_id", c.Query("uid"))
		hub.ServeWS(c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, uid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?uid=" + uid
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) model.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg model.WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubRelaysUserAndBroadcastEvents(t *testing.T) {
	env := newTestEnv(t)
	hub, srv := startHub(t, env, nil)
	ctx := context.Background()

	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	env.notifier.Toast(ctx, "alice", model.NotifySuccess, "hello alice")
	msg := readMessage(t, alice)
	assert.Equal(t, model.MessageTypeNotification, msg.Type)
	assert.Equal(t, "hello alice", msg.Payload.(map[string]interface{})["message"])

	env.notifier.Broadcast(ctx, model.MessageTypeSettingsUpdate, model.SystemSettings{Telegram: "t"})
	// bob never saw the toast, so the broadcast is his first frame
	assert.Equal(t, model.MessageTypeSettingsUpdate, readMessage(t, bob).Type)
	assert.Equal(t, model.MessageTypeSettingsUpdate, readMessage(t, alice).Type)

	require.NoError(t, bob.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t)
	_, srv := startHub(t, env, []string{"https://app.tsla.test"})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?uid=u1"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://app.tsla.test"}})
	require.NoError(t, err)
	_ = conn.Close()
}

func TestServeWSRequiresUser(t *testing.T) {
	env := newTestEnv(t)
	_, srv := startHub(t, env, nil)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOrderFillerStopsWithContext(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "filler@example.com", nil, usdt("1000"))
	order, err := env.orderSvc.PlaceOrder(context.Background(), user.ID, limitBuy("59000", "0.01"))
	require.NoError(t, err)

	env.prices["BTC"] = d("58000")

	filler := NewOrderFiller(env.orderSvc, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- filler.Run(ctx) }()
	require.Eventually(t, func() bool {
		o, err := env.orders.GetByID(context.Background(), order.ID)
		return err == nil && o.Status == model.OrderFilled
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("filler did not stop")
	}
}
