package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/logger"
	"tslaglobal/backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsSendBuffer = 256
)

// Client represents a connected user over WebSocket
type Client struct {
	Hub    *WSHub
	Conn   *websocket.Conn
	UserID string
	Send   chan []byte
}

// WSHub tracks WebSocket connections and relays Redis events to them
type WSHub struct {
	clients    map[*Client]bool
	userConns  map[string][]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	mu         sync.RWMutex

	redis    *redis.Client
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewWSHub creates a hub. allowedOrigins limits the browsers that may
// connect, "*" or an empty list accepts any origin.
func NewWSHub(redisClient *redis.Client, allowedOrigins []string) *WSHub {
	h := &WSHub{
		clients:    make(map[*Client]bool),
		userConns:  make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, wsSendBuffer),
		done:       make(chan struct{}),
		redis:      redisClient,
		log:        logger.GetLogger().WithComponent("ws"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Run owns the client maps until ctx is cancelled
func (h *WSHub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.userConns = make(map[string][]*Client)
			h.mu.Unlock()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.userConns[client.UserID] = append(h.userConns[client.UserID], client)
			h.mu.Unlock()
			h.log.Debugf("WS client registered: UserID=%s", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			h.log.Debugf("WS client unregistered: UserID=%s", client.UserID)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// slow consumer
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove drops a client, the caller holds mu
func (h *WSHub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)

	conns := h.userConns[client.UserID]
	for i, c := range conns {
		if c == client {
			h.userConns[client.UserID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.userConns[client.UserID]) == 0 {
		delete(h.userConns, client.UserID)
	}
}

// ClientCount returns the number of open connections
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcastRaw queues an encoded message for every client
func (h *WSHub) broadcastRaw(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.log.Warn("WS broadcast queue full, dropping message")
	}
}

// sendRawToUser delivers an encoded message to every connection of userID
func (h *WSHub) sendRawToUser(userID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.userConns[userID] {
		select {
		case client.Send <- data:
		default:
			// buffer full, the read pump will unregister the client
		}
	}
}

// SendToUser sends a message to all active connections of a user
func (h *WSHub) SendToUser(userID string, msg model.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Errorf("Failed to marshal WS direct message: %v", err)
		return
	}
	h.sendRawToUser(userID, data)
}

// StartPubSubListener bridges the Redis broadcast channel and the per-user
// channels to local connections until ctx is cancelled
func (h *WSHub) StartPubSubListener(ctx context.Context) error {
	broadcastChannel := redis.WSBroadcastChannel()
	userPrefix := redis.WSUserChannel("")

	sub := h.redis.Subscribe(ctx, broadcastChannel)
	defer sub.Close()
	psub := h.redis.PSubscribe(ctx, redis.WSUserChannel("*"))
	defer psub.Close()

	broadcasts := sub.Channel()
	direct := psub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-broadcasts:
			if !ok {
				return nil
			}
			h.broadcastRaw([]byte(msg.Payload))
		case msg, ok := <-direct:
			if !ok {
				return nil
			}
			userID := strings.TrimPrefix(msg.Channel, userPrefix)
			if userID == "" || userID == msg.Channel {
				continue
			}
			h.sendRawToUser(userID, []byte(msg.Payload))
		}
	}
}

// ReadPump drains client frames so control messages are processed
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Debugf("WS read error: %v", err)
			}
			return
		}
	}
}

// WritePump writes queued messages, one JSON document per frame, and pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades an authenticated request to a WebSocket
func (h *WSHub) ServeWS(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		util.SendError(c, util.ErrUnauthorized("User not authenticated"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnf("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		Hub:    h,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, wsSendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
