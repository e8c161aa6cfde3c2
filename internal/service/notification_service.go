package service

import (
	"context"
	"encoding/json"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/pkg/logger"
	"tslaglobal/backend/pkg/redis"
)

// NotificationService publishes events to Redis. The WSHub of every API
// instance relays them to connected clients.
type NotificationService struct {
	redis *redis.Client
	log   *logger.Logger
}

func NewNotificationService(redis *redis.Client) *NotificationService {
	return &NotificationService{
		redis: redis,
		log:   logger.GetLogger().WithComponent("notify"),
	}
}

// NotifyUser sends a message to a specific user via WebSocket
func (s *NotificationService) NotifyUser(ctx context.Context, userID string, msgType model.WSMessageType, payload interface{}) {
	s.publish(ctx, redis.WSUserChannel(userID), msgType, payload)
}

// Broadcast sends a message to all connected users
func (s *NotificationService) Broadcast(ctx context.Context, msgType model.WSMessageType, payload interface{}) {
	s.publish(ctx, redis.WSBroadcastChannel(), msgType, payload)
}

func (s *NotificationService) publish(ctx context.Context, channel string, msgType model.WSMessageType, payload interface{}) {
	data, err := json.Marshal(model.WSMessage{Type: msgType, Payload: payload})
	if err != nil {
		s.log.Errorf("Failed to marshal %s message: %v", msgType, err)
		return
	}

	if err := s.redis.Publish(ctx, channel, data); err != nil {
		s.log.Errorf("Failed to publish to channel %s: %v", channel, err)
	}
}

// Toast shows a short notification to the user
func (s *NotificationService) Toast(ctx context.Context, userID string, level model.NotificationLevel, message string) {
	s.NotifyUser(ctx, userID, model.MessageTypeNotification, model.NotificationPayload{
		Level:   level,
		Message: message,
	})
}

// NotifyBalance pushes the user's current wallets
func (s *NotificationService) NotifyBalance(ctx context.Context, user *model.User) {
	s.NotifyUser(ctx, user.ID, model.MessageTypeBalanceUpdate, model.BalancePayload{
		FundingWallet: user.FundingWallet.Normalized(),
		TradingWallet: user.TradingWallet.Normalized(),
	})
}

// NotifyOrderUpdate sends an order update notification to a user
func (s *NotificationService) NotifyOrderUpdate(ctx context.Context, order *model.Order) {
	s.NotifyUser(ctx, order.UserID, model.MessageTypeOrderUpdate, order)
}
