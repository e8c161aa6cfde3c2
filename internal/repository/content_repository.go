package repository

import (
	"context"
	"encoding/json"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/pkg/redis"
)

// ContentRepository holds the rig catalog, news, system settings, chat and
// the last market snapshot. Each of them is a single small document.
type ContentRepository struct {
	redis *redis.Client
}

func NewContentRepository(redisClient *redis.Client) *ContentRepository {
	return &ContentRepository{redis: redisClient}
}

// GetRigs returns nil, nil when no catalog has been stored
func (r *ContentRepository) GetRigs(ctx context.Context) ([]model.MiningRig, error) {
	var rigs []model.MiningRig
	if err := r.redis.GetJSON(ctx, redis.MiningRigsKey(), &rigs); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return rigs, nil
}

func (r *ContentRepository) SaveRigs(ctx context.Context, rigs []model.MiningRig) error {
	return r.redis.SetJSON(ctx, redis.MiningRigsKey(), rigs, 0)
}

// GetNews returns nil, nil when no news has been stored
func (r *ContentRepository) GetNews(ctx context.Context) ([]model.NewsItem, error) {
	var news []model.NewsItem
	if err := r.redis.GetJSON(ctx, redis.NewsKey(), &news); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return news, nil
}

func (r *ContentRepository) SaveNews(ctx context.Context, news []model.NewsItem) error {
	return r.redis.SetJSON(ctx, redis.NewsKey(), news, 0)
}

// GetSettings returns nil, nil when settings were never saved
func (r *ContentRepository) GetSettings(ctx context.Context) (*model.SystemSettings, error) {
	var settings model.SystemSettings
	if err := r.redis.GetJSON(ctx, redis.SystemSettingsKey(), &settings); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *ContentRepository) SaveSettings(ctx context.Context, settings *model.SystemSettings) error {
	return r.redis.SetJSON(ctx, redis.SystemSettingsKey(), settings, 0)
}

// AppendChat pushes msg and trims the room to limit messages
func (r *ContentRepository) AppendChat(ctx context.Context, msg *model.ChatMessage, limit int) error {
	data, err := json.Marshal(chatRecord{ChatMessage: *msg, UserID: msg.UserID})
	if err != nil {
		return err
	}
	if err := r.redis.LPush(ctx, redis.ChatKey(), data); err != nil {
		return err
	}
	return r.redis.LTrim(ctx, redis.ChatKey(), 0, int64(limit-1))
}

// ListChat returns up to limit messages, oldest first
func (r *ContentRepository) ListChat(ctx context.Context, limit int) ([]model.ChatMessage, error) {
	raw, err := r.redis.LRange(ctx, redis.ChatKey(), 0, int64(limit-1))
	if err != nil {
		return nil, err
	}

	msgs := make([]model.ChatMessage, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var rec chatRecord
		if err := json.Unmarshal([]byte(raw[i]), &rec); err != nil {
			continue
		}
		rec.ChatMessage.UserID = rec.UserID
		msgs = append(msgs, rec.ChatMessage)
	}
	return msgs, nil
}

// chatRecord keeps the author id, which the public JSON form hides
type chatRecord struct {
	model.ChatMessage
	UserID string `json:"user_id"`
}

// GetMarketSnapshot returns nil, nil when nothing is cached
func (r *ContentRepository) GetMarketSnapshot(ctx context.Context) (*model.MarketSnapshot, error) {
	var snap model.MarketSnapshot
	if err := r.redis.GetJSON(ctx, redis.MarketSnapshotKey(), &snap); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (r *ContentRepository) SaveMarketSnapshot(ctx context.Context, snap *model.MarketSnapshot) error {
	return r.redis.SetJSON(ctx, redis.MarketSnapshotKey(), snap, 0)
}
