package service

import (
	"context"
	"strings"
	"time"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/repository"
	"tslaglobal/backend/internal/util"

	"github.com/google/uuid"
)

// ContentService serves news, system settings and the public chat room
type ContentService struct {
	repo            *repository.ContentRepository
	notifier        *NotificationService
	defaultNews     []model.NewsItem
	defaultSettings model.SystemSettings
}

func NewContentService(repo *repository.ContentRepository, notifier *NotificationService, news []model.NewsItem, settings model.SystemSettings) *ContentService {
	return &ContentService{
		repo:            repo,
		notifier:        notifier,
		defaultNews:     news,
		defaultSettings: settings,
	}
}

// ListNews returns stored news, or the defaults when none were saved
func (s *ContentService) ListNews(ctx context.Context) ([]model.NewsItem, error) {
	news, err := s.repo.GetNews(ctx)
	if err != nil {
		return nil, util.Internal("Failed to load news", err)
	}
	if news == nil {
		news = append([]model.NewsItem(nil), s.defaultNews...)
	}
	return news, nil
}

// AddNews prepends a news item
func (s *ContentService) AddNews(ctx context.Context, req *model.AddNewsRequest) (*model.NewsItem, error) {
	news, err := s.ListNews(ctx)
	if err != nil {
		return nil, err
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "Tsla Global"
	}
	item := model.NewsItem{
		ID:         uuid.New().String(),
		Title:      strings.TrimSpace(req.Title),
		Summary:    strings.TrimSpace(req.Summary),
		Source:     source,
		Date:       time.Now().UTC(),
		URL:        req.URL,
		IsOfficial: req.IsOfficial,
	}

	if err := s.repo.SaveNews(ctx, append([]model.NewsItem{item}, news...)); err != nil {
		return nil, util.Internal("Failed to save news", err)
	}
	return &item, nil
}

// DeleteNews removes one news item by id
func (s *ContentService) DeleteNews(ctx context.Context, id string) error {
	news, err := s.ListNews(ctx)
	if err != nil {
		return err
	}

	kept := make([]model.NewsItem, 0, len(news))
	for _, n := range news {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(news) {
		return util.ErrNotFound("News item not found")
	}

	if err := s.repo.SaveNews(ctx, kept); err != nil {
		return util.Internal("Failed to save news", err)
	}
	return nil
}

// GetSettings returns the stored settings or the defaults
func (s *ContentService) GetSettings(ctx context.Context) (*model.SystemSettings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, util.Internal("Failed to load settings", err)
	}
	if settings == nil {
		d := s.defaultSettings
		settings = &d
	}
	return settings, nil
}

// UpdateSettings applies a partial update and broadcasts the result
func (s *ContentService) UpdateSettings(ctx context.Context, req *model.UpdateSettingsRequest) (*model.SystemSettings, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	if req.Telegram != nil {
		settings.Telegram = *req.Telegram
	}
	if req.Twitter != nil {
		settings.Twitter = *req.Twitter
	}
	if req.Discord != nil {
		settings.Discord = *req.Discord
	}
	if req.SupportEmail != nil {
		settings.SupportEmail = *req.SupportEmail
	}
	if req.AnnouncementBar != nil {
		settings.AnnouncementBar = *req.AnnouncementBar
	}

	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return nil, util.Internal("Failed to save settings", err)
	}

	s.notifier.Broadcast(ctx, model.MessageTypeSettingsUpdate, settings)
	return settings, nil
}

// ListChat returns the latest messages, oldest first
func (s *ContentService) ListChat(ctx context.Context) ([]model.ChatMessage, error) {
	msgs, err := s.repo.ListChat(ctx, util.ChatHistoryLimit)
	if err != nil {
		return nil, util.Internal("Failed to load chat", err)
	}
	return msgs, nil
}

// SendChat posts a message under the sender's masked email
func (s *ContentService) SendChat(ctx context.Context, user *model.User, req *model.SendChatRequest) (*model.ChatMessage, error) {
	if user.IsFrozen {
		return nil, util.ErrAccountFrozen()
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, util.ErrValidation("text must not be empty")
	}

	msg := &model.ChatMessage{
		ID:     uuid.New().String(),
		UserID: user.ID,
		User:   model.MaskEmail(user.Email),
		Text:   text,
		Time:   time.Now().UTC(),
	}
	if err := s.repo.AppendChat(ctx, msg, util.ChatHistoryLimit); err != nil {
		return nil, util.Internal("Failed to send message", err)
	}

	s.notifier.Broadcast(ctx, model.MessageTypeChatMessage, msg)
	return msg, nil
}
