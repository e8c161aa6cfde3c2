package model

import "time"

type NewsItem struct {
	ID         string    `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Summary    string    `json:"summary" yaml:"summary"`
	Source     string    `json:"source" yaml:"source"`
	Date       time.Time `json:"date" yaml:"date"`
	URL        string    `json:"url,omitempty" yaml:"url"`
	IsOfficial bool      `json:"is_official" yaml:"is_official"`
}

type AddNewsRequest struct {
	Title      string `json:"title" binding:"required,max=200"`
	Summary    string `json:"summary" binding:"required,max=2000"`
	Source     string `json:"source" binding:"max=100"`
	URL        string `json:"url" binding:"omitempty,url"`
	IsOfficial bool   `json:"is_official"`
}

type SystemSettings struct {
	Telegram        string `json:"telegram" yaml:"telegram"`
	Twitter         string `json:"twitter" yaml:"twitter"`
	Discord         string `json:"discord" yaml:"discord"`
	SupportEmail    string `json:"support_email" yaml:"support_email"`
	AnnouncementBar string `json:"announcement_bar" yaml:"announcement_bar"`
}

// UpdateSettingsRequest is a partial settings update
type UpdateSettingsRequest struct {
	Telegram        *string `json:"telegram" binding:"omitempty,url"`
	Twitter         *string `json:"twitter" binding:"omitempty,url"`
	Discord         *string `json:"discord" binding:"omitempty,url"`
	SupportEmail    *string `json:"support_email" binding:"omitempty,email"`
	AnnouncementBar *string `json:"announcement_bar" binding:"omitempty,max=280"`
}

type ChatMessage struct {
	ID     string    `json:"id"`
	UserID string    `json:"-"`
	User   string    `json:"user"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
}

type SendChatRequest struct {
	Text string `json:"text" binding:"required,min=1,max=500"`
}
