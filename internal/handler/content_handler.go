package handler

import (
	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/service"
	"tslaglobal/backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	contentService *service.ContentService
}

func NewContentHandler(contentService *service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// News GET /api/v1/news
func (h *ContentHandler) News(c *gin.Context) {
	news, err := h.contentService.ListNews(c.Request.Context())
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, news)
}

// Settings GET /api/v1/settings
func (h *ContentHandler) Settings(c *gin.Context) {
	settings, err := h.contentService.GetSettings(c.Request.Context())
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, settings)
}

// Chat returns the latest chat messages, oldest first
// GET /api/v1/chat
func (h *ContentHandler) Chat(c *gin.Context) {
	msgs, err := h.contentService.ListChat(c.Request.Context())
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, msgs)
}

// SendChat POST /api/v1/chat
func (h *ContentHandler) SendChat(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.SendChatRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.contentService.SendChat(c.Request.Context(), user, &req)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendCreated(c, msg, "")
}
