package handler

import (
	"strings"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/service"
	"tslaglobal/backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves /auth: email codes, registration, sessions
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// SendCode mails a registration code.
// POST /api/v1/auth/send-code
func (h *AuthHandler) SendCode(c *gin.Context) {
	var req model.SendCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.auth.SendVerificationCode(c.Request.Context(), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccessWithMessage(c, resp, "Verification code sent")
}

// Register consumes the emailed code and opens a session.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.auth.Register(c.Request.Context(), &req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendCreated(c, resp, "Account created")
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.auth.Login(c.Request.Context(), &req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, resp)
}

// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.auth.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, resp)
}

// Logout blacklists both the bearer access token and the refresh token
// from the body.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req model.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	access := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer"))
	if err := h.auth.Logout(c.Request.Context(), access, req.RefreshToken); err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccessWithMessage(c, nil, "Logged out")
}

// GET /api/v1/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	util.SendSuccess(c, user.ToProfile())
}
