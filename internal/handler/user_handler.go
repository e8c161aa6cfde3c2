package handler

import (
	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/service"
	"tslaglobal/backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the user center
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetProfile gets current user's profile
// GET /api/v1/user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.userService.GetProfile(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, profile)
}

// BindWallet stores the external withdrawal address
// PUT /api/v1/user/wallet-address
func (h *UserHandler) BindWallet(c *gin.Context) {
	var req model.BindWalletRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.userService.BindWallet(c.Request.Context(), c.GetString("user_id"), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, profile, "Wallet address saved")
}

// SubmitKYC records identity details
// POST /api/v1/user/kyc
func (h *UserHandler) SubmitKYC(c *gin.Context) {
	var req model.SubmitKYCRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.userService.SubmitKYC(c.Request.Context(), c.GetString("user_id"), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, profile)
}

// ToggleTwoFactor flips the 2FA flag
// POST /api/v1/user/2fa
func (h *UserHandler) ToggleTwoFactor(c *gin.Context) {
	profile, err := h.userService.ToggleTwoFactor(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, profile)
}

// ChangePassword changes current user's password
// POST /api/v1/user/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), c.GetString("user_id"), &req); err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, nil, "Password changed successfully")
}

// GetReferral returns the invite program summary
// GET /api/v1/user/referral
func (h *UserHandler) GetReferral(c *gin.Context) {
	info, err := h.userService.GetReferralInfo(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, info)
}
