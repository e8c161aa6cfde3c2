package handler

import (
	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/service"
	"tslaglobal/backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the admin console
type AdminHandler struct {
	users   *service.UserService
	wallet  *service.WalletService
	tokens  *service.TokenService
	mining  *service.MiningService
	content *service.ContentService
}

func NewAdminHandler(
	users *service.UserService,
	wallet *service.WalletService,
	tokens *service.TokenService,
	mining *service.MiningService,
	content *service.ContentService,
) *AdminHandler {
	return &AdminHandler{
		users:   users,
		wallet:  wallet,
		tokens:  tokens,
		mining:  mining,
		content: content,
	}
}

// ListUsers GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, offset := pageParams(c)
	users, total, err := h.users.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendPaginated(c, users, util.Pagination{Limit: limit, Offset: offset, Total: total})
}

// GetUser GET /api/v1/admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	profile, err := h.users.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, profile)
}

// UpdateUser PATCH /api/v1/admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req model.AdminUpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.users.AdminUpdateUser(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccessWithMessage(c, profile, "User updated successfully")
}

// DeleteUser DELETE /api/v1/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID := c.Param("id")
	if userID == c.GetString("user_id") {
		util.SendError(c, util.ErrBadRequest("Cannot delete your own account"))
		return
	}

	if err := h.users.AdminDeleteUser(c.Request.Context(), userID); err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccessWithMessage(c, nil, "User deleted successfully")
}

// ResetPassword POST /api/v1/admin/users/:id/reset-password
func (h *AdminHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.users.AdminResetPassword(c.Request.Context(), c.Param("id"), &req); err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccessWithMessage(c, nil, "Password reset successfully")
}

// AddRig grants a catalog rig to a user
// POST /api/v1/admin/users/:id/rigs
func (h *AdminHandler) AddRig(c *gin.Context) {
	var req model.AddRigRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.mining.AddRigToUser(c.Request.Context(), c.Param("id"), req.RigID)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, user.ToProfile())
}

// PendingDeposits GET /api/v1/admin/deposits
func (h *AdminHandler) PendingDeposits(c *gin.Context) {
	h.pending(c, model.TxDeposit)
}

// PendingWithdrawals GET /api/v1/admin/withdrawals
func (h *AdminHandler) PendingWithdrawals(c *gin.Context) {
	h.pending(c, model.TxWithdraw)
}

func (h *AdminHandler) pending(c *gin.Context, txType model.TransactionType) {
	txs, err := h.wallet.ListPending(c.Request.Context(), txType)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, txs)
}

type settleFunc func(c *gin.Context, txID string) (*model.Transaction, error)

func (h *AdminHandler) settle(fn settleFunc, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx, err := fn(c, c.Param("id"))
		if err != nil {
			util.SendError(c, err)
			return
		}
		util.SendSuccessWithMessage(c, tx, message)
	}
}

// ApproveDeposit POST /api/v1/admin/deposits/:id/approve
func (h *AdminHandler) ApproveDeposit() gin.HandlerFunc {
	return h.settle(func(c *gin.Context, id string) (*model.Transaction, error) {
		return h.wallet.ApproveDeposit(c.Request.Context(), id)
	}, "Deposit approved")
}

// RejectDeposit POST /api/v1/admin/deposits/:id/reject
func (h *AdminHandler) RejectDeposit() gin.HandlerFunc {
	return h.settle(func(c *gin.Context, id string) (*model.Transaction, error) {
		return h.wallet.RejectDeposit(c.Request.Context(), id)
	}, "Deposit rejected")
}

// ApproveWithdrawal POST /api/v1/admin/withdrawals/:id/approve
func (h *AdminHandler) ApproveWithdrawal() gin.HandlerFunc {
	return h.settle(func(c *gin.Context, id string) (*model.Transaction, error) {
		return h.wallet.ApproveWithdrawal(c.Request.Context(), id)
	}, "Withdrawal approved")
}

// RejectWithdrawal POST /api/v1/admin/withdrawals/:id/reject
func (h *AdminHandler) RejectWithdrawal() gin.HandlerFunc {
	return h.settle(func(c *gin.Context, id string) (*model.Transaction, error) {
		return h.wallet.RejectWithdrawal(c.Request.Context(), id)
	}, "Withdrawal rejected")
}

// ListTokens returns every custom token, disabled ones included
// GET /api/v1/admin/tokens
func (h *AdminHandler) ListTokens(c *gin.Context) {
	tokens, err := h.tokens.List(c.Request.Context())
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, tokens)
}

// IssueToken POST /api/v1/admin/tokens
func (h *AdminHandler) IssueToken(c *gin.Context) {
	var req model.IssueTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.tokens.Issue(c.Request.Context(), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendCreated(c, res, tokenMessage(res, "Token issued"))
}

// UpdateToken PATCH /api/v1/admin/tokens/:symbol
func (h *AdminHandler) UpdateToken(c *gin.Context) {
	var req model.UpdateTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.tokens.Update(c.Request.Context(), c.Param("symbol"), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccessWithMessage(c, res, tokenMessage(res, "Token updated"))
}

// DeleteToken DELETE /api/v1/admin/tokens/:symbol
func (h *AdminHandler) DeleteToken(c *gin.Context) {
	res, err := h.tokens.Delete(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccessWithMessage(c, res, tokenMessage(res, "Token deleted"))
}

func tokenMessage(res *model.TokenWriteResult, msg string) string {
	if res.LocalMode {
		return msg + " (saved locally, hosted store unavailable)"
	}
	return msg
}

// UpdateRig PATCH /api/v1/admin/rigs/:id
func (h *AdminHandler) UpdateRig(c *gin.Context) {
	var req model.UpdateRigRequest
	if !bindJSON(c, &req) {
		return
	}

	rig, err := h.mining.UpdateRig(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, rig)
}

// AddNews POST /api/v1/admin/news
func (h *AdminHandler) AddNews(c *gin.Context) {
	var req model.AddNewsRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.content.AddNews(c.Request.Context(), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendCreated(c, item, "News published")
}

// DeleteNews DELETE /api/v1/admin/news/:id
func (h *AdminHandler) DeleteNews(c *gin.Context) {
	if err := h.content.DeleteNews(c.Request.Context(), c.Param("id")); err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccessWithMessage(c, nil, "News deleted")
}

// UpdateSettings PATCH /api/v1/admin/settings
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	settings, err := h.content.UpdateSettings(c.Request.Context(), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, settings)
}
