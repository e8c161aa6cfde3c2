package handler

import (
	"strings"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/service"
	"tslaglobal/backend/internal/util"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	walletService *service.WalletService
}

func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// Overview returns both wallets with an estimated USDT value
// GET /api/v1/wallet
func (h *WalletHandler) Overview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	util.SendSuccess(c, h.walletService.Overview(c.Request.Context(), user))
}

// Deposit files a pending deposit
// POST /api/v1/wallet/deposit
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req model.DepositRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.walletService.Deposit(c.Request.Context(), c.GetString("user_id"), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendCreated(c, tx, "Deposit submitted for review")
}

// Withdraw debits the funding wallet and files a pending withdrawal
// POST /api/v1/wallet/withdraw
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req model.WithdrawRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.walletService.Withdraw(c.Request.Context(), c.GetString("user_id"), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendCreated(c, tx, "Withdrawal submitted for review")
}

// Transfer moves funds between the funding and trading wallets
// POST /api/v1/wallet/transfer
func (h *WalletHandler) Transfer(c *gin.Context) {
	var req model.TransferRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.walletService.Transfer(c.Request.Context(), c.GetString("user_id"), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, tx, "Transfer completed")
}

// Transactions lists the caller's ledger
// GET /api/v1/wallet/transactions?type=DEPOSIT&limit=20&offset=0
func (h *WalletHandler) Transactions(c *gin.Context) {
	limit, offset := pageParams(c)
	filter := model.TransactionFilter{
		Type:   model.TransactionType(strings.ToUpper(c.Query("type"))),
		Limit:  limit,
		Offset: offset,
	}

	txs, total, err := h.walletService.ListTransactions(c.Request.Context(), c.GetString("user_id"), filter)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendPaginated(c, txs, util.Pagination{Limit: limit, Offset: offset, Total: total})
}
