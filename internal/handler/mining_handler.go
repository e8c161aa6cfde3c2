package handler

import (
	"tslaglobal/backend/internal/service"
	"tslaglobal/backend/internal/util"

	"github.com/gin-gonic/gin"
)

// MiningHandler serves cloud mining and the airdrop quest
type MiningHandler struct {
	miningService  *service.MiningService
	airdropService *service.AirdropService
}

func NewMiningHandler(miningService *service.MiningService, airdropService *service.AirdropService) *MiningHandler {
	return &MiningHandler{
		miningService:  miningService,
		airdropService: airdropService,
	}
}

// Rigs lists the rig catalog
// GET /api/v1/mining/rigs
func (h *MiningHandler) Rigs(c *gin.Context) {
	util.SendSuccess(c, h.miningService.ListRigs(c.Request.Context()))
}

// Status returns the caller's mining panel
// GET /api/v1/mining
func (h *MiningHandler) Status(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	util.SendSuccess(c, h.miningService.Status(c.Request.Context(), user))
}

// BuyRig purchases a catalog rig with funding USDT
// POST /api/v1/mining/rigs/:id/buy
func (h *MiningHandler) BuyRig(c *gin.Context) {
	status, err := h.miningService.BuyRig(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccessWithMessage(c, status, "Rig purchased")
}

// Start POST /api/v1/mining/start
func (h *MiningHandler) Start(c *gin.Context) {
	status, err := h.miningService.Start(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, status)
}

// Stop POST /api/v1/mining/stop
func (h *MiningHandler) Stop(c *gin.Context) {
	status, err := h.miningService.Stop(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, status)
}

// Boost POST /api/v1/mining/boost
func (h *MiningHandler) Boost(c *gin.Context) {
	status, err := h.miningService.Boost(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, status)
}

// Claim moves the mining balance to the funding wallet
// POST /api/v1/mining/claim
func (h *MiningHandler) Claim(c *gin.Context) {
	tx, err := h.miningService.Claim(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccessWithMessage(c, tx, "Mining rewards claimed")
}

// AirdropStatus GET /api/v1/airdrop
func (h *MiningHandler) AirdropStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	status, err := h.airdropService.Status(c.Request.Context(), user)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, status)
}

// ClaimAirdrop POST /api/v1/airdrop/claim
func (h *MiningHandler) ClaimAirdrop(c *gin.Context) {
	tx, err := h.airdropService.Claim(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccessWithMessage(c, tx, "Airdrop claimed")
}
