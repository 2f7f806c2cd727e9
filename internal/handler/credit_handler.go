package handler

import (
	"consumerai-go/internal/config"
	"consumerai-go/internal/middleware"
	"consumerai-go/internal/service"

	"github.com/gin-gonic/gin"
)

// CreditHandler 负责处理积分相关的 API 请求。
type CreditHandler struct {
	creditService service.CreditService
	creditsCfg    config.CreditsConfig
}

// NewCreditHandler 创建一个新的 CreditHandler 实例。
func NewCreditHandler(creditService service.CreditService, creditsCfg config.CreditsConfig) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
		creditsCfg:    creditsCfg,
	}
}

// AwardRequest 定义了积分奖励 API 的请求体结构。
type AwardRequest struct {
	SourceID string `json:"sourceId" binding:"required"`
	Points   int    `json:"points"`
}

// Award 给当前用户奖励指定分值的积分。
func (h *CreditHandler) Award(c *gin.Context) {
	var req AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "无效的请求负载：缺少来源标识")
		return
	}

	points := req.Points
	if points == 0 {
		points = h.creditsCfg.ClickPoints
	}

	balance, err := h.creditService.Award(c.Request.Context(), middleware.CurrentUserID(c), req.SourceID, points)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"credits": balance})
}

// ClickRequest 定义了合作方链接点击 API 的请求体结构。
type ClickRequest struct {
	LinkID string `json:"linkId" binding:"required"`
}

// Click 记录一次合作方链接点击并奖励固定分值。
func (h *CreditHandler) Click(c *gin.Context) {
	var req ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "无效的请求负载：缺少链接标识")
		return
	}

	balance, err := h.creditService.Award(c.Request.Context(), middleware.CurrentUserID(c), req.LinkID, h.creditsCfg.ClickPoints)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"credits": balance})
}

// SpendRequest 定义了积分扣减 API 的请求体结构。
type SpendRequest struct {
	Cost int `json:"cost"`
}

// Spend 扣减当前用户的积分（模板使用等消耗场景）。
func (h *CreditHandler) Spend(c *gin.Context) {
	var req SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "无效的请求负载")
		return
	}

	cost := req.Cost
	if cost == 0 {
		cost = h.creditsCfg.TemplateCost
	}

	balance, err := h.creditService.Spend(middleware.CurrentUserID(c), cost)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"credits": balance})
}
