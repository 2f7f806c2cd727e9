package handler

import (
	"consumerai-go/internal/middleware"
	"consumerai-go/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutHandler 负责处理订阅结账相关的 API 请求。
type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

// NewCheckoutHandler 创建一个新的 CheckoutHandler 实例。
func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// CreateSessionRequest 定义了创建结账会话 API 的请求体结构。
type CreateSessionRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// CreateSession 创建一个托管结账会话并返回跳转地址。
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "无效的请求负载：缺少套餐名")
		return
	}

	url, err := h.checkoutService.CreateSession(c.Request.Context(), middleware.CurrentUserID(c), req.Plan)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"url": url})
}

// Verify 查询一个结账会话的支付状态。
func (h *CheckoutHandler) Verify(c *gin.Context) {
	sessionID := c.Query("session_id")

	result, err := h.checkoutService.Verify(c.Request.Context(), middleware.CurrentUserID(c), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}
