package handler

import (
	"consumerai-go/internal/middleware"
	"consumerai-go/internal/service"

	"github.com/gin-gonic/gin"
)

// TradelineHandler 负责处理交易线目录与订单相关的 API 请求。
type TradelineHandler struct {
	tradelineService service.TradelineService
}

// NewTradelineHandler 创建一个新的 TradelineHandler 实例。
func NewTradelineHandler(tradelineService service.TradelineService) *TradelineHandler {
	return &TradelineHandler{tradelineService: tradelineService}
}

// List 返回上架中的交易线目录。
func (h *TradelineHandler) List(c *gin.Context) {
	tradelines, err := h.tradelineService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"tradelines": tradelines})
}

// SignAgreement 保存一份签署的购买协议。
func (h *TradelineHandler) SignAgreement(c *gin.Context) {
	var input service.SignAgreementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "无效的请求负载：姓名、邮箱和签名不能为空")
		return
	}

	agreementID, err := h.tradelineService.SignAgreement(middleware.CurrentUserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"agreementId": agreementID})
}

// CreateOrder 创建一个交易线订单。
func (h *TradelineHandler) CreateOrder(c *gin.Context) {
	var input service.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "无效的请求负载：缺少交易线或协议标识")
		return
	}

	order, err := h.tradelineService.CreateOrder(middleware.CurrentUserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// ListOrders 返回当前用户的订单列表。
func (h *TradelineHandler) ListOrders(c *gin.Context) {
	orders, err := h.tradelineService.ListOrders(middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"orders": orders})
}

// Sync 将内置目录数据写入数据库（管理员）。
func (h *TradelineHandler) Sync(c *gin.Context) {
	result, err := h.tradelineService.Sync()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Seed 在目录为空时初始化目录数据（管理员）。
func (h *TradelineHandler) Seed(c *gin.Context) {
	result, err := h.tradelineService.Seed()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}
