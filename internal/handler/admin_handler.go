package handler

import (
	"strconv"

	"consumerai-go/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler 负责处理管理端的 API 请求。
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers 分页返回用户列表。
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	result, err := h.adminService.ListUsers(page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}
