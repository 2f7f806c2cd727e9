package handler

import (
	"consumerai-go/internal/middleware"
	"consumerai-go/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责处理当前用户相关的 API 请求。
type UserHandler struct {
	userService     service.UserService
	creditService   service.CreditService
	documentService service.DocumentService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService, creditService service.CreditService, documentService service.DocumentService) *UserHandler {
	return &UserHandler{
		userService:     userService,
		creditService:   creditService,
		documentService: documentService,
	}
}

// Me 返回当前用户的资料。
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetProfile(middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

// MyCredits 返回当前用户的积分余额。
func (h *UserHandler) MyCredits(c *gin.Context) {
	balance, err := h.creditService.Balance(middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"credits": balance})
}

// MyFiles 返回当前用户的文件列表和统计信息。
func (h *UserHandler) MyFiles(c *gin.Context) {
	listing, err := h.documentService.Files(middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, listing)
}
