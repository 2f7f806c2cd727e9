package handler

import (
	"consumerai-go/internal/service"
	"consumerai-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责处理认证相关的 API 请求。
type AuthHandler struct {
	userService service.UserService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// RegisterRequest 定义了用户注册 API 的请求体结构。
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
}

// Register 处理用户注册请求。
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Register: Invalid request payload, error: %v", err)
		respondBadRequest(c, "无效的请求负载：用户名和密码不能为空")
		return
	}

	user, err := h.userService.Register(req.Username, req.Password, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Infof("User '%s' registered successfully", user.Username)
	respondOK(c, gin.H{"id": user.ID, "username": user.Username})
}

// LoginRequest 定义了用户登录 API 的请求体结构。
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 处理用户登录请求。
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: Invalid request payload, error: %v", err)
		respondBadRequest(c, "无效的请求负载：用户名和密码不能为空")
		return
	}

	user, pair, err := h.userService.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Infof("User '%s' logged in successfully", req.Username)
	respondOK(c, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"user":         user,
	})
}

// Logout 处理退出登录请求，将当前 token 加入黑名单。
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenString := c.GetString("token")
	if err := h.userService.Logout(c.Request.Context(), tokenString); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// RefreshRequest 定义了刷新令牌 API 的请求体结构。
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh 用 refresh token 换取新的令牌对。
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "无效的请求负载：缺少刷新令牌")
		return
	}

	pair, err := h.userService.RefreshToken(req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, pair)
}
