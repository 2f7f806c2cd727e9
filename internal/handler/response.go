// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"consumerai-go/internal/apperr"
	"consumerai-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// respondOK 以统一的 {code, message, data} 信封返回成功响应。
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    data,
	})
}

// respondError 将业务错误映射为 HTTP 状态码。
// 内部原因只进日志，客户端只能看到分类后的安全消息。
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		log.Warnf("%s %s rejected: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{
		"code":    status,
		"message": apperr.Message(err),
	})
}

// respondBadRequest 用于请求体绑定失败的场景。
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    http.StatusBadRequest,
		"message": message,
	})
}
