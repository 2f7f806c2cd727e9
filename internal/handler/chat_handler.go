package handler

import (
	"context"
	"net/http"

	"consumerai-go/internal/middleware"
	"consumerai-go/internal/progress"
	"consumerai-go/internal/service"
	"consumerai-go/pkg/log"
	"consumerai-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ChatHandler 负责处理对话相关的 API 请求。
type ChatHandler struct {
	chatService service.ChatService
	jwtManager  *token.JWTManager
	simulator   *progress.Simulator
	upgrader    websocket.Upgrader
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService, jwtManager *token.JWTManager, simulator *progress.Simulator) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		jwtManager:  jwtManager,
		simulator:   simulator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Session 返回当前会话 ID，没有则创建。
func (h *ChatHandler) Session(c *gin.Context) {
	sessionID, err := h.chatService.GetOrCreateSession(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"sessionId": sessionID})
}

// ResetSession 丢弃当前会话。
func (h *ChatHandler) ResetSession(c *gin.Context) {
	if err := h.chatService.ResetSession(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// SendMessageRequest 定义了发送消息 API 的请求体结构。
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendMessage 处理一次用户消息并返回助手回复。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "无效的请求负载：消息内容不能为空")
		return
	}

	reply, err := h.chatService.SendMessage(c.Request.Context(), middleware.CurrentUserID(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, reply)
}

// History 返回当前会话的历史消息。
func (h *ChatHandler) History(c *gin.Context) {
	messages, err := h.chatService.History(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"messages": messages})
}

// wsSink 把进度事件写到 websocket 连接上。
type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) Send(event progress.Event) error {
	return s.conn.WriteJSON(event)
}

// Progress 通过 WebSocket 播放活动进度事件。
// 浏览器的 WebSocket API 无法携带请求头，token 以路径参数传递。
func (h *ChatHandler) Progress(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效或已过期的 token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("WebSocket 升级失败: userID=%d, error: %v", claims.UserID, err)
		return
	}
	defer conn.Close()

	// 读协程只用于感知断连，客户端断开即取消播放
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	if err := h.simulator.Run(ctx, &wsSink{conn: conn}); err != nil {
		log.Infof("进度播放提前结束: userID=%d, reason: %v", claims.UserID, err)
	}
}
