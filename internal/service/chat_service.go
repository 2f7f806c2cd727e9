package service

import (
	"context"
	"time"

	"consumerai-go/internal/apperr"
	"consumerai-go/internal/model"
	"consumerai-go/internal/repository"
	"consumerai-go/pkg/chatbot"
	"consumerai-go/pkg/log"

	"github.com/google/uuid"
)

// ChatService 接口定义了对话相关的业务操作。
type ChatService interface {
	// GetOrCreateSession 返回用户当前会话 ID，没有则新建。
	// 会话创建失败是显式错误，绝不退回到用户 ID。
	GetOrCreateSession(ctx context.Context, userID uint) (string, error)
	// SendMessage 转发用户消息并返回助手回复。
	SendMessage(ctx context.Context, userID uint, content string) (*model.ChatMessage, error)
	// History 返回统一形态的会话历史。
	History(ctx context.Context, userID uint) ([]model.ChatMessage, error)
	// ResetSession 丢弃用户当前会话。
	ResetSession(ctx context.Context, userID uint) error
}

// chatService 是 ChatService 接口的实现。
type chatService struct {
	sessionRepo repository.SessionRepository
	bot         chatbot.Client
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(sessionRepo repository.SessionRepository, bot chatbot.Client) ChatService {
	return &chatService{
		sessionRepo: sessionRepo,
		bot:         bot,
	}
}

// GetOrCreateSession 返回当前会话 ID，没有则新建一个。
func (s *chatService) GetOrCreateSession(ctx context.Context, userID uint) (string, error) {
	sessionID, err := s.sessionRepo.GetSessionID(ctx, userID)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "获取会话失败", err)
	}
	if sessionID != "" {
		return sessionID, nil
	}

	sessionID, err = s.sessionRepo.CreateSessionID(ctx, userID)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "创建会话失败", err)
	}
	log.Infof("为用户 %d 创建新会话: %s", userID, sessionID)
	return sessionID, nil
}

// SendMessage 先落地用户消息再转发给聊天后端。
// 转发失败时用户消息保留在历史中，返回 Upstream 错误。
func (s *chatService) SendMessage(ctx context.Context, userID uint, content string) (*model.ChatMessage, error) {
	if content == "" {
		return nil, apperr.New(apperr.Validation, "消息内容不能为空")
	}

	sessionID, err := s.GetOrCreateSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.sessionRepo.GetHistory(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "读取会话历史失败", err)
	}

	userMsg := model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      "user",
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.sessionRepo.AppendMessages(ctx, sessionID, []model.ChatMessage{userMsg}); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "保存消息失败", err)
	}

	response, err := s.bot.SendMessage(ctx, sessionID, history, content)
	if err != nil {
		// 用户消息已在历史中，留着
		return nil, apperr.Wrap(apperr.Upstream, "助手暂时不可用，请稍后重试", err)
	}

	assistantMsg := model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      "assistant",
		Content:   response,
		CreatedAt: time.Now(),
	}
	if err := s.sessionRepo.AppendMessages(ctx, sessionID, []model.ChatMessage{assistantMsg}); err != nil {
		log.Errorf("保存助手回复失败: session=%s, error: %v", sessionID, err)
	}

	return &assistantMsg, nil
}

// History 优先返回本地缓存的历史；缓存为空时从后端回填并归一化。
func (s *chatService) History(ctx context.Context, userID uint) ([]model.ChatMessage, error) {
	sessionID, err := s.sessionRepo.GetSessionID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "获取会话失败", err)
	}
	if sessionID == "" {
		return []model.ChatMessage{}, nil
	}

	messages, err := s.sessionRepo.GetHistory(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "读取会话历史失败", err)
	}
	if len(messages) > 0 {
		return messages, nil
	}

	// 缓存为空（过期或首次在新实例上访问），从后端回填
	rows, err := s.bot.GetHistory(ctx, sessionID)
	if err != nil {
		log.Errorf("从聊天后端拉取历史失败: session=%s, error: %v", sessionID, err)
		return []model.ChatMessage{}, nil
	}

	messages = model.MapStoredMessages(rows)
	if len(messages) > 0 {
		if err := s.sessionRepo.ReplaceHistory(ctx, sessionID, messages); err != nil {
			log.Errorf("回填会话历史失败: session=%s, error: %v", sessionID, err)
		}
	}
	return messages, nil
}

// ResetSession 丢弃当前会话及其历史。
func (s *chatService) ResetSession(ctx context.Context, userID uint) error {
	if err := s.sessionRepo.ClearSession(ctx, userID); err != nil {
		return apperr.Wrap(apperr.Internal, "重置会话失败", err)
	}
	return nil
}
