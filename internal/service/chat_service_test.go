package service

import (
	"context"
	"errors"
	"testing"

	"consumerai-go/internal/apperr"
	"consumerai-go/internal/model"
)

// fakeSessionRepo 在内存中复刻会话缓存的行为。
type fakeSessionRepo struct {
	sessions  map[uint]string
	histories map[string][]model.ChatMessage
	createErr error
	nextID    int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions:  make(map[uint]string),
		histories: make(map[string][]model.ChatMessage),
	}
}

func (f *fakeSessionRepo) GetSessionID(ctx context.Context, userID uint) (string, error) {
	return f.sessions[userID], nil
}

func (f *fakeSessionRepo) CreateSessionID(ctx context.Context, userID uint) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := string(rune('a' + f.nextID))
	f.sessions[userID] = id
	return id, nil
}

func (f *fakeSessionRepo) GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return f.histories[sessionID], nil
}

func (f *fakeSessionRepo) AppendMessages(ctx context.Context, sessionID string, messages []model.ChatMessage) error {
	f.histories[sessionID] = append(f.histories[sessionID], messages...)
	return nil
}

func (f *fakeSessionRepo) ReplaceHistory(ctx context.Context, sessionID string, messages []model.ChatMessage) error {
	f.histories[sessionID] = messages
	return nil
}

func (f *fakeSessionRepo) ClearSession(ctx context.Context, userID uint) error {
	id := f.sessions[userID]
	delete(f.sessions, userID)
	delete(f.histories, id)
	return nil
}

// fakeBot 可配置回复或失败。
type fakeBot struct {
	reply string
	err   error
}

func (f *fakeBot) SendMessage(ctx context.Context, sessionID string, history []model.ChatMessage, content string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeBot) GetHistory(ctx context.Context, sessionID string) ([]model.StoredMessage, error) {
	return nil, nil
}

func TestSendMessageSuccess(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewChatService(repo, &fakeBot{reply: "hello there"})

	reply, err := svc.SendMessage(context.Background(), 1, "hi")
	if err != nil {
		t.Fatalf("发送消息失败: %v", err)
	}
	if reply.Role != "assistant" || reply.Content != "hello there" {
		t.Errorf("回复不符: %+v", reply)
	}

	sessionID := repo.sessions[1]
	history := repo.histories[sessionID]
	if len(history) != 2 {
		t.Fatalf("历史条数不符: got %d, want 2", len(history))
	}
	if history[0].Role != "user" || history[1].Role != "assistant" {
		t.Errorf("历史顺序应为先问后答: %+v", history)
	}
}

func TestSendMessageRelayFailureKeepsUserMessage(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewChatService(repo, &fakeBot{err: errors.New("backend down")})

	_, err := svc.SendMessage(context.Background(), 1, "hi")
	if err == nil {
		t.Fatal("后端失败时应返回错误")
	}
	if apperr.KindOf(err) != apperr.Upstream {
		t.Errorf("错误分类不符: got %v, want Upstream", apperr.KindOf(err))
	}

	// 用户消息已落地，不因转发失败而丢弃
	sessionID := repo.sessions[1]
	history := repo.histories[sessionID]
	if len(history) != 1 || history[0].Role != "user" {
		t.Errorf("转发失败后用户消息应保留在历史中: %+v", history)
	}
}

func TestSessionCreationFailureIsExplicit(t *testing.T) {
	repo := newFakeSessionRepo()
	repo.createErr = errors.New("redis down")
	svc := NewChatService(repo, &fakeBot{reply: "x"})

	_, err := svc.GetOrCreateSession(context.Background(), 7)
	if err == nil {
		t.Fatal("会话创建失败必须显式报错，而不是退回其他标识")
	}
}

func TestResetSession(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewChatService(repo, &fakeBot{reply: "x"})

	if _, err := svc.SendMessage(context.Background(), 1, "hi"); err != nil {
		t.Fatalf("准备会话失败: %v", err)
	}
	if err := svc.ResetSession(context.Background(), 1); err != nil {
		t.Fatalf("重置会话失败: %v", err)
	}

	messages, err := svc.History(context.Background(), 1)
	if err != nil {
		t.Fatalf("查询历史失败: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("重置后历史应为空: got %d", len(messages))
	}
}
