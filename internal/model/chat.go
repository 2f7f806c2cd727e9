package model

import (
	"time"
)

// ChatMessage 代表会话历史中的单条消息，是整个应用内统一的消息形态。
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredMessage 代表托管聊天后端返回的历史记录行。
// 后端的存储形态并不统一：用户消息可能放在 message 或 text 字段，
// 助手回复放在 response 字段。映射时按此规则归一。
type StoredMessage struct {
	ID        string    `json:"id"`
	Message   string    `json:"message,omitempty"`
	Text      string    `json:"text,omitempty"`
	Response  string    `json:"response,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MapStoredMessages 将异构的后端历史记录行映射为统一的 ChatMessage 列表。
// 插入顺序被原样保留；一行同时携带用户消息与回复时会展开成两条。
func MapStoredMessages(rows []StoredMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(rows))
	for _, r := range rows {
		content := r.Message
		if content == "" {
			content = r.Text
		}
		if content != "" {
			out = append(out, ChatMessage{
				ID:        r.ID,
				Role:      "user",
				Content:   content,
				CreatedAt: r.CreatedAt,
			})
		}
		if r.Response != "" {
			out = append(out, ChatMessage{
				ID:        r.ID,
				Role:      "assistant",
				Content:   r.Response,
				CreatedAt: r.CreatedAt,
			})
		}
	}
	return out
}
