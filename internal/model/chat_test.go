package model

import "testing"

func TestMapStoredMessages(t *testing.T) {
	rows := []StoredMessage{
		{ID: "1", Message: "hi"},
		{ID: "2", Response: "hello"},
	}

	got := MapStoredMessages(rows)
	if len(got) != 2 {
		t.Fatalf("消息数不符: got %d, want 2", len(got))
	}
	if got[0].Role != "user" || got[0].Content != "hi" {
		t.Errorf("首条应为用户消息 hi: got %+v", got[0])
	}
	if got[1].Role != "assistant" || got[1].Content != "hello" {
		t.Errorf("次条应为助手消息 hello: got %+v", got[1])
	}
}

func TestMapStoredMessagesTextFallback(t *testing.T) {
	// 用户内容可能存在 text 字段而不是 message 字段
	rows := []StoredMessage{
		{ID: "1", Text: "from text"},
	}

	got := MapStoredMessages(rows)
	if len(got) != 1 {
		t.Fatalf("消息数不符: got %d, want 1", len(got))
	}
	if got[0].Role != "user" || got[0].Content != "from text" {
		t.Errorf("应取 text 字段作为用户内容: got %+v", got[0])
	}
}

func TestMapStoredMessagesCombinedRow(t *testing.T) {
	// 同一行既有用户消息又有回复时展开为两条，顺序保持先问后答
	rows := []StoredMessage{
		{ID: "1", Message: "question", Response: "answer"},
		{ID: "2", Message: "followup"},
	}

	got := MapStoredMessages(rows)
	if len(got) != 3 {
		t.Fatalf("消息数不符: got %d, want 3", len(got))
	}
	wantRoles := []string{"user", "assistant", "user"}
	wantContents := []string{"question", "answer", "followup"}
	for i := range got {
		if got[i].Role != wantRoles[i] || got[i].Content != wantContents[i] {
			t.Errorf("第 %d 条不符: got %s/%q, want %s/%q",
				i, got[i].Role, got[i].Content, wantRoles[i], wantContents[i])
		}
	}
}

func TestMapStoredMessagesEmptyRow(t *testing.T) {
	rows := []StoredMessage{{ID: "1"}}
	if got := MapStoredMessages(rows); len(got) != 0 {
		t.Errorf("空行不应产生消息: got %d", len(got))
	}
}
