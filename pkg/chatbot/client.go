// Package chatbot provides a client for the hosted chat-completion backend.
// The backend is an opaque service answering with a {data, error} JSON envelope.
package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"consumerai-go/internal/config"
	"consumerai-go/internal/model"
	"consumerai-go/pkg/log"
)

// Client defines the interface for the chat backend client.
type Client interface {
	// SendMessage 转发一条用户消息并返回助手回复文本。
	SendMessage(ctx context.Context, sessionID string, history []model.ChatMessage, content string) (string, error)
	// GetHistory 拉取一个会话在后端侧的历史记录（异构形态，由调用方归一）。
	GetHistory(ctx context.Context, sessionID string) ([]model.StoredMessage, error)
}

type httpClient struct {
	cfg    config.ChatBotConfig
	client *http.Client
}

// NewClient creates a new chat backend client.
func NewClient(cfg config.ChatBotConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	SessionID string              `json:"sessionId"`
	Message   string              `json:"message"`
	History   []model.ChatMessage `json:"history,omitempty"`
}

// envelope 对应后端统一的 {data, error} 响应形态。
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

type sendData struct {
	Response string `json:"response"`
}

type historyData struct {
	Messages []model.StoredMessage `json:"messages"`
}

// SendMessage 调用聊天后端并返回助手回复。
func (c *httpClient) SendMessage(ctx context.Context, sessionID string, history []model.ChatMessage, content string) (string, error) {
	reqBody := sendRequest{SessionID: sessionID, Message: content, History: history}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/api/chat", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[ChatBot] 调用聊天后端失败, error: %v", err)
		return "", fmt.Errorf("failed to call chat backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Errorf("[ChatBot] 聊天后端返回非 200 状态码: %s, body: %s", resp.Status, string(bodyBytes))
		return "", fmt.Errorf("chat backend returned non-200 status: %s", resp.Status)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if env.Error != "" {
		return "", fmt.Errorf("chat backend returned error: %s", env.Error)
	}

	var data sendData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", fmt.Errorf("failed to decode chat data: %w", err)
	}
	if data.Response == "" {
		return "", fmt.Errorf("chat backend returned empty response")
	}
	return data.Response, nil
}

// GetHistory 拉取后端侧的会话历史。
func (c *httpClient) GetHistory(ctx context.Context, sessionID string) ([]model.StoredMessage, error) {
	u := fmt.Sprintf("%s/api/chat/history?sessionId=%s", c.cfg.BaseURL, url.QueryEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create history request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call chat backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat backend returned non-200 status: %s", resp.Status)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode history response: %w", err)
	}
	if env.Error != "" {
		return nil, fmt.Errorf("chat backend returned error: %s", env.Error)
	}

	var data historyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode history data: %w", err)
	}
	return data.Messages, nil
}
