// Package notify 提供了一个尽力而为的 webhook 通知客户端。
// 发送失败只记录日志，绝不影响主流程。
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"consumerai-go/internal/config"
)

// Client 是 webhook 通知客户端。
type Client struct {
	cfg    config.NotifyConfig
	client *http.Client
}

// NewClient 创建一个新的通知客户端实例。
func NewClient(cfg config.NotifyConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Enabled 返回是否配置了通知地址。
func (c *Client) Enabled() bool {
	return c.cfg.WebhookURL != ""
}

// Post 将任意事件负载以 JSON 形式 POST 到配置的 webhook 地址。
func (c *Client) Post(ctx context.Context, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notify payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create notify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify endpoint returned status: %s", resp.Status)
	}
	return nil
}
