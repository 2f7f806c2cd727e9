// Package ocr 提供了一个与 Google Vision OCR 服务交互的客户端，
// 作为扫描件（无文本层的 PDF）的兜底识别手段。
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"consumerai-go/internal/config"
	"consumerai-go/pkg/log"
)

// MaxPayloadBytes 是 OCR 服务接受的最大文档体积（20MB）。
const MaxPayloadBytes = 20 * 1024 * 1024

// ErrTooLarge 表示文档超过了 OCR 服务的体积上限。
var ErrTooLarge = errors.New("document exceeds ocr payload limit")

// Client 是 OCR 服务的客户端。
type Client struct {
	cfg    config.OCRConfig
	client *http.Client
}

// NewClient 创建一个新的 OCR 客户端实例。
func NewClient(cfg config.OCRConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type annotateRequest struct {
	Requests []struct {
		Image struct {
			Content string `json:"content"`
		} `json:"image"`
		Features []struct {
			Type string `json:"type"`
		} `json:"features"`
	} `json:"requests"`
}

type annotateResponse struct {
	Responses []struct {
		FullTextAnnotation struct {
			Text string `json:"text"`
		} `json:"fullTextAnnotation"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// DetectText 将整份文档提交给 OCR 服务并返回识别出的全文。
func (c *Client) DetectText(ctx context.Context, data []byte) (string, error) {
	if len(data) > MaxPayloadBytes {
		return "", ErrTooLarge
	}

	var reqBody annotateRequest
	reqBody.Requests = make([]struct {
		Image struct {
			Content string `json:"content"`
		} `json:"image"`
		Features []struct {
			Type string `json:"type"`
		} `json:"features"`
	}, 1)
	reqBody.Requests[0].Image.Content = base64.StdEncoding.EncodeToString(data)
	reqBody.Requests[0].Features = []struct {
		Type string `json:"type"`
	}{{Type: "DOCUMENT_TEXT_DETECTION"}}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ocr request: %w", err)
	}

	u := fmt.Sprintf("%s/v1/images:annotate?key=%s", c.cfg.Endpoint, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[OCRClient] 调用 OCR 服务失败, error: %v", err)
		return "", fmt.Errorf("failed to call ocr api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[OCRClient] OCR 服务返回非 200 状态码: %s", resp.Status)
		return "", fmt.Errorf("ocr api returned non-200 status: %s", resp.Status)
	}

	var parsed annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode ocr response: %w", err)
	}
	if len(parsed.Responses) == 0 {
		return "", errors.New("ocr api returned empty responses")
	}
	if parsed.Responses[0].Error.Message != "" {
		return "", fmt.Errorf("ocr api returned error: %s", parsed.Responses[0].Error.Message)
	}

	return parsed.Responses[0].FullTextAnnotation.Text, nil
}
