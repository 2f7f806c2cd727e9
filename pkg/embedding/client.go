// Package embedding provides a client for creating text embeddings.
package embedding

import (
	"context"
	"fmt"

	"consumerai-go/internal/config"
	"consumerai-go/pkg/log"

	openai "github.com/sashabaranov/go-openai"
)

// Client defines the interface for an embedding client.
type Client interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	Model() string
}

type openaiClient struct {
	api   *openai.Client
	model string
}

// NewClient creates a new embedding client from the config.
func NewClient(cfg config.EmbeddingConfig) Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &openaiClient{
		api:   openai.NewClientWithConfig(apiCfg),
		model: model,
	}
}

// CreateEmbedding 调用 OpenAI 兼容接口获取文本向量。
func (c *openaiClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		log.Errorf("[EmbeddingClient] 调用 Embedding API 失败, error: %v", err)
		return nil, fmt.Errorf("failed to call embedding api: %w", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		log.Warnf("[EmbeddingClient] Embedding API 返回了空的向量数据")
		return nil, fmt.Errorf("received empty embedding from api")
	}
	return resp.Data[0].Embedding, nil
}

// Model 返回当前使用的模型名，写入分块记录的 model_version 字段。
func (c *openaiClient) Model() string {
	return c.model
}
