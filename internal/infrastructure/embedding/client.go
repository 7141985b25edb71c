// Package embedding 调用 OpenAI 兼容的 embeddings 接口
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/docmind/backend/internal/infrastructure/config"
	"github.com/docmind/backend/internal/infrastructure/log"
)

const (
	// maxBatchSize OpenAI embeddings API 每次最多 2048 个文本
	maxBatchSize       = 2048
	maxRetriesPerBatch = 3
)

// Client Embedding API 客户端
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient 创建 Embedding 客户端
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryDelay: time.Second,
		logger:     log.NewModuleLogger("embedding", "client"),
	}
}

// ProvideClient 按配置创建客户端
func ProvideClient(cfg *config.EmbeddingConfig) *Client {
	return NewClient(cfg.URL, cfg.APIKey, cfg.Model)
}

// buildEmbeddingURL 构建 Embedding API URL
// 支持多种输入格式，智能拼接 /v1/embeddings 路径
func buildEmbeddingURL(baseURL string) string {
	switch {
	case strings.Contains(baseURL, "/v1/embeddings"):
		return baseURL
	case strings.HasSuffix(baseURL, "/v1"):
		return baseURL + "/embeddings"
	default:
		return baseURL + "/v1/embeddings"
	}
}

// EmbeddingRequest Embedding 请求
type EmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingResponse Embedding 响应
type EmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// Embed 批量向量化文本，超过单批上限时分批处理
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embedWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d: %w", i/maxBatchSize+1, err)
		}
		all = append(all, vectors...)
	}
	return all, nil
}

// embedWithRetry 单批请求，失败时递增延迟重试
func (c *Client) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(EmbeddingRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	url := buildEmbeddingURL(c.baseURL)

	var lastErr error
	for attempt := 0; attempt < maxRetriesPerBatch; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * c.retryDelay):
			}
		}

		vectors, retryable, err := c.do(ctx, url, body, len(texts))
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.logger.Warn("embedding request failed, retrying",
			"attempt", attempt+1,
			"max_retries", maxRetriesPerBatch,
			"error", err,
		)
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, url string, body []byte, n int) ([][]float32, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Data) != n {
		return nil, false, fmt.Errorf("expected %d embeddings, got %d", n, len(parsed.Data))
	}

	vectors := make([][]float32, n)
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= n {
			return nil, false, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, false, nil
}
