// Package converter 把原始文档内容转换为 markdown
package converter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/log"
)

// 确保 HTTPConverter 实现了 document.Converter 接口
var _ document.Converter = (*HTTPConverter)(nil)

const readBufferSize = 32 << 10

// convertRequest 转换服务请求体
type convertRequest struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	FileType    string `json:"file_type,omitempty"`
}

// streamLine NDJSON 响应中的一行
type streamLine struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// HTTPConverter 调用外部转换服务，以流的形式读取结果
// 响应为 application/x-ndjson 时逐行解析 {"text": ...}，否则按原始文本分段读取
type HTTPConverter struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPConverter 创建转换服务客户端
// 超时由调用方的 ctx 控制
func NewHTTPConverter(url string) *HTTPConverter {
	return &HTTPConverter{
		url:    url,
		client: &http.Client{},
		logger: log.NewModuleLogger("converter", "http"),
	}
}

// Convert 发起转换，返回的 channel 在流结束后关闭
func (c *HTTPConverter) Convert(ctx context.Context, req document.ConvertRequest) (<-chan document.ConvertChunk, error) {
	body, err := json.Marshal(convertRequest{
		Content:     req.Content,
		ContentType: string(req.ContentType),
		FileType:    req.FileType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("converter returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.logger.Debug("conversion started",
		"content_type", req.ContentType,
		"file_type", req.FileType,
	)

	out := make(chan document.ConvertChunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		if strings.Contains(resp.Header.Get("Content-Type"), "ndjson") {
			streamNDJSON(ctx, resp.Body, out)
			return
		}
		streamRaw(ctx, resp.Body, out)
	}()
	return out, nil
}

func send(ctx context.Context, out chan<- document.ConvertChunk, chunk document.ConvertChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

func streamRaw(ctx context.Context, r io.Reader, out chan<- document.ConvertChunk) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if !send(ctx, out, document.ConvertChunk{Text: string(buf[:n])}) {
				return
			}
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			send(ctx, out, document.ConvertChunk{Err: fmt.Errorf("read converter stream: %w", err)})
			return
		}
	}
}

func streamNDJSON(ctx context.Context, r io.Reader, out chan<- document.ConvertChunk) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, readBufferSize), 16<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var msg streamLine
		if err := json.Unmarshal(line, &msg); err != nil {
			send(ctx, out, document.ConvertChunk{Err: fmt.Errorf("decode converter stream: %w", err)})
			return
		}
		if msg.Error != "" {
			send(ctx, out, document.ConvertChunk{Err: errors.New(msg.Error)})
			return
		}
		if !send(ctx, out, document.ConvertChunk{Text: msg.Text}) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		send(ctx, out, document.ConvertChunk{Err: fmt.Errorf("read converter stream: %w", err)})
	}
}

// Collect 读完转换流并拼接结果
// ctx 结束或流中出现错误时返回错误
func Collect(ctx context.Context, stream <-chan document.ConvertChunk) (string, error) {
	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case chunk, ok := <-stream:
			if !ok {
				return sb.String(), nil
			}
			if chunk.Err != nil {
				return "", chunk.Err
			}
			sb.WriteString(chunk.Text)
		}
	}
}
