package converter

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/docmind/backend/internal/domain/document"
)

// 确保 LocalConverter 实现了 document.Converter 接口
var _ document.Converter = (*LocalConverter)(nil)

// LocalConverter 处理无需外部服务的文本格式
// md/txt 原样输出，csv/json 包进代码块
type LocalConverter struct{}

// NewLocalConverter 创建本地转换器
func NewLocalConverter() *LocalConverter {
	return &LocalConverter{}
}

// localFileTypes 本地可处理的文件类型及其代码块语言，空字符串表示原样输出
var localFileTypes = map[string]string{
	"md":       "",
	"markdown": "",
	"txt":      "",
	"csv":      "csv",
	"json":     "json",
}

// Supports 是否可以本地处理
func (LocalConverter) Supports(req document.ConvertRequest) bool {
	if req.ContentType != document.ContentBase64 {
		return false
	}
	_, ok := localFileTypes[normalizeFileType(req.FileType)]
	return ok
}

// Convert 解码内容并一次性输出
func (l LocalConverter) Convert(ctx context.Context, req document.ConvertRequest) (<-chan document.ConvertChunk, error) {
	if !l.Supports(req) {
		return nil, fmt.Errorf("local converter cannot handle %q (%s)", req.FileType, req.ContentType)
	}
	raw, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		return nil, fmt.Errorf("decode base64 content: %w", err)
	}

	text := string(raw)
	if lang := localFileTypes[normalizeFileType(req.FileType)]; lang != "" {
		text = "```" + lang + "\n" + strings.TrimRight(text, "\n") + "\n```\n"
	}

	out := make(chan document.ConvertChunk, 1)
	out <- document.ConvertChunk{Text: text}
	close(out)
	return out, nil
}

func normalizeFileType(fileType string) string {
	return strings.TrimPrefix(strings.ToLower(fileType), ".")
}
