package converter

import (
	"context"
	"fmt"

	"github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/config"
)

// 确保 Router 实现了 document.Converter 接口
var _ document.Converter = (*Router)(nil)

// Router 文本格式本地处理，其余交给转换服务
type Router struct {
	local  *LocalConverter
	remote document.Converter
}

// NewRouter 创建转换路由，remote 可以为 nil
func NewRouter(local *LocalConverter, remote document.Converter) *Router {
	return &Router{local: local, remote: remote}
}

// ProvideConverter 按配置组装转换器
func ProvideConverter(cfg *config.Config) document.Converter {
	var remote document.Converter
	if cfg.Converter.URL != "" {
		remote = NewHTTPConverter(cfg.Converter.URL)
	}
	return NewRouter(NewLocalConverter(), remote)
}

// Convert 选择转换器
func (r *Router) Convert(ctx context.Context, req document.ConvertRequest) (<-chan document.ConvertChunk, error) {
	if r.local.Supports(req) {
		return r.local.Convert(ctx, req)
	}
	if r.remote == nil {
		return nil, fmt.Errorf("no converter configured for file type %q", req.FileType)
	}
	return r.remote.Convert(ctx, req)
}
