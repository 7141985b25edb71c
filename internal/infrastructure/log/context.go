package log

import (
	"context"
	"log/slog"
)

type ctxKey string

// 上下文字段
const (
	RequestIDKey  ctxKey = "request_id"
	UserIDKey     ctxKey = "user_id"
	DocumentIDKey ctxKey = "document_id"
	TopicPathKey  ctxKey = "topic_path"
)

var ctxKeys = []ctxKey{RequestIDKey, UserIDKey, DocumentIDKey, TopicPathKey}

// WithRequestID 在上下文中记录请求 ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// WithUserID 在上下文中记录用户 ID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithDocument 在上下文中记录用户与文档
func WithDocument(ctx context.Context, userID, documentID string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, DocumentIDKey, documentID)
}

// WithTopicPath 在上下文中记录主题路径
func WithTopicPath(ctx context.Context, topicPath string) context.Context {
	return context.WithValue(ctx, TopicPathKey, topicPath)
}

// AttrsFromContext 提取上下文中的日志字段
func AttrsFromContext(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, k := range ctxKeys {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(k), v))
		}
	}
	return attrs
}

// FromContext 返回附加了上下文字段的 logger
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	attrs := AttrsFromContext(ctx)
	if len(attrs) == 0 {
		return logger
	}
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return logger.With(args...)
}
