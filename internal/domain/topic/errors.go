package topic

import "errors"

var (
	// ErrInvalidPath 主题路径或名称非法
	ErrInvalidPath = errors.New("invalid topic path")
	// ErrRootTopic 根主题不支持该操作
	ErrRootTopic = errors.New("operation not allowed on root topic")
	// ErrTopicNotFound 主题不存在
	ErrTopicNotFound = errors.New("topic not found")
	// ErrTopicExists 目标主题已存在
	ErrTopicExists = errors.New("topic already exists")
	// ErrDocumentNotFound 文档不存在
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDocumentExists 目标位置已有同 ID 文档
	ErrDocumentExists = errors.New("document already exists at target")
	// ErrInvalidDocument 文档字段非法
	ErrInvalidDocument = errors.New("invalid document")
	// ErrOperationFailed 文件系统操作失败
	ErrOperationFailed = errors.New("topic operation failed")
)
