package document

import "context"

// ContentType 转换器输入内容的类型
type ContentType string

const (
	ContentURL    ContentType = "url"
	ContentBase64 ContentType = "base64"
)

// ConvertRequest 转换请求
type ConvertRequest struct {
	Content     string
	ContentType ContentType
	FileType    string // 扩展名，不带点，可为空
}

// ConvertChunk 转换输出的一段文本
// Err 非空表示流已出错终止
type ConvertChunk struct {
	Text string
	Err  error
}

// Converter 把原始内容转换为 markdown 文本
// 返回的 channel 在结束或 ctx 取消后关闭
type Converter interface {
	Convert(ctx context.Context, req ConvertRequest) (<-chan ConvertChunk, error)
}

// AddResult 写入向量索引的结果
type AddResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// QueryRequest 向量检索请求
type QueryRequest struct {
	QueryTexts []string
	Collection string
	UserID     string
	Limit      int
	Filter     map[string]string
}

// QueryResult 检索结果
type QueryResult struct {
	Text     string            `json:"text"`
	Distance float32           `json:"distance"`
	Metadata map[string]string `json:"metadata"`
}

// VectorIndex 向量索引
type VectorIndex interface {
	Add(ctx context.Context, collection, userID string, texts []string, metadatas []map[string]string) (*AddResult, error)
	Delete(ctx context.Context, collection, userID, documentID string) error
	Query(ctx context.Context, req QueryRequest) ([]QueryResult, error)
}
