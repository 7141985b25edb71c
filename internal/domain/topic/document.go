// Package topic 定义主题树中的 markdown 文档模型
package topic

import "time"

// Document 主题树中的文档
// 文件名为 __id_<document_id>__.md，元数据以 YAML front matter 存放在文件头部
type Document struct {
	DocumentID string                 `json:"document_id"`
	Title      string                 `json:"title"`
	TopicPath  string                 `json:"topic_path"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
	Content    string                 `json:"content"`
}

// Summary 列表展示用的文档摘要
type Summary struct {
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title"`
	TopicPath  string    `json:"topic_path"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Listing 主题目录内容
type Listing struct {
	TopicPath string    `json:"topic_path"`
	Topics    []string  `json:"topics"`
	Documents []Summary `json:"documents"`
}

// RepairReport 修复结果
type RepairReport struct {
	TopicPath string   `json:"topic_path"`
	Scanned   int      `json:"scanned"`
	Repaired  []string `json:"repaired"`
}
