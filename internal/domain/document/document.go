package document

import (
	"path/filepath"
	"strings"
	"time"
)

// SourceType 文档来源类型
type SourceType string

const (
	SourceLocal  SourceType = "local"  // 本地上传文件
	SourceRemote SourceType = "remote" // 远程 URL 文件
	SourceWeb    SourceType = "web"    // 网页书签
	SourceChat   SourceType = "chat"   // 保存的对话
)

// IsValid 检查来源类型
func (s SourceType) IsValid() bool {
	switch s {
	case SourceLocal, SourceRemote, SourceWeb, SourceChat:
		return true
	}
	return false
}

// Status 文档状态（软删除标记，与处理阶段无关）
type Status string

const (
	StatusActive     Status = "active"
	StatusDeleted    Status = "deleted"
	StatusProcessing Status = "processing"
)

// Stage 处理阶段
type Stage string

const (
	StageMarkdown     Stage = "markdown"
	StageChunking     Stage = "chunking"
	StageQAExtraction Stage = "qa_extraction"
	StageEmbedding    Stage = "embedding"
)

// AllStages 全部处理阶段
var AllStages = []Stage{StageMarkdown, StageChunking, StageQAExtraction, StageEmbedding}

// StageState 阶段子状态
type StageState string

const (
	StagePending       StageState = "pending"
	StageProcessing    StageState = "processing"
	StageCompleted     StageState = "completed"
	StageFailed        StageState = "failed"
	StageNotApplicable StageState = "not_applicable"
)

// ProcessDetail 单个阶段的处理记录
type ProcessDetail struct {
	Stage      Stage                  `json:"stage"`
	State      StageState             `json:"state"`
	StartedAt  *time.Time             `json:"started_at"`
	FinishedAt *time.Time             `json:"finished_at"`
	Success    *bool                  `json:"success"`
	Error      string                 `json:"error"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Chunk 文档分块
type Chunk struct {
	Index    int                    `json:"index"`
	Content  string                 `json:"content"`
	Heading  string                 `json:"heading,omitempty"`
	Tokens   int                    `json:"tokens,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// QAPair 从对话中抽取的问答对
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Index    int    `json:"index"`
}

// ChatMessage 对话消息
type ChatMessage struct {
	Role    string    `json:"role"` // user / assistant / system
	Content string    `json:"content"`
	Time    time.Time `json:"time,omitempty"`
}

// Document 文档元数据，以 JSON 形式持久化在 meta/<document_id>.json
type Document struct {
	DocumentID     string                   `json:"document_id"`
	OriginalName   string                   `json:"original_name"`
	Size           int64                    `json:"size"`
	Type           string                   `json:"type"`
	Extension      string                   `json:"extension"`
	SourceType     SourceType               `json:"source_type"`
	SourceURL      string                   `json:"source_url,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
	Status         Status                   `json:"status"`
	State          State                    `json:"state"`
	ProcessDetails map[Stage]*ProcessDetail `json:"process_details"`
	HasMarkdown    bool                     `json:"has_markdown"`
	HasChunks      bool                     `json:"has_chunks"`
	HasEmbeddings  bool                     `json:"has_embeddings"`
	HasQAPairs     bool                     `json:"has_qa_pairs"`
	Chunks         []Chunk                  `json:"chunks,omitempty"`
	QAPairsCount   int                      `json:"qa_pairs_count,omitempty"`
	Metadata       map[string]interface{}   `json:"metadata,omitempty"`
}

// Flags 返回当前持久化的标记
func (d *Document) Flags() Flags {
	return Flags{
		HasMarkdown:   d.HasMarkdown,
		HasChunks:     d.HasChunks,
		HasQAPairs:    d.HasQAPairs,
		HasEmbeddings: d.HasEmbeddings,
	}
}

// ApplyFlags 写入派生标记
func (d *Document) ApplyFlags(f Flags) {
	d.HasMarkdown = f.HasMarkdown
	d.HasChunks = f.HasChunks
	d.HasQAPairs = f.HasQAPairs
	d.HasEmbeddings = f.HasEmbeddings
}

// Detail 返回阶段记录，不存在时返回 nil
func (d *Document) Detail(stage Stage) *ProcessDetail {
	if d.ProcessDetails == nil {
		return nil
	}
	return d.ProcessDetails[stage]
}

// NewProcessDetails 按来源类型初始化各阶段记录
func NewProcessDetails(source SourceType) map[Stage]*ProcessDetail {
	details := make(map[Stage]*ProcessDetail, len(AllStages))
	for _, stage := range AllStages {
		st := StagePending
		switch {
		case source == SourceChat && (stage == StageMarkdown || stage == StageChunking):
			st = StageNotApplicable
		case source != SourceChat && stage == StageQAExtraction:
			st = StageNotApplicable
		}
		details[stage] = &ProcessDetail{Stage: stage, State: st}
	}
	return details
}

// NormalizeExtension 统一扩展名格式为小写且带点
func NormalizeExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	return ext
}
