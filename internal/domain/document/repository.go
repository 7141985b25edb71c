package document

import "time"

// MetadataRepository 文档元数据仓库
// JSON 文件是元数据的唯一权威来源
type MetadataRepository interface {
	// Get 读取元数据，不存在返回 ErrNotFound
	Get(userID, documentID string) (*Document, error)
	// Save 整体写入
	Save(userID string, doc *Document) error
	// Update 读取、深度合并 patch、写回
	Update(userID, documentID string, patch map[string]interface{}) (*Document, error)
	// Delete 删除元数据文件
	Delete(userID, documentID string) error
	// Exists 检查元数据是否存在
	Exists(userID, documentID string) bool
	// List 列出用户全部文档
	List(userID string) ([]*Document, error)
}

// CatalogEntry 文档目录行（元数据的可重建镜像）
type CatalogEntry struct {
	UserID        string
	DocumentID    string
	OriginalName  string
	SourceType    SourceType
	Status        Status
	State         State
	Size          int64
	HasMarkdown   bool
	HasChunks     bool
	HasQAPairs    bool
	HasEmbeddings bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CatalogFilter 目录查询条件，零值字段不参与过滤
type CatalogFilter struct {
	State         State
	SourceType    SourceType
	HasEmbeddings *bool
	Limit         int
	Offset        int
}

// CatalogRepository 文档目录仓库
type CatalogRepository interface {
	Upsert(entry *CatalogEntry) error
	Delete(userID, documentID string) error
	List(userID string, filter CatalogFilter) ([]*CatalogEntry, error)
	CountByState(userID string) (map[State]int, error)
	DeleteUser(userID string) error
}

// TransitionRecord 状态转换审计记录
type TransitionRecord struct {
	ID         int64
	UserID     string
	DocumentID string
	Event      Event
	FromState  State
	ToState    State
	Error      string
	CreatedAt  time.Time
}

// TransitionLogRepository 状态转换审计日志
type TransitionLogRepository interface {
	Append(record *TransitionRecord) error
	ListByDocument(userID, documentID string) ([]*TransitionRecord, error)
	DeleteByDocument(userID, documentID string) error
}

// TaskQueueRepository 处理任务队列
type TaskQueueRepository interface {
	EnqueueTask(task *ProcessingTask) error
	DequeueTasks(limit int) ([]*ProcessingTask, error)
	GetTask(userID, documentID string) (*ProcessingTask, error)
	UpdateTask(task *ProcessingTask) error
	DeleteTask(userID, documentID string) error
	ResetFailedTasks() (int, error)
	GetQueueStats() (*QueueStats, error)
}

// CatalogEntryFromDocument 由元数据生成目录行
func CatalogEntryFromDocument(userID string, doc *Document) *CatalogEntry {
	return &CatalogEntry{
		UserID:        userID,
		DocumentID:    doc.DocumentID,
		OriginalName:  doc.OriginalName,
		SourceType:    doc.SourceType,
		Status:        doc.Status,
		State:         doc.State,
		Size:          doc.Size,
		HasMarkdown:   doc.HasMarkdown,
		HasChunks:     doc.HasChunks,
		HasQAPairs:    doc.HasQAPairs,
		HasEmbeddings: doc.HasEmbeddings,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}
