package document

// State 文档处理状态
type State string

const (
	StateInit State = "init"

	StateUploaded   State = "uploaded"
	StateBookmarked State = "bookmarked"
	StateSavedChat  State = "saved_chat"

	StateMarkdowning    State = "markdowning"
	StateMarkdowned     State = "markdowned"
	StateMarkdownFailed State = "markdown_failed"

	StateChunking    State = "chunking"
	StateChunked     State = "chunked"
	StateChunkFailed State = "chunk_failed"

	StateQAExtracting    State = "qa_extracting"
	StateQAExtracted     State = "qa_extracted"
	StateQAExtractFailed State = "qa_extract_failed"

	StateEmbedding       State = "embedding"
	StateEmbedded        State = "embedded"
	StateEmbeddingFailed State = "embedding_failed"
)

// Event 状态机事件
type Event string

const (
	EventUpload   Event = "upload"
	EventBookmark Event = "bookmark"
	EventSaveChat Event = "save_chat"

	EventStartMarkdownFromUpload   Event = "start_markdown_from_upload"
	EventStartMarkdownFromBookmark Event = "start_markdown_from_bookmark"
	EventCompleteMarkdown          Event = "complete_markdown"
	EventFailMarkdown              Event = "fail_markdown"
	EventRetryMarkdown             Event = "retry_markdown"
	EventRestartMarkdown           Event = "restart_markdown"

	EventStartChunking    Event = "start_chunking"
	EventCompleteChunking Event = "complete_chunking"
	EventFailChunking     Event = "fail_chunking"
	EventRetryChunking    Event = "retry_chunking"
	EventRestartChunking  Event = "restart_chunking"

	EventStartQAExtraction    Event = "start_qa_extraction"
	EventCompleteQAExtraction Event = "complete_qa_extraction"
	EventFailQAExtraction     Event = "fail_qa_extraction"
	EventRetryQAExtraction    Event = "retry_qa_extraction"
	EventRestartQAExtraction  Event = "restart_qa_extraction"

	EventStartEmbeddingFromChunks Event = "start_embedding_from_chunks"
	EventStartEmbeddingFromQA     Event = "start_embedding_from_qa"
	EventCompleteEmbedding        Event = "complete_embedding"
	EventFailEmbedding            Event = "fail_embedding"
	EventRetryEmbedding           Event = "retry_embedding"
)

// AllStates 全部状态
var AllStates = []State{
	StateInit,
	StateUploaded, StateBookmarked, StateSavedChat,
	StateMarkdowning, StateMarkdowned, StateMarkdownFailed,
	StateChunking, StateChunked, StateChunkFailed,
	StateQAExtracting, StateQAExtracted, StateQAExtractFailed,
	StateEmbedding, StateEmbedded, StateEmbeddingFailed,
}

// IsValid 检查是否为已知状态
func (s State) IsValid() bool {
	for _, st := range AllStates {
		if st == s {
			return true
		}
	}
	return false
}

// IsFailed 是否为失败状态
func (s State) IsFailed() bool {
	switch s {
	case StateMarkdownFailed, StateChunkFailed, StateQAExtractFailed, StateEmbeddingFailed:
		return true
	}
	return false
}

// IsProcessing 是否处于某个阶段的处理中
func (s State) IsProcessing() bool {
	switch s {
	case StateMarkdowning, StateChunking, StateQAExtracting, StateEmbedding:
		return true
	}
	return false
}

// transitionKey 转换表的键
type transitionKey struct {
	from  State
	event Event
}

// Transition 一条状态转换定义
type Transition struct {
	From  State
	Event Event
	To    State
}

// 按来源划分的转换分组
var (
	fileTransitions = []Transition{
		{StateMarkdowning, EventCompleteMarkdown, StateMarkdowned},
		{StateMarkdowning, EventFailMarkdown, StateMarkdownFailed},
		{StateMarkdownFailed, EventRetryMarkdown, StateMarkdowning},

		{StateMarkdowned, EventStartChunking, StateChunking},
		{StateChunking, EventCompleteChunking, StateChunked},
		{StateChunking, EventFailChunking, StateChunkFailed},
		{StateChunkFailed, EventRetryChunking, StateChunking},

		{StateChunked, EventStartEmbeddingFromChunks, StateEmbedding},

		{StateEmbedded, EventRestartMarkdown, StateMarkdowning},
		{StateEmbedded, EventRestartChunking, StateChunking},
	}

	chatTransitions = []Transition{
		{StateInit, EventSaveChat, StateSavedChat},
		{StateSavedChat, EventStartQAExtraction, StateQAExtracting},
		{StateQAExtracting, EventCompleteQAExtraction, StateQAExtracted},
		{StateQAExtracting, EventFailQAExtraction, StateQAExtractFailed},
		{StateQAExtractFailed, EventRetryQAExtraction, StateQAExtracting},

		{StateQAExtracted, EventStartEmbeddingFromQA, StateEmbedding},

		{StateEmbedded, EventRestartQAExtraction, StateQAExtracting},
	}

	embeddingTransitions = []Transition{
		{StateEmbedding, EventCompleteEmbedding, StateEmbedded},
		{StateEmbedding, EventFailEmbedding, StateEmbeddingFailed},
		{StateEmbeddingFailed, EventRetryEmbedding, StateEmbedding},
	}
)

// TransitionsFor 返回指定来源类型可用的全部转换
// 聊天来源没有 markdown/分块阶段，文件类来源没有 QA 抽取阶段
func TransitionsFor(source SourceType) []Transition {
	var out []Transition
	switch source {
	case SourceLocal, SourceRemote:
		out = append(out,
			Transition{StateInit, EventUpload, StateUploaded},
			Transition{StateUploaded, EventStartMarkdownFromUpload, StateMarkdowning},
		)
		out = append(out, fileTransitions...)
	case SourceWeb:
		out = append(out,
			Transition{StateInit, EventBookmark, StateBookmarked},
			Transition{StateBookmarked, EventStartMarkdownFromBookmark, StateMarkdowning},
		)
		out = append(out, fileTransitions...)
	case SourceChat:
		out = append(out, chatTransitions...)
	default:
		return nil
	}
	return append(out, embeddingTransitions...)
}

// EntryEvent 返回来源类型从 init 进入的事件
func EntryEvent(source SourceType) (Event, bool) {
	switch source {
	case SourceLocal, SourceRemote:
		return EventUpload, true
	case SourceWeb:
		return EventBookmark, true
	case SourceChat:
		return EventSaveChat, true
	}
	return "", false
}

// EntryState 返回来源类型的入口状态
func EntryState(source SourceType) State {
	switch source {
	case SourceWeb:
		return StateBookmarked
	case SourceChat:
		return StateSavedChat
	}
	return StateUploaded
}

// ReachableStates 返回从 init 出发可达的状态集合（含 init）
func ReachableStates(source SourceType) map[State]bool {
	table := buildTable(TransitionsFor(source))
	reached := map[State]bool{StateInit: true}
	queue := []State{StateInit}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for k, to := range table {
			if k.from == cur && !reached[to] {
				reached[to] = true
				queue = append(queue, to)
			}
		}
	}
	return reached
}

func buildTable(transitions []Transition) map[transitionKey]State {
	table := make(map[transitionKey]State, len(transitions))
	for _, t := range transitions {
		table[transitionKey{from: t.From, event: t.Event}] = t.To
	}
	return table
}

// Flags 由状态推导出的布尔标记
type Flags struct {
	HasMarkdown   bool `json:"has_markdown"`
	HasChunks     bool `json:"has_chunks"`
	HasQAPairs    bool `json:"has_qa_pairs"`
	HasEmbeddings bool `json:"has_embeddings"`
}

// DerivedFlags 根据来源类型和状态计算派生标记
// 标记只由状态决定，任何地方都不单独设置
func DerivedFlags(source SourceType, state State) Flags {
	var f Flags
	if source == SourceChat {
		switch state {
		case StateQAExtracted, StateEmbedding, StateEmbedded, StateEmbeddingFailed:
			f.HasQAPairs = true
		}
	} else {
		switch state {
		case StateMarkdowned, StateChunking, StateChunkFailed:
			f.HasMarkdown = true
		case StateChunked, StateEmbedding, StateEmbedded, StateEmbeddingFailed:
			f.HasMarkdown = true
			f.HasChunks = true
		}
	}
	f.HasEmbeddings = state == StateEmbedded
	return f
}

// StateFromFlags 根据（可能漂移的）标记推断最接近的稳定状态，用于修复
func StateFromFlags(source SourceType, f Flags) State {
	switch {
	case f.HasEmbeddings:
		return StateEmbedded
	case source == SourceChat && f.HasQAPairs:
		return StateQAExtracted
	case source != SourceChat && f.HasChunks:
		return StateChunked
	case source != SourceChat && f.HasMarkdown:
		return StateMarkdowned
	}
	return EntryState(source)
}
