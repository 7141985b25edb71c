package mcp

import (
	"context"
	"fmt"
	"time"

	domainDoc "github.com/docmind/backend/internal/domain/document"
	domainTopic "github.com/docmind/backend/internal/domain/topic"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
)

// SearchDocumentsInput 检索工具输入
type SearchDocumentsInput struct {
	UserID     string `json:"user_id" jsonschema:"Owner of the documents (required)"`
	Query      string `json:"query" jsonschema:"Natural language query (required)"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"Restrict the search to one document"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum number of results, defaults to 5, max 20"`
}

// SearchDocumentsOutput 检索工具输出
type SearchDocumentsOutput struct {
	Results    []domainDoc.QueryResult `json:"results" jsonschema:"Matching passages"`
	TotalCount int                     `json:"total_count" jsonschema:"Number of results"`
}

// DocumentStatusInput 文档状态工具输入
type DocumentStatusInput struct {
	UserID     string `json:"user_id" jsonschema:"Owner of the document (required)"`
	DocumentID string `json:"document_id" jsonschema:"Document id (required)"`
}

// DocumentStatusOutput 文档状态工具输出
type DocumentStatusOutput struct {
	DocumentID    string            `json:"document_id"`
	OriginalName  string            `json:"original_name"`
	SourceType    string            `json:"source_type"`
	State         string            `json:"state"`
	HasMarkdown   bool              `json:"has_markdown"`
	HasChunks     bool              `json:"has_chunks"`
	HasQAPairs    bool              `json:"has_qa_pairs"`
	HasEmbeddings bool              `json:"has_embeddings"`
	UpdatedAt     time.Time         `json:"updated_at"`
	History       []TransitionEntry `json:"history" jsonschema:"State transitions, oldest first"`
}

// TransitionEntry 状态转换
type TransitionEntry struct {
	Event string    `json:"event"`
	From  string    `json:"from"`
	To    string    `json:"to"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}

// ReadTopicDocumentInput 主题文档读取工具输入
type ReadTopicDocumentInput struct {
	UserID     string `json:"user_id" jsonschema:"Owner of the document (required)"`
	DocumentID string `json:"document_id" jsonschema:"Document id (required)"`
}

// ListTopicInput 主题列表工具输入
type ListTopicInput struct {
	UserID    string `json:"user_id" jsonschema:"Owner of the topic tree (required)"`
	TopicPath string `json:"topic_path,omitempty" jsonschema:"Slash separated topic path, empty for root"`
}

func (s *MCPServer) searchDocumentsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchDocumentsInput,
) (*mcp.CallToolResult, SearchDocumentsOutput, error) {
	output := SearchDocumentsOutput{Results: []domainDoc.QueryResult{}}
	if input.UserID == "" {
		return nil, output, fmt.Errorf("user_id is required")
	}
	if input.Query == "" {
		return nil, output, fmt.Errorf("query is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	output.Results = s.documents.SearchDocuments(ctx, input.UserID, input.Query, input.DocumentID, limit)
	output.TotalCount = len(output.Results)
	s.logger.Debug("search_documents",
		"user_id", input.UserID,
		"document_id", input.DocumentID,
		"results", output.TotalCount,
	)
	return nil, output, nil
}

func (s *MCPServer) getDocumentStatusTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input DocumentStatusInput,
) (*mcp.CallToolResult, DocumentStatusOutput, error) {
	var output DocumentStatusOutput
	if input.UserID == "" || input.DocumentID == "" {
		return nil, output, fmt.Errorf("user_id and document_id are required")
	}

	doc, err := s.documents.GetDocument(input.UserID, input.DocumentID)
	if err != nil {
		return nil, output, err
	}
	output = DocumentStatusOutput{
		DocumentID:    doc.DocumentID,
		OriginalName:  doc.OriginalName,
		SourceType:    string(doc.SourceType),
		State:         string(doc.State),
		HasMarkdown:   doc.HasMarkdown,
		HasChunks:     doc.HasChunks,
		HasQAPairs:    doc.HasQAPairs,
		HasEmbeddings: doc.HasEmbeddings,
		UpdatedAt:     doc.UpdatedAt,
		History:       []TransitionEntry{},
	}

	records, err := s.documents.GetDocumentHistory(input.UserID, input.DocumentID)
	if err != nil {
		s.logger.Warn("failed to read document history", "user_id", input.UserID, "document_id", input.DocumentID, "error", err)
		return nil, output, nil
	}
	for _, r := range records {
		output.History = append(output.History, TransitionEntry{
			Event: string(r.Event),
			From:  string(r.FromState),
			To:    string(r.ToState),
			Error: r.Error,
			At:    r.CreatedAt,
		})
	}
	return nil, output, nil
}

func (s *MCPServer) readTopicDocumentTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ReadTopicDocumentInput,
) (*mcp.CallToolResult, domainTopic.Document, error) {
	if input.UserID == "" || input.DocumentID == "" {
		return nil, domainTopic.Document{}, fmt.Errorf("user_id and document_id are required")
	}
	doc, err := s.topics.ReadDocument(input.UserID, input.DocumentID)
	if err != nil {
		return nil, domainTopic.Document{}, err
	}
	return nil, *doc, nil
}

func (s *MCPServer) listTopicTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListTopicInput,
) (*mcp.CallToolResult, domainTopic.Listing, error) {
	if input.UserID == "" {
		return nil, domainTopic.Listing{}, fmt.Errorf("user_id is required")
	}
	listing, err := s.topics.ListTopic(input.UserID, input.TopicPath)
	if err != nil {
		return nil, domainTopic.Listing{}, err
	}
	return nil, *listing, nil
}
