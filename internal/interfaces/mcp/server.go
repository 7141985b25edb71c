// Package mcp 以 MCP (SSE) 工具的形式暴露文档检索与读取能力
package mcp

import (
	"log/slog"
	"net/http"

	appDocument "github.com/docmind/backend/internal/application/document"
	appTopic "github.com/docmind/backend/internal/application/topic"
	"github.com/docmind/backend/internal/infrastructure/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPServer MCP 服务器
type MCPServer struct {
	server    *mcp.Server
	handler   http.Handler
	documents *appDocument.Service
	topics    *appTopic.Service
	logger    *slog.Logger
}

// NewServer 创建 MCP 服务器
func NewServer(documents *appDocument.Service, topics *appTopic.Service) *MCPServer {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "docmind",
			Version: "0.1.0",
		},
		nil, // 使用默认能力
	)

	s := &MCPServer{
		server:    server,
		documents: documents,
		topics:    topics,
		logger:    log.NewModuleLogger("mcp", "server"),
	}

	mcp.AddTool(server, &mcp.Tool{
		Name: "search_documents",
		Description: `Semantic search over a user's embedded documents.
Parameters:
- user_id (string, required): Owner of the documents
- query (string, required): Natural language query
- document_id (string, optional): Restrict the search to one document
- limit (int, optional): Maximum number of results (1-20, default 5)

Returns: matching text passages with document id, distance and metadata. Returns an empty list when no vector index is configured.`,
	}, s.searchDocumentsTool)

	mcp.AddTool(server, &mcp.Tool{
		Name: "get_document_status",
		Description: `Get the processing state of a document.
Parameters:
- user_id (string, required)
- document_id (string, required)

Returns: state, source type, derived flags (has_markdown, has_chunks, has_qa_pairs, has_embeddings), last error and the transition history.`,
	}, s.getDocumentStatusTool)

	mcp.AddTool(server, &mcp.Tool{
		Name: "read_topic_document",
		Description: `Read a markdown document from the user's topic tree by id. The document is located through the path index and its recorded topic path is repaired if it was moved on disk.
Parameters:
- user_id (string, required)
- document_id (string, required)

Returns: title, topic path, content and front matter fields.`,
	}, s.readTopicDocumentTool)

	mcp.AddTool(server, &mcp.Tool{
		Name: "list_topic",
		Description: `List sub topics and documents of a topic in the user's topic tree.
Parameters:
- user_id (string, required)
- topic_path (string, optional): Slash separated path, empty for the root topic

Returns: sub topic names and document summaries.`,
	}, s.listTopicTool)

	s.handler = mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			return server
		},
		nil,
	)
	return s
}

// GetHandler 获取 HTTP Handler（用于集成到 HTTP 服务器）
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}
