package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	appDocument "github.com/docmind/backend/internal/application/document"
	domainDoc "github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/interfaces/http/response"
	"github.com/gin-gonic/gin"
)

// DocumentHandler 文档处理器
type DocumentHandler struct {
	documents *appDocument.Service
}

// NewDocumentHandler 创建文档处理器
func NewDocumentHandler(documents *appDocument.Service) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// CreateRemoteRequest 创建远程文档请求
type CreateRemoteRequest struct {
	URL      string                 `json:"url" binding:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

// CreateBookmarkRequest 创建书签请求
type CreateBookmarkRequest struct {
	URL      string                 `json:"url" binding:"required"`
	Title    string                 `json:"title"`
	Metadata map[string]interface{} `json:"metadata"`
}

// CreateChatRequest 保存对话请求
type CreateChatRequest struct {
	Messages []domainDoc.ChatMessage `json:"messages" binding:"required"`
	Metadata map[string]interface{}  `json:"metadata"`
}

// SaveMarkdownRequest 保存 markdown 请求，content 为空时调用转换器
type SaveMarkdownRequest struct {
	Content *string `json:"content"`
}

// SaveChunksRequest 保存分块请求
type SaveChunksRequest struct {
	Chunks []domainDoc.Chunk `json:"chunks" binding:"required"`
}

// SaveQAPairsRequest 保存问答对请求
type SaveQAPairsRequest struct {
	Pairs []domainDoc.QAPair `json:"pairs" binding:"required"`
}

// CreateIndexRequest 创建向量索引请求
type CreateIndexRequest struct {
	Source string `json:"source"` // chunks / qa，留空自动选择
}

// Upload 上传文档
// @Summary 上传文档
// @Tags 文档
// @Accept multipart/form-data
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param file formData file true "文件"
// @Param metadata formData string false "JSON 元数据"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 413 {object} response.ErrorResponse
// @Router /users/{user_id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	var metadata map[string]interface{}
	if raw := c.PostForm("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			badRequest(c, "metadata must be a JSON object")
			return
		}
	}

	f, err := fh.Open()
	if err != nil {
		badRequest(c, "failed to read upload: "+err.Error())
		return
	}
	defer f.Close()

	doc, err := h.documents.SaveDocument(c.Request.Context(), c.Param("user_id"), appDocument.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Reader:      f,
		Size:        fh.Size,
	}, metadata)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// CreateRemote 登记远程文档
// @Summary 登记远程文档
// @Tags 文档
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param body body CreateRemoteRequest true "远程地址"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/remote [post]
func (h *DocumentHandler) CreateRemote(c *gin.Context) {
	var req CreateRemoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	doc, err := h.documents.CreateRemoteDocument(c.Request.Context(), c.Param("user_id"), req.URL, req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// CreateBookmark 保存网页书签
// @Summary 保存网页书签
// @Tags 文档
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param body body CreateBookmarkRequest true "书签"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/bookmark [post]
func (h *DocumentHandler) CreateBookmark(c *gin.Context) {
	var req CreateBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	doc, err := h.documents.CreateBookmarkDocument(c.Request.Context(), c.Param("user_id"), req.URL, req.Title, req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// CreateChat 保存对话
// @Summary 保存对话
// @Tags 文档
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param body body CreateChatRequest true "对话消息"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/chat [post]
func (h *DocumentHandler) CreateChat(c *gin.Context) {
	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	doc, err := h.documents.CreateChatDocument(c.Request.Context(), c.Param("user_id"), req.Messages, req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// List 列出文档
// @Summary 列出文档
// @Tags 文档
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param state query string false "状态"
// @Param source_type query string false "来源"
// @Param has_embeddings query bool false "是否已向量化"
// @Param limit query int false "条数"
// @Param offset query int false "偏移"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	filter := domainDoc.CatalogFilter{
		State:      domainDoc.State(c.Query("state")),
		SourceType: domainDoc.SourceType(c.Query("source_type")),
	}
	if v := c.Query("has_embeddings"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "has_embeddings must be a boolean")
			return
		}
		filter.HasEmbeddings = &b
	}
	var err error
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		badRequest(c, err.Error())
		return
	}
	if filter.Offset, err = intQuery(c, "offset"); err != nil {
		badRequest(c, err.Error())
		return
	}

	entries, err := h.documents.ListDocuments(c.Param("user_id"), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []*domainDoc.CatalogEntry{}
	}
	response.Success(c, gin.H{
		"documents": entries,
		"total":     len(entries),
	})
}

// Stats 状态统计与存储用量
// @Summary 文档统计
// @Tags 文档
// @Produce json
// @Param user_id path string true "用户 ID"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/stats [get]
func (h *DocumentHandler) Stats(c *gin.Context) {
	userID := c.Param("user_id")
	counts, err := h.documents.StateCounts(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	usage, err := h.documents.CalculateStorageUsage(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"states":        counts,
		"storage_bytes": usage,
	})
}

// RebuildCatalog 以元数据文件重建目录表
// @Summary 重建文档目录
// @Tags 文档
// @Produce json
// @Param user_id path string true "用户 ID"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/rebuild-catalog [post]
func (h *DocumentHandler) RebuildCatalog(c *gin.Context) {
	count, err := h.documents.RebuildCatalog(c.Param("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"rebuilt": count})
}

// Search 向量检索
// @Summary 检索文档内容
// @Tags 文档
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param q query string true "查询"
// @Param document_id query string false "限定文档"
// @Param limit query int false "条数"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/search [get]
func (h *DocumentHandler) Search(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	results := h.documents.SearchDocuments(c.Request.Context(), c.Param("user_id"), c.Query("q"), c.Query("document_id"), limit)
	response.Success(c, gin.H{
		"results": results,
		"total":   len(results),
	})
}

// Get 读取文档元数据
// @Summary 读取文档
// @Tags 文档
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /users/{user_id}/documents/{document_id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documents.GetDocument(c.Param("user_id"), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// Delete 删除文档
// @Summary 删除文档
// @Tags 文档
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/{document_id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	complete, err := h.documents.DeleteDocument(c.Request.Context(), c.Param("user_id"), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"complete": complete})
}

// History 状态转换记录
// @Summary 文档状态历史
// @Tags 文档
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/{document_id}/history [get]
func (h *DocumentHandler) History(c *gin.Context) {
	records, err := h.documents.GetDocumentHistory(c.Param("user_id"), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"transitions": records})
}

// GetMarkdown 读取 markdown
// @Summary 读取 markdown
// @Tags 文档处理
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/{document_id}/markdown [get]
func (h *DocumentHandler) GetMarkdown(c *gin.Context) {
	content, err := h.documents.ReadMarkdown(c.Param("user_id"), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"content": content})
}

// SaveMarkdown 保存或转换 markdown
// @Summary 保存 markdown，未提供内容时调用转换器
// @Tags 文档处理
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Param body body SaveMarkdownRequest false "markdown 内容"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /users/{user_id}/documents/{document_id}/markdown [post]
func (h *DocumentHandler) SaveMarkdown(c *gin.Context) {
	var req SaveMarkdownRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	doc, err := h.documents.SaveMarkdown(c.Request.Context(), c.Param("user_id"), c.Param("document_id"), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// GetChunks 读取分块
// @Summary 读取分块
// @Tags 文档处理
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/{document_id}/chunks [get]
func (h *DocumentHandler) GetChunks(c *gin.Context) {
	chunks, err := h.documents.GetChunks(c.Param("user_id"), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"chunks": chunks, "total": len(chunks)})
}

// SaveChunks 保存调用方提供的分块
// @Summary 保存分块
// @Tags 文档处理
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Param body body SaveChunksRequest true "分块"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/{document_id}/chunks [put]
func (h *DocumentHandler) SaveChunks(c *gin.Context) {
	var req SaveChunksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	doc, err := h.documents.SaveChunks(c.Request.Context(), c.Param("user_id"), c.Param("document_id"), req.Chunks)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// ChunkMarkdown 按标题自动分块
// @Summary 自动分块
// @Tags 文档处理
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/{document_id}/chunks/auto [post]
func (h *DocumentHandler) ChunkMarkdown(c *gin.Context) {
	doc, err := h.documents.ChunkMarkdown(c.Request.Context(), c.Param("user_id"), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// GetQAPairs 读取问答对
// @Summary 读取问答对
// @Tags 文档处理
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/{document_id}/qa-pairs [get]
func (h *DocumentHandler) GetQAPairs(c *gin.Context) {
	pairs, err := h.documents.GetQAPairs(c.Param("user_id"), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"pairs": pairs, "total": len(pairs)})
}

// SaveQAPairs 保存调用方提供的问答对
// @Summary 保存问答对
// @Tags 文档处理
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Param body body SaveQAPairsRequest true "问答对"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/{document_id}/qa-pairs [put]
func (h *DocumentHandler) SaveQAPairs(c *gin.Context) {
	var req SaveQAPairsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	doc, err := h.documents.SaveQAPairs(c.Request.Context(), c.Param("user_id"), c.Param("document_id"), req.Pairs)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// ExtractQAPairs 从对话抽取问答对
// @Summary 抽取问答对
// @Tags 文档处理
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/{document_id}/qa-pairs/extract [post]
func (h *DocumentHandler) ExtractQAPairs(c *gin.Context) {
	doc, err := h.documents.ExtractQAPairs(c.Request.Context(), c.Param("user_id"), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// CreateIndex 向量化
// @Summary 创建向量索引
// @Tags 文档处理
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Param body body CreateIndexRequest false "索引来源"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/{document_id}/index [post]
func (h *DocumentHandler) CreateIndex(c *gin.Context) {
	var req CreateIndexRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	doc, err := h.documents.CreateDocumentIndex(c.Request.Context(), c.Param("user_id"), c.Param("document_id"), req.Source)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// Advance 同步推进文档到尽可能靠后的阶段
// @Summary 推进文档处理
// @Tags 文档处理
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/documents/{document_id}/advance [post]
func (h *DocumentHandler) Advance(c *gin.Context) {
	doc, err := h.documents.AdvanceDocument(c.Request.Context(), c.Param("user_id"), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

func intQuery(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

// bindOptionalJSON 请求体可以为空
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
