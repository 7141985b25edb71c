package handler

import (
	appTopic "github.com/docmind/backend/internal/application/topic"
	"github.com/docmind/backend/internal/interfaces/http/response"
	"github.com/gin-gonic/gin"
)

// TopicHandler 主题树处理器
type TopicHandler struct {
	topics *appTopic.Service
}

// NewTopicHandler 创建主题树处理器
func NewTopicHandler(topics *appTopic.Service) *TopicHandler {
	return &TopicHandler{topics: topics}
}

// TopicPathRequest 单个主题路径
type TopicPathRequest struct {
	Path string `json:"path"`
}

// RenameTopicRequest 重命名主题
type RenameTopicRequest struct {
	Path    string `json:"path" binding:"required"`
	NewName string `json:"new_name" binding:"required"`
}

// MoveTopicRequest 移动主题
type MoveTopicRequest struct {
	Path      string `json:"path" binding:"required"`
	NewParent string `json:"new_parent"`
}

// CopyTopicRequest 复制主题
type CopyTopicRequest struct {
	Src string `json:"src" binding:"required"`
	Dst string `json:"dst" binding:"required"`
}

// MergeTopicsRequest 合并主题
type MergeTopicsRequest struct {
	Src       string `json:"src" binding:"required"`
	Dst       string `json:"dst"`
	Overwrite bool   `json:"overwrite"`
}

// CreateTopicDocumentRequest 在主题下创建文档
type CreateTopicDocumentRequest struct {
	TopicPath string                 `json:"topic_path"`
	Title     string                 `json:"title" binding:"required"`
	Content   string                 `json:"content"`
	Extra     map[string]interface{} `json:"extra"`
}

// UpdateTopicDocumentRequest 更新文档，未提供的字段保持不变
type UpdateTopicDocumentRequest struct {
	Title   *string                `json:"title"`
	Content *string                `json:"content"`
	Extra   map[string]interface{} `json:"extra"`
}

// MoveTopicDocumentRequest 移动文档
type MoveTopicDocumentRequest struct {
	TopicPath string `json:"topic_path"`
}

// List 列出主题内容
// @Summary 列出主题
// @Tags 主题
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param path query string false "主题路径，留空为根目录"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/topics [get]
func (h *TopicHandler) List(c *gin.Context) {
	listing, err := h.topics.ListTopic(c.Param("user_id"), c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, listing)
}

// Create 创建主题
// @Summary 创建主题
// @Tags 主题
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param body body TopicPathRequest true "主题路径"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/topics [post]
func (h *TopicHandler) Create(c *gin.Context) {
	var req TopicPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	path, err := h.topics.CreateTopic(c.Param("user_id"), req.Path)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"path": path})
}

// Delete 删除主题
// @Summary 删除主题及其文档
// @Tags 主题
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param path query string true "主题路径"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/topics [delete]
func (h *TopicHandler) Delete(c *gin.Context) {
	if err := h.topics.DeleteTopic(c.Param("user_id"), c.Query("path")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// Rename 重命名主题
// @Summary 重命名主题
// @Tags 主题
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param body body RenameTopicRequest true "新名称"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/topics/rename [post]
func (h *TopicHandler) Rename(c *gin.Context) {
	var req RenameTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	path, err := h.topics.RenameTopic(c.Param("user_id"), req.Path, req.NewName)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"path": path})
}

// Move 移动主题
// @Summary 移动主题
// @Tags 主题
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param body body MoveTopicRequest true "新父主题"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/topics/move [post]
func (h *TopicHandler) Move(c *gin.Context) {
	var req MoveTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	path, err := h.topics.MoveTopic(c.Param("user_id"), req.Path, req.NewParent)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"path": path})
}

// Copy 复制主题
// @Summary 复制主题，副本文档换发新 ID
// @Tags 主题
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param body body CopyTopicRequest true "源与目标"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/topics/copy [post]
func (h *TopicHandler) Copy(c *gin.Context) {
	var req CopyTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	path, ids, err := h.topics.CopyTopic(c.Param("user_id"), req.Src, req.Dst)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"path": path, "document_ids": ids})
}

// Merge 合并主题
// @Summary 合并主题
// @Tags 主题
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param body body MergeTopicsRequest true "源与目标"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/topics/merge [post]
func (h *TopicHandler) Merge(c *gin.Context) {
	var req MergeTopicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := h.topics.MergeTopics(c.Param("user_id"), req.Src, req.Dst, req.Overwrite); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// Repair 修复主题子树的索引与元数据
// @Summary 修复主题
// @Tags 主题
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param body body TopicPathRequest false "主题路径"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/topics/repair [post]
func (h *TopicHandler) Repair(c *gin.Context) {
	var req TopicPathRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	report, err := h.topics.RepairTopic(c.Param("user_id"), req.Path)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, report)
}

// CreateDocument 在主题下创建文档
// @Summary 创建主题文档
// @Tags 主题文档
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param body body CreateTopicDocumentRequest true "文档"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/notes [post]
func (h *TopicHandler) CreateDocument(c *gin.Context) {
	var req CreateTopicDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	doc, err := h.topics.CreateDocument(c.Param("user_id"), req.TopicPath, req.Title, req.Content, req.Extra)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// ReadDocument 读取主题文档
// @Summary 读取主题文档
// @Tags 主题文档
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /users/{user_id}/notes/{document_id} [get]
func (h *TopicHandler) ReadDocument(c *gin.Context) {
	doc, err := h.topics.ReadDocument(c.Param("user_id"), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// UpdateDocument 更新主题文档
// @Summary 更新主题文档
// @Tags 主题文档
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Param body body UpdateTopicDocumentRequest true "更新内容"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/notes/{document_id} [patch]
func (h *TopicHandler) UpdateDocument(c *gin.Context) {
	var req UpdateTopicDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	doc, err := h.topics.UpdateDocument(c.Param("user_id"), c.Param("document_id"), appTopic.UpdateRequest{
		Title:   req.Title,
		Content: req.Content,
		Extra:   req.Extra,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// MoveDocument 移动主题文档
// @Summary 移动主题文档
// @Tags 主题文档
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Param body body MoveTopicDocumentRequest true "目标主题"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/notes/{document_id}/move [post]
func (h *TopicHandler) MoveDocument(c *gin.Context) {
	var req MoveTopicDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	doc, err := h.topics.MoveDocument(c.Param("user_id"), c.Param("document_id"), req.TopicPath)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// DeleteDocument 删除主题文档
// @Summary 删除主题文档
// @Tags 主题文档
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Success 200 {object} response.Response
// @Router /users/{user_id}/notes/{document_id} [delete]
func (h *TopicHandler) DeleteDocument(c *gin.Context) {
	if err := h.topics.DeleteDocument(c.Param("user_id"), c.Param("document_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}
