package handler

import (
	"net/http"

	appPipeline "github.com/docmind/backend/internal/application/pipeline"
	"github.com/docmind/backend/internal/interfaces/http/response"
	"github.com/gin-gonic/gin"
)

// PipelineHandler 后台流水线处理器
type PipelineHandler struct {
	pipeline *appPipeline.Service
}

// NewPipelineHandler 创建流水线处理器
func NewPipelineHandler(pipeline *appPipeline.Service) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline}
}

// Submit 提交文档到后台队列
// @Summary 提交文档处理
// @Tags 流水线
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /users/{user_id}/documents/{document_id}/submit [post]
func (h *PipelineHandler) Submit(c *gin.Context) {
	task, err := h.pipeline.Submit(c.Param("user_id"), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, task)
}

// GetTask 查询文档的处理任务
// @Summary 查询处理任务
// @Tags 流水线
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param document_id path string true "文档 ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /users/{user_id}/documents/{document_id}/task [get]
func (h *PipelineHandler) GetTask(c *gin.Context) {
	task, err := h.pipeline.GetTask(c.Param("user_id"), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if task == nil {
		response.Error(c, http.StatusNotFound, codeNotFound, "task not found")
		return
	}
	response.Success(c, task)
}

// Stats 队列统计
// @Summary 队列统计
// @Tags 流水线
// @Produce json
// @Success 200 {object} response.Response
// @Router /pipeline/stats [get]
func (h *PipelineHandler) Stats(c *gin.Context) {
	stats, err := h.pipeline.GetQueueStats()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"queue":   stats,
		"running": h.pipeline.IsRunning(),
	})
}

// RetryFailed 重置失败任务
// @Summary 重试失败任务
// @Tags 流水线
// @Produce json
// @Success 200 {object} response.Response
// @Router /pipeline/retry-failed [post]
func (h *PipelineHandler) RetryFailed(c *gin.Context) {
	count, err := h.pipeline.RetryFailed()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"reset": count})
}
