package handler

import (
	"errors"
	"net/http"

	domainDoc "github.com/docmind/backend/internal/domain/document"
	domainTopic "github.com/docmind/backend/internal/domain/topic"
	"github.com/docmind/backend/internal/interfaces/http/response"
	"github.com/gin-gonic/gin"
)

// 业务错误码
const (
	codeInvalidParam  = 100001
	codeNotFound      = 404001
	codeConflict      = 409001
	codeQuotaExceeded = 413001
	codeInternal      = 500001
	codeStageFailed   = 500002
)

// documentErrorStatus 文档错误类别到 HTTP 状态码与业务码
var documentErrorStatus = map[domainDoc.ErrorKind][2]int{
	domainDoc.KindValidation:        {http.StatusBadRequest, codeInvalidParam},
	domainDoc.KindNotFound:          {http.StatusNotFound, codeNotFound},
	domainDoc.KindQuotaExceeded:     {http.StatusRequestEntityTooLarge, codeQuotaExceeded},
	domainDoc.KindIllegalTransition: {http.StatusConflict, codeConflict},
	domainDoc.KindStageFailed:       {http.StatusInternalServerError, codeStageFailed},
	domainDoc.KindIO:                {http.StatusInternalServerError, codeInternal},
}

// topicErrorStatus 主题错误到 HTTP 状态码与业务码
var topicErrorStatus = []struct {
	err    error
	status int
	code   int
}{
	{domainTopic.ErrInvalidPath, http.StatusBadRequest, codeInvalidParam},
	{domainTopic.ErrInvalidDocument, http.StatusBadRequest, codeInvalidParam},
	{domainTopic.ErrRootTopic, http.StatusBadRequest, codeInvalidParam},
	{domainTopic.ErrTopicNotFound, http.StatusNotFound, codeNotFound},
	{domainTopic.ErrDocumentNotFound, http.StatusNotFound, codeNotFound},
	{domainTopic.ErrTopicExists, http.StatusConflict, codeConflict},
	{domainTopic.ErrDocumentExists, http.StatusConflict, codeConflict},
}

// writeError 按错误类别写出错误响应
func writeError(c *gin.Context, err error) {
	if kind := domainDoc.KindOf(err); kind != "" {
		if m, ok := documentErrorStatus[kind]; ok {
			response.ErrorWithKind(c, m[0], m[1], string(kind), err.Error())
			return
		}
	}
	for _, m := range topicErrorStatus {
		if errors.Is(err, m.err) {
			response.Error(c, m.status, m.code, err.Error())
			return
		}
	}
	response.Error(c, http.StatusInternalServerError, codeInternal, err.Error())
}

func badRequest(c *gin.Context, message string) {
	response.Error(c, http.StatusBadRequest, codeInvalidParam, message)
}
