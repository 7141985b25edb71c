package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docmind/backend/internal/infrastructure/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func echoRouter() *gin.Engine {
	r := gin.New()
	r.Use(EnsureUTF8Body())
	r.POST("/echo", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.Data(http.StatusOK, "application/octet-stream", body)
	})
	return r
}

func TestEnsureUTF8Body(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(`{"title":"中文标题"}`))
	require.NoError(t, err)

	tests := []struct {
		name        string
		contentType string
		body        []byte
		want        []byte
	}{
		{"GBK JSON 转为 UTF-8", "application/json; charset=gbk", gbk, []byte(`{"title":"中文标题"}`)},
		{"UTF-8 保持不变", "application/json", []byte(`{"title":"标题"}`), []byte(`{"title":"标题"}`)},
		{"二进制上传不处理", "application/pdf", gbk, gbk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			echoRouter().ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.Bytes())
		})
	}
}

func TestRequestLogger(t *testing.T) {
	r := gin.New()
	r.GET("/users/:user_id/ping", RequestLogger(log.NewModuleLogger("http", "test")), func(c *gin.Context) {
		attrs := log.AttrsFromContext(c.Request.Context())
		values := map[string]string{}
		for _, a := range attrs {
			values[a.Key] = a.Value.String()
		}
		c.JSON(http.StatusOK, values)
	})

	t.Run("生成请求 ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/u1/ping", nil))
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
	})

	t.Run("沿用调用方的请求 ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/u1/ping", nil)
		req.Header.Set(RequestIDHeader, "req-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
		assert.Contains(t, w.Body.String(), `"request_id":"req-1"`)
	})
}
