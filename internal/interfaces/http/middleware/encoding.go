package middleware

import (
	"bytes"
	"io"
	"mime"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// textContentTypes 只对这些请求体做编码修正，上传的二进制文件保持原样
var textContentTypes = map[string]bool{
	"application/json": true,
	"text/plain":       true,
	"text/markdown":    true,
}

// EnsureUTF8Body 把 GBK 编码的文本请求体转成 UTF-8
// Windows 中文环境下的 curl 默认以 GBK 发送；转换失败时保留原始内容
func EnsureUTF8Body() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.ContentLength == 0 || !isTextBody(c.GetHeader("Content-Type")) {
			c.Next()
			return
		}

		bodyBytes, err := io.ReadAll(c.Request.Body)
		c.Request.Body.Close()
		if err != nil {
			c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			c.Next()
			return
		}

		if !utf8.Valid(bodyBytes) {
			if converted, err := convertGBKToUTF8(bodyBytes); err == nil && utf8.Valid(converted) {
				bodyBytes = converted
				c.Request.ContentLength = int64(len(converted))
			}
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		c.Next()
	}
}

func isTextBody(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return textContentTypes[mediaType]
}

// convertGBKToUTF8 将 GBK 编码的字节转换为 UTF-8
func convertGBKToUTF8(gbkBytes []byte) ([]byte, error) {
	reader := transform.NewReader(bytes.NewReader(gbkBytes), simplifiedchinese.GBK.NewDecoder())
	return io.ReadAll(reader)
}
