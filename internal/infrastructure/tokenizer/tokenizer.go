// Package tokenizer 提供基于 tiktoken 的 token 计数，供分块时控制块大小
package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

func init() {
	// 使用内置词表，避免运行时下载
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Encoding 默认编码
const Encoding = "cl100k_base"

// Counter token 计数器
type Counter interface {
	CountTokens(text string) int
}

// Tiktoken tiktoken 计数器
type Tiktoken struct {
	enc *tiktoken.Tiktoken
	mu  sync.Mutex
}

var (
	instance *Tiktoken
	once     sync.Once
	initErr  error
)

// Default 返回进程内共享的计数器
func Default() (*Tiktoken, error) {
	once.Do(func() {
		enc, err := tiktoken.GetEncoding(Encoding)
		if err != nil {
			initErr = err
			return
		}
		instance = &Tiktoken{enc: enc}
	})
	return instance, initErr
}

// CountTokens 计算 token 数
func (t *Tiktoken) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.enc.Encode(text, nil, nil))
}

// SplitByTokens 把文本按 token 上限硬切分
// 只用于段落本身就超过上限的情况
func (t *Tiktoken) SplitByTokens(text string, maxTokens int) []string {
	if text == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	tokens := t.enc.Encode(text, nil, nil)
	if maxTokens <= 0 || len(tokens) <= maxTokens {
		return []string{text}
	}
	var parts []string
	for start := 0; start < len(tokens); start += maxTokens {
		end := start + maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		parts = append(parts, t.enc.Decode(tokens[start:end]))
	}
	return parts
}

// RuneCounter 按字符数粗略估算的计数器，tiktoken 不可用时的退路
type RuneCounter struct {
	// CharsPerToken 每个 token 对应的字符数，<=0 时取 4
	CharsPerToken int
}

// CountTokens 估算 token 数
func (r RuneCounter) CountTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	per := r.CharsPerToken
	if per <= 0 {
		per = 4
	}
	return (n + per - 1) / per
}
