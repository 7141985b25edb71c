package markdown

import (
	"strings"

	"github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/tokenizer"
)

// DefaultMaxChunkTokens 默认单块 token 上限
const DefaultMaxChunkTokens = 512

// tokenSplitter 能按 token 硬切分文本的计数器
type tokenSplitter interface {
	SplitByTokens(text string, maxTokens int) []string
}

// Chunker 按标题结构把 markdown 打包成受 token 上限约束的分块
type Chunker struct {
	maxTokens int
	counter   tokenizer.Counter
}

// NewChunker 创建分块器
func NewChunker(maxTokens int, counter tokenizer.Counter) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxChunkTokens
	}
	if counter == nil {
		counter = tokenizer.RuneCounter{}
	}
	return &Chunker{maxTokens: maxTokens, counter: counter}
}

type pending struct {
	heading string
	parts   []string
}

// Chunk 切分 markdown
// 相邻的小节合并到同一块；超过上限的小节按段落拆分，单个段落仍超限时按 token 硬切
func (c *Chunker) Chunk(source string) []document.Chunk {
	var chunks []document.Chunk
	cur := pending{}

	flush := func() {
		if len(cur.parts) == 0 {
			return
		}
		content := strings.Join(cur.parts, "\n\n")
		chunks = append(chunks, document.Chunk{
			Index:   len(chunks),
			Content: content,
			Heading: cur.heading,
			Tokens:  c.counter.CountTokens(content),
		})
		cur = pending{}
	}

	push := func(heading, piece string) {
		if len(cur.parts) > 0 {
			candidate := strings.Join(append(append([]string{}, cur.parts...), piece), "\n\n")
			if c.counter.CountTokens(candidate) > c.maxTokens {
				flush()
			}
		}
		if len(cur.parts) == 0 {
			cur.heading = heading
		}
		cur.parts = append(cur.parts, piece)
	}

	for _, sec := range SplitSections([]byte(source)) {
		content := strings.TrimSpace(sec.Content)
		if c.counter.CountTokens(content) <= c.maxTokens {
			push(sec.Heading, content)
			continue
		}

		flush()
		for _, para := range splitParagraphs(content) {
			for _, piece := range c.hardSplit(para) {
				push(sec.Heading, piece)
			}
		}
		flush()
	}
	flush()
	return chunks
}

func (c *Chunker) hardSplit(para string) []string {
	if c.counter.CountTokens(para) <= c.maxTokens {
		return []string{para}
	}
	if s, ok := c.counter.(tokenSplitter); ok {
		return s.SplitByTokens(para, c.maxTokens)
	}

	// 无法按 token 切分时按字符近似
	runes := []rune(para)
	total := c.counter.CountTokens(para)
	size := len(runes) * c.maxTokens / total
	if size <= 0 {
		size = 1
	}
	var parts []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

func splitParagraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
