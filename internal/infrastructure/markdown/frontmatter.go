// Package markdown 处理 markdown 文档：YAML front matter 读写与按标题切分
package markdown

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/docmind/backend/internal/infrastructure/docfs"
)

const fence = "---"

// FrontMatter 文档头部元数据
type FrontMatter struct {
	DocumentID string                 `yaml:"document_id"`
	Title      string                 `yaml:"title"`
	TopicPath  string                 `yaml:"topic_path"`
	CreatedAt  time.Time              `yaml:"created_at"`
	UpdatedAt  time.Time              `yaml:"updated_at"`
	Extra      map[string]interface{} `yaml:",inline"`
}

// Parse 拆分 front matter 与正文
// 没有 front matter 时返回 nil 和原始内容
func Parse(data []byte) (*FrontMatter, []byte, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	rest, ok := cutFenceLine(data)
	if !ok {
		return nil, data, nil
	}

	var block bytes.Buffer
	var body []byte
	found := false
	for {
		line, next, hasNL := cutLine(rest)
		if string(bytes.TrimRight(line, "\r")) == fence {
			body = next
			found = true
			break
		}
		if !hasNL {
			break
		}
		block.Write(line)
		block.WriteByte('\n')
		rest = next
	}
	if !found {
		return nil, data, fmt.Errorf("unterminated front matter")
	}

	fm := &FrontMatter{}
	if err := yaml.Unmarshal(block.Bytes(), fm); err != nil {
		return nil, data, fmt.Errorf("parse front matter: %w", err)
	}
	return fm, body, nil
}

// Render 生成带 front matter 的文档内容
func Render(fm *FrontMatter, body []byte) ([]byte, error) {
	if fm == nil {
		return body, nil
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("render front matter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	buf.Write(head)
	buf.WriteString(fence + "\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

// ReadFile 读取文档文件
func ReadFile(path string) (*FrontMatter, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return Parse(data)
}

// WriteFile 原子写入文档文件
func WriteFile(path string, fm *FrontMatter, body []byte) error {
	data, err := Render(fm, body)
	if err != nil {
		return err
	}
	return docfs.WriteFileAtomic(path, data, 0644)
}

func cutFenceLine(data []byte) ([]byte, bool) {
	line, rest, hasNL := cutLine(data)
	if !hasNL || string(bytes.TrimRight(line, "\r")) != fence {
		return nil, false
	}
	return rest, true
}

func cutLine(data []byte) (line, rest []byte, hasNL bool) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[:i], data[i+1:], true
	}
	return data, nil, false
}
