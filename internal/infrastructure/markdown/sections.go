package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Section 以顶层标题划分的一段内容
// Level 为 0 表示第一个标题之前的前言部分
type Section struct {
	Heading string
	Level   int
	Content string
}

var parser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// SplitSections 按文档顶层标题切分
// 只有文档根节点下的标题是分界点，代码块、引用和列表中的 "#" 不会被当作标题
func SplitSections(source []byte) []Section {
	doc := parser.Parse(text.NewReader(source))

	type boundary struct {
		offset  int
		heading string
		level   int
	}
	var bounds []boundary
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		first := h.Lines().At(0)
		start := bytes.LastIndexByte(source[:first.Start], '\n') + 1
		bounds = append(bounds, boundary{
			offset:  start,
			heading: headingText(h, source),
			level:   h.Level,
		})
	}

	var sections []Section
	add := func(s Section) {
		if strings.TrimSpace(s.Content) != "" {
			sections = append(sections, s)
		}
	}

	prev := 0
	if len(bounds) == 0 || bounds[0].offset > 0 {
		end := len(source)
		if len(bounds) > 0 {
			end = bounds[0].offset
		}
		add(Section{Content: string(source[:end])})
		prev = end
	}
	for i, b := range bounds {
		end := len(source)
		if i+1 < len(bounds) {
			end = bounds[i+1].offset
		}
		if b.offset < prev {
			continue
		}
		add(Section{Heading: b.heading, Level: b.level, Content: string(source[b.offset:end])})
		prev = end
	}
	return sections
}

func headingText(h *ast.Heading, source []byte) string {
	var buf bytes.Buffer
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.Write(seg.Value(source))
	}
	return strings.TrimSpace(buf.String())
}
