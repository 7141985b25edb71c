package document

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	domainDoc "github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/converter"
	"github.com/docmind/backend/internal/infrastructure/docfs"
)

// SaveMarkdown 保存文档的 markdown
// content 为 nil 时调用转换器生成。无论成功或失败都返回最新的元数据；
// 失败时文档停留在 markdown_failed，错误类别为 stage_failed
func (s *Service) SaveMarkdown(ctx context.Context, userID, documentID string, content *string) (*domainDoc.Document, error) {
	unlock := s.locks.lock(userID, documentID)
	defer unlock()
	return s.saveMarkdownLocked(ctx, userID, documentID, content)
}

func (s *Service) saveMarkdownLocked(ctx context.Context, userID, documentID string, content *string) (*domainDoc.Document, error) {
	const op = "save_markdown"
	doc, m, err := s.getDocumentMachine(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	event, ok := firstAvailable(m,
		domainDoc.EventStartMarkdownFromUpload,
		domainDoc.EventStartMarkdownFromBookmark,
		domainDoc.EventRetryMarkdown,
		domainDoc.EventRestartMarkdown,
	)
	if !ok {
		return doc, domainDoc.NewError(domainDoc.KindIllegalTransition, op,
			"cannot convert document in state %s", m.State())
	}
	if err := m.Fire(ctx, event, domainDoc.TransitionArgs{}); err != nil {
		return doc, err
	}

	text, stageErr := s.produceMarkdown(ctx, userID, doc, content)
	if stageErr == nil {
		stageErr = s.writeMarkdown(userID, documentID, text)
	}

	if stageErr != nil {
		s.loggerFor(ctx, userID, documentID).Error("markdown stage failed", "error", stageErr)
		if ferr := m.Fire(ctx, domainDoc.EventFailMarkdown, domainDoc.TransitionArgs{Error: stageErr.Error()}); ferr != nil {
			s.loggerFor(ctx, userID, documentID).Error("failed to record markdown failure", "error", ferr)
		}
		stageErr = domainDoc.WrapError(domainDoc.KindStageFailed, op, stageErr, "markdown conversion failed")
	} else {
		details := map[string]interface{}{
			"length":    len(text),
			"converted": content == nil,
		}
		if err := m.Fire(ctx, domainDoc.EventCompleteMarkdown, domainDoc.TransitionArgs{Details: details}); err != nil {
			stageErr = err
		}
	}

	latest, err := s.meta.Get(userID, documentID)
	if err != nil {
		if stageErr == nil {
			stageErr = err
		}
		return nil, stageErr
	}
	return latest, stageErr
}

// produceMarkdown 返回调用方提供的内容，或通过转换器生成
func (s *Service) produceMarkdown(ctx context.Context, userID string, doc *domainDoc.Document, content *string) (string, error) {
	if content != nil {
		return *content, nil
	}
	if s.converter == nil {
		return "", errors.New("document converter is not configured")
	}

	req := domainDoc.ConvertRequest{
		FileType: strings.TrimPrefix(doc.Extension, "."),
	}
	switch doc.SourceType {
	case domainDoc.SourceRemote, domainDoc.SourceWeb:
		req.Content = doc.SourceURL
		req.ContentType = domainDoc.ContentURL
	default:
		rawPath, err := s.layout.RawPath(userID, doc.DocumentID)
		if err != nil {
			return "", err
		}
		raw, err := os.ReadFile(rawPath)
		if err != nil {
			return "", fmt.Errorf("read raw file: %w", err)
		}
		req.Content = base64.StdEncoding.EncodeToString(raw)
		req.ContentType = domainDoc.ContentBase64
	}

	if s.cfg.ConverterTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ConverterTimeout)
		defer cancel()
	}
	stream, err := s.converter.Convert(ctx, req)
	if err != nil {
		return "", err
	}
	text, err := converter.Collect(ctx, stream)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("converter returned empty markdown")
	}
	return text, nil
}

// writeMarkdown 备份旧版本后覆盖写入
func (s *Service) writeMarkdown(userID, documentID, text string) error {
	mdPath, err := s.layout.MarkdownPath(userID, documentID)
	if err != nil {
		return err
	}
	if err := s.layout.RotateBackup(userID, docfs.MarkdownDir, documentID, mdPath, s.cfg.MaxVersions, s.now()); err != nil {
		return fmt.Errorf("backup markdown: %w", err)
	}
	return docfs.WriteFileAtomic(mdPath, []byte(text), 0644)
}

// ReadMarkdown 读取文档的 markdown
func (s *Service) ReadMarkdown(userID, documentID string) (string, error) {
	const op = "read_markdown"
	if _, err := s.meta.Get(userID, documentID); err != nil {
		return "", err
	}
	mdPath, err := s.layout.MarkdownPath(userID, documentID)
	if err != nil {
		return "", domainDoc.WrapError(domainDoc.KindValidation, op, err, "invalid document path")
	}
	data, err := os.ReadFile(mdPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domainDoc.NewError(domainDoc.KindNotFound, op, "document %s has no markdown", documentID)
		}
		return "", domainDoc.WrapError(domainDoc.KindIO, op, err, "read markdown")
	}
	return string(data), nil
}

// firstAvailable 返回第一个在当前状态下合法的事件
func firstAvailable(m *domainDoc.StateMachine, candidates ...domainDoc.Event) (domainDoc.Event, bool) {
	for _, e := range candidates {
		if m.Can(e) {
			return e, true
		}
	}
	return "", false
}
