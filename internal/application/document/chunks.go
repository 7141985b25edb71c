package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	domainDoc "github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/docfs"
)

// SaveChunks 保存分块并推进到 chunked
// 要求文档已经完成 markdown；状态与磁盘漂移时先尝试修复
func (s *Service) SaveChunks(ctx context.Context, userID, documentID string, chunks []domainDoc.Chunk) (*domainDoc.Document, error) {
	unlock := s.locks.lock(userID, documentID)
	defer unlock()
	return s.saveChunksLocked(ctx, userID, documentID, chunks)
}

// ChunkMarkdown 按标题结构自动切分已保存的 markdown
func (s *Service) ChunkMarkdown(ctx context.Context, userID, documentID string) (*domainDoc.Document, error) {
	const op = "chunk_markdown"
	if s.chunker == nil {
		return nil, domainDoc.NewError(domainDoc.KindValidation, op, "chunker is not configured")
	}

	unlock := s.locks.lock(userID, documentID)
	defer unlock()
	return s.chunkMarkdownLocked(ctx, userID, documentID)
}

func (s *Service) chunkMarkdownLocked(ctx context.Context, userID, documentID string) (*domainDoc.Document, error) {
	const op = "chunk_markdown"
	if s.chunker == nil {
		return nil, domainDoc.NewError(domainDoc.KindValidation, op, "chunker is not configured")
	}
	text, err := s.ReadMarkdown(userID, documentID)
	if err != nil {
		return nil, err
	}
	chunks := s.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, domainDoc.NewError(domainDoc.KindValidation, op, "markdown of %s is empty", documentID)
	}
	return s.saveChunksLocked(ctx, userID, documentID, chunks)
}

func (s *Service) saveChunksLocked(ctx context.Context, userID, documentID string, chunks []domainDoc.Chunk) (*domainDoc.Document, error) {
	const op = "save_chunks"
	if len(chunks) == 0 {
		return nil, domainDoc.NewError(domainDoc.KindValidation, op, "chunks are required")
	}

	doc, m, err := s.getDocumentMachine(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	candidates := []domainDoc.Event{
		domainDoc.EventStartChunking,
		domainDoc.EventRetryChunking,
		domainDoc.EventRestartChunking,
	}
	event, ok := firstAvailable(m, candidates...)
	if !ok && s.markdownDrifted(userID, doc) {
		s.loggerFor(ctx, userID, documentID).Warn("markdown exists but state lags behind, repairing",
			"state", doc.State,
		)
		if _, err := s.forceState(userID, doc, domainDoc.StateMarkdowned); err != nil {
			return nil, err
		}
		if doc, m, err = s.getDocumentMachine(ctx, userID, documentID); err != nil {
			return nil, err
		}
		event, ok = firstAvailable(m, candidates...)
	}
	if !ok {
		return doc, domainDoc.NewError(domainDoc.KindIllegalTransition, op,
			"cannot chunk document in state %s", m.State())
	}
	if err := m.Fire(ctx, event, domainDoc.TransitionArgs{}); err != nil {
		return doc, err
	}

	normalized := make([]domainDoc.Chunk, len(chunks))
	total := 0
	for i, c := range chunks {
		c.Index = i
		normalized[i] = c
		total += len([]rune(c.Content))
	}

	var stageErr error
	if err := s.writeChunkFiles(userID, documentID, normalized); err != nil {
		stageErr = err
	} else if _, err := s.meta.Update(userID, documentID, map[string]interface{}{"chunks": normalized}); err != nil {
		stageErr = err
	}

	if stageErr != nil {
		s.loggerFor(ctx, userID, documentID).Error("chunking stage failed", "error", stageErr)
		if ferr := m.Fire(ctx, domainDoc.EventFailChunking, domainDoc.TransitionArgs{Error: stageErr.Error()}); ferr != nil {
			s.loggerFor(ctx, userID, documentID).Error("failed to record chunking failure", "error", ferr)
		}
		stageErr = domainDoc.WrapError(domainDoc.KindStageFailed, op, stageErr, "chunking failed")
	} else {
		details := map[string]interface{}{
			"count":      len(normalized),
			"avg_length": total / len(normalized),
		}
		if err := m.Fire(ctx, domainDoc.EventCompleteChunking, domainDoc.TransitionArgs{Details: details}); err != nil {
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

// markdownDrifted markdown 文件已存在但状态仍停在 markdown 之前
func (s *Service) markdownDrifted(userID string, doc *domainDoc.Document) bool {
	if doc.SourceType == domainDoc.SourceChat {
		return false
	}
	switch doc.State {
	case domainDoc.StateUploaded, domainDoc.StateBookmarked,
		domainDoc.StateMarkdowning, domainDoc.StateMarkdownFailed:
	default:
		return false
	}
	mdPath, err := s.layout.MarkdownPath(userID, doc.DocumentID)
	if err != nil {
		return false
	}
	_, err = os.Stat(mdPath)
	return err == nil
}

// writeChunkFiles 重写分块目录下的 <nnnn>.md，目录中的其他文件保持不变
func (s *Service) writeChunkFiles(userID, documentID string, chunks []domainDoc.Chunk) error {
	dir, err := s.layout.ChunkDir(userID, documentID)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".md" {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	for _, c := range chunks {
		name := filepath.Join(dir, fmt.Sprintf("%04d.md", c.Index))
		if err := docfs.WriteFileAtomic(name, []byte(c.Content), 0644); err != nil {
			return fmt.Errorf("write chunk %d: %w", c.Index, err)
		}
	}
	return nil
}

// GetChunks 返回文档的分块
func (s *Service) GetChunks(userID, documentID string) ([]domainDoc.Chunk, error) {
	doc, err := s.meta.Get(userID, documentID)
	if err != nil {
		return nil, err
	}
	return doc.Chunks, nil
}
