package document

import (
	"context"
	"errors"
	"os"

	domainDoc "github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/domain/events"
	"github.com/docmind/backend/internal/infrastructure/docfs"
)

// DeleteDocument 删除文档的全部产物
// 各步骤互不阻塞，任一步失败时返回 false，但不回滚已完成的步骤；元数据最后删除
func (s *Service) DeleteDocument(ctx context.Context, userID, documentID string) (bool, error) {
	const op = "delete_document"
	unlock := s.locks.lock(userID, documentID)
	defer unlock()

	logger := s.loggerFor(ctx, userID, documentID)

	rawPath, err := s.layout.RawPath(userID, documentID)
	if err != nil {
		return false, domainDoc.WrapError(domainDoc.KindValidation, op, err, "invalid document path")
	}
	_, rawErr := os.Stat(rawPath)
	if !s.meta.Exists(userID, documentID) && rawErr != nil {
		return false, domainDoc.NewError(domainDoc.KindNotFound, op, "document %s not found", documentID)
	}

	complete := true
	step := func(name string, fn func() error) {
		if err := fn(); err != nil {
			complete = false
			logger.Error("delete step failed", "step", name, "error", err)
		}
	}

	step("vectors", func() error {
		if s.vectors == nil {
			return nil
		}
		return s.vectors.Delete(ctx, s.cfg.Collection, userID, documentID)
	})
	step("raw", func() error {
		return removeFile(rawPath)
	})
	step("markdown", func() error {
		path, err := s.layout.MarkdownPath(userID, documentID)
		if err != nil {
			return err
		}
		return removeFile(path)
	})
	step("backups", func() error {
		for _, sub := range []string{docfs.RawDir, docfs.MarkdownDir} {
			dir, err := s.layout.BackupDir(userID, sub, documentID)
			if err != nil {
				return err
			}
			if err := os.RemoveAll(dir); err != nil {
				return err
			}
		}
		return nil
	})
	step("chunks", func() error {
		dir, err := s.layout.ChunkDir(userID, documentID)
		if err != nil {
			return err
		}
		return os.RemoveAll(dir)
	})

	// 审计日志失败只记录，不影响结果
	if s.transitions != nil {
		if err := s.transitions.DeleteByDocument(userID, documentID); err != nil {
			logger.Warn("failed to delete transition log", "error", err)
		}
	}

	step("metadata", func() error {
		if !s.meta.Exists(userID, documentID) {
			return nil
		}
		return s.meta.Delete(userID, documentID)
	})

	if s.bus != nil {
		s.bus.Publish(&events.DocumentDeletedEvent{
			UserID:     userID,
			DocumentID: documentID,
			Complete:   complete,
			EventTime:  s.now(),
		})
	}

	if complete {
		logger.Info("document deleted")
	} else {
		logger.Warn("document partially deleted")
	}
	return complete, nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
