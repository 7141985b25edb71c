package index

import (
	"io/fs"
	"path/filepath"

	"github.com/docmind/backend/internal/domain/topic"
	"github.com/docmind/backend/internal/infrastructure/docfs"
)

// VerifyAndRepairDocumentPaths 以磁盘位置为准，修复主题子树内的索引与文档元数据
// 重复执行不会产生额外改动
func (x *DocumentIndex) VerifyAndRepairDocumentPaths(userID, topicPath string) (*topic.RepairReport, error) {
	if err := docfs.ValidateUserID(userID); err != nil {
		return nil, err
	}
	scope, err := docfs.NormalizeTopicPath(topicPath)
	if err != nil {
		return nil, err
	}

	ui := x.user(userID)
	ui.mu.Lock()
	defer ui.mu.Unlock()

	if err := x.refreshLocked(userID, ui, true, scope); err != nil {
		return nil, err
	}

	report := &topic.RepairReport{TopicPath: scope}
	root, err := x.resolver.TopicDir(userID, scope)
	if err != nil {
		return nil, err
	}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		id, ok := docfs.ExtractDocumentID(d.Name())
		if !ok {
			return nil
		}
		actual, err := x.resolver.RelativeTopic(userID, filepath.Dir(path))
		if err != nil {
			return nil
		}
		report.Scanned++

		if x.patcher == nil {
			return nil
		}
		recorded, present, err := x.patcher.ReadTopicPath(path)
		if err != nil {
			x.logger.Warn("failed to read document metadata",
				"user_id", userID,
				"document_id", id,
				"error", err,
			)
			return nil
		}
		if present && recorded == actual {
			return nil
		}
		if err := x.patcher.WriteTopicPath(path, actual); err != nil {
			x.logger.Warn("failed to repair document metadata",
				"user_id", userID,
				"document_id", id,
				"error", err,
			)
			return nil
		}
		report.Repaired = append(report.Repaired, id)
		x.logger.Info("document topic path repaired",
			"user_id", userID,
			"document_id", id,
			"recorded", recorded,
			"actual", actual,
		)
		return nil
	})

	return report, nil
}
