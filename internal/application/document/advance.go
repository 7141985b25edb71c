package document

import (
	"context"

	domainDoc "github.com/docmind/backend/internal/domain/document"
)

// maxAdvanceSteps 任一来源从入口到 embedded 的步数上限
const maxAdvanceSteps = 8

// interruptedFailures 处理中状态对应的失败事件
// 持有文档锁时仍处于处理中，说明上次处理被进程退出打断
var interruptedFailures = map[domainDoc.State]domainDoc.Event{
	domainDoc.StateMarkdowning:  domainDoc.EventFailMarkdown,
	domainDoc.StateChunking:     domainDoc.EventFailChunking,
	domainDoc.StateQAExtracting: domainDoc.EventFailQAExtraction,
	domainDoc.StateEmbedding:    domainDoc.EventFailEmbedding,
}

// AdvanceDocument 把文档从当前状态尽量向前推进
// 失败状态走重试转换；到达 embedded、遇到第一个失败或缺少后续阶段所需组件时停止
func (s *Service) AdvanceDocument(ctx context.Context, userID, documentID string) (*domainDoc.Document, error) {
	unlock := s.locks.lock(userID, documentID)
	defer unlock()

	logger := s.loggerFor(ctx, userID, documentID)

	doc, err := s.meta.Get(userID, documentID)
	if err != nil {
		return nil, err
	}

	for step := 0; step < maxAdvanceSteps; step++ {
		if err := ctx.Err(); err != nil {
			return doc, err
		}

		var next *domainDoc.Document
		switch doc.State {
		case domainDoc.StateUploaded, domainDoc.StateBookmarked, domainDoc.StateMarkdownFailed:
			next, err = s.saveMarkdownLocked(ctx, userID, documentID, nil)
		case domainDoc.StateMarkdowned, domainDoc.StateChunkFailed:
			if s.chunker == nil {
				return doc, nil
			}
			next, err = s.chunkMarkdownLocked(ctx, userID, documentID)
		case domainDoc.StateSavedChat, domainDoc.StateQAExtractFailed:
			next, err = s.saveQAPairsLocked(ctx, userID, documentID, nil)
		case domainDoc.StateChunked, domainDoc.StateQAExtracted, domainDoc.StateEmbeddingFailed:
			if s.vectors == nil {
				return doc, nil
			}
			next, err = s.createIndexLocked(ctx, userID, documentID, "")
		case domainDoc.StateEmbedded:
			return doc, nil
		default:
			event, interrupted := interruptedFailures[doc.State]
			if !interrupted {
				// init 或不可达状态交给状态机重建时修复
				_, m, merr := s.getDocumentMachine(ctx, userID, documentID)
				if merr != nil {
					return doc, merr
				}
				if m.State() == doc.State {
					return doc, domainDoc.NewError(domainDoc.KindIllegalTransition, "advance_document",
						"cannot advance document in state %s", doc.State)
				}
				next, err = s.meta.Get(userID, documentID)
				break
			}
			logger.Warn("document was left in processing state, marking stage failed", "state", doc.State)
			_, m, merr := s.getDocumentMachine(ctx, userID, documentID)
			if merr != nil {
				return doc, merr
			}
			if ferr := m.Fire(ctx, event, domainDoc.TransitionArgs{Error: "interrupted"}); ferr != nil {
				return doc, ferr
			}
			next, err = s.meta.Get(userID, documentID)
		}

		if next != nil {
			doc = next
		}
		if err != nil {
			return doc, err
		}
	}
	return doc, nil
}
