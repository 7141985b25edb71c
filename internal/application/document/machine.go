package document

import (
	"context"
	"time"

	domainDoc "github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/domain/events"
)

// stageEntry 进入某状态时对应阶段的子状态
type stageEntry struct {
	stage domainDoc.Stage
	state domainDoc.StageState
}

var stageEntries = map[domainDoc.State]stageEntry{
	domainDoc.StateMarkdowning:    {domainDoc.StageMarkdown, domainDoc.StageProcessing},
	domainDoc.StateMarkdowned:     {domainDoc.StageMarkdown, domainDoc.StageCompleted},
	domainDoc.StateMarkdownFailed: {domainDoc.StageMarkdown, domainDoc.StageFailed},

	domainDoc.StateChunking:    {domainDoc.StageChunking, domainDoc.StageProcessing},
	domainDoc.StateChunked:     {domainDoc.StageChunking, domainDoc.StageCompleted},
	domainDoc.StateChunkFailed: {domainDoc.StageChunking, domainDoc.StageFailed},

	domainDoc.StateQAExtracting:    {domainDoc.StageQAExtraction, domainDoc.StageProcessing},
	domainDoc.StateQAExtracted:     {domainDoc.StageQAExtraction, domainDoc.StageCompleted},
	domainDoc.StateQAExtractFailed: {domainDoc.StageQAExtraction, domainDoc.StageFailed},

	domainDoc.StateEmbedding:       {domainDoc.StageEmbedding, domainDoc.StageProcessing},
	domainDoc.StateEmbedded:        {domainDoc.StageEmbedding, domainDoc.StageCompleted},
	domainDoc.StateEmbeddingFailed: {domainDoc.StageEmbedding, domainDoc.StageFailed},
}

// hooks 为每个阶段状态生成进入钩子
func (s *Service) hooks() map[domainDoc.State]domainDoc.EnterHook {
	hooks := make(map[domainDoc.State]domainDoc.EnterHook, len(stageEntries))
	for state, entry := range stageEntries {
		hooks[state] = s.enterHook(entry)
	}
	return hooks
}

// enterHook 持久化 state、阶段记录和派生标记，随后写审计并发布事件
func (s *Service) enterHook(entry stageEntry) domainDoc.EnterHook {
	return func(ctx context.Context, tc domainDoc.TransitionContext) error {
		now := s.now()
		detail := map[string]interface{}{
			"stage": entry.stage,
			"state": entry.state,
		}
		switch entry.state {
		case domainDoc.StageProcessing:
			detail["started_at"] = now
			detail["finished_at"] = nil
			detail["success"] = nil
			detail["error"] = ""
			detail["details"] = nil
		case domainDoc.StageCompleted:
			detail["finished_at"] = now
			detail["success"] = true
			detail["error"] = ""
			detail["details"] = tc.Args.Details
		case domainDoc.StageFailed:
			detail["finished_at"] = now
			detail["success"] = false
			detail["error"] = tc.Args.Error
			detail["details"] = tc.Args.Details
		}

		patch := statePatch(tc.Source, tc.To, now)
		patch["process_details"] = map[string]interface{}{string(entry.stage): detail}

		if _, err := s.meta.Update(tc.UserID, tc.DocumentID, patch); err != nil {
			return err
		}
		s.recordTransition(ctx, tc.UserID, tc.DocumentID, tc.Event, tc.From, tc.To, tc.Args.Error)
		return nil
	}
}

// statePatch 写入状态及其派生字段
func statePatch(source domainDoc.SourceType, state domainDoc.State, now time.Time) map[string]interface{} {
	flags := domainDoc.DerivedFlags(source, state)
	status := domainDoc.StatusActive
	if state.IsProcessing() {
		status = domainDoc.StatusProcessing
	}
	return map[string]interface{}{
		"state":          state,
		"status":         status,
		"updated_at":     now,
		"has_markdown":   flags.HasMarkdown,
		"has_chunks":     flags.HasChunks,
		"has_qa_pairs":   flags.HasQAPairs,
		"has_embeddings": flags.HasEmbeddings,
	}
}

// recordTransition 追加审计记录并发布 document.state_changed
func (s *Service) recordTransition(ctx context.Context, userID, documentID string, event domainDoc.Event, from, to domainDoc.State, errMsg string) {
	now := s.now()
	if s.transitions != nil {
		err := s.transitions.Append(&domainDoc.TransitionRecord{
			UserID:     userID,
			DocumentID: documentID,
			Event:      event,
			FromState:  from,
			ToState:    to,
			Error:      errMsg,
			CreatedAt:  now,
		})
		if err != nil {
			s.loggerFor(ctx, userID, documentID).Warn("failed to append transition log",
				"event", event,
				"error", err,
			)
		}
	}
	if s.bus != nil {
		s.bus.Publish(&events.DocumentStateChangedEvent{
			UserID:     userID,
			DocumentID: documentID,
			Event:      string(event),
			FromState:  string(from),
			ToState:    string(to),
			Error:      errMsg,
			EventTime:  now,
		})
	}
	s.loggerFor(ctx, userID, documentID).Debug("document transition",
		"event", event,
		"from", from,
		"to", to,
	)
}

// getDocumentMachine 读取元数据并重建状态机
// 持久化状态不可达或派生标记不一致时按标记修复并记录 WARN
func (s *Service) getDocumentMachine(ctx context.Context, userID, documentID string) (*domainDoc.Document, *domainDoc.StateMachine, error) {
	doc, err := s.meta.Get(userID, documentID)
	if err != nil {
		return nil, nil, err
	}
	if !doc.SourceType.IsValid() {
		return nil, nil, domainDoc.NewError(domainDoc.KindValidation, "get_document_machine",
			"document %s has unknown source type %q", documentID, doc.SourceType)
	}

	state := doc.State
	logger := s.loggerFor(ctx, userID, documentID)
	switch {
	case !domainDoc.ReachableStates(doc.SourceType)[state] || state == domainDoc.StateInit:
		repaired := domainDoc.StateFromFlags(doc.SourceType, doc.Flags())
		logger.Warn("persisted state unreachable, repairing from flags",
			"state", state,
			"repaired_state", repaired,
		)
		if doc, err = s.forceState(userID, doc, repaired); err != nil {
			return nil, nil, err
		}
	case doc.Flags() != domainDoc.DerivedFlags(doc.SourceType, state):
		logger.Warn("derived flags drifted from state, repairing",
			"state", state,
			"flags", doc.Flags(),
		)
		if doc, err = s.forceState(userID, doc, state); err != nil {
			return nil, nil, err
		}
	}

	m, err := domainDoc.NewStateMachine(userID, documentID, doc.SourceType, doc.State, s.hooks())
	if err != nil {
		return nil, nil, err
	}
	return doc, m, nil
}

// forceState 绕过状态机直接写入状态，只用于漂移修复
func (s *Service) forceState(userID string, doc *domainDoc.Document, state domainDoc.State) (*domainDoc.Document, error) {
	return s.meta.Update(userID, doc.DocumentID, statePatch(doc.SourceType, state, s.now()))
}
