package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	domainDoc "github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/docfs"
)

const qaPairsFile = "qa_pairs.json"

// PairMessages 把对话消息配对为问答对
// 连续的用户消息合并为问题，随后连续的助手消息合并为答案；
// 没有问题的开头回复和没有答案的结尾提问都会被丢弃，system 消息忽略
func PairMessages(messages []domainDoc.ChatMessage) []domainDoc.QAPair {
	var pairs []domainDoc.QAPair
	var questions, answers []string

	emit := func() {
		if len(questions) > 0 && len(answers) > 0 {
			pairs = append(pairs, domainDoc.QAPair{
				Question: strings.Join(questions, "\n\n"),
				Answer:   strings.Join(answers, "\n\n"),
				Index:    len(pairs),
			})
		}
		questions, answers = nil, nil
	}

	for _, msg := range messages {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		switch msg.Role {
		case "user":
			// 新一轮提问开始，先结算上一轮
			if len(answers) > 0 {
				emit()
			}
			questions = append(questions, text)
		case "assistant":
			if len(questions) == 0 {
				continue
			}
			answers = append(answers, text)
		}
	}
	emit()
	return pairs
}

// ExtractQAPairs 从对话文档中抽取问答对
func (s *Service) ExtractQAPairs(ctx context.Context, userID, documentID string) (*domainDoc.Document, error) {
	unlock := s.locks.lock(userID, documentID)
	defer unlock()
	return s.saveQAPairsLocked(ctx, userID, documentID, nil)
}

// SaveQAPairs 保存调用方提供的问答对
func (s *Service) SaveQAPairs(ctx context.Context, userID, documentID string, pairs []domainDoc.QAPair) (*domainDoc.Document, error) {
	if len(pairs) == 0 {
		return nil, domainDoc.NewError(domainDoc.KindValidation, "save_qa_pairs", "qa pairs are required")
	}
	unlock := s.locks.lock(userID, documentID)
	defer unlock()
	return s.saveQAPairsLocked(ctx, userID, documentID, pairs)
}

// saveQAPairsLocked pairs 为 nil 时从原始消息中抽取
func (s *Service) saveQAPairsLocked(ctx context.Context, userID, documentID string, pairs []domainDoc.QAPair) (*domainDoc.Document, error) {
	const op = "extract_qa_pairs"
	doc, m, err := s.getDocumentMachine(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.SourceType != domainDoc.SourceChat {
		return doc, domainDoc.NewError(domainDoc.KindValidation, op,
			"qa extraction only applies to chat documents, got %s", doc.SourceType)
	}

	event, ok := firstAvailable(m,
		domainDoc.EventStartQAExtraction,
		domainDoc.EventRetryQAExtraction,
		domainDoc.EventRestartQAExtraction,
	)
	if !ok {
		return doc, domainDoc.NewError(domainDoc.KindIllegalTransition, op,
			"cannot extract qa pairs in state %s", m.State())
	}
	if err := m.Fire(ctx, event, domainDoc.TransitionArgs{}); err != nil {
		return doc, err
	}

	stageErr := func() error {
		if pairs == nil {
			messages, err := s.readMessages(userID, documentID)
			if err != nil {
				return err
			}
			pairs = PairMessages(messages)
			if len(pairs) == 0 {
				return errors.New("no question/answer pairs found in conversation")
			}
		}
		for i := range pairs {
			pairs[i].Index = i
		}
		if err := s.writeQAPairs(userID, documentID, pairs); err != nil {
			return err
		}
		_, err := s.meta.Update(userID, documentID, map[string]interface{}{"qa_pairs_count": len(pairs)})
		return err
	}()

	if stageErr != nil {
		s.loggerFor(ctx, userID, documentID).Error("qa extraction stage failed", "error", stageErr)
		if ferr := m.Fire(ctx, domainDoc.EventFailQAExtraction, domainDoc.TransitionArgs{Error: stageErr.Error()}); ferr != nil {
			s.loggerFor(ctx, userID, documentID).Error("failed to record qa extraction failure", "error", ferr)
		}
		stageErr = domainDoc.WrapError(domainDoc.KindStageFailed, op, stageErr, "qa extraction failed")
	} else {
		details := map[string]interface{}{"count": len(pairs)}
		if err := m.Fire(ctx, domainDoc.EventCompleteQAExtraction, domainDoc.TransitionArgs{Details: details}); err != nil {
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

func (s *Service) readMessages(userID, documentID string) ([]domainDoc.ChatMessage, error) {
	rawPath, err := s.layout.RawPath(userID, documentID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(rawPath)
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	var messages []domainDoc.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return messages, nil
}

func (s *Service) qaPairsPath(userID, documentID string) (string, error) {
	dir, err := s.layout.ChunkDir(userID, documentID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, qaPairsFile), nil
}

func (s *Service) writeQAPairs(userID, documentID string, pairs []domainDoc.QAPair) error {
	path, err := s.qaPairsPath(userID, documentID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return err
	}
	return docfs.WriteFileAtomic(path, data, 0644)
}

// GetQAPairs 读取已抽取的问答对，尚未抽取时返回空列表
func (s *Service) GetQAPairs(userID, documentID string) ([]domainDoc.QAPair, error) {
	const op = "get_qa_pairs"
	if _, err := s.meta.Get(userID, documentID); err != nil {
		return nil, err
	}
	path, err := s.qaPairsPath(userID, documentID)
	if err != nil {
		return nil, domainDoc.WrapError(domainDoc.KindValidation, op, err, "invalid document path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domainDoc.QAPair{}, nil
		}
		return nil, domainDoc.WrapError(domainDoc.KindIO, op, err, "read qa pairs")
	}
	var pairs []domainDoc.QAPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, domainDoc.WrapError(domainDoc.KindIO, op, err, "decode qa pairs")
	}
	return pairs, nil
}
