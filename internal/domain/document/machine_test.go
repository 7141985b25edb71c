package document

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEvents = []Event{
	EventUpload, EventBookmark, EventSaveChat,
	EventStartMarkdownFromUpload, EventStartMarkdownFromBookmark,
	EventCompleteMarkdown, EventFailMarkdown, EventRetryMarkdown, EventRestartMarkdown,
	EventStartChunking, EventCompleteChunking, EventFailChunking, EventRetryChunking, EventRestartChunking,
	EventStartQAExtraction, EventCompleteQAExtraction, EventFailQAExtraction, EventRetryQAExtraction, EventRestartQAExtraction,
	EventStartEmbeddingFromChunks, EventStartEmbeddingFromQA,
	EventCompleteEmbedding, EventFailEmbedding, EventRetryEmbedding,
}

var allSources = []SourceType{SourceLocal, SourceRemote, SourceWeb, SourceChat}

// 穷举驱动状态机，每次转换后检查派生标记与可达性
func TestStateMachine_ExhaustiveFlagsInvariant(t *testing.T) {
	postMarkdown := map[State]bool{
		StateMarkdowned: true, StateChunking: true, StateChunked: true, StateChunkFailed: true,
		StateEmbedding: true, StateEmbedded: true, StateEmbeddingFailed: true,
	}

	for _, source := range allSources {
		t.Run(string(source), func(t *testing.T) {
			reachable := ReachableStates(source)
			visited := map[State]bool{}
			queue := []State{StateInit}

			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				if visited[cur] {
					continue
				}
				visited[cur] = true

				for _, ev := range allEvents {
					var entered Flags
					hooks := map[State]EnterHook{}
					for _, st := range AllStates {
						hooks[st] = func(_ context.Context, tc TransitionContext) error {
							entered = DerivedFlags(tc.Source, tc.To)
							return nil
						}
					}
					m, err := NewStateMachine("u1", "d1", source, cur, hooks)
					require.NoError(t, err)

					err = m.Fire(context.Background(), ev, TransitionArgs{})
					if err != nil {
						assert.True(t, errors.Is(err, ErrIllegalTransition))
						assert.Equal(t, cur, m.State(), "非法事件不能修改状态")
						continue
					}

					next := m.State()
					assert.True(t, reachable[next], "%s 不在可达集合中", next)
					assert.Equal(t, DerivedFlags(source, next), entered)

					if source == SourceChat {
						assert.False(t, entered.HasMarkdown)
						assert.False(t, entered.HasChunks)
					} else {
						assert.Equal(t, postMarkdown[next], entered.HasMarkdown, "state=%s", next)
						assert.False(t, entered.HasQAPairs)
					}
					assert.Equal(t, next == StateEmbedded, entered.HasEmbeddings)
					queue = append(queue, next)
				}
			}

			assert.Equal(t, reachable, visited)
		})
	}
}

func TestStateMachine_IllegalTransitionLeavesState(t *testing.T) {
	calls := 0
	hooks := map[State]EnterHook{
		StateChunking: func(context.Context, TransitionContext) error {
			calls++
			return nil
		},
	}
	m, err := NewStateMachine("u1", "d1", SourceLocal, StateUploaded, hooks)
	require.NoError(t, err)

	err = m.Fire(context.Background(), EventStartChunking, TransitionArgs{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, StateUploaded, m.State())
	assert.Equal(t, 0, calls)
}

func TestStateMachine_HookFailureKeepsState(t *testing.T) {
	hooks := map[State]EnterHook{
		StateMarkdowning: func(context.Context, TransitionContext) error {
			return errors.New("disk full")
		},
	}
	m, err := NewStateMachine("u1", "d1", SourceLocal, StateUploaded, hooks)
	require.NoError(t, err)

	err = m.Fire(context.Background(), EventStartMarkdownFromUpload, TransitionArgs{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, StateUploaded, m.State())
}

func TestStateMachine_HookReceivesArgs(t *testing.T) {
	var got TransitionContext
	hooks := map[State]EnterHook{
		StateMarkdownFailed: func(_ context.Context, tc TransitionContext) error {
			got = tc
			return nil
		},
	}
	m, err := NewStateMachine("u1", "d1", SourceWeb, StateMarkdowning, hooks)
	require.NoError(t, err)

	require.NoError(t, m.Fire(context.Background(), EventFailMarkdown, TransitionArgs{Error: "timeout"}))
	assert.Equal(t, StateMarkdownFailed, m.State())
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "d1", got.DocumentID)
	assert.Equal(t, StateMarkdowning, got.From)
	assert.Equal(t, EventFailMarkdown, got.Event)
	assert.Equal(t, "timeout", got.Args.Error)
}

func TestStateMachine_EmbeddingFanIn(t *testing.T) {
	m, err := NewStateMachine("u", "d", SourceLocal, StateChunked, nil)
	require.NoError(t, err)
	assert.True(t, m.Can(EventStartEmbeddingFromChunks))
	assert.False(t, m.Can(EventStartEmbeddingFromQA))

	m, err = NewStateMachine("u", "d", SourceChat, StateQAExtracted, nil)
	require.NoError(t, err)
	assert.True(t, m.Can(EventStartEmbeddingFromQA))
	assert.False(t, m.Can(EventStartEmbeddingFromChunks))
}

func TestStateMachine_RetryFromEveryFailedState(t *testing.T) {
	tests := []struct {
		source SourceType
		from   State
		event  Event
		to     State
	}{
		{SourceLocal, StateMarkdownFailed, EventRetryMarkdown, StateMarkdowning},
		{SourceLocal, StateChunkFailed, EventRetryChunking, StateChunking},
		{SourceChat, StateQAExtractFailed, EventRetryQAExtraction, StateQAExtracting},
		{SourceLocal, StateEmbeddingFailed, EventRetryEmbedding, StateEmbedding},
		{SourceChat, StateEmbeddingFailed, EventRetryEmbedding, StateEmbedding},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			m, err := NewStateMachine("u", "d", tt.source, tt.from, nil)
			require.NoError(t, err)
			require.NoError(t, m.Fire(context.Background(), tt.event, TransitionArgs{}))
			assert.Equal(t, tt.to, m.State())
		})
	}
}

func TestStateMachine_RestartFromEmbedded(t *testing.T) {
	m, err := NewStateMachine("u", "d", SourceLocal, StateEmbedded, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Event{EventRestartMarkdown, EventRestartChunking}, m.AvailableEvents())

	m, err = NewStateMachine("u", "d", SourceChat, StateEmbedded, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Event{EventRestartQAExtraction}, m.AvailableEvents())
}

func TestNewStateMachine_RejectsUnreachableState(t *testing.T) {
	_, err := NewStateMachine("u", "d", SourceChat, StateMarkdowned, nil)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	_, err = NewStateMachine("u", "d", SourceLocal, StateBookmarked, nil)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	_, err = NewStateMachine("u", "d", SourceType("ftp"), StateInit, nil)
	assert.ErrorIs(t, err, ErrValidation)
}
