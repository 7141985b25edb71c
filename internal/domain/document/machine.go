package document

import (
	"context"
	"fmt"
)

// TransitionArgs 触发事件时携带的参数
type TransitionArgs struct {
	Error   string
	Details map[string]interface{}
}

// TransitionContext 进入新状态时传给钩子的上下文
type TransitionContext struct {
	UserID     string
	DocumentID string
	Source     SourceType
	Event      Event
	From       State
	To         State
	Args       TransitionArgs
}

// EnterHook 进入某状态时执行的副作用
// 返回错误时状态机不会推进
type EnterHook func(ctx context.Context, tc TransitionContext) error

// StateMachine 单个文档的状态机
// 每次访问都从持久化的 state 重建，不跨请求长期持有
type StateMachine struct {
	userID     string
	documentID string
	source     SourceType
	state      State
	table      map[transitionKey]State
	onEnter    map[State]EnterHook
}

// NewStateMachine 创建状态机
// current 必须属于 source 可达的状态集合
func NewStateMachine(userID, documentID string, source SourceType, current State, onEnter map[State]EnterHook) (*StateMachine, error) {
	if !source.IsValid() {
		return nil, NewError(KindValidation, "new_state_machine", "unknown source type %q", source)
	}
	if !ReachableStates(source)[current] {
		return nil, NewError(KindIllegalTransition, "new_state_machine",
			"state %q is not reachable for source %q", current, source)
	}
	if onEnter == nil {
		onEnter = map[State]EnterHook{}
	}
	return &StateMachine{
		userID:     userID,
		documentID: documentID,
		source:     source,
		state:      current,
		table:      buildTable(TransitionsFor(source)),
		onEnter:    onEnter,
	}, nil
}

// State 当前状态
func (m *StateMachine) State() State {
	return m.state
}

// Source 来源类型
func (m *StateMachine) Source() SourceType {
	return m.source
}

// Can 检查事件在当前状态下是否合法
func (m *StateMachine) Can(event Event) bool {
	_, ok := m.table[transitionKey{from: m.state, event: event}]
	return ok
}

// AvailableEvents 返回当前状态下可触发的事件
func (m *StateMachine) AvailableEvents() []Event {
	var events []Event
	for k := range m.table {
		if k.from == m.state {
			events = append(events, k.event)
		}
	}
	return events
}

// Fire 触发事件
// 非法事件返回 ErrIllegalTransition 且不修改状态；钩子失败时同样保持原状态
func (m *StateMachine) Fire(ctx context.Context, event Event, args TransitionArgs) error {
	to, ok := m.table[transitionKey{from: m.state, event: event}]
	if !ok {
		return NewError(KindIllegalTransition, string(event),
			"cannot %s from state %s", event, m.state)
	}

	if hook := m.onEnter[to]; hook != nil {
		tc := TransitionContext{
			UserID:     m.userID,
			DocumentID: m.documentID,
			Source:     m.source,
			Event:      event,
			From:       m.state,
			To:         to,
			Args:       args,
		}
		if err := hook(ctx, tc); err != nil {
			return fmt.Errorf("enter %s: %w", to, err)
		}
	}

	m.state = to
	return nil
}
