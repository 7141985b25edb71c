// Package websocket 按用户推送文档处理进度
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/docmind/backend/internal/domain/events"
	"github.com/docmind/backend/internal/infrastructure/log"
)

// Message 推送给客户端的消息
type Message struct {
	Type events.EventType `json:"type"`
	Data interface{}      `json:"data"`
}

// envelope 待投递的消息
type envelope struct {
	userID string
	data   []byte
}

// Hub WebSocket 连接管理中心
type Hub struct {
	// 按用户分组的连接
	users map[string]map[*Client]bool
	// 注册连接
	register chan *Client
	// 注销连接
	unregister chan *Client
	// 推送消息
	broadcast chan envelope
	// done Run 退出后关闭
	done   chan struct{}
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		users:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 256),
		done:       make(chan struct{}),
		logger:     log.NewModuleLogger("websocket", "hub"),
	}
}

// Run 运行 Hub，直到 ctx 结束
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.users[c.userID] == nil {
				h.users[c.userID] = make(map[*Client]bool)
			}
			h.users[c.userID][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(c)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.users[msg.userID] {
				select {
				case c.send <- msg.data:
				default:
					// 客户端跟不上，断开
					h.logger.Warn("send buffer full, dropping client", "user_id", msg.userID)
					h.removeLocked(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) removeLocked(c *Client) {
	clients, ok := h.users[c.userID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.users, c.userID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.users {
		for c := range clients {
			h.removeLocked(c)
		}
	}
}

// Register 注册连接
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

// Unregister 注销连接
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// SendToUser 向指定用户的全部连接推送消息
func (h *Hub) SendToUser(userID string, eventType events.EventType, data interface{}) error {
	payload, err := json.Marshal(Message{Type: eventType, Data: data})
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- envelope{userID: userID, data: payload}:
	case <-h.done:
	}
	return nil
}

// ConnectionCount 指定用户当前的连接数
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// SubscribeDocumentEvents 把文档状态变化和删除事件转发给对应用户
func (h *Hub) SubscribeDocumentEvents(bus events.EventBus) (unsubscribe func()) {
	return bus.SubscribeMultiple(
		[]events.EventType{events.DocumentStateChanged, events.DocumentDeleted},
		events.HandlerFunc(func(event events.Event) error {
			switch e := event.(type) {
			case *events.DocumentStateChangedEvent:
				return h.SendToUser(e.UserID, e.Type(), e)
			case *events.DocumentDeletedEvent:
				return h.SendToUser(e.UserID, e.Type(), e)
			}
			return nil
		}),
	)
}
