// Package websocket 把成员变更事件实时推送给受影响的在线用户
// 一个用户可以同时保持多个连接，每个连接各自一个写协程
package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"cosinnus_server/internal/infrastructure/mq"
)

// Hub 在线连接索引，按用户编号分组
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*Client]struct{}
	closed  bool
}

// NewHub 创建连接索引
func NewHub() *Hub {
	return &Hub{clients: make(map[uint]map[*Client]struct{})}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	return true
}

// unregister 移除连接并关闭其发送通道，重复调用无副作用
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
}

// Online 用户当前的连接数
func (h *Hub) Online(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Handle 事件总线订阅者：把事件推送给事件涉及的用户
// 发送缓冲已满的连接视为过慢，直接断开
func (h *Hub) Handle(ctx context.Context, evt mq.MembershipEvent) error {
	data, err := evt.Encode()
	if err != nil {
		return err
	}
	var slow []*Client
	h.mu.RLock()
	for c := range h.clients[evt.UserID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		zap.L().Warn("ws client too slow, disconnecting", zap.Uint("userID", c.userID))
		h.unregister(c)
	}
	return nil
}

// Close 断开全部连接，之后的新连接会被拒绝
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for uid, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, uid)
	}
}
