package mq

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"cosinnus_server/pkg/constants"
	"cosinnus_server/pkg/errorx"
)

// dispatch 依次调用处理函数，单个处理函数的错误或 panic 不影响其他处理函数
func dispatch(ctx context.Context, handlers []Handler, evt MembershipEvent) {
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					zap.L().Error(fmt.Sprintf("membership event handler panic: %v", r), zap.Int64("eventID", evt.ID))
				}
			}()
			if err := h(ctx, evt); err != nil {
				zap.L().Warn("membership event handler failed",
					zap.Int64("eventID", evt.ID),
					zap.Uint("groupID", evt.GroupID),
					zap.Uint("userID", evt.UserID),
					zap.Error(err))
			}
		}()
	}
}

// ChannelBus 单机模式的事件总线，不依赖外部消息队列
type ChannelBus struct {
	events   chan MembershipEvent
	handlers []Handler

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewChannelBus 创建 ChannelBus，size <= 0 时使用默认缓冲区大小
func NewChannelBus(size int) *ChannelBus {
	if size <= 0 {
		size = constants.CHANNEL_SIZE
	}
	return &ChannelBus{
		events: make(chan MembershipEvent, size),
		done:   make(chan struct{}),
	}
}

// Subscribe 注册处理函数
func (b *ChannelBus) Subscribe(h Handler) {
	b.handlers = append(b.handlers, h)
}

// Publish 投递事件，缓冲区满时阻塞直到 ctx 取消
func (b *ChannelBus) Publish(ctx context.Context, evt MembershipEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errorx.New(errorx.CodeMQError, "事件总线已关闭")
	}
	select {
	case b.events <- evt:
		return nil
	case <-ctx.Done():
		return errorx.Wrap(ctx.Err(), errorx.CodeMQError, "投递成员事件超时")
	}
}

// Start 启动消费循环
func (b *ChannelBus) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		for {
			select {
			case evt, ok := <-b.events:
				if !ok {
					return
				}
				dispatch(ctx, b.handlers, evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Close 停止接收事件，已投递的事件仍会被消费循环处理
func (b *ChannelBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()
}

// Wait 等待消费循环退出，仅在 Start 之后调用
func (b *ChannelBus) Wait() {
	<-b.done
}

var _ Bus = (*ChannelBus)(nil)
