// Package mq 成员变更事件总线
// 成员关系写入提交后发布 MembershipEvent，订阅者负责缓存以外的衍生数据清理
package mq

import (
	"context"
	"encoding/json"
	"time"

	"cosinnus_server/internal/model"
	"cosinnus_server/pkg/errorx"
	"cosinnus_server/pkg/util/snowflake"
)

// Action 成员变更动作
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// MembershipEvent 成员变更事件
type MembershipEvent struct {
	ID        int64                   `json:"id,string"`
	ModelType string                  `json:"model_type"`
	Action    Action                  `json:"action"`
	GroupID   uint                    `json:"group_id"`
	UserID    uint                    `json:"user_id"`
	OldStatus *model.MembershipStatus `json:"old_status,omitempty"`
	NewStatus *model.MembershipStatus `json:"new_status,omitempty"`
	At        time.Time               `json:"at"`
}

// NewMembershipEvent 构造事件并分配雪花编号
func NewMembershipEvent(modelType string, action Action, groupID, userID uint, oldStatus, newStatus *model.MembershipStatus) MembershipEvent {
	return MembershipEvent{
		ID:        snowflake.GenerateID(),
		ModelType: modelType,
		Action:    action,
		GroupID:   groupID,
		UserID:    userID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		At:        time.Now(),
	}
}

// Encode 序列化为 JSON
func (e MembershipEvent) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeMQError, "编码成员事件失败")
	}
	return data, nil
}

// DecodeMembershipEvent 反序列化事件
func DecodeMembershipEvent(data []byte) (MembershipEvent, error) {
	var e MembershipEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return e, errorx.Wrap(err, errorx.CodeMQError, "解码成员事件失败")
	}
	return e, nil
}

// Handler 事件处理函数
type Handler func(ctx context.Context, evt MembershipEvent) error

// Publisher 事件发布接口，成员服务只依赖它
type Publisher interface {
	Publish(ctx context.Context, evt MembershipEvent) error
}

// Bus 事件总线
// 支持两种实现：KafkaBus（分布式），ChannelBus（单机）
type Bus interface {
	Publisher
	// Subscribe 注册处理函数，需在 Start 之前调用
	Subscribe(h Handler)
	// Start 启动消费循环，ctx 取消后退出
	Start(ctx context.Context)
	// Close 关闭总线资源
	Close()
}
