package mq

import (
	"context"

	myredis "cosinnus_server/internal/dao/redis"
)

// UnreadInvalidator 成员变更后清理该用户的未读数缓存
// 用户可见的群组集合变化后，其所有动态流的未读数都可能失效
type UnreadInvalidator struct {
	cache myredis.CacheService
}

// NewUnreadInvalidator 创建未读数缓存清理订阅者
func NewUnreadInvalidator(cache myredis.CacheService) *UnreadInvalidator {
	return &UnreadInvalidator{cache: cache}
}

// Handle 实现 Handler
func (u *UnreadInvalidator) Handle(ctx context.Context, evt MembershipEvent) error {
	if evt.UserID == 0 {
		return nil
	}
	return u.cache.DeleteByPattern(ctx, myredis.UnreadPattern(evt.UserID))
}
