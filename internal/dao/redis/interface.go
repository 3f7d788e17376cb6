// Package redis 定义缓存服务接口
// Service 层依赖此接口而非具体 Redis 实现
package redis

import (
	"context"
	"time"
)

// CacheService 缓存服务接口
// 缓存只是读路径上的优化层，调用方应把任何错误当作未命中处理
type CacheService interface {
	// ==================== String 操作 ====================

	// Set 设置键值对并指定过期时间
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get 获取键对应的值（键不存在返回空字符串和 nil）
	Get(ctx context.Context, key string) (string, error)

	// ==================== 批量操作 ====================

	// GetMany 批量获取，结果只包含存在的键
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	// SetMany 批量设置并指定统一的过期时间
	SetMany(ctx context.Context, values map[string]string, ttl time.Duration) error
	// DeleteMany 删除给定的键，不存在的键会被忽略
	DeleteMany(ctx context.Context, keys ...string) error

	// ==================== Key 操作 ====================

	// DeleteByPattern 删除匹配模式的所有键
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AsyncCacheService 异步缓存服务接口
// 提供异步任务提交能力，用于非阻塞缓存回写
type AsyncCacheService interface {
	CacheService
	// SubmitTask 提交异步缓存任务
	SubmitTask(action func())
	// Close 停止接收任务并等待 Worker 退出
	Close()
}
