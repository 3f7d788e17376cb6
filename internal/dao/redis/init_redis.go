// Package redis 提供 Redis 缓存操作的封装
// 本文件仅包含 Redis 连接初始化逻辑
// 使用 github.com/go-redis/redis/v8 作为底层客户端
package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"cosinnus_server/internal/config"
)

// Init 根据配置创建 Redis 客户端与缓存服务
// 连接探测失败只记录告警：缓存不可用时读路径会退化为直接查询
func Init(conf *config.Config) *RedisCache {
	addr := conf.RedisConfig.Host + ":" + strconv.Itoa(conf.RedisConfig.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: conf.RedisConfig.Password,
		DB:       conf.RedisConfig.Db,
		// 连接池配置
		PoolSize:     50,
		MinIdleConns: conf.RedisConfig.WorkerNum, // 与 Worker 数量匹配
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		zap.L().Warn("redis ping failed, cache will degrade to direct queries", zap.String("addr", addr), zap.Error(err))
	}

	return NewRedisCache(client, conf.RedisConfig.WorkerNum, conf.RedisConfig.TaskQueue)
}
