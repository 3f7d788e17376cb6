// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"cosinnus_server/internal/config"
	"cosinnus_server/internal/dao/mysql/repository"
	myredis "cosinnus_server/internal/dao/redis"
	"cosinnus_server/internal/infrastructure/mq"
	"cosinnus_server/internal/model"
	"cosinnus_server/internal/service/group"
	"cosinnus_server/internal/service/membership"
	"cosinnus_server/internal/service/stream"
)

// Services 聚合所有 Service 实例
type Services struct {
	Membership       *membership.Service // 群组成员
	PortalMembership *membership.Service // 门户成员
	Stream           *stream.Service
	Group            *group.Service
}

// 编译期检查接口实现
var (
	_ MembershipService = (*membership.Service)(nil)
	_ StreamService     = (*stream.Service)(nil)
	_ GroupService      = (*group.Service)(nil)
)

// NewServices 创建并注入所有 Service 实例
// 内容类型注册表在这里构建一次，配置错误直接返回
func NewServices(repos *repository.Repositories, cache myredis.AsyncCacheService, publisher mq.Publisher, conf *config.Config) (*Services, error) {
	sc := conf.StreamConfig
	ttl := sc.MemberCacheDuration()

	groupMembers := membership.NewService(repos, model.GroupMembershipType,
		membership.NewCache(repos.GroupMembership, cache, ttl), publisher)
	portalMembers := membership.NewService(repos, model.PortalMembershipType,
		membership.NewCache(repos.PortalMembership, cache, ttl), publisher)

	registry, err := stream.NewRegistryFromRepositories(repos.Contents)
	if err != nil {
		return nil, err
	}
	agg := stream.NewAggregator(
		registry,
		stream.NewFilterBuilder(groupMembers, conf.MainConfig.DefaultPortalID),
		cache,
		stream.Options{ChunkSize: sc.ChunkSize, Debug: sc.Debug, UnreadTTL: sc.UnreadCacheDuration()},
	)

	return &Services{
		Membership:       groupMembers,
		PortalMembership: portalMembers,
		Stream:           stream.NewService(repos.Stream, agg),
		Group:            group.NewService(repos),
	}, nil
}
