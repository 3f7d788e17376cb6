// Package membership 群组/门户成员缓存与成员关系写入
package membership

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"go.uber.org/zap"

	"cosinnus_server/internal/dao/mysql/repository"
	myredis "cosinnus_server/internal/dao/redis"
	"cosinnus_server/internal/model"
	"cosinnus_server/pkg/constants"
)

// Bucket 成员缓存分桶
type Bucket string

const (
	BucketAdmins   Bucket = "admins"
	BucketMembers  Bucket = "members" // MEMBER 与 ADMIN 的并集
	BucketPendings Bucket = "pendings"
	BucketInvited  Bucket = "invited_pendings"
)

var allBuckets = []Bucket{BucketAdmins, BucketMembers, BucketPendings, BucketInvited}

// Cache 按群组缓存各状态的成员编号
// 缓存只是读路径上的优化，后端异常一律当作未命中
type Cache struct {
	repo  repository.MembershipRepository
	cache myredis.CacheService
	ttl   time.Duration
}

// NewCache 创建成员缓存，ttl <= 0 时使用默认有效期
func NewCache(repo repository.MembershipRepository, cache myredis.CacheService, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = constants.MEMBER_CACHE_TTL
	}
	return &Cache{repo: repo, cache: cache, ttl: ttl}
}

func (c *Cache) key(bucket Bucket, groupID uint) string {
	return myredis.MemberKey(c.repo.Type().Name, string(bucket), groupID)
}

// GetAdmins 群组管理员
func (c *Cache) GetAdmins(ctx context.Context, groupID uint) ([]uint, error) {
	return c.getOne(ctx, BucketAdmins, groupID)
}

// GetMembers 群组正式成员（含管理员）
func (c *Cache) GetMembers(ctx context.Context, groupID uint) ([]uint, error) {
	return c.getOne(ctx, BucketMembers, groupID)
}

// GetPendings 申请中的用户
func (c *Cache) GetPendings(ctx context.Context, groupID uint) ([]uint, error) {
	return c.getOne(ctx, BucketPendings, groupID)
}

// GetInvitedPendings 已邀请待确认的用户
func (c *Cache) GetInvitedPendings(ctx context.Context, groupID uint) ([]uint, error) {
	return c.getOne(ctx, BucketInvited, groupID)
}

// GetAdminsMany 批量获取管理员
func (c *Cache) GetAdminsMany(ctx context.Context, groupIDs []uint) (map[uint][]uint, error) {
	return c.Get(ctx, BucketAdmins, groupIDs)
}

// GetMembersMany 批量获取正式成员
func (c *Cache) GetMembersMany(ctx context.Context, groupIDs []uint) (map[uint][]uint, error) {
	return c.Get(ctx, BucketMembers, groupIDs)
}

// GetPendingsMany 批量获取申请中的用户
func (c *Cache) GetPendingsMany(ctx context.Context, groupIDs []uint) (map[uint][]uint, error) {
	return c.Get(ctx, BucketPendings, groupIDs)
}

// GetInvitedPendingsMany 批量获取已邀请待确认的用户
func (c *Cache) GetInvitedPendingsMany(ctx context.Context, groupIDs []uint) (map[uint][]uint, error) {
	return c.Get(ctx, BucketInvited, groupIDs)
}

func (c *Cache) getOne(ctx context.Context, bucket Bucket, groupID uint) ([]uint, error) {
	res, err := c.Get(ctx, bucket, []uint{groupID})
	if err != nil {
		return nil, err
	}
	if ids, ok := res[groupID]; ok {
		return ids, nil
	}
	return []uint{}, nil
}

// Get 读取一批群组在指定分桶下的成员
// 先一次 GetMany 读缓存，未命中的群组合并为一次数据库查询，并回填它们的全部四个分桶
// 编号为 0 的群组直接忽略；返回值只有数据库错误
func (c *Cache) Get(ctx context.Context, bucket Bucket, groupIDs []uint) (map[uint][]uint, error) {
	ids := normalizeIDs(groupIDs)
	result := make(map[uint][]uint, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(bucket, id)
	}
	hits, err := c.cache.GetMany(ctx, keys)
	if err != nil {
		zap.L().Warn("member cache read failed, falling back to database",
			zap.String("model", c.repo.Type().Name), zap.Error(err))
		hits = nil
	}

	var missing []uint
	for i, id := range ids {
		raw, ok := hits[keys[i]]
		if !ok {
			missing = append(missing, id)
			continue
		}
		var users []uint
		if err := json.Unmarshal([]byte(raw), &users); err != nil {
			zap.L().Warn("drop malformed member cache entry", zap.String("key", keys[i]), zap.Error(err))
			missing = append(missing, id)
			continue
		}
		if users == nil {
			users = []uint{}
		}
		result[id] = users
	}
	if len(missing) == 0 {
		return result, nil
	}

	rows, err := c.repo.FindByGroupIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	rosters := buildRosters(rows)

	fill := make(map[string]string, len(missing)*len(allBuckets))
	for _, id := range missing {
		roster := rosters[id]
		for _, b := range allBuckets {
			users := roster.bucket(b)
			data, _ := json.Marshal(users)
			fill[c.key(b, id)] = string(data)
		}
		result[id] = roster.bucket(bucket)
	}
	if err := c.cache.SetMany(ctx, fill, c.ttl); err != nil {
		zap.L().Warn("member cache fill failed", zap.Int("groups", len(missing)), zap.Error(err))
	}
	return result, nil
}

// ClearMemberCacheForGroup 删除群组的四个分桶
// 重复调用结果相同
func (c *Cache) ClearMemberCacheForGroup(ctx context.Context, groupID uint) {
	c.ClearMemberCacheForGroups(ctx, []uint{groupID})
}

// ClearMemberCacheForGroups 一次删除多个群组的全部分桶
func (c *Cache) ClearMemberCacheForGroups(ctx context.Context, groupIDs []uint) {
	ids := normalizeIDs(groupIDs)
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids)*len(allBuckets))
	for _, id := range ids {
		for _, b := range allBuckets {
			keys = append(keys, c.key(b, id))
		}
	}
	if err := c.cache.DeleteMany(ctx, keys...); err != nil {
		zap.L().Error("clear member cache failed",
			zap.String("model", c.repo.Type().Name), zap.Uints("groups", ids), zap.Error(err))
	}
}

// roster 单个群组按状态分好的成员
type roster struct {
	admins, members, pendings, invited []uint
}

func (r roster) bucket(b Bucket) []uint {
	var ids []uint
	switch b {
	case BucketAdmins:
		ids = r.admins
	case BucketMembers:
		ids = r.members
	case BucketPendings:
		ids = r.pendings
	case BucketInvited:
		ids = r.invited
	}
	if ids == nil {
		return []uint{}
	}
	return ids
}

func buildRosters(rows []model.Membership) map[uint]roster {
	out := make(map[uint]roster)
	for _, m := range rows {
		r := out[m.GroupID]
		switch m.Status {
		case model.StatusAdmin:
			r.admins = append(r.admins, m.UserID)
			r.members = append(r.members, m.UserID)
		case model.StatusMember:
			r.members = append(r.members, m.UserID)
		case model.StatusPending:
			r.pendings = append(r.pendings, m.UserID)
		case model.StatusInvitedPending:
			r.invited = append(r.invited, m.UserID)
		}
		out[m.GroupID] = r
	}
	for id, r := range out {
		r.admins = normalizeIDs(r.admins)
		r.members = normalizeIDs(r.members)
		r.pendings = normalizeIDs(r.pendings)
		r.invited = normalizeIDs(r.invited)
		out[id] = r
	}
	return out
}

// normalizeIDs 去重、去零并升序排列
func normalizeIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
