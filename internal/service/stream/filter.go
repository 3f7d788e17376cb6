package stream

import (
	"context"
	"math"

	"go.uber.org/zap"

	"cosinnus_server/internal/model"
	"cosinnus_server/pkg/constants"
)

// Viewer 访问者，UserID 为 0 表示匿名
type Viewer struct {
	UserID uint
}

// Anonymous 是否匿名访问
func (v Viewer) Anonymous() bool {
	return v.UserID == 0
}

// MemberSource 查询用户可见的群组
type MemberSource interface {
	GroupIDsForUser(ctx context.Context, userID uint) ([]uint, error)
}

// FilterBuilder 根据 Stream 定义与访问者构造内容过滤条件
type FilterBuilder struct {
	members         MemberSource
	defaultPortalID uint
}

// NewFilterBuilder 创建过滤条件构造器
func NewFilterBuilder(members MemberSource, defaultPortalID uint) *FilterBuilder {
	return &FilterBuilder{members: members, defaultPortalID: defaultPortalID}
}

// Build 构造过滤条件
//   - 匿名访问者只看完全公开内容
//   - "我的"动态流限定在用户所在群组，includePublic 时再加上任意门户的公开内容
//   - 其他动态流可限定单个群组或一组群组，结果仍只包含用户所在群组的内容与公开内容
//
// 非法的过滤参数只忽略对应维度
func (b *FilterBuilder) Build(ctx context.Context, s *model.Stream, viewer Viewer, includePublic bool) model.ContentFilter {
	f := model.ContentFilter{PortalIDs: b.portals(s)}

	switch {
	case viewer.Anonymous():
		f.PublicOnly = true
	case s.IsMyStream:
		f.RestrictGroups = true
		f.GroupIDs = b.reachable(ctx, viewer)
		if includePublic {
			f.IncludePublic = true
			f.CrossPortalPublic = true
		}
	default:
		if s.GroupID != nil && *s.GroupID != 0 {
			f.ScopeGroupIDs = []uint{*s.GroupID}
		} else if ids := validIDs(s.SpecialGroupIDs, "special_group_ids", s.ID); len(ids) > 0 {
			f.ScopeGroupIDs = ids
		}
		f.RestrictGroups = true
		f.GroupIDs = b.reachable(ctx, viewer)
		f.IncludePublic = true
	}

	f.TagIDs = validIDs(s.TagIDs, "tag_ids", s.ID)
	f.TopicIDs = validIDs(s.TopicIDs, "topic_ids", s.ID)
	f.PersonIDs = validIDs(s.PersonIDs, "person_ids", s.ID)
	f.BBox = geoBox(s.Latitude, s.Longitude)
	return f
}

func (b *FilterBuilder) portals(s *model.Stream) []uint {
	if ids := validIDs(s.PortalIDs, "portal_ids", s.ID); len(ids) > 0 {
		return ids
	}
	if b.defaultPortalID != 0 {
		return []uint{b.defaultPortalID}
	}
	return nil
}

// reachable 用户作为正式成员所在的群组，查询失败时按无群组处理
func (b *FilterBuilder) reachable(ctx context.Context, viewer Viewer) []uint {
	if b.members == nil {
		return nil
	}
	ids, err := b.members.GroupIDsForUser(ctx, viewer.UserID)
	if err != nil {
		zap.L().Warn("load reachable groups failed", zap.Uint("userID", viewer.UserID), zap.Error(err))
		return nil
	}
	return ids
}

// validIDs 解析逗号拼接的编号，含非法片段时整个维度作废
func validIDs(raw, field string, streamID uint) []uint {
	ids, ok := model.SplitIDs(raw)
	if !ok {
		zap.L().Info("ignore malformed stream filter", zap.String("field", field), zap.String("value", raw), zap.Uint("streamID", streamID))
		return nil
	}
	return ids
}

// geoBox 以给定点为中心 ±0.22 度的范围框，约 20km，不是测地线半径
func geoBox(lat, lon *float64) *model.BBox {
	if lat == nil || lon == nil {
		return nil
	}
	la, lo := *lat, *lon
	if math.IsNaN(la) || math.IsNaN(lo) || la < -90 || la > 90 || lo < -180 || lo > 180 {
		return nil
	}
	d := constants.GEO_BOX_DEGREES
	return &model.BBox{MinLat: la - d, MaxLat: la + d, MinLon: lo - d, MaxLon: lo + d}
}
