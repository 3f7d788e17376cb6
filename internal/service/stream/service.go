package stream

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"cosinnus_server/internal/dao/mysql/repository"
	"cosinnus_server/internal/model"
	"cosinnus_server/pkg/errorx"
)

// MyStreamSlug 每个用户自动创建的"我的动态"
const MyStreamSlug = "my_stream"

// Service 动态流定义的持久化与读取
type Service struct {
	repo repository.StreamRepository
	agg  *Aggregator
	now  func() time.Time
}

// NewService 构造函数
func NewService(repo repository.StreamRepository, agg *Aggregator) *Service {
	return &Service{repo: repo, agg: agg, now: time.Now}
}

// CreateSpecialStreams 为新用户创建特殊动态流，已存在时直接返回
func (s *Service) CreateSpecialStreams(ctx context.Context, userID, portalID uint) ([]model.Stream, error) {
	if userID == 0 {
		return nil, errorx.ErrInvalidParam
	}
	existing, err := s.repo.FindSpecialByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}
	my := model.Stream{
		UserID:     userID,
		Title:      "My Stream",
		Slug:       MyStreamSlug,
		IsMyStream: true,
		IsSpecial:  true,
		IsPublic:   false,
	}
	if portalID != 0 {
		my.PortalIDs = model.JoinIDs([]uint{portalID})
	}
	if err := s.repo.Create(ctx, &my); err != nil {
		zap.L().Error("create special stream failed", zap.Uint("userID", userID), zap.Error(err))
		return nil, err
	}
	return []model.Stream{my}, nil
}

// GetStream 读取动态流，只有所有者可以访问
func (s *Service) GetStream(ctx context.Context, id uint, viewer Viewer) (*model.Stream, error) {
	st, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewer.Anonymous() || st.UserID != viewer.UserID {
		return nil, errorx.ErrForbidden
	}
	return st, nil
}

// ListStreams 用户的全部动态流，特殊流在前
func (s *Service) ListStreams(ctx context.Context, userID uint) ([]model.Stream, error) {
	return s.repo.FindByUser(ctx, userID)
}

// Objects 读取动态流并聚合
func (s *Service) Objects(ctx context.Context, id uint, viewer Viewer, offset, limit int) (*Result, error) {
	st, err := s.GetStream(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	return s.agg.GetStreamObjectsForUser(ctx, st, viewer, st.IsPublic, offset, limit)
}

// PublicObjects 不依赖持久化定义的公开动态流
// 无论是否登录都按匿名访问者过滤：只含公开内容，且限定在 portalIDs（为空时为默认门户）内
func (s *Service) PublicObjects(ctx context.Context, portalIDs []uint, models []string, offset, limit int) (*Result, error) {
	st := &model.Stream{
		PortalIDs: model.JoinIDs(portalIDs),
		IsPublic:  true,
		Models:    strings.Join(models, ","),
	}
	return s.agg.GetStreamObjectsForUser(ctx, st, Viewer{}, false, offset, limit)
}

// Unread 自上次查看以来的未读数量
func (s *Service) Unread(ctx context.Context, id uint, viewer Viewer) (int64, error) {
	st, err := s.GetStream(ctx, id, viewer)
	if err != nil {
		return 0, err
	}
	var since time.Time
	if st.LastSeen != nil {
		since = *st.LastSeen
	}
	return s.agg.UnreadCount(ctx, st, viewer, since)
}

// MarkSeen 更新最近查看时间并丢弃未读数缓存
func (s *Service) MarkSeen(ctx context.Context, id uint, viewer Viewer) (*model.Stream, error) {
	st, err := s.GetStream(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	seen := s.now()
	if err := s.repo.UpdateLastSeen(ctx, st.ID, seen); err != nil {
		return nil, err
	}
	st.LastSeen = &seen
	s.agg.ForgetUnread(ctx, viewer.UserID, st.ID)
	return st, nil
}
