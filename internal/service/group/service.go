// Package group 群组之间的关联
package group

import (
	"context"

	"go.uber.org/zap"

	"cosinnus_server/internal/dao/mysql/repository"
	"cosinnus_server/internal/model"
	"cosinnus_server/pkg/errorx"
)

// Service 群组关联业务逻辑
type Service struct {
	repos *repository.Repositories
}

// NewService 构造函数，注入 Repository
func NewService(repos *repository.Repositories) *Service {
	return &Service{repos: repos}
}

// RelateGroups 关联两个群组，两个群组都必须存在
func (s *Service) RelateGroups(ctx context.Context, a, b uint) error {
	if a == 0 || b == 0 || a == b {
		return errorx.ErrInvalidParam
	}
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := s.ensureGroups(ctx, tx, a, b); err != nil {
			return err
		}
		if err := tx.Group.RelateGroups(ctx, a, b); err != nil {
			if errorx.HasCode(err, errorx.CodeConflict) {
				return errorx.Wrapf(err, errorx.CodeConflict, "群组 %d 与 %d 已关联", a, b)
			}
			zap.L().Error("relate groups failed", zap.Uint("a", a), zap.Uint("b", b), zap.Error(err))
			return err
		}
		return nil
	})
}

// UnrelateGroups 解除关联，不存在的关联直接忽略
func (s *Service) UnrelateGroups(ctx context.Context, a, b uint) error {
	if a == 0 || b == 0 || a == b {
		return errorx.ErrInvalidParam
	}
	if err := s.repos.Group.UnrelateGroups(ctx, a, b); err != nil {
		zap.L().Error("unrelate groups failed", zap.Uint("a", a), zap.Uint("b", b), zap.Error(err))
		return err
	}
	return nil
}

// RelatedGroups 与指定群组关联的群组，按编号升序
func (s *Service) RelatedGroups(ctx context.Context, groupID uint) ([]model.GroupInfo, error) {
	if _, err := s.repos.Group.FindByID(ctx, groupID); err != nil {
		return nil, err
	}
	ids, err := s.repos.Group.FindRelatedGroupIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.GroupInfo{}, nil
	}
	return s.repos.Group.FindByIDs(ctx, ids)
}

func (s *Service) ensureGroups(ctx context.Context, tx *repository.Repositories, ids ...uint) error {
	groups, err := tx.Group.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	found := make(map[uint]bool, len(groups))
	for _, g := range groups {
		found[g.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return errorx.Newf(errorx.CodeNotFound, "群组 %d 不存在", id)
		}
	}
	return nil
}
