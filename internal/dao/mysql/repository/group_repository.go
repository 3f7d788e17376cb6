// Package repository 提供数据访问层的具体实现
// 本文件实现 PortalRepository 与 GroupRepository 接口
package repository

import (
	"context"

	"gorm.io/gorm"

	"cosinnus_server/internal/model"
	"cosinnus_server/pkg/errorx"
)

// portalRepository PortalRepository 接口的实现
type portalRepository struct {
	db *gorm.DB
}

// NewPortalRepository 创建 PortalRepository 实例
func NewPortalRepository(db *gorm.DB) PortalRepository {
	return &portalRepository{db: db}
}

// FindByID 根据主键查找门户
func (r *portalRepository) FindByID(ctx context.Context, id uint) (*model.Portal, error) {
	var portal model.Portal
	if err := r.db.WithContext(ctx).First(&portal, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询门户 id=%d", id)
	}
	return &portal, nil
}

// Create 创建门户
func (r *portalRepository) Create(ctx context.Context, portal *model.Portal) error {
	if err := r.db.WithContext(ctx).Create(portal).Error; err != nil {
		return wrapDBError(err, "创建门户")
	}
	return nil
}

// groupRepository GroupRepository 接口的实现
type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository 创建 GroupRepository 实例
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

// FindByID 根据主键查找群组
func (r *groupRepository) FindByID(ctx context.Context, id uint) (*model.GroupInfo, error) {
	var group model.GroupInfo
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询群组 id=%d", id)
	}
	return &group, nil
}

// FindByIDs 根据主键列表批量查找群组
func (r *groupRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.GroupInfo, error) {
	var groups []model.GroupInfo
	if len(ids) == 0 {
		return groups, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&groups).Error; err != nil {
		return nil, wrapDBError(err, "批量查询群组")
	}
	return groups, nil
}

// Create 创建群组
func (r *groupRepository) Create(ctx context.Context, group *model.GroupInfo) error {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return wrapDBError(err, "创建群组")
	}
	return nil
}

// RelateGroups 关联两个群组
// 两个方向在同一事务内写入，任一方向已存在则整体回滚
func (r *groupRepository) RelateGroups(ctx context.Context, a, b uint) error {
	if a == 0 || b == 0 || a == b {
		return errorx.Newf(errorx.CodeInvalidParam, "非法的群组关联 %d -> %d", a, b)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pair := []model.GroupRelation{
			{FromGroupID: a, ToGroupID: b},
			{FromGroupID: b, ToGroupID: a},
		}
		return tx.Create(&pair).Error
	})
	if err != nil {
		return wrapDBErrorf(err, "关联群组 %d <-> %d", a, b)
	}
	return nil
}

// UnrelateGroups 删除两个方向的关联
func (r *groupRepository) UnrelateGroups(ctx context.Context, a, b uint) error {
	err := r.db.WithContext(ctx).
		Where("(from_group_id = ? AND to_group_id = ?) OR (from_group_id = ? AND to_group_id = ?)", a, b, b, a).
		Delete(&model.GroupRelation{}).Error
	if err != nil {
		return wrapDBErrorf(err, "解除群组关联 %d <-> %d", a, b)
	}
	return nil
}

// FindRelatedGroupIDs 查找与指定群组关联的群组
func (r *groupRepository) FindRelatedGroupIDs(ctx context.Context, groupID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.GroupRelation{}).
		Where("from_group_id = ?", groupID).
		Order("to_group_id ASC").
		Pluck("to_group_id", &ids).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询关联群组 group_id=%d", groupID)
	}
	return ids, nil
}
