// Package repository 提供数据访问层的具体实现
// 本文件实现 MembershipRepository 接口，处理成员关系相关的数据库操作
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"cosinnus_server/internal/model"
)

// membershipRepository MembershipRepository 接口的实现
// 所有查询都通过 Table(...) 指向当前模型类型的表
type membershipRepository struct {
	db  *gorm.DB
	typ model.MembershipType
}

// NewMembershipRepository 创建指定模型类型的 MembershipRepository 实例
func NewMembershipRepository(db *gorm.DB, typ model.MembershipType) MembershipRepository {
	return &membershipRepository{db: db, typ: typ}
}

// Type 返回成员关系模型类型
func (r *membershipRepository) Type() model.MembershipType {
	return r.typ
}

func (r *membershipRepository) table(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.typ.Table)
}

// FindByUserAndGroup 根据群组和用户查找成员关系
// 用于检查用户是否已在群中
func (r *membershipRepository) FindByUserAndGroup(ctx context.Context, userID, groupID uint) (*model.Membership, error) {
	var m model.Membership
	if err := r.table(ctx).Where("user_id = ? AND group_id = ?", userID, groupID).Take(&m).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询%s成员 group_id=%d user_id=%d", r.typ.Name, groupID, userID)
	}
	return &m, nil
}

// FindByGroupIDs 一次查询多个群组的全部成员关系
// 成员缓存批量回填依赖这里只发出一条 SQL
func (r *membershipRepository) FindByGroupIDs(ctx context.Context, groupIDs []uint) ([]model.Membership, error) {
	var members []model.Membership
	if len(groupIDs) == 0 {
		return members, nil
	}
	if err := r.table(ctx).Where("group_id IN ?", groupIDs).Order("group_id ASC, user_id ASC").Find(&members).Error; err != nil {
		return nil, wrapDBErrorf(err, "批量查询%s成员", r.typ.Name)
	}
	return members, nil
}

// FindByGroupsAndUsers 查找指定群组与用户交集上的成员关系
func (r *membershipRepository) FindByGroupsAndUsers(ctx context.Context, groupIDs, userIDs []uint) ([]model.Membership, error) {
	var members []model.Membership
	if len(groupIDs) == 0 {
		return members, nil
	}
	q := r.table(ctx).Where("group_id IN ?", groupIDs)
	if len(userIDs) > 0 {
		q = q.Where("user_id IN ?", userIDs)
	}
	if err := q.Order("group_id ASC, user_id ASC").Find(&members).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询%s成员交集", r.typ.Name)
	}
	return members, nil
}

// FindGroupIDsForUser 查找用户处于指定状态的群组
func (r *membershipRepository) FindGroupIDsForUser(ctx context.Context, userID uint, statuses []model.MembershipStatus) ([]uint, error) {
	var ids []uint
	q := r.table(ctx).Where("user_id = ?", userID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if err := q.Order("group_id ASC").Pluck("group_id", &ids).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户所在%s user_id=%d", r.typ.Name, userID)
	}
	return ids, nil
}

// Create 添加成员关系，(user_id, group_id) 重复时返回 CodeConflict
func (r *membershipRepository) Create(ctx context.Context, m *model.Membership) error {
	if err := r.table(ctx).Create(m).Error; err != nil {
		return wrapDBErrorf(err, "创建%s成员 group_id=%d user_id=%d", r.typ.Name, m.GroupID, m.UserID)
	}
	return nil
}

// UpdateStatus 更新单条成员关系的状态与状态变更时间
func (r *membershipRepository) UpdateStatus(ctx context.Context, m *model.Membership) error {
	err := r.table(ctx).Where("id = ?", m.ID).Updates(map[string]any{
		"status":            m.Status,
		"status_changed_at": m.StatusChangedAt,
		"updated_at":        time.Now(),
	}).Error
	if err != nil {
		return wrapDBErrorf(err, "更新%s成员状态 id=%d", r.typ.Name, m.ID)
	}
	return nil
}

// UpdateStatusByIDs 批量更新成员状态
func (r *membershipRepository) UpdateStatusByIDs(ctx context.Context, ids []uint, status model.MembershipStatus, touchChangedAt bool, changedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now(),
	}
	if touchChangedAt {
		updates["status_changed_at"] = changedAt
	}
	if err := r.table(ctx).Where("id IN ?", ids).Updates(updates).Error; err != nil {
		return wrapDBErrorf(err, "批量更新%s成员状态", r.typ.Name)
	}
	return nil
}

// Delete 删除单个成员关系
func (r *membershipRepository) Delete(ctx context.Context, userID, groupID uint) (int64, error) {
	res := r.table(ctx).Where("user_id = ? AND group_id = ?", userID, groupID).Delete(&model.Membership{})
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "删除%s成员 group_id=%d user_id=%d", r.typ.Name, groupID, userID)
	}
	return res.RowsAffected, nil
}
