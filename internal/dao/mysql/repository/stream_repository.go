package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"cosinnus_server/internal/model"
)

type streamRepository struct {
	db *gorm.DB
}

// NewStreamRepository 创建动态流 Repository
func NewStreamRepository(db *gorm.DB) StreamRepository {
	return &streamRepository{db: db}
}

// FindByID 根据主键查找动态流
func (r *streamRepository) FindByID(ctx context.Context, id uint) (*model.Stream, error) {
	var s model.Stream
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询动态流 id=%d", id)
	}
	return &s, nil
}

// FindByUser 查找用户的所有动态流
func (r *streamRepository) FindByUser(ctx context.Context, userID uint) ([]model.Stream, error) {
	var streams []model.Stream
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("is_special DESC, id ASC").Find(&streams).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户动态流 user_id=%d", userID)
	}
	return streams, nil
}

// FindSpecialByUser 查找用户的特殊动态流
func (r *streamRepository) FindSpecialByUser(ctx context.Context, userID uint) ([]model.Stream, error) {
	var streams []model.Stream
	if err := r.db.WithContext(ctx).Where("user_id = ? AND is_special = ?", userID, true).
		Order("id ASC").Find(&streams).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询特殊动态流 user_id=%d", userID)
	}
	return streams, nil
}

// Create 创建动态流
func (r *streamRepository) Create(ctx context.Context, stream *model.Stream) error {
	if err := r.db.WithContext(ctx).Create(stream).Error; err != nil {
		return wrapDBError(err, "创建动态流")
	}
	return nil
}

// UpdateLastSeen 更新最近查看时间
func (r *streamRepository) UpdateLastSeen(ctx context.Context, id uint, seen time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Stream{}).Where("id = ?", id).
		UpdateColumn("last_seen", seen).Error; err != nil {
		return wrapDBErrorf(err, "更新动态流查看时间 id=%d", id)
	}
	return nil
}
