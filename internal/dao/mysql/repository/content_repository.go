package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"cosinnus_server/internal/model"
)

// streamRow 约束可进入动态流的内容模型
type streamRow[T any] interface {
	*T
	StreamID() uint
	StreamSortKey() time.Time
}

// contentRepository 单个内容类型的通用实现
type contentRepository[T any, PT streamRow[T]] struct {
	db         *gorm.DB
	kind       string
	sortColumn string
}

// NewContentRepository 创建内容 Repository
// sortColumn 必须与模型 StreamSortKey 返回的字段一致
func NewContentRepository[T any, PT streamRow[T]](db *gorm.DB, kind, sortColumn string) ContentRepository {
	return &contentRepository[T, PT]{db: db, kind: kind, sortColumn: sortColumn}
}

// NewContentRepositories 创建全部内容类型的 Repository，排序列取自 model.ContentKinds
func NewContentRepositories(db *gorm.DB) []ContentRepository {
	return []ContentRepository{
		newKindRepository[model.Event](db, model.KindEvent),
		newKindRepository[model.FileEntry](db, model.KindFile),
		newKindRepository[model.Note](db, model.KindNote),
		newKindRepository[model.TodoEntry](db, model.KindTodo),
		newKindRepository[model.Poll](db, model.KindPoll),
	}
}

func newKindRepository[T any, PT streamRow[T]](db *gorm.DB, name string) ContentRepository {
	k, ok := model.LookupContentKind(name)
	if !ok {
		panic("unknown content kind " + name)
	}
	return NewContentRepository[T, PT](db, k.Name, k.SortColumn)
}

func (r *contentRepository[T, PT]) Kind() string {
	return r.kind
}

func (r *contentRepository[T, PT]) SortColumn() string {
	return r.sortColumn
}

// Count 统计满足过滤条件的内容数量
func (r *contentRepository[T, PT]) Count(ctx context.Context, f model.ContentFilter) (int64, error) {
	var n int64
	if err := r.scoped(ctx, f).Count(&n).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计内容 kind=%s", r.kind)
	}
	return n, nil
}

// Fetch 按排序列倒序取出一段内容
func (r *contentRepository[T, PT]) Fetch(ctx context.Context, f model.ContentFilter, offset, limit int) ([]model.StreamItem, error) {
	var rows []T
	err := r.scoped(ctx, f).
		Order(r.sortColumn + " DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询内容 kind=%s offset=%d", r.kind, offset)
	}
	items := make([]model.StreamItem, 0, len(rows))
	for i := range rows {
		row := PT(&rows[i])
		items = append(items, model.StreamItem{
			Kind:    r.kind,
			ID:      row.StreamID(),
			SortKey: row.StreamSortKey(),
			Object:  row,
		})
	}
	return items, nil
}

func (r *contentRepository[T, PT]) scoped(ctx context.Context, f model.ContentFilter) *gorm.DB {
	return applyContentFilter(r.db.WithContext(ctx).Model(PT(new(T))), r.kind, f)
}

// applyContentFilter 将可见性与过滤条件翻译为 WHERE 子句
func applyContentFilter(q *gorm.DB, kind string, f model.ContentFilter) *gorm.DB {
	switch {
	case f.PublicOnly:
		q = wherePortal(q, f.PortalIDs)
		q = q.Where("public = ?", true)
	case f.RestrictGroups && f.IncludePublic && f.CrossPortalPublic:
		scope, args := groupScope(f.PortalIDs, f.GroupIDs)
		q = q.Where("(("+scope+") OR public = ?)", append(args, true)...)
	case f.RestrictGroups && f.IncludePublic:
		q = wherePortal(q, f.PortalIDs)
		scope, args := groupScope(nil, f.GroupIDs)
		q = q.Where("("+scope+" OR public = ?)", append(args, true)...)
	case f.RestrictGroups:
		scope, args := groupScope(f.PortalIDs, f.GroupIDs)
		q = q.Where(scope, args...)
	default:
		q = wherePortal(q, f.PortalIDs)
	}
	if len(f.ScopeGroupIDs) > 0 {
		q = q.Where("group_id IN ?", f.ScopeGroupIDs)
	}

	if len(f.TagIDs) > 0 {
		q = q.Where("id IN (SELECT object_id FROM content_tag WHERE content_kind = ? AND tag_id IN ?)", kind, f.TagIDs)
	}
	if len(f.TopicIDs) > 0 {
		// 话题以逗号拼接存储，按子串匹配：编号 1 也会命中 "12"
		clauses := make([]string, 0, len(f.TopicIDs))
		args := make([]any, 0, len(f.TopicIDs))
		for _, id := range f.TopicIDs {
			clauses = append(clauses, "topics LIKE ?")
			args = append(args, "%"+strconv.FormatUint(uint64(id), 10)+"%")
		}
		q = q.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
	if len(f.PersonIDs) > 0 {
		q = q.Where("id IN (SELECT object_id FROM content_person WHERE content_kind = ? AND user_id IN ?)", kind, f.PersonIDs)
	}
	if f.BBox != nil {
		q = q.Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?",
			f.BBox.MinLat, f.BBox.MaxLat, f.BBox.MinLon, f.BBox.MaxLon)
	}
	if f.CreatedAfter != nil {
		q = q.Where("created_at > ?", *f.CreatedAfter)
	}
	if f.ExcludeCreatorID != 0 {
		q = q.Where("creator_id <> ?", f.ExcludeCreatorID)
	}
	return q
}

func wherePortal(q *gorm.DB, portalIDs []uint) *gorm.DB {
	if len(portalIDs) == 0 {
		return q
	}
	return q.Where("portal_id IN ?", portalIDs)
}

// groupScope 门户与群组限制，群组列表为空时不匹配任何行
func groupScope(portalIDs, groupIDs []uint) (string, []any) {
	var parts []string
	var args []any
	if len(portalIDs) > 0 {
		parts = append(parts, "portal_id IN ?")
		args = append(args, portalIDs)
	}
	if len(groupIDs) == 0 {
		parts = append(parts, "1 = 0")
	} else {
		parts = append(parts, "group_id IN ?")
		args = append(args, groupIDs)
	}
	return strings.Join(parts, " AND "), args
}
