package stream

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	myredis "cosinnus_server/internal/dao/redis"
	"cosinnus_server/internal/model"
	"cosinnus_server/pkg/constants"
)

// Result 一次聚合的结果窗口
type Result struct {
	Items   []model.StreamItem `json:"items"`
	Total   int64              `json:"total"`
	HasMore bool               `json:"has_more"`
}

func emptyResult() *Result {
	return &Result{Items: []model.StreamItem{}}
}

// Options 聚合参数
type Options struct {
	ChunkSize int           // 每种内容类型单次预取条数
	Debug     bool          // 内容类型配置错误直接返回
	UnreadTTL time.Duration // 未读数缓存有效期
}

// Aggregator 动态流聚合器
// 无状态，可被多个请求并发使用；cache 只用于未读数，可以为 nil
type Aggregator struct {
	registry *Registry
	filters  *FilterBuilder
	cache    myredis.AsyncCacheService
	opts     Options
}

// NewAggregator 创建聚合器
func NewAggregator(registry *Registry, filters *FilterBuilder, cache myredis.AsyncCacheService, opts Options) *Aggregator {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = constants.DEFAULT_CHUNK_SIZE
	}
	if opts.UnreadTTL <= 0 {
		opts.UnreadTTL = constants.UNREAD_CACHE_TTL
	}
	return &Aggregator{registry: registry, filters: filters, cache: cache, opts: opts}
}

// resolve 解析动态流使用的内容类型
// 调试模式下返回配置错误，否则记录日志并跳过
func (a *Aggregator) resolve(s *model.Stream) ([]Source, error) {
	sources, errs := a.registry.Resolve(model.SplitNames(s.Models))
	if len(errs) > 0 {
		if a.opts.Debug {
			return nil, errors.Join(errs...)
		}
		for _, err := range errs {
			zap.L().Error("skip misconfigured stream content kind", zap.Uint("streamID", s.ID), zap.Error(err))
		}
	}
	return sources, nil
}

// GetStreamObjectsForUser 聚合动态流，跳过前 offset 条后最多返回 limit 条
// limit <= 0 返回空结果，超过单页上限时按上限截断
func (a *Aggregator) GetStreamObjectsForUser(ctx context.Context, s *model.Stream, viewer Viewer, includePublic bool, offset, limit int) (*Result, error) {
	if limit <= 0 {
		return emptyResult(), nil
	}
	if limit > constants.MAX_PAGE_SIZE {
		limit = constants.MAX_PAGE_SIZE
	}
	if offset < 0 {
		offset = 0
	}
	sources, err := a.resolve(s)
	if err != nil {
		return nil, err
	}
	f := a.filters.Build(ctx, s, viewer, includePublic)
	return Merge(ctx, sources, f, offset, limit, a.opts.ChunkSize), nil
}

// UnreadCount since 之后创建、且不是访问者本人创建的内容数量
// 匿名访问者恒为 0；结果异步写入缓存
func (a *Aggregator) UnreadCount(ctx context.Context, s *model.Stream, viewer Viewer, since time.Time) (int64, error) {
	if viewer.Anonymous() {
		return 0, nil
	}
	key := myredis.UnreadKey(viewer.UserID, s.ID)
	mark := watermark(since)
	if a.cache != nil {
		raw, err := a.cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("unread cache read failed", zap.String("key", key), zap.Error(err))
		} else if n, ok := decodeUnread(raw, mark); ok {
			return n, nil
		}
	}

	sources, err := a.resolve(s)
	if err != nil {
		return 0, err
	}
	f := a.filters.Build(ctx, s, viewer, s.IsPublic)
	if !since.IsZero() {
		f.CreatedAfter = &since
	}
	f.ExcludeCreatorID = viewer.UserID

	var total int64
	for _, src := range sources {
		n, err := src.Provider.Count(ctx, f)
		if err != nil {
			zap.L().Error("count unread failed, kind excluded", zap.String("kind", src.Name), zap.Error(err))
			continue
		}
		total += n
	}

	if a.cache != nil {
		ttl := a.opts.UnreadTTL
		a.cache.SubmitTask(func() {
			if err := a.cache.Set(context.Background(), key, encodeUnread(mark, total), ttl); err != nil {
				zap.L().Warn("unread cache write failed", zap.String("key", key), zap.Error(err))
			}
		})
	}
	return total, nil
}

// 未读数缓存值为 "<watermark>:<count>"，watermark 是计算时使用的 LastSeen（UnixNano，未查看过为 0）
// 异步写回可能晚于 MarkSeen 的删除，读取时 watermark 不一致的值一律视为未命中
func watermark(since time.Time) int64 {
	if since.IsZero() {
		return 0
	}
	return since.UnixNano()
}

func encodeUnread(mark, count int64) string {
	return strconv.FormatInt(mark, 10) + ":" + strconv.FormatInt(count, 10)
}

func decodeUnread(raw string, mark int64) (int64, bool) {
	m, c, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, false
	}
	stored, err := strconv.ParseInt(m, 10, 64)
	if err != nil || stored != mark {
		return 0, false
	}
	n, err := strconv.ParseInt(c, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ForgetUnread 删除访问者在该动态流上的未读数缓存
func (a *Aggregator) ForgetUnread(ctx context.Context, userID, streamID uint) {
	if a.cache == nil {
		return
	}
	if err := a.cache.DeleteMany(ctx, myredis.UnreadKey(userID, streamID)); err != nil {
		zap.L().Warn("unread cache delete failed", zap.Uint("streamID", streamID), zap.Error(err))
	}
}
