package stream

import (
	"context"

	"go.uber.org/zap"

	"cosinnus_server/internal/model"
)

// cursor 单个内容类型的归并状态
type cursor struct {
	src    Source
	buf    []model.StreamItem
	next   int   // 下一次 Fetch 的偏移
	count  int64 // 预先统计的总数
	taken  int64 // 已被归并取走的条数
	last   bool  // 最近一次 Fetch 不足一块，缓冲区取完即结束
	closed bool
}

// fill 缓冲区为空时取下一块，返回该类型是否仍可用
func (c *cursor) fill(ctx context.Context, f model.ContentFilter, chunk int) (bool, error) {
	if c.closed {
		return false, nil
	}
	if len(c.buf) > 0 {
		return true, nil
	}
	if c.last || c.taken >= c.count {
		c.closed = true
		return false, nil
	}
	items, err := c.src.Provider.Fetch(ctx, f, c.next, chunk)
	if err != nil {
		c.closed = true
		return false, err
	}
	c.next += chunk
	if len(items) == 0 {
		c.closed = true
		return false, nil
	}
	c.last = len(items) < chunk
	c.buf = items
	return true, nil
}

// ahead 判断 a 是否应排在 b 前面：排序键更新者优先，相同时按内容类型名称升序
func ahead(a, b *cursor) bool {
	ka, kb := a.buf[0].SortKey, b.buf[0].SortKey
	if !ka.Equal(kb) {
		return ka.After(kb)
	}
	return a.src.Name < b.src.Name
}

// Merge 对多个内容类型做 k 路归并
// 每个类型只在内存中保留一块（chunk 条）；总数在开始时统计一次，不再重复查询
// 任一类型统计或取数失败都只排除该类型，其未取走的数量从总数中扣除
func Merge(ctx context.Context, sources []Source, f model.ContentFilter, offset, limit, chunk int) *Result {
	res := emptyResult()
	if limit <= 0 {
		return res
	}
	if chunk <= 0 {
		chunk = 1
	}

	cursors := make([]*cursor, 0, len(sources))
	for _, src := range sources {
		n, err := src.Provider.Count(ctx, f)
		if err != nil {
			zap.L().Error("count stream kind failed, kind excluded", zap.String("kind", src.Name), zap.Error(err))
			continue
		}
		if n <= 0 {
			continue
		}
		res.Total += n
		cursors = append(cursors, &cursor{src: src, count: n})
	}

	skipped := 0
	for len(res.Items) < limit {
		if ctx.Err() != nil {
			break
		}
		var best *cursor
		for _, c := range cursors {
			ok, err := c.fill(ctx, f, chunk)
			if err != nil {
				zap.L().Error("fetch stream kind failed, kind excluded",
					zap.String("kind", c.src.Name), zap.Int("offset", c.next), zap.Error(err))
				res.Total -= c.count - c.taken
				continue
			}
			if !ok {
				continue
			}
			if best == nil || ahead(c, best) {
				best = c
			}
		}
		if best == nil {
			break
		}
		item := best.buf[0]
		best.buf = best.buf[1:]
		best.taken++
		if skipped < offset {
			skipped++
			continue
		}
		res.Items = append(res.Items, item)
	}

	if res.Total < 0 {
		res.Total = 0
	}
	res.HasMore = res.Total > int64(offset+len(res.Items))
	return res
}
