package respond

import (
	"time"

	"cosinnus_server/internal/model"
)

// StreamItemRespond 动态流中的一条内容
type StreamItemRespond struct {
	Kind    string    `json:"kind"`
	ID      uint      `json:"id"`
	SortKey time.Time `json:"sort_key"`
	Object  any       `json:"object"`
}

// StreamObjectsRespond 一页动态流
// 使用位置:
//   - internal/handler/stream_handler.go: Objects, PublicObjects
type StreamObjectsRespond struct {
	Items   []StreamItemRespond `json:"items"`
	Total   int64               `json:"total"`
	HasMore bool                `json:"has_more"`
}

// NewStreamObjectsRespond 转换聚合结果
func NewStreamObjectsRespond(items []model.StreamItem, total int64, hasMore bool) StreamObjectsRespond {
	out := StreamObjectsRespond{Items: make([]StreamItemRespond, 0, len(items)), Total: total, HasMore: hasMore}
	for _, it := range items {
		out.Items = append(out.Items, StreamItemRespond{Kind: it.Kind, ID: it.ID, SortKey: it.SortKey, Object: it.Object})
	}
	return out
}

// StreamRespond 动态流定义
type StreamRespond struct {
	ID         uint       `json:"id"`
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	IsMyStream bool       `json:"is_my_stream"`
	IsSpecial  bool       `json:"is_special"`
	IsPublic   bool       `json:"is_public"`
	Models     string     `json:"models"`
	LastSeen   *time.Time `json:"last_seen,omitempty"`
}

// NewStreamRespond 转换动态流定义
func NewStreamRespond(s *model.Stream) StreamRespond {
	return StreamRespond{
		ID:         s.ID,
		Title:      s.Title,
		Slug:       s.Slug,
		IsMyStream: s.IsMyStream,
		IsSpecial:  s.IsSpecial,
		IsPublic:   s.IsPublic,
		Models:     s.Models,
		LastSeen:   s.LastSeen,
	}
}

// UnreadRespond 未读数量
type UnreadRespond struct {
	StreamID uint  `json:"stream_id"`
	Count    int64 `json:"count"`
}
