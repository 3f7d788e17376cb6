package model

import "time"

// BBox 经纬度范围框
type BBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// ContentFilter 单个内容类型查询时的可见性与过滤条件
// 由动态流服务根据 Stream 定义与访问者身份构造，数据层只负责翻译为 SQL
type ContentFilter struct {
	PortalIDs []uint // 门户范围，为空表示不限

	// ScopeGroupIDs 动态流限定的群组，为空表示不限
	ScopeGroupIDs []uint

	// RestrictGroups 为 true 时内容必须属于 GroupIDs 中的群组（GroupIDs 为空则无结果）
	RestrictGroups bool
	GroupIDs       []uint
	// IncludePublic 在群组限制之外额外包含完全公开内容
	IncludePublic bool
	// CrossPortalPublic 公开内容不受门户范围限制
	CrossPortalPublic bool
	// PublicOnly 只返回完全公开内容（匿名访问者）
	PublicOnly bool

	TagIDs    []uint // 任一标签命中即可
	TopicIDs  []uint // 话题编号，按子串包含匹配
	PersonIDs []uint // 任一被标记人员命中即可
	BBox      *BBox

	CreatedAfter     *time.Time // 仅统计该时间之后创建的内容
	ExcludeCreatorID uint       // 排除该用户创建的内容
}

// StreamItem 动态流中的一条结果，只在一次聚合请求内存在
type StreamItem struct {
	Kind    string
	ID      uint
	SortKey time.Time
	Object  any
}
