package request

// PageRequest 分页参数
// Limit 为空时使用配置的默认页大小，显式传 0 返回空结果
type PageRequest struct {
	Offset int  `form:"offset" binding:"omitempty,min=0"`
	Limit  *int `form:"limit" binding:"omitempty,min=0,max=200"`
}

// StreamURI 动态流路径参数
type StreamURI struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

// PublicStreamRequest 公开动态流查询
// 使用位置:
//   - internal/handler/stream_handler.go: PublicObjects
type PublicStreamRequest struct {
	PageRequest
	PortalIDs string `form:"portal_ids"` // 逗号分隔，为空使用默认门户
	Models    string `form:"models"`     // 逗号分隔，为空表示全部内容类型
}

// CreateSpecialStreamsRequest 创建特殊动态流
type CreateSpecialStreamsRequest struct {
	PortalID uint `json:"portal_id" binding:"omitempty,min=1"`
}
