package constants

import "time"

const (
	CHANNEL_SIZE        = 100 // 事件通道大小
	DEFAULT_CHUNK_SIZE  = 10  // 每种内容类型单次预取条数
	DEFAULT_PAGE_SIZE   = 30  // 动态流默认每页条数
	MAX_PAGE_SIZE       = 200 // 动态流单页上限
	GEO_BOX_DEGREES     = 0.22
	MEMBER_CACHE_TTL    = time.Hour
	UNREAD_CACHE_TTL    = time.Minute
	CACHE_KEY_NAMESPACE = "cosinnus"
)
