package redis

import (
	"fmt"

	"cosinnus_server/pkg/constants"
)

// MemberKey 成员缓存键 cosinnus:membership:<modelType>:<bucket>:<groupID>
func MemberKey(modelType, bucket string, groupID uint) string {
	return fmt.Sprintf("%s:membership:%s:%s:%d", constants.CACHE_KEY_NAMESPACE, modelType, bucket, groupID)
}

// UnreadKey 未读数缓存键 cosinnus:stream:unread:<userID>:<streamID>
func UnreadKey(userID, streamID uint) string {
	return fmt.Sprintf("%s:stream:unread:%d:%d", constants.CACHE_KEY_NAMESPACE, userID, streamID)
}

// UnreadPattern 匹配某用户全部未读数缓存
func UnreadPattern(userID uint) string {
	return fmt.Sprintf("%s:stream:unread:%d:*", constants.CACHE_KEY_NAMESPACE, userID)
}
