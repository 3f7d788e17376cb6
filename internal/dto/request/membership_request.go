package request

// GroupURI 群组路径参数
type GroupURI struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

// MembershipTargetRequest 针对某个用户的成员关系操作
// UserID 为空表示当前登录用户
// 使用位置:
//   - internal/handler/membership_handler.go: Invite, Accept, Decline, Promote, Demote, Remove
type MembershipTargetRequest struct {
	UserID uint `json:"user_id" binding:"omitempty,min=1"`
}

// RelateGroupRequest 关联另一个群组
type RelateGroupRequest struct {
	GroupID uint `json:"group_id" form:"group_id" binding:"required,min=1"`
}
