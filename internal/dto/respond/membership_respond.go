package respond

import (
	"time"

	"cosinnus_server/internal/model"
)

// MembershipRespond 成员关系
// 使用位置:
//   - internal/handler/membership_handler.go
type MembershipRespond struct {
	UserID          uint      `json:"user_id"`
	GroupID         uint      `json:"group_id"`
	Status          string    `json:"status"`
	StatusChangedAt time.Time `json:"status_changed_at"`
}

// NewMembershipRespond 转换成员关系
func NewMembershipRespond(m *model.Membership) MembershipRespond {
	return MembershipRespond{
		UserID:          m.UserID,
		GroupID:         m.GroupID,
		Status:          m.Status.String(),
		StatusChangedAt: m.StatusChangedAt,
	}
}

// GroupRespond 群组简要信息
type GroupRespond struct {
	ID       uint   `json:"id"`
	PortalID uint   `json:"portal_id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Type     string `json:"type"`
	Public   bool   `json:"public"`
}

// NewGroupRespondList 转换群组列表
func NewGroupRespondList(groups []model.GroupInfo) []GroupRespond {
	out := make([]GroupRespond, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupRespond{
			ID:       g.ID,
			PortalID: g.PortalID,
			Name:     g.Name,
			Slug:     g.Slug,
			Type:     string(g.Type),
			Public:   g.Public,
		})
	}
	return out
}
