package membership

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cosinnus_server/internal/dao/mysql/repository"
	"cosinnus_server/internal/infrastructure/mq"
	"cosinnus_server/internal/model"
	"cosinnus_server/pkg/errorx"
)

// Roster 群组四个分桶的完整视图
type Roster struct {
	GroupID  uint   `json:"group_id"`
	Admins   []uint `json:"admins"`
	Members  []uint `json:"members"`
	Pendings []uint `json:"pendings"`
	Invited  []uint `json:"invited_pendings"`
}

// Service 成员关系写入
// 每次写入在事务中完成，提交后、返回前清理受影响群组的成员缓存，再发布 MembershipEvent
type Service struct {
	repos     *repository.Repositories
	typ       model.MembershipType
	cache     *Cache
	publisher mq.Publisher
	now       func() time.Time
}

// NewService 构造函数，publisher 可以为 nil
func NewService(repos *repository.Repositories, typ model.MembershipType, cache *Cache, publisher mq.Publisher) *Service {
	return &Service{
		repos:     repos,
		typ:       typ,
		cache:     cache,
		publisher: publisher,
		now:       time.Now,
	}
}

// Cache 返回读缓存
func (s *Service) Cache() *Cache {
	return s.cache
}

// ==================== 读 ====================

// Roster 读取群组全部分桶
func (s *Service) Roster(ctx context.Context, groupID uint) (*Roster, error) {
	r := &Roster{GroupID: groupID}
	var err error
	if r.Admins, err = s.cache.GetAdmins(ctx, groupID); err != nil {
		return nil, err
	}
	if r.Members, err = s.cache.GetMembers(ctx, groupID); err != nil {
		return nil, err
	}
	if r.Pendings, err = s.cache.GetPendings(ctx, groupID); err != nil {
		return nil, err
	}
	if r.Invited, err = s.cache.GetInvitedPendings(ctx, groupID); err != nil {
		return nil, err
	}
	return r, nil
}

// IsAdmin 用户是否为群组管理员
func (s *Service) IsAdmin(ctx context.Context, groupID, userID uint) (bool, error) {
	admins, err := s.cache.GetAdmins(ctx, groupID)
	if err != nil {
		return false, err
	}
	return containsID(admins, userID), nil
}

// GroupIDsForUser 用户作为正式成员所在的群组，直接查询数据库
func (s *Service) GroupIDsForUser(ctx context.Context, userID uint) ([]uint, error) {
	if userID == 0 {
		return nil, nil
	}
	return s.repos.Membership(s.typ).FindGroupIDsForUser(ctx, userID,
		[]model.MembershipStatus{model.StatusMember, model.StatusAdmin})
}

// ==================== 创建 ====================

// RequestMembership 用户申请加入群组
func (s *Service) RequestMembership(ctx context.Context, userID, groupID uint) (*model.Membership, error) {
	return s.create(ctx, userID, groupID, model.StatusPending)
}

// InviteUser 邀请用户加入群组
func (s *Service) InviteUser(ctx context.Context, userID, groupID uint) (*model.Membership, error) {
	return s.create(ctx, userID, groupID, model.StatusInvitedPending)
}

// AddMember 直接以指定状态创建成员关系
func (s *Service) AddMember(ctx context.Context, userID, groupID uint, status model.MembershipStatus) (*model.Membership, error) {
	return s.create(ctx, userID, groupID, status)
}

func (s *Service) create(ctx context.Context, userID, groupID uint, status model.MembershipStatus) (*model.Membership, error) {
	if userID == 0 || groupID == 0 || !status.Valid() {
		return nil, errorx.ErrInvalidParam
	}
	m := &model.Membership{
		UserID:          userID,
		GroupID:         groupID,
		Status:          status,
		StatusChangedAt: s.now(),
	}
	err := s.repos.Transaction(ctx, func(txRepos *repository.Repositories) error {
		return txRepos.Membership(s.typ).Create(ctx, m)
	})
	if err != nil {
		if errorx.HasCode(err, errorx.CodeConflict) {
			return nil, errorx.Wrapf(err, errorx.CodeMembershipExists, "用户 %d 已在群组 %d 中", userID, groupID)
		}
		zap.L().Error("create membership failed", zap.Uint("groupID", groupID), zap.Uint("userID", userID), zap.Error(err))
		return nil, err
	}

	s.cache.ClearMemberCacheForGroup(ctx, groupID)
	s.publish(ctx, mq.NewMembershipEvent(s.typ.Name, mq.ActionCreated, groupID, userID, nil, &status))
	return m, nil
}

// ==================== 状态变更 ====================

// AcceptMembership 通过申请或接受邀请
func (s *Service) AcceptMembership(ctx context.Context, userID, groupID uint) (*model.Membership, error) {
	return s.transition(ctx, userID, groupID, model.StatusMember, model.MembershipStatus.IsPending)
}

// PromoteToAdmin 将成员提升为管理员
func (s *Service) PromoteToAdmin(ctx context.Context, userID, groupID uint) (*model.Membership, error) {
	return s.transition(ctx, userID, groupID, model.StatusAdmin, func(from model.MembershipStatus) bool {
		return from == model.StatusMember
	})
}

// DemoteToMember 将管理员降为普通成员
func (s *Service) DemoteToMember(ctx context.Context, userID, groupID uint) (*model.Membership, error) {
	return s.transition(ctx, userID, groupID, model.StatusMember, func(from model.MembershipStatus) bool {
		return from == model.StatusAdmin
	})
}

// UpdateStatus 不限制来源状态的状态写入
func (s *Service) UpdateStatus(ctx context.Context, userID, groupID uint, status model.MembershipStatus) (*model.Membership, error) {
	return s.transition(ctx, userID, groupID, status, nil)
}

// transition 在事务中读取并更新单条成员关系
// 只有从申请/邀请状态进入正式成员状态时才刷新 StatusChangedAt
func (s *Service) transition(ctx context.Context, userID, groupID uint, target model.MembershipStatus, allowed func(model.MembershipStatus) bool) (*model.Membership, error) {
	if !target.Valid() {
		return nil, errorx.ErrInvalidParam
	}
	var (
		m    *model.Membership
		prev model.MembershipStatus
	)
	err := s.repos.Transaction(ctx, func(txRepos *repository.Repositories) error {
		repo := txRepos.Membership(s.typ)
		var err error
		if m, err = repo.FindByUserAndGroup(ctx, userID, groupID); err != nil {
			return err
		}
		prev = m.Status
		if allowed != nil && !allowed(prev) {
			return errorx.Newf(errorx.CodeInvalidParam, "不允许从 %s 变更为 %s", prev, target)
		}
		if prev.IsPending() && target.IsActive() {
			m.StatusChangedAt = s.now()
		}
		m.Status = target
		return repo.UpdateStatus(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	s.cache.ClearMemberCacheForGroup(ctx, groupID)
	s.publish(ctx, mq.NewMembershipEvent(s.typ.Name, mq.ActionUpdated, groupID, userID, &prev, &target))
	return m, nil
}

// BulkUpdateStatus 批量更新一组群组内的成员状态，userIDs 为空表示群组全部成员
// 每个实际被修改的群组只清理一次缓存，返回被修改的行数
func (s *Service) BulkUpdateStatus(ctx context.Context, groupIDs, userIDs []uint, status model.MembershipStatus) (int, error) {
	if !status.Valid() {
		return 0, errorx.ErrInvalidParam
	}
	groupIDs = normalizeIDs(groupIDs)
	if len(groupIDs) == 0 {
		return 0, nil
	}
	var rows []model.Membership
	changedAt := s.now()
	err := s.repos.Transaction(ctx, func(txRepos *repository.Repositories) error {
		repo := txRepos.Membership(s.typ)
		var err error
		if rows, err = repo.FindByGroupsAndUsers(ctx, groupIDs, normalizeIDs(userIDs)); err != nil {
			return err
		}
		var activated, others []uint
		for _, m := range rows {
			if m.Status.IsPending() && status.IsActive() {
				activated = append(activated, m.ID)
			} else {
				others = append(others, m.ID)
			}
		}
		if err := repo.UpdateStatusByIDs(ctx, activated, status, true, changedAt); err != nil {
			return err
		}
		return repo.UpdateStatusByIDs(ctx, others, status, false, changedAt)
	})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	touched := make([]uint, 0, len(groupIDs))
	for _, m := range rows {
		touched = append(touched, m.GroupID)
	}
	s.cache.ClearMemberCacheForGroups(ctx, touched)
	for _, m := range rows {
		prev := m.Status
		s.publish(ctx, mq.NewMembershipEvent(s.typ.Name, mq.ActionUpdated, m.GroupID, m.UserID, &prev, &status))
	}
	return len(rows), nil
}

// ==================== 删除 ====================

// DeclineMembership 拒绝申请或邀请
func (s *Service) DeclineMembership(ctx context.Context, userID, groupID uint) error {
	return s.remove(ctx, userID, groupID, model.MembershipStatus.IsPending)
}

// LeaveGroup 用户主动退出群组
func (s *Service) LeaveGroup(ctx context.Context, userID, groupID uint) error {
	return s.remove(ctx, userID, groupID, nil)
}

// RemoveMember 将用户移出群组
func (s *Service) RemoveMember(ctx context.Context, userID, groupID uint) error {
	return s.remove(ctx, userID, groupID, nil)
}

func (s *Service) remove(ctx context.Context, userID, groupID uint, allowed func(model.MembershipStatus) bool) error {
	var prev model.MembershipStatus
	err := s.repos.Transaction(ctx, func(txRepos *repository.Repositories) error {
		repo := txRepos.Membership(s.typ)
		m, err := repo.FindByUserAndGroup(ctx, userID, groupID)
		if err != nil {
			return err
		}
		prev = m.Status
		if allowed != nil && !allowed(prev) {
			return errorx.Newf(errorx.CodeInvalidParam, "状态 %s 不允许该操作", prev)
		}
		n, err := repo.Delete(ctx, userID, groupID)
		if err != nil {
			return err
		}
		if n == 0 {
			return errorx.Newf(errorx.CodeNotFound, "成员关系不存在 group_id=%d user_id=%d", groupID, userID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.ClearMemberCacheForGroup(ctx, groupID)
	s.publish(ctx, mq.NewMembershipEvent(s.typ.Name, mq.ActionDeleted, groupID, userID, &prev, nil))
	return nil
}

// publish 写入已提交，发布失败只记录日志
func (s *Service) publish(ctx context.Context, evt mq.MembershipEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		zap.L().Error("publish membership event failed",
			zap.Int64("eventID", evt.ID),
			zap.Uint("groupID", evt.GroupID),
			zap.Uint("userID", evt.UserID),
			zap.Error(err))
	}
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
