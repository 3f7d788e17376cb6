package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"cosinnus_server/internal/infrastructure/middleware"
	"cosinnus_server/internal/model"
	"cosinnus_server/internal/service/membership"
	"cosinnus_server/internal/service/stream"
	"cosinnus_server/pkg/errorx"
)

var transOnce sync.Once

func init() {
	gin.SetMode(gin.TestMode)
}

type stubMembers struct {
	admins  map[uint][]uint
	invited []uint
	calls   []string
}

func (s *stubMembers) record(op string, userID, groupID uint) (*model.Membership, error) {
	s.calls = append(s.calls, op)
	return &model.Membership{UserID: userID, GroupID: groupID, Status: model.StatusMember}, nil
}

func (s *stubMembers) Roster(ctx context.Context, groupID uint) (*membership.Roster, error) {
	if groupID == 404 {
		return nil, errorx.New(errorx.CodeDBError, "boom")
	}
	return &membership.Roster{GroupID: groupID, Admins: s.admins[groupID], Invited: s.invited}, nil
}

func (s *stubMembers) IsAdmin(ctx context.Context, groupID, userID uint) (bool, error) {
	for _, id := range s.admins[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubMembers) RequestMembership(ctx context.Context, userID, groupID uint) (*model.Membership, error) {
	if groupID == 9 {
		return nil, errorx.ErrMembershipExists
	}
	return s.record("request", userID, groupID)
}
func (s *stubMembers) InviteUser(ctx context.Context, userID, groupID uint) (*model.Membership, error) {
	return s.record("invite", userID, groupID)
}
func (s *stubMembers) AcceptMembership(ctx context.Context, userID, groupID uint) (*model.Membership, error) {
	return s.record("accept", userID, groupID)
}
func (s *stubMembers) DeclineMembership(ctx context.Context, userID, groupID uint) error {
	_, err := s.record("decline", userID, groupID)
	return err
}
func (s *stubMembers) PromoteToAdmin(ctx context.Context, userID, groupID uint) (*model.Membership, error) {
	return s.record("promote", userID, groupID)
}
func (s *stubMembers) DemoteToMember(ctx context.Context, userID, groupID uint) (*model.Membership, error) {
	return s.record("demote", userID, groupID)
}
func (s *stubMembers) LeaveGroup(ctx context.Context, userID, groupID uint) error {
	_, err := s.record("leave", userID, groupID)
	return err
}
func (s *stubMembers) RemoveMember(ctx context.Context, userID, groupID uint) error {
	_, err := s.record("remove", userID, groupID)
	return err
}

type stubStreams struct {
	lastOffset, lastLimit int
	lastViewer            stream.Viewer
	lastPortals           []uint
	lastModels            []string
}

func (s *stubStreams) ListStreams(ctx context.Context, userID uint) ([]model.Stream, error) {
	return []model.Stream{{UserID: userID, Slug: "my_stream"}}, nil
}
func (s *stubStreams) CreateSpecialStreams(ctx context.Context, userID, portalID uint) ([]model.Stream, error) {
	return []model.Stream{{UserID: userID, Slug: "my_stream", IsSpecial: true}}, nil
}
func (s *stubStreams) Objects(ctx context.Context, id uint, viewer stream.Viewer, offset, limit int) (*stream.Result, error) {
	s.lastViewer, s.lastOffset, s.lastLimit = viewer, offset, limit
	if id == 13 {
		return nil, errorx.ErrForbidden
	}
	return &stream.Result{
		Items:   []model.StreamItem{{Kind: "event", ID: 1, SortKey: time.Unix(100, 0)}},
		Total:   5,
		HasMore: true,
	}, nil
}
func (s *stubStreams) PublicObjects(ctx context.Context, portalIDs []uint, models []string, offset, limit int) (*stream.Result, error) {
	s.lastOffset, s.lastLimit = offset, limit
	s.lastPortals, s.lastModels = portalIDs, models
	return &stream.Result{Items: []model.StreamItem{}}, nil
}
func (s *stubStreams) Unread(ctx context.Context, id uint, viewer stream.Viewer) (int64, error) {
	return 3, nil
}
func (s *stubStreams) MarkSeen(ctx context.Context, id uint, viewer stream.Viewer) (*model.Stream, error) {
	now := time.Now()
	return &model.Stream{UserID: viewer.UserID, LastSeen: &now}, nil
}

type stubGroups struct {
	related [][2]uint
}

func (s *stubGroups) RelateGroups(ctx context.Context, a, b uint) error {
	if a == b {
		return errorx.ErrInvalidParam
	}
	s.related = append(s.related, [2]uint{a, b})
	return nil
}
func (s *stubGroups) UnrelateGroups(ctx context.Context, a, b uint) error { return nil }
func (s *stubGroups) RelatedGroups(ctx context.Context, groupID uint) ([]model.GroupInfo, error) {
	return []model.GroupInfo{{Name: "beta"}}, nil
}

// newTestEngine 以 X-Test-User 头模拟登录用户
func newTestEngine(t *testing.T, members *stubMembers, streams *stubStreams, groups *stubGroups) *gin.Engine {
	return newTestEngineWithPortals(t, members, &stubMembers{}, streams, groups)
}

func newTestEngineWithPortals(t *testing.T, members, portals *stubMembers, streams *stubStreams, groups *stubGroups) *gin.Engine {
	t.Helper()
	transOnce.Do(func() {
		if err := InitTrans("en"); err != nil {
			t.Fatalf("InitTrans: %v", err)
		}
	})
	h := NewHandlers(members, portals, streams, groups, nil, 30)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if v := c.GetHeader("X-Test-User"); v != "" {
			ids, _ := model.SplitIDs(v)
			if len(ids) == 1 {
				c.Set(middleware.UserIDKey, ids[0])
			}
		}
		c.Next()
	})
	r.GET("/stream/public", h.Stream.PublicObjects)
	r.GET("/stream", h.Stream.ListStreams)
	r.POST("/stream/special", h.Stream.CreateSpecialStreams)
	r.GET("/stream/:id", h.Stream.Objects)
	r.GET("/stream/:id/unread", h.Stream.Unread)
	r.POST("/stream/:id/seen", h.Stream.MarkSeen)
	g := r.Group("/group/:id")
	g.GET("/members", h.Membership.Members)
	g.POST("/membership/request", h.Membership.Request)
	g.POST("/membership/invite", h.Membership.Invite)
	g.POST("/membership/accept", h.Membership.Accept)
	g.POST("/membership/decline", h.Membership.Decline)
	g.POST("/membership/promote", h.Membership.Promote)
	g.POST("/membership/remove", h.Membership.Remove)
	g.POST("/membership/leave", h.Membership.Leave)
	g.POST("/relate", h.Group.Relate)
	g.GET("/related", h.Group.Related)
	p := r.Group("/portal/:id")
	p.GET("/members", h.Portal.Members)
	p.POST("/membership/invite", h.Portal.Invite)
	return r
}

type envelope struct {
	Code int             `json:"code"`
	Msg  json.RawMessage `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func do(t *testing.T, r http.Handler, method, path, user, body string) envelope {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s: status %d", method, path, w.Code)
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return env
}

func TestStreamObjectsPaging(t *testing.T) {
	streams := &stubStreams{}
	r := newTestEngine(t, &stubMembers{}, streams, &stubGroups{})

	env := do(t, r, http.MethodGet, "/stream/1", "7", "")
	if env.Code != errorx.CodeSuccess {
		t.Fatalf("code = %d", env.Code)
	}
	if streams.lastLimit != 30 || streams.lastOffset != 0 || streams.lastViewer.UserID != 7 {
		t.Fatalf("default window not applied: %+v", streams)
	}
	var data struct {
		Items []struct {
			Kind string `json:"kind"`
		} `json:"items"`
		Total   int64 `json:"total"`
		HasMore bool  `json:"has_more"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Items) != 1 || data.Items[0].Kind != "event" || data.Total != 5 || !data.HasMore {
		t.Fatalf("unexpected data %s", env.Data)
	}

	do(t, r, http.MethodGet, "/stream/1?offset=10&limit=0", "7", "")
	if streams.lastLimit != 0 || streams.lastOffset != 10 {
		t.Fatalf("explicit limit 0 must pass through: %+v", streams)
	}

	if env := do(t, r, http.MethodGet, "/stream/1?limit=500", "7", ""); env.Code != errorx.CodeInvalidParam {
		t.Fatalf("limit above max: code %d", env.Code)
	}
	if env := do(t, r, http.MethodGet, "/stream/abc", "7", ""); env.Code != errorx.CodeInvalidParam {
		t.Fatalf("bad id: code %d", env.Code)
	}
	if env := do(t, r, http.MethodGet, "/stream/13", "7", ""); env.Code != errorx.CodeForbidden {
		t.Fatalf("forbidden stream: code %d", env.Code)
	}
}

func TestPublicStream(t *testing.T) {
	streams := &stubStreams{}
	r := newTestEngine(t, &stubMembers{}, streams, &stubGroups{})

	env := do(t, r, http.MethodGet, "/stream/public?portal_ids=1,2&models=event,note&limit=5", "", "")
	if env.Code != errorx.CodeSuccess {
		t.Fatalf("code = %d", env.Code)
	}
	if len(streams.lastPortals) != 2 || len(streams.lastModels) != 2 || streams.lastLimit != 5 {
		t.Fatalf("unexpected call %+v", streams)
	}
	if env := do(t, r, http.MethodGet, "/stream/public?portal_ids=4", "7", ""); env.Code != errorx.CodeSuccess || len(streams.lastPortals) != 1 {
		t.Fatalf("signed-in public read: code %d, portals %v", env.Code, streams.lastPortals)
	}
	if env := do(t, r, http.MethodGet, "/stream/public?portal_ids=x", "", ""); env.Code != errorx.CodeInvalidParam {
		t.Fatalf("bad portal ids: code %d", env.Code)
	}
}

func TestStreamUnreadAndSeen(t *testing.T) {
	r := newTestEngine(t, &stubMembers{}, &stubStreams{}, &stubGroups{})
	env := do(t, r, http.MethodGet, "/stream/4/unread", "7", "")
	var unread struct {
		StreamID uint  `json:"stream_id"`
		Count    int64 `json:"count"`
	}
	_ = json.Unmarshal(env.Data, &unread)
	if unread.StreamID != 4 || unread.Count != 3 {
		t.Fatalf("unexpected %s", env.Data)
	}
	if env := do(t, r, http.MethodPost, "/stream/4/seen", "7", ""); env.Code != errorx.CodeSuccess {
		t.Fatalf("seen: code %d", env.Code)
	}
	if env := do(t, r, http.MethodPost, "/stream/special", "7", ""); env.Code != errorx.CodeSuccess {
		t.Fatalf("special without body: code %d", env.Code)
	}
	if env := do(t, r, http.MethodGet, "/stream", "7", ""); env.Code != errorx.CodeSuccess {
		t.Fatalf("list: code %d", env.Code)
	}
}

func TestMembershipPermissions(t *testing.T) {
	members := &stubMembers{admins: map[uint][]uint{1: {7}}, invited: []uint{8}}
	r := newTestEngine(t, members, &stubStreams{}, &stubGroups{})

	tests := []struct {
		name string
		path string
		user string
		body string
		code int
	}{
		{"admin invites", "/group/1/membership/invite", "7", `{"user_id": 9}`, errorx.CodeSuccess},
		{"member cannot invite", "/group/1/membership/invite", "9", `{"user_id": 10}`, errorx.CodeForbidden},
		{"invitee accepts own invite", "/group/1/membership/accept", "8", "", errorx.CodeSuccess},
		{"requester cannot accept self", "/group/1/membership/accept", "9", "", errorx.CodeForbidden},
		{"admin accepts request", "/group/1/membership/accept", "7", `{"user_id": 9}`, errorx.CodeSuccess},
		{"self decline", "/group/1/membership/decline", "9", "", errorx.CodeSuccess},
		{"decline other needs admin", "/group/1/membership/decline", "9", `{"user_id": 8}`, errorx.CodeForbidden},
		{"admin promotes", "/group/1/membership/promote", "7", `{"user_id": 9}`, errorx.CodeSuccess},
		{"remove needs admin", "/group/1/membership/remove", "8", `{"user_id": 9}`, errorx.CodeForbidden},
		{"leave", "/group/1/membership/leave", "9", "", errorx.CodeSuccess},
		{"request", "/group/1/membership/request", "9", "", errorx.CodeSuccess},
		{"duplicate request", "/group/9/membership/request", "9", "", errorx.CodeMembershipExists},
		{"bad body", "/group/1/membership/invite", "7", `{"user_id": "x"}`, errorx.CodeInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if env := do(t, r, http.MethodPost, tt.path, tt.user, tt.body); env.Code != tt.code {
				t.Fatalf("code = %d, want %d (msg %s)", env.Code, tt.code, env.Msg)
			}
		})
	}
	want := []string{"invite", "accept", "accept", "decline", "promote", "leave", "request"}
	if strings.Join(members.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", members.calls, want)
	}
}

func TestMembersHidesInternalErrors(t *testing.T) {
	r := newTestEngine(t, &stubMembers{}, &stubStreams{}, &stubGroups{})
	if env := do(t, r, http.MethodGet, "/group/1/members", "7", ""); env.Code != errorx.CodeSuccess {
		t.Fatalf("members: code %d", env.Code)
	}
	env := do(t, r, http.MethodGet, "/group/404/members", "7", "")
	if env.Code != errorx.CodeServerBusy {
		t.Fatalf("db error must be reported as server busy, got %d", env.Code)
	}
}

func TestGroupRelate(t *testing.T) {
	groups := &stubGroups{}
	r := newTestEngine(t, &stubMembers{admins: map[uint][]uint{1: {7}}}, &stubStreams{}, groups)

	if env := do(t, r, http.MethodPost, "/group/1/relate", "7", `{"group_id": 2}`); env.Code != errorx.CodeSuccess {
		t.Fatalf("relate: code %d", env.Code)
	}
	if len(groups.related) != 1 || groups.related[0] != [2]uint{1, 2} {
		t.Fatalf("related = %v", groups.related)
	}
	if env := do(t, r, http.MethodPost, "/group/1/relate", "8", `{"group_id": 2}`); env.Code != errorx.CodeForbidden {
		t.Fatalf("non admin: code %d", env.Code)
	}
	if env := do(t, r, http.MethodPost, "/group/1/relate", "7", `{}`); env.Code != errorx.CodeInvalidParam {
		t.Fatalf("missing group_id: code %d", env.Code)
	}
	if env := do(t, r, http.MethodGet, "/group/1/related", "8", ""); env.Code != errorx.CodeSuccess {
		t.Fatalf("related: code %d", env.Code)
	}
}

func TestPortalMembershipRoutes(t *testing.T) {
	groups := &stubMembers{admins: map[uint][]uint{5: {7}}}
	portals := &stubMembers{admins: map[uint][]uint{5: {9}}}
	r := newTestEngineWithPortals(t, groups, portals, &stubStreams{}, &stubGroups{})

	env := do(t, r, http.MethodGet, "/portal/5/members", "9", "")
	if env.Code != errorx.CodeSuccess {
		t.Fatalf("portal members: code %d", env.Code)
	}
	// 门户管理员与群组管理员互不通用
	if env := do(t, r, http.MethodPost, "/portal/5/membership/invite", "7", `{"user_id": 3}`); env.Code != errorx.CodeForbidden {
		t.Fatalf("group admin must not administer the portal: code %d", env.Code)
	}
	if env := do(t, r, http.MethodPost, "/portal/5/membership/invite", "9", `{"user_id": 3}`); env.Code != errorx.CodeSuccess {
		t.Fatalf("portal admin invite: code %d", env.Code)
	}
	if len(portals.calls) != 1 || portals.calls[0] != "invite" || len(groups.calls) != 0 {
		t.Fatalf("writes went to the wrong service: portal %v, group %v", portals.calls, groups.calls)
	}
}
