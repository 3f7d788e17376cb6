package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cosinnus_server/internal/model"
	"cosinnus_server/pkg/errorx"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepositories(db)
}

func contentByKind(t *testing.T, repos *Repositories, kind string) ContentRepository {
	t.Helper()
	for _, c := range repos.Contents {
		if c.Kind() == kind {
			return c
		}
	}
	t.Fatalf("no content repository for %s", kind)
	return nil
}

func seedEvent(t *testing.T, db *gorm.DB, e model.Event) model.Event {
	t.Helper()
	if err := db.Create(&e).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
	return e
}

func TestMembershipCreateDuplicateIsConflict(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	m := &model.Membership{UserID: 1, GroupID: 10, Status: model.StatusPending}
	if err := repos.GroupMembership.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repos.GroupMembership.Create(ctx, &model.Membership{UserID: 1, GroupID: 10, Status: model.StatusMember})
	if !errorx.HasCode(err, errorx.CodeConflict) {
		t.Fatalf("expected CodeConflict, got %v", err)
	}
	// 门户成员表独立
	if err := repos.PortalMembership.Create(ctx, &model.Membership{UserID: 1, GroupID: 10}); err != nil {
		t.Fatalf("portal membership create: %v", err)
	}
}

func TestMembershipQueries(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	rows := []model.Membership{
		{UserID: 3, GroupID: 1, Status: model.StatusMember},
		{UserID: 1, GroupID: 1, Status: model.StatusAdmin},
		{UserID: 2, GroupID: 2, Status: model.StatusPending},
		{UserID: 1, GroupID: 2, Status: model.StatusInvitedPending},
	}
	for i := range rows {
		if err := repos.GroupMembership.Create(ctx, &rows[i]); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := repos.GroupMembership.FindByGroupIDs(ctx, []uint{1, 2})
	if err != nil || len(got) != 4 {
		t.Fatalf("FindByGroupIDs = %d rows, %v", len(got), err)
	}
	if got[0].GroupID != 1 || got[0].UserID != 1 {
		t.Fatalf("expected ordering by group then user, got %+v", got[0])
	}

	ids, err := repos.GroupMembership.FindGroupIDsForUser(ctx, 1, []model.MembershipStatus{model.StatusMember, model.StatusAdmin})
	if err != nil || len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("FindGroupIDsForUser = %v, %v", ids, err)
	}

	if _, err := repos.GroupMembership.FindByUserAndGroup(ctx, 9, 9); !errorx.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	n, err := repos.GroupMembership.Delete(ctx, 2, 2)
	if err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	n, _ = repos.GroupMembership.Delete(ctx, 2, 2)
	if n != 0 {
		t.Fatalf("second delete should affect 0 rows, got %d", n)
	}
}

func TestUpdateStatusByIDsKeepsChangedAtWhenNotTouched(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	origin := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	m := &model.Membership{UserID: 1, GroupID: 1, Status: model.StatusMember, StatusChangedAt: origin}
	if err := repos.GroupMembership.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repos.GroupMembership.UpdateStatusByIDs(ctx, []uint{m.ID}, model.StatusAdmin, false, time.Now()); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repos.GroupMembership.FindByUserAndGroup(ctx, 1, 1)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != model.StatusAdmin || !got.StatusChangedAt.Equal(origin) {
		t.Fatalf("unexpected row %+v", got)
	}
}

func TestRelateGroupsIsAtomic(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	if err := repos.Group.RelateGroups(ctx, 1, 2); err != nil {
		t.Fatalf("relate: %v", err)
	}
	related, _ := repos.Group.FindRelatedGroupIDs(ctx, 2)
	if len(related) != 1 || related[0] != 1 {
		t.Fatalf("reverse relation missing: %v", related)
	}
	err := repos.Group.RelateGroups(ctx, 2, 1)
	if !errorx.HasCode(err, errorx.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := repos.Group.RelateGroups(ctx, 3, 3); !errorx.HasCode(err, errorx.CodeInvalidParam) {
		t.Fatalf("self relation should be invalid, got %v", err)
	}
	if err := repos.Group.UnrelateGroups(ctx, 2, 1); err != nil {
		t.Fatalf("unrelate: %v", err)
	}
	related, _ = repos.Group.FindRelatedGroupIDs(ctx, 1)
	if len(related) != 0 {
		t.Fatalf("expected no relations, got %v", related)
	}
}

func TestContentFetchOrderingAndFilters(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	db := repos.db
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	lat, lon := 52.5, 13.4

	e1 := seedEvent(t, db, model.Event{BaseContent: model.BaseContent{
		CreatedAt: base, PortalID: 1, GroupID: 1, CreatorID: 7, Title: "e1", Topics: "1,4"}})
	e2 := seedEvent(t, db, model.Event{BaseContent: model.BaseContent{
		CreatedAt: base.Add(time.Hour), PortalID: 1, GroupID: 2, CreatorID: 8, Title: "e2", Public: true, Topics: "12"}})
	e3 := seedEvent(t, db, model.Event{BaseContent: model.BaseContent{
		CreatedAt: base.Add(2 * time.Hour), PortalID: 2, GroupID: 3, CreatorID: 8, Title: "e3", Public: true,
		Latitude: &lat, Longitude: &lon}})

	events := contentByKind(t, repos, model.KindEvent)

	all, err := events.Fetch(ctx, model.ContentFilter{}, 0, 10)
	if err != nil || len(all) != 3 {
		t.Fatalf("Fetch all = %d, %v", len(all), err)
	}
	if all[0].ID != e3.ID || all[2].ID != e1.ID {
		t.Fatalf("expected newest first, got %v %v %v", all[0].ID, all[1].ID, all[2].ID)
	}
	if all[0].Kind != model.KindEvent || !all[0].SortKey.Equal(e3.CreatedAt) {
		t.Fatalf("unexpected item %+v", all[0])
	}

	page, _ := events.Fetch(ctx, model.ContentFilter{}, 1, 1)
	if len(page) != 1 || page[0].ID != e2.ID {
		t.Fatalf("offset paging broken: %+v", page)
	}

	cases := []struct {
		name   string
		filter model.ContentFilter
		want   int64
	}{
		{"portal", model.ContentFilter{PortalIDs: []uint{1}}, 2},
		{"public only", model.ContentFilter{PublicOnly: true}, 2},
		{"public only in portal", model.ContentFilter{PublicOnly: true, PortalIDs: []uint{1}}, 1},
		{"restrict groups", model.ContentFilter{RestrictGroups: true, PortalIDs: []uint{1}, GroupIDs: []uint{1}}, 1},
		{"restrict empty groups", model.ContentFilter{RestrictGroups: true}, 0},
		{"restrict with public", model.ContentFilter{RestrictGroups: true, PortalIDs: []uint{1}, GroupIDs: []uint{1}, IncludePublic: true}, 2},
		{"restrict with public any portal", model.ContentFilter{RestrictGroups: true, PortalIDs: []uint{1}, GroupIDs: []uint{1}, IncludePublic: true, CrossPortalPublic: true}, 3},
		{"no groups but public", model.ContentFilter{RestrictGroups: true, PortalIDs: []uint{1}, IncludePublic: true}, 1},
		{"scope groups", model.ContentFilter{ScopeGroupIDs: []uint{2, 3}}, 2},
		{"scope narrowed by visibility", model.ContentFilter{ScopeGroupIDs: []uint{1, 2}, RestrictGroups: true, GroupIDs: []uint{9}, IncludePublic: true}, 1},
		// "1" 同时命中 "1,4" 与 "12"
		{"topic substring", model.ContentFilter{TopicIDs: []uint{1}}, 2},
		{"topic exact", model.ContentFilter{TopicIDs: []uint{4}}, 1},
		{"bbox", model.ContentFilter{BBox: &model.BBox{MinLat: 52, MaxLat: 53, MinLon: 13, MaxLon: 14}}, 1},
		{"created after", model.ContentFilter{CreatedAfter: &e1.CreatedAt}, 2},
		{"exclude creator", model.ContentFilter{ExcludeCreatorID: 8}, 1},
	}
	for _, c := range cases {
		n, err := events.Count(ctx, c.filter)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if n != c.want {
			t.Errorf("%s: count = %d, want %d", c.name, n, c.want)
		}
	}
}

func TestContentTagAndPersonFilters(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	db := repos.db
	now := time.Now()
	e := seedEvent(t, db, model.Event{BaseContent: model.BaseContent{CreatedAt: now, PortalID: 1, GroupID: 1, Title: "tagged"}})
	seedEvent(t, db, model.Event{BaseContent: model.BaseContent{CreatedAt: now, PortalID: 1, GroupID: 1, Title: "plain"}})
	note := model.Note{BaseContent: model.BaseContent{PortalID: 1, GroupID: 1, Title: "n"}}
	if err := db.Create(&note).Error; err != nil {
		t.Fatalf("create note: %v", err)
	}
	db.Create(&model.ContentTag{ContentKind: model.KindEvent, ObjectID: e.ID, TagID: 5})
	// 同编号但内容类型不同的标签不能串用
	db.Create(&model.ContentTag{ContentKind: model.KindNote, ObjectID: e.ID, TagID: 6})
	db.Create(&model.ContentPerson{ContentKind: model.KindEvent, ObjectID: e.ID, UserID: 42})

	events := contentByKind(t, repos, model.KindEvent)
	if n, _ := events.Count(ctx, model.ContentFilter{TagIDs: []uint{5, 9}}); n != 1 {
		t.Fatalf("tag filter count = %d", n)
	}
	if n, _ := events.Count(ctx, model.ContentFilter{TagIDs: []uint{6}}); n != 0 {
		t.Fatalf("tag of other kind leaked: %d", n)
	}
	if n, _ := events.Count(ctx, model.ContentFilter{PersonIDs: []uint{42}}); n != 1 {
		t.Fatalf("person filter count = %d", n)
	}

	notes := contentByKind(t, repos, model.KindNote)
	if notes.SortColumn() != "last_action" {
		t.Fatalf("note sort column = %s", notes.SortColumn())
	}
	items, err := notes.Fetch(ctx, model.ContentFilter{}, 0, 5)
	if err != nil || len(items) != 1 {
		t.Fatalf("note fetch = %d, %v", len(items), err)
	}
	if items[0].SortKey.IsZero() {
		t.Fatalf("note sort key must be set on create")
	}
}

func TestStreamRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	plain := &model.Stream{UserID: 1, Title: "custom", Slug: "custom"}
	special := &model.Stream{UserID: 1, Title: "my stream", Slug: "my_stream", IsMyStream: true, IsSpecial: true}
	if err := repos.Stream.Create(ctx, plain); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repos.Stream.Create(ctx, special); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := repos.Stream.FindByUser(ctx, 1)
	if err != nil || len(list) != 2 || list[0].ID != special.ID {
		t.Fatalf("special stream should come first: %+v %v", list, err)
	}
	seen := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := repos.Stream.UpdateLastSeen(ctx, plain.ID, seen); err != nil {
		t.Fatalf("UpdateLastSeen: %v", err)
	}
	got, _ := repos.Stream.FindByID(ctx, plain.ID)
	if got.LastSeen == nil || !got.LastSeen.Equal(seen) {
		t.Fatalf("last seen not stored: %v", got.LastSeen)
	}
	if _, err := repos.Stream.FindByID(ctx, 999); !errorx.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	err := repos.Transaction(ctx, func(tx *Repositories) error {
		if err := tx.GroupMembership.Create(ctx, &model.Membership{UserID: 1, GroupID: 1}); err != nil {
			return err
		}
		return errorx.ErrServerBusy
	})
	if err == nil {
		t.Fatalf("expected error from transaction")
	}
	if _, err := repos.GroupMembership.FindByUserAndGroup(ctx, 1, 1); !errorx.IsNotFound(err) {
		t.Fatalf("row should be rolled back, got %v", err)
	}
}
