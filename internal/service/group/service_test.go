package group

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cosinnus_server/internal/dao/mysql/repository"
	"cosinnus_server/internal/model"
	"cosinnus_server/pkg/errorx"
)

func newTestService(t *testing.T) (*Service, *repository.Repositories) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repos := repository.NewRepositories(db)
	return NewService(repos), repos
}

func createGroups(t *testing.T, repos *repository.Repositories, names ...string) []uint {
	t.Helper()
	ids := make([]uint, 0, len(names))
	for _, name := range names {
		g := model.GroupInfo{PortalID: 1, Name: name, Slug: name}
		if err := repos.Group.Create(context.Background(), &g); err != nil {
			t.Fatalf("create group %s: %v", name, err)
		}
		ids = append(ids, g.ID)
	}
	return ids
}

func TestRelateGroupsBothDirections(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	ids := createGroups(t, repos, "alpha", "beta", "gamma")

	if err := svc.RelateGroups(ctx, ids[0], ids[1]); err != nil {
		t.Fatalf("RelateGroups: %v", err)
	}
	if err := svc.RelateGroups(ctx, ids[2], ids[0]); err != nil {
		t.Fatalf("RelateGroups: %v", err)
	}

	related, err := svc.RelatedGroups(ctx, ids[0])
	if err != nil || len(related) != 2 || related[0].ID != ids[1] || related[1].ID != ids[2] {
		t.Fatalf("RelatedGroups: %+v, %v", related, err)
	}
	back, _ := svc.RelatedGroups(ctx, ids[1])
	if len(back) != 1 || back[0].ID != ids[0] {
		t.Fatalf("reverse relation missing: %+v", back)
	}
}

func TestRelateGroupsErrors(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	ids := createGroups(t, repos, "alpha", "beta")

	if err := svc.RelateGroups(ctx, ids[0], ids[0]); !errorx.HasCode(err, errorx.CodeInvalidParam) {
		t.Fatalf("self relation: %v", err)
	}
	if err := svc.RelateGroups(ctx, ids[0], 999); !errorx.IsNotFound(err) {
		t.Fatalf("missing group: %v", err)
	}
	if err := svc.RelateGroups(ctx, ids[0], ids[1]); err != nil {
		t.Fatalf("RelateGroups: %v", err)
	}
	if err := svc.RelateGroups(ctx, ids[1], ids[0]); !errorx.HasCode(err, errorx.CodeConflict) {
		t.Fatalf("duplicate relation: %v", err)
	}
	related, _ := svc.RelatedGroups(ctx, ids[1])
	if len(related) != 1 {
		t.Fatalf("failed relation must not leave rows, got %+v", related)
	}
	if _, err := svc.RelatedGroups(ctx, 999); !errorx.IsNotFound(err) {
		t.Fatalf("RelatedGroups of missing group: %v", err)
	}
}

func TestUnrelateGroups(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	ids := createGroups(t, repos, "alpha", "beta")

	if err := svc.RelateGroups(ctx, ids[0], ids[1]); err != nil {
		t.Fatalf("RelateGroups: %v", err)
	}
	if err := svc.UnrelateGroups(ctx, ids[1], ids[0]); err != nil {
		t.Fatalf("UnrelateGroups: %v", err)
	}
	for _, id := range ids {
		related, err := svc.RelatedGroups(ctx, id)
		if err != nil || len(related) != 0 {
			t.Fatalf("group %d still related: %+v, %v", id, related, err)
		}
	}
	if err := svc.UnrelateGroups(ctx, ids[0], ids[1]); err != nil {
		t.Fatalf("unrelating twice should be a no-op: %v", err)
	}
}
