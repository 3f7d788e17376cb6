package redis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"cosinnus_server/pkg/errorx"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rc := NewRedisCache(client, 2, 8)
	t.Cleanup(func() {
		rc.Close()
		_ = client.Close()
	})
	return rc, mr
}

func TestRedisCacheGetMissReturnsEmpty(t *testing.T) {
	rc, _ := newTestCache(t)
	v, err := rc.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if v != "" {
		t.Fatalf("expected empty value, got %q", v)
	}
}

func TestRedisCacheSetAndTTL(t *testing.T) {
	rc, mr := newTestCache(t)
	ctx := context.Background()
	if err := rc.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := rc.Get(ctx, "k")
	if err != nil || v != "v" {
		t.Fatalf("Get = %q, %v", v, err)
	}
	mr.FastForward(2 * time.Minute)
	v, _ = rc.Get(ctx, "k")
	if v != "" {
		t.Fatalf("expected key to expire, got %q", v)
	}
}

func TestRedisCacheGetManyOnlyReturnsPresentKeys(t *testing.T) {
	rc, _ := newTestCache(t)
	ctx := context.Background()
	if err := rc.SetMany(ctx, map[string]string{"a": "1", "c": "3"}, time.Minute); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	got, err := rc.GetMany(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if len(got) != 2 || got["a"] != "1" || got["c"] != "3" {
		t.Fatalf("unexpected GetMany result: %v", got)
	}
	if _, ok := got["b"]; ok {
		t.Fatalf("missing key must not be reported")
	}
}

func TestRedisCacheDeleteManyAndPattern(t *testing.T) {
	rc, mr := newTestCache(t)
	ctx := context.Background()
	_ = rc.SetMany(ctx, map[string]string{
		"unread:1:10": "3",
		"unread:1:11": "4",
		"unread:2:10": "5",
		"other":       "x",
	}, time.Minute)

	if err := rc.DeleteMany(ctx, "other", "never-existed"); err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if mr.Exists("other") {
		t.Fatalf("other should be deleted")
	}
	if err := rc.DeleteByPattern(ctx, "unread:1:*"); err != nil {
		t.Fatalf("DeleteByPattern: %v", err)
	}
	if mr.Exists("unread:1:10") || mr.Exists("unread:1:11") {
		t.Fatalf("pattern keys should be deleted")
	}
	if !mr.Exists("unread:2:10") {
		t.Fatalf("unrelated key deleted")
	}
	if err := rc.DeleteMany(ctx); err != nil {
		t.Fatalf("DeleteMany with no keys: %v", err)
	}
}

func TestRedisCacheBackendDownReturnsCacheError(t *testing.T) {
	rc, mr := newTestCache(t)
	mr.Close()
	_, err := rc.Get(context.Background(), "k")
	if err == nil {
		t.Fatalf("expected error with closed backend")
	}
	if errorx.GetCode(err) != errorx.CodeCacheError {
		t.Fatalf("expected CodeCacheError, got %d", errorx.GetCode(err))
	}
}

func TestRedisCacheSubmitTaskRunsAndSurvivesPanic(t *testing.T) {
	rc, _ := newTestCache(t)
	var n int32
	done := make(chan struct{}, 2)
	rc.SubmitTask(func() { panic("boom") })
	rc.SubmitTask(func() { atomic.AddInt32(&n, 1); done <- struct{}{} })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
	rc.Close()
	// 关闭后同步执行
	rc.SubmitTask(func() { atomic.AddInt32(&n, 1) })
	if atomic.LoadInt32(&n) != 2 {
		t.Fatalf("expected 2 executions, got %d", n)
	}
}
