package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fulldump/biff"
	"github.com/redis/go-redis/v9"

	"github.com/fulldump/recordkv/store"
	"github.com/fulldump/recordkv/store/storetest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	s := New(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { s.Close() })

	return s, server
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestStore_Ping(t *testing.T) {
	s, _ := newTestStore(t)
	biff.AssertNil(s.Ping(context.Background()))
}

func TestStore_WritesNativeRedisTypes(t *testing.T) {

	ctx := context.Background()
	s, server := newTestStore(t)

	biff.AssertNil(s.HSet(ctx, "user:1", "email", "a@x.com"))
	biff.AssertNil(s.RPush(ctx, "view:user:recent", "1"))
	biff.AssertNil(s.ZAdd(ctx, "view:user:ranking", 4, "1"))

	biff.AssertEqual(server.HGet("user:1", "email"), "a@x.com")

	list, err := server.List("view:user:recent")
	biff.AssertNil(err)
	biff.AssertEqual(list, []string{"1"})

	score, err := server.ZScore("view:user:ranking", "1")
	biff.AssertNil(err)
	biff.AssertEqual(score, float64(4))
}
