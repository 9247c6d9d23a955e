package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/fulldump/biff"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/fulldump/recordkv/pool"
	"github.com/fulldump/recordkv/store"
	"github.com/fulldump/recordkv/store/memstore"
	"github.com/fulldump/recordkv/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New().Wrap("test", memstore.New())
	})
}

func TestStore_Counts(t *testing.T) {

	ctx := context.Background()
	c := New()
	s := c.Wrap("database", memstore.New())

	biff.AssertNil(s.HSet(ctx, "user:1", "name", "A"))
	biff.AssertNil(s.HSet(ctx, "user:1", "email", "a@x.com"))
	biff.AssertNotNil(s.RPush(ctx, "user:1", "oops"))

	biff.AssertEqual(testutil.ToFloat64(c.Operations.WithLabelValues("database", "hset", "ok")), float64(2))
	biff.AssertEqual(testutil.ToFloat64(c.Operations.WithLabelValues("database", "rpush", "error")), float64(1))
	biff.AssertEqual(testutil.CollectAndCount(c.Duration), 2)
}

func TestRegister(t *testing.T) {

	registry := prometheus.NewRegistry()
	c := New()

	biff.AssertNil(c.Register(registry))
	biff.AssertNotNil(c.Register(registry))
}

func TestFactory(t *testing.T) {

	ctx := context.Background()
	c := New()
	pools := pool.New(c.Factory(nil))

	s, err := pools.Get("cache")
	biff.AssertNil(err)
	_, instrumented := s.(*Store)
	biff.AssertTrue(instrumented)

	_, _, err = s.HGet(ctx, "k", "f")
	biff.AssertNil(err)
	biff.AssertEqual(testutil.ToFloat64(c.Operations.WithLabelValues("cache", "hget", "ok")), float64(1))

	failing := pool.New(c.Factory(func(name string) (store.Store, error) {
		return nil, errors.New("unreachable")
	}))
	_, err = failing.Get("cache")
	biff.AssertNotNil(err)
}
