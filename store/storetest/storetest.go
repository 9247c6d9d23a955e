// Package storetest checks a store.Store implementation against the
// behaviour the record layer relies on. Backends call Run from their tests.
package storetest

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/recordkv/store"
)

func Run(t *testing.T, open func(t *testing.T) store.Store) {

	ctx := context.Background()

	t.Run("hash", func(t *testing.T) {
		s := open(t)

		biff.AssertNil(s.HSet(ctx, "user:1", "name", "Alice"))
		biff.AssertNil(s.HSet(ctx, "user:1", "email", "alice@x.com"))

		all, err := s.HGetAll(ctx, "user:1")
		biff.AssertNil(err)
		biff.AssertEqual(all, map[string]string{"name": "Alice", "email": "alice@x.com"})

		value, found, err := s.HGet(ctx, "user:1", "email")
		biff.AssertNil(err)
		biff.AssertTrue(found)
		biff.AssertEqual(value, "alice@x.com")

		biff.AssertNil(s.HDel(ctx, "user:1", "email", "never-set"))
		_, found, err = s.HGet(ctx, "user:1", "email")
		biff.AssertNil(err)
		biff.AssertFalse(found)

		biff.AssertNil(s.HDel(ctx, "user:1", "name"))
		all, err = s.HGetAll(ctx, "user:1")
		biff.AssertNil(err)
		biff.AssertEqual(len(all), 0)
	})

	t.Run("hash missing key", func(t *testing.T) {
		s := open(t)

		all, err := s.HGetAll(ctx, "nothing")
		biff.AssertNil(err)
		biff.AssertEqual(len(all), 0)

		_, found, err := s.HGet(ctx, "nothing", "field")
		biff.AssertNil(err)
		biff.AssertFalse(found)

		biff.AssertNil(s.HDel(ctx, "nothing", "field"))
	})

	t.Run("list", func(t *testing.T) {
		s := open(t)

		biff.AssertNil(s.RPush(ctx, "queue", "a"))
		biff.AssertNil(s.RPush(ctx, "queue", "b"))
		biff.AssertNil(s.LPush(ctx, "queue", "z"))

		n, err := s.LLen(ctx, "queue")
		biff.AssertNil(err)
		biff.AssertEqual(n, int64(3))

		expected := []string{"z", "a", "b"}
		for i, want := range expected {
			value, found, err := s.LIndex(ctx, "queue", int64(i))
			biff.AssertNil(err)
			biff.AssertTrue(found)
			biff.AssertEqual(value, want)
		}

		_, found, err := s.LIndex(ctx, "queue", 3)
		biff.AssertNil(err)
		biff.AssertFalse(found)

		biff.AssertNil(s.LRem(ctx, "queue", "a"))
		n, err = s.LLen(ctx, "queue")
		biff.AssertNil(err)
		biff.AssertEqual(n, int64(2))

		value, _, err := s.LIndex(ctx, "queue", 1)
		biff.AssertNil(err)
		biff.AssertEqual(value, "b")

		biff.AssertNil(s.LRem(ctx, "queue", "missing"))
	})

	t.Run("sorted set", func(t *testing.T) {
		s := open(t)

		biff.AssertNil(s.ZAdd(ctx, "scores", 3, "c"))
		biff.AssertNil(s.ZAdd(ctx, "scores", 1, "a"))
		biff.AssertNil(s.ZAdd(ctx, "scores", 2, "b"))

		n, err := s.ZCard(ctx, "scores")
		biff.AssertNil(err)
		biff.AssertEqual(n, int64(3))

		ascending := []string{}
		descending := []string{}
		for i := int64(0); i < n; i++ {
			member, found, err := s.ZAt(ctx, "scores", i, false)
			biff.AssertNil(err)
			biff.AssertTrue(found)
			ascending = append(ascending, member)

			member, found, err = s.ZAt(ctx, "scores", i, true)
			biff.AssertNil(err)
			biff.AssertTrue(found)
			descending = append(descending, member)
		}
		biff.AssertEqual(ascending, []string{"a", "b", "c"})
		biff.AssertEqual(descending, []string{"c", "b", "a"})

		// re-adding moves the member instead of duplicating it
		biff.AssertNil(s.ZAdd(ctx, "scores", 10, "a"))
		n, err = s.ZCard(ctx, "scores")
		biff.AssertNil(err)
		biff.AssertEqual(n, int64(3))
		last, _, err := s.ZAt(ctx, "scores", 2, false)
		biff.AssertNil(err)
		biff.AssertEqual(last, "a")

		biff.AssertNil(s.ZRem(ctx, "scores", "b"))
		n, err = s.ZCard(ctx, "scores")
		biff.AssertNil(err)
		biff.AssertEqual(n, int64(2))

		_, found, err := s.ZAt(ctx, "scores", 5, false)
		biff.AssertNil(err)
		biff.AssertFalse(found)

		// NaN has no place in the order
		err = s.ZAdd(ctx, "scores", math.NaN(), "nan")
		biff.AssertTrue(errors.Is(err, store.ErrNaN))
		n, err = s.ZCard(ctx, "scores")
		biff.AssertNil(err)
		biff.AssertEqual(n, int64(2))
	})

	t.Run("del", func(t *testing.T) {
		s := open(t)

		biff.AssertNil(s.HSet(ctx, "h", "f", "v"))
		biff.AssertNil(s.RPush(ctx, "l", "v"))
		biff.AssertNil(s.ZAdd(ctx, "z", 1, "v"))

		biff.AssertNil(s.Del(ctx, "h", "l", "z", "unknown"))

		all, err := s.HGetAll(ctx, "h")
		biff.AssertNil(err)
		biff.AssertEqual(len(all), 0)

		n, err := s.LLen(ctx, "l")
		biff.AssertNil(err)
		biff.AssertEqual(n, int64(0))

		n, err = s.ZCard(ctx, "z")
		biff.AssertNil(err)
		biff.AssertEqual(n, int64(0))
	})

	t.Run("wrong type", func(t *testing.T) {
		s := open(t)

		biff.AssertNil(s.RPush(ctx, "list", "v"))

		err := s.HSet(ctx, "list", "f", "v")
		biff.AssertTrue(errors.Is(err, store.ErrWrongType))

		_, err = s.ZCard(ctx, "list")
		biff.AssertTrue(errors.Is(err, store.ErrWrongType))
	})
}
