package memstore

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/recordkv/store"
	"github.com/fulldump/recordkv/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}

func TestStore_Journaled(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(filepath.Join(t.TempDir(), "pool.jsonl"))
		biff.AssertNil(err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestOpen_Replay(t *testing.T) {

	ctx := context.Background()
	filename := filepath.Join(t.TempDir(), "pool.jsonl")

	s, err := Open(filename)
	biff.AssertNil(err)

	biff.AssertNil(s.HSet(ctx, "user:1", "name", "Alice"))
	biff.AssertNil(s.HSet(ctx, "user:1", "email", "alice@x.com"))
	biff.AssertNil(s.HDel(ctx, "user:1", "email"))
	biff.AssertNil(s.RPush(ctx, "recent", "1"))
	biff.AssertNil(s.LPush(ctx, "recent", "0"))
	biff.AssertNil(s.ZAdd(ctx, "ranking", 7.5, "1"))
	biff.AssertNil(s.ZAdd(ctx, "ranking", 2, "2"))
	biff.AssertNil(s.ZRem(ctx, "ranking", "2"))
	biff.AssertNil(s.HSet(ctx, "gone", "f", "v"))
	biff.AssertNil(s.Del(ctx, "gone"))
	biff.AssertNil(s.Close())

	// Check
	reopened, err := Open(filename)
	biff.AssertNil(err)
	defer reopened.Close()

	all, err := reopened.HGetAll(ctx, "user:1")
	biff.AssertNil(err)
	biff.AssertEqual(all, map[string]string{"name": "Alice"})

	first, _, err := reopened.LIndex(ctx, "recent", 0)
	biff.AssertNil(err)
	biff.AssertEqual(first, "0")

	n, err := reopened.ZCard(ctx, "ranking")
	biff.AssertNil(err)
	biff.AssertEqual(n, int64(1))

	all, err = reopened.HGetAll(ctx, "gone")
	biff.AssertNil(err)
	biff.AssertEqual(len(all), 0)
}

func TestOpen_FailedOperationsAreNotJournaled(t *testing.T) {

	ctx := context.Background()
	filename := filepath.Join(t.TempDir(), "pool.jsonl")

	s, err := Open(filename)
	biff.AssertNil(err)

	biff.AssertNil(s.RPush(ctx, "list", "v"))
	biff.AssertNotNil(s.HSet(ctx, "list", "f", "v"))
	biff.AssertNil(s.Close())

	content, err := os.ReadFile(filename)
	biff.AssertNil(err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	biff.AssertEqual(len(lines), 1)
	biff.AssertTrue(strings.Contains(lines[0], `"name":"rpush"`))
}

func TestOpen_CorruptJournal(t *testing.T) {

	filename := filepath.Join(t.TempDir(), "pool.jsonl")
	biff.AssertNil(os.WriteFile(filename, []byte(`{"name":"hset","payload":`), 0666))

	_, err := Open(filename)
	biff.AssertNotNil(err)
}

func TestSortedSet_NaN(t *testing.T) {

	z := newSortedSet()
	z.Add(5, "a")
	z.Add(math.NaN(), "b")
	z.Add(1, "c")

	biff.AssertEqual(z.Len(), 3)

	ascending := []string{}
	for i := 0; i < z.Len(); i++ {
		name, found := z.At(i, false)
		biff.AssertTrue(found)
		ascending = append(ascending, name)
	}
	biff.AssertEqual(ascending, []string{"b", "c", "a"})

	z.Add(3, "b")
	biff.AssertEqual(z.Len(), 3)
	middle, _ := z.At(1, false)
	biff.AssertEqual(middle, "b")

	z.Remove("a")
	biff.AssertEqual(z.Len(), 2)
}
