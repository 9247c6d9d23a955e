// Package boltstore keeps store data in a single bbolt file. Hashes map to
// nested buckets; lists and sorted sets are msgpack-encoded values, rewritten
// as a whole on every change.
package boltstore

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/fulldump/recordkv/store"
)

var (
	hashBucket = []byte("hash")
	listBucket = []byte("list")
	zsetBucket = []byte("zset")
)

type zmember struct {
	Score float64 `msgpack:"s"`
	Name  string  `msgpack:"n"`
}

type Store struct {
	bdb *bbolt.DB
}

var _ store.Store = (*Store)(nil)

type Options struct {
	Timeout time.Duration
	NoSync  bool
}

func Open(path string, opt Options) (*Store, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = opt.Timeout
	if bopt.Timeout == 0 {
		bopt.Timeout = 10 * time.Second
	}
	bopt.NoSync = opt.NoSync

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("boltstore: %w", err)
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{hashBucket, listBucket, zsetBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("boltstore: prepare buckets: %w", err)
	}

	return &Store{bdb: bdb}, nil
}

func (s *Store) Bolt() *bbolt.DB {
	return s.bdb
}

func (s *Store) Close() error {
	return s.bdb.Close()
}

// checkKind fails with store.ErrWrongType when key already exists under a
// bucket other than want.
func checkKind(tx *bbolt.Tx, key []byte, want []byte) error {
	if !slices.Equal(want, hashBucket) && tx.Bucket(hashBucket).Bucket(key) != nil {
		return store.ErrWrongType
	}
	if !slices.Equal(want, listBucket) && tx.Bucket(listBucket).Get(key) != nil {
		return store.ErrWrongType
	}
	if !slices.Equal(want, zsetBucket) && tx.Bucket(zsetBucket).Get(key) != nil {
		return store.ErrWrongType
	}
	return nil
}

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	result := map[string]string{}
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		if err := checkKind(tx, []byte(key), hashBucket); err != nil {
			return err
		}
		b := tx.Bucket(hashBucket).Bucket([]byte(key))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			result[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) HGet(ctx context.Context, key, field string) (value string, found bool, err error) {
	err = s.bdb.View(func(tx *bbolt.Tx) error {
		if err := checkKind(tx, []byte(key), hashBucket); err != nil {
			return err
		}
		b := tx.Bucket(hashBucket).Bucket([]byte(key))
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(field))
		if raw == nil {
			return nil
		}
		value, found = string(raw), true
		return nil
	})
	return
}

func (s *Store) HSet(ctx context.Context, key, field, value string) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		if err := checkKind(tx, []byte(key), hashBucket); err != nil {
			return err
		}
		b, err := tx.Bucket(hashBucket).CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return err
		}
		return b.Put([]byte(field), []byte(value))
	})
}

func (s *Store) HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		if err := checkKind(tx, []byte(key), hashBucket); err != nil {
			return err
		}
		root := tx.Bucket(hashBucket)
		b := root.Bucket([]byte(key))
		if b == nil {
			return nil
		}
		for _, field := range fields {
			if err := b.Delete([]byte(field)); err != nil {
				return err
			}
		}
		if k, _ := b.Cursor().First(); k == nil {
			return root.DeleteBucket([]byte(key))
		}
		return nil
	})
}

func readList(tx *bbolt.Tx, key []byte) ([]string, error) {
	raw := tx.Bucket(listBucket).Get(key)
	if raw == nil {
		return nil, nil
	}
	list := []string{}
	if err := msgpack.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode list %s: %w", key, err)
	}
	return list, nil
}

func writeList(tx *bbolt.Tx, key []byte, list []string) error {
	if len(list) == 0 {
		return tx.Bucket(listBucket).Delete(key)
	}
	raw, err := msgpack.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode list %s: %w", key, err)
	}
	return tx.Bucket(listBucket).Put(key, raw)
}

func (s *Store) updateList(key string, f func(list []string) []string) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		k := []byte(key)
		if err := checkKind(tx, k, listBucket); err != nil {
			return err
		}
		list, err := readList(tx, k)
		if err != nil {
			return err
		}
		return writeList(tx, k, f(list))
	})
}

func (s *Store) LPush(ctx context.Context, key, value string) error {
	return s.updateList(key, func(list []string) []string {
		return append([]string{value}, list...)
	})
}

func (s *Store) RPush(ctx context.Context, key, value string) error {
	return s.updateList(key, func(list []string) []string {
		return append(list, value)
	})
}

func (s *Store) LRem(ctx context.Context, key, value string) error {
	return s.updateList(key, func(list []string) []string {
		return slices.DeleteFunc(list, func(item string) bool {
			return item == value
		})
	})
}

func (s *Store) LLen(ctx context.Context, key string) (n int64, err error) {
	err = s.bdb.View(func(tx *bbolt.Tx) error {
		k := []byte(key)
		if err := checkKind(tx, k, listBucket); err != nil {
			return err
		}
		list, err := readList(tx, k)
		n = int64(len(list))
		return err
	})
	return
}

func (s *Store) LIndex(ctx context.Context, key string, i int64) (value string, found bool, err error) {
	err = s.bdb.View(func(tx *bbolt.Tx) error {
		k := []byte(key)
		if err := checkKind(tx, k, listBucket); err != nil {
			return err
		}
		list, err := readList(tx, k)
		if err != nil {
			return err
		}
		n := int64(len(list))
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return nil
		}
		value, found = list[i], true
		return nil
	})
	return
}

func readZset(tx *bbolt.Tx, key []byte) ([]zmember, error) {
	raw := tx.Bucket(zsetBucket).Get(key)
	if raw == nil {
		return nil, nil
	}
	members := []zmember{}
	if err := msgpack.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("decode zset %s: %w", key, err)
	}
	return members, nil
}

func writeZset(tx *bbolt.Tx, key []byte, members []zmember) error {
	if len(members) == 0 {
		return tx.Bucket(zsetBucket).Delete(key)
	}
	slices.SortFunc(members, func(a, b zmember) int {
		if a.Score < b.Score {
			return -1
		}
		if a.Score > b.Score {
			return 1
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	raw, err := msgpack.Marshal(members)
	if err != nil {
		return fmt.Errorf("encode zset %s: %w", key, err)
	}
	return tx.Bucket(zsetBucket).Put(key, raw)
}

func (s *Store) updateZset(key string, f func(members []zmember) []zmember) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		k := []byte(key)
		if err := checkKind(tx, k, zsetBucket); err != nil {
			return err
		}
		members, err := readZset(tx, k)
		if err != nil {
			return err
		}
		return writeZset(tx, k, f(members))
	})
}

func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	if math.IsNaN(score) {
		return store.ErrNaN
	}
	return s.updateZset(key, func(members []zmember) []zmember {
		members = slices.DeleteFunc(members, func(m zmember) bool {
			return m.Name == member
		})
		return append(members, zmember{Score: score, Name: member})
	})
}

func (s *Store) ZRem(ctx context.Context, key, member string) error {
	return s.updateZset(key, func(members []zmember) []zmember {
		return slices.DeleteFunc(members, func(m zmember) bool {
			return m.Name == member
		})
	})
}

func (s *Store) ZCard(ctx context.Context, key string) (n int64, err error) {
	err = s.bdb.View(func(tx *bbolt.Tx) error {
		k := []byte(key)
		if err := checkKind(tx, k, zsetBucket); err != nil {
			return err
		}
		members, err := readZset(tx, k)
		n = int64(len(members))
		return err
	})
	return
}

func (s *Store) ZAt(ctx context.Context, key string, i int64, reverse bool) (member string, found bool, err error) {
	err = s.bdb.View(func(tx *bbolt.Tx) error {
		k := []byte(key)
		if err := checkKind(tx, k, zsetBucket); err != nil {
			return err
		}
		members, err := readZset(tx, k)
		if err != nil {
			return err
		}
		n := int64(len(members))
		if i < 0 || i >= n {
			return nil
		}
		if reverse {
			i = n - 1 - i
		}
		member, found = members[i].Name, true
		return nil
	})
	return
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		for _, key := range keys {
			k := []byte(key)
			if tx.Bucket(hashBucket).Bucket(k) != nil {
				if err := tx.Bucket(hashBucket).DeleteBucket(k); err != nil {
					return err
				}
			}
			if err := tx.Bucket(listBucket).Delete(k); err != nil {
				return err
			}
			if err := tx.Bucket(zsetBucket).Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
