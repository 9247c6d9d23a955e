// Package memstore is an in-process store backend. Hashes and lists live in
// plain maps and slices, sorted sets in a btree. Optionally every mutation
// is journaled to a file and replayed when the store is opened again.
package memstore

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/fulldump/recordkv/store"
)

type entry struct {
	hash map[string]string
	list []string
	zset *sortedSet
}

type Store struct {
	mutex   *sync.RWMutex
	entries map[string]*entry
	journal *Journal
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		mutex:   &sync.RWMutex{},
		entries: map[string]*entry{},
	}
}

// Open replays the journal at filename and keeps appending to it.
func Open(filename string) (*Store, error) {
	s := New()

	err := ReadJournal(filename, s.apply)
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}

	s.journal, err = OpenJournal(filename)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

// apply runs a journaled operation without journaling it again.
func (s *Store) apply(name string, op *Operation) error {
	switch name {
	case "hset":
		return s.hset(op.Key, op.Field, op.Value)
	case "hdel":
		return s.hdel(op.Key, op.Fields)
	case "lpush":
		return s.push(op.Key, op.Value, true)
	case "rpush":
		return s.push(op.Key, op.Value, false)
	case "lrem":
		return s.lrem(op.Key, op.Value)
	case "zadd":
		return s.zadd(op.Key, op.Score, op.Value)
	case "zrem":
		return s.zrem(op.Key, op.Value)
	case "del":
		s.del(op.Keys)
		return nil
	}
	return fmt.Errorf("unknown command '%s'", name)
}

func (s *Store) persist(name string, op *Operation) error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Append(name, op)
}

func (s *Store) mutate(name string, op *Operation) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	err := s.apply(name, op)
	if err != nil {
		return err
	}

	return s.persist(name, op)
}

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := map[string]string{}
	e, exists := s.entries[key]
	if !exists {
		return result, nil
	}
	if e.hash == nil {
		return nil, store.ErrWrongType
	}
	for field, value := range e.hash {
		result[field] = value
	}
	return result, nil
}

func (s *Store) HGet(ctx context.Context, key, field string) (string, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, exists := s.entries[key]
	if !exists {
		return "", false, nil
	}
	if e.hash == nil {
		return "", false, store.ErrWrongType
	}
	value, exists := e.hash[field]
	return value, exists, nil
}

func (s *Store) HSet(ctx context.Context, key, field, value string) error {
	return s.mutate("hset", &Operation{Key: key, Field: field, Value: value})
}

func (s *Store) HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return s.mutate("hdel", &Operation{Key: key, Fields: fields})
}

func (s *Store) LPush(ctx context.Context, key, value string) error {
	return s.mutate("lpush", &Operation{Key: key, Value: value})
}

func (s *Store) RPush(ctx context.Context, key, value string) error {
	return s.mutate("rpush", &Operation{Key: key, Value: value})
}

func (s *Store) LLen(ctx context.Context, key string) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, exists := s.entries[key]
	if !exists {
		return 0, nil
	}
	if e.list == nil {
		return 0, store.ErrWrongType
	}
	return int64(len(e.list)), nil
}

func (s *Store) LIndex(ctx context.Context, key string, i int64) (string, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, exists := s.entries[key]
	if !exists {
		return "", false, nil
	}
	if e.list == nil {
		return "", false, store.ErrWrongType
	}
	n := int64(len(e.list))
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return "", false, nil
	}
	return e.list[i], true, nil
}

func (s *Store) LRem(ctx context.Context, key, value string) error {
	return s.mutate("lrem", &Operation{Key: key, Value: value})
}

func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	if math.IsNaN(score) {
		return store.ErrNaN
	}
	return s.mutate("zadd", &Operation{Key: key, Score: score, Value: member})
}

func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, exists := s.entries[key]
	if !exists {
		return 0, nil
	}
	if e.zset == nil {
		return 0, store.ErrWrongType
	}
	return int64(e.zset.Len()), nil
}

func (s *Store) ZAt(ctx context.Context, key string, i int64, reverse bool) (string, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, exists := s.entries[key]
	if !exists {
		return "", false, nil
	}
	if e.zset == nil {
		return "", false, store.ErrWrongType
	}
	member, found := e.zset.At(int(i), reverse)
	return member, found, nil
}

func (s *Store) ZRem(ctx context.Context, key, member string) error {
	return s.mutate("zrem", &Operation{Key: key, Value: member})
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.mutate("del", &Operation{Keys: keys})
}

func (s *Store) hset(key, field, value string) error {
	e, exists := s.entries[key]
	if !exists {
		e = &entry{hash: map[string]string{}}
		s.entries[key] = e
	}
	if e.hash == nil {
		return store.ErrWrongType
	}
	e.hash[field] = value
	return nil
}

func (s *Store) hdel(key string, fields []string) error {
	e, exists := s.entries[key]
	if !exists {
		return nil
	}
	if e.hash == nil {
		return store.ErrWrongType
	}
	for _, field := range fields {
		delete(e.hash, field)
	}
	if len(e.hash) == 0 {
		delete(s.entries, key)
	}
	return nil
}

func (s *Store) push(key, value string, head bool) error {
	e, exists := s.entries[key]
	if !exists {
		e = &entry{list: []string{}}
		s.entries[key] = e
	}
	if e.list == nil {
		return store.ErrWrongType
	}
	if head {
		e.list = append([]string{value}, e.list...)
	} else {
		e.list = append(e.list, value)
	}
	return nil
}

func (s *Store) lrem(key, value string) error {
	e, exists := s.entries[key]
	if !exists {
		return nil
	}
	if e.list == nil {
		return store.ErrWrongType
	}
	kept := e.list[:0]
	for _, item := range e.list {
		if item != value {
			kept = append(kept, item)
		}
	}
	e.list = kept
	if len(e.list) == 0 {
		delete(s.entries, key)
	}
	return nil
}

func (s *Store) zadd(key string, score float64, member string) error {
	e, exists := s.entries[key]
	if !exists {
		e = &entry{zset: newSortedSet()}
		s.entries[key] = e
	}
	if e.zset == nil {
		return store.ErrWrongType
	}
	e.zset.Add(score, member)
	return nil
}

func (s *Store) zrem(key, member string) error {
	e, exists := s.entries[key]
	if !exists {
		return nil
	}
	if e.zset == nil {
		return store.ErrWrongType
	}
	e.zset.Remove(member)
	if e.zset.Len() == 0 {
		delete(s.entries, key)
	}
	return nil
}

func (s *Store) del(keys []string) {
	for _, key := range keys {
		delete(s.entries, key)
	}
}
