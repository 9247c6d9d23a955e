// Package redisstore maps the store primitives one to one onto Redis
// commands.
package redisstore

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/fulldump/recordkv/store"
)

type Store struct {
	client redis.UniversalClient
}

var _ store.Store = (*Store)(nil)

func New(options *redis.Options) *Store {
	return &Store{
		client: redis.NewClient(options),
	}
}

func NewWithClient(client redis.UniversalClient) *Store {
	return &Store{
		client: client,
	}
}

func (s *Store) Client() redis.UniversalClient {
	return s.client
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if strings.HasPrefix(err.Error(), "WRONGTYPE") {
		return errors.Join(store.ErrWrongType, err)
	}
	return err
}

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	result, err := s.client.HGetAll(ctx, key).Result()
	return result, translate(err)
}

func (s *Store) HGet(ctx context.Context, key, field string) (string, bool, error) {
	value, err := s.client.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, translate(err)
	}
	return value, true, nil
}

func (s *Store) HSet(ctx context.Context, key, field, value string) error {
	return translate(s.client.HSet(ctx, key, field, value).Err())
}

func (s *Store) HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return translate(s.client.HDel(ctx, key, fields...).Err())
}

func (s *Store) LPush(ctx context.Context, key, value string) error {
	return translate(s.client.LPush(ctx, key, value).Err())
}

func (s *Store) RPush(ctx context.Context, key, value string) error {
	return translate(s.client.RPush(ctx, key, value).Err())
}

func (s *Store) LLen(ctx context.Context, key string) (int64, error) {
	n, err := s.client.LLen(ctx, key).Result()
	return n, translate(err)
}

func (s *Store) LIndex(ctx context.Context, key string, i int64) (string, bool, error) {
	value, err := s.client.LIndex(ctx, key, i).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, translate(err)
	}
	return value, true, nil
}

func (s *Store) LRem(ctx context.Context, key, value string) error {
	return translate(s.client.LRem(ctx, key, 0, value).Err())
}

func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	if math.IsNaN(score) {
		return store.ErrNaN
	}
	return translate(s.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err())
}

func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	n, err := s.client.ZCard(ctx, key).Result()
	return n, translate(err)
}

func (s *Store) ZAt(ctx context.Context, key string, i int64, reverse bool) (string, bool, error) {
	if i < 0 {
		return "", false, nil
	}

	var members []string
	var err error
	if reverse {
		members, err = s.client.ZRevRange(ctx, key, i, i).Result()
	} else {
		members, err = s.client.ZRange(ctx, key, i, i).Result()
	}
	if err != nil {
		return "", false, translate(err)
	}
	if len(members) == 0 {
		return "", false, nil
	}
	return members[0], true, nil
}

func (s *Store) ZRem(ctx context.Context, key, member string) error {
	return translate(s.client.ZRem(ctx, key, member).Err())
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return translate(s.client.Del(ctx, keys...).Err())
}
