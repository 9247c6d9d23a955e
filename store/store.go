// Package store defines the key-value primitives the record layer is built
// on: one hash, list or sorted set per key, point operations only.
package store

import (
	"context"
	"errors"
)

var (
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")
	ErrNaN       = errors.New("score is not a number")
)

// Store is the set of primitives consumed by records and views. Every single
// call is expected to be atomic on its own; nothing spans calls.
type Store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGet(ctx context.Context, key, field string) (string, bool, error)
	HSet(ctx context.Context, key, field, value string) error
	HDel(ctx context.Context, key string, fields ...string) error

	LPush(ctx context.Context, key, value string) error
	RPush(ctx context.Context, key, value string) error
	LLen(ctx context.Context, key string) (int64, error)
	LIndex(ctx context.Context, key string, i int64) (string, bool, error)
	// LRem removes every occurrence of value.
	LRem(ctx context.Context, key, value string) error

	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZCard(ctx context.Context, key string) (int64, error)
	// ZAt returns the member at rank i, ascending by score or descending
	// when reverse is set.
	ZAt(ctx context.Context, key string, i int64, reverse bool) (string, bool, error)
	ZRem(ctx context.Context, key, member string) error

	Del(ctx context.Context, keys ...string) error

	Close() error
}
