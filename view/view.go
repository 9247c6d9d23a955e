// Package view implements record views: store lists and sorted sets holding
// local keys of records of one type. Queue and Stack are creation feeds,
// Score keeps every record ranked by a score computed on each save.
//
// Views hold no field data. Reading position i resolves the local key at
// that rank and loads the live record from its type, so reads are never a
// snapshot and may observe concurrent saves and removes.
package view

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/fulldump/recordkv/record"
	"github.com/fulldump/recordkv/store"
)

var ErrOutOfRange = errors.New("position out of range")

// View is what every variant exposes on top of the record.View hooks.
type View interface {
	record.View
	Len(ctx context.Context) (int64, error)
	At(ctx context.Context, i int64) (*record.Record, error)
	Traverse(ctx context.Context, f func(i int64, r *record.Record) bool) error
	All(ctx context.Context) iter.Seq2[*record.Record, error]
}

var (
	_ View = &Queue{}
	_ View = &Stack{}
	_ View = &Score{}
)

// cursor holds the read machinery shared by all variants. Each variant only
// says how long it is and which local key sits at rank i.
type cursor struct {
	Key  record.Key
	Type *record.Type

	length func(ctx context.Context, s store.Store, key string) (int64, error)
	rank   func(ctx context.Context, s store.Store, key string, i int64) (string, bool, error)
}

func (c *cursor) store() (store.Store, error) {
	return c.Type.Store(c.Key)
}

func (c *cursor) Len(ctx context.Context) (int64, error) {
	s, err := c.store()
	if err != nil {
		return 0, err
	}
	n, err := c.length(ctx, s, c.Key.String())
	if err != nil {
		return 0, fmt.Errorf("view %s length: %w", c.Key, err)
	}
	return n, nil
}

// At loads the record at position i.
func (c *cursor) At(ctx context.Context, i int64) (*record.Record, error) {
	if i < 0 {
		return nil, fmt.Errorf("view %s [%d]: %w", c.Key, i, ErrOutOfRange)
	}

	s, err := c.store()
	if err != nil {
		return nil, err
	}

	local, found, err := c.rank(ctx, s, c.Key.String(), i)
	if err != nil {
		return nil, fmt.Errorf("view %s [%d]: %w", c.Key, i, err)
	}
	if !found {
		return nil, fmt.Errorf("view %s [%d]: %w", c.Key, i, ErrOutOfRange)
	}

	r := c.Type.New()
	err = r.LoadLocal(ctx, local)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Traverse calls f for every position from 0 to the length observed when
// the traversal starts, re-reading each position. It stops when f returns
// false or the view shrinks under it.
func (c *cursor) Traverse(ctx context.Context, f func(i int64, r *record.Record) bool) error {
	n, err := c.Len(ctx)
	if err != nil {
		return err
	}

	for i := int64(0); i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := c.At(ctx, i)
		if errors.Is(err, ErrOutOfRange) {
			return nil
		}
		if err != nil {
			return err
		}
		if !f(i, r) {
			return nil
		}
	}

	return nil
}

// All is a lazy, restartable sequence over the view. A failing read is
// yielded once and ends the sequence.
func (c *cursor) All(ctx context.Context) iter.Seq2[*record.Record, error] {
	return func(yield func(*record.Record, error) bool) {
		err := c.Traverse(ctx, func(i int64, r *record.Record) bool {
			return yield(r, nil)
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

func localOf(r *record.Record) (string, error) {
	k := r.Key()
	if k == nil {
		return "", record.ErrMissingKey
	}
	return k.Local, nil
}

func listLength(ctx context.Context, s store.Store, key string) (int64, error) {
	return s.LLen(ctx, key)
}

func listRank(ctx context.Context, s store.Store, key string, i int64) (string, bool, error) {
	return s.LIndex(ctx, key, i)
}

func setLength(ctx context.Context, s store.Store, key string) (int64, error) {
	return s.ZCard(ctx, key)
}
