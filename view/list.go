package view

import (
	"context"
	"fmt"

	"github.com/fulldump/recordkv/record"
)

// Queue lists records in creation order, oldest first.
type Queue struct {
	cursor
}

func NewQueue(key record.Key, t *record.Type) *Queue {
	return &Queue{
		cursor: cursor{
			Key:    key,
			Type:   t,
			length: listLength,
			rank:   listRank,
		},
	}
}

// Append pushes newly created records to the tail. Updates are ignored.
func (q *Queue) Append(ctx context.Context, r *record.Record, isNew bool) error {
	if !isNew {
		return nil
	}
	local, err := localOf(r)
	if err != nil {
		return err
	}
	s, err := q.store()
	if err != nil {
		return err
	}
	err = s.RPush(ctx, q.Key.String(), local)
	if err != nil {
		return fmt.Errorf("queue %s: %w", q.Key, err)
	}
	return nil
}

func (q *Queue) Remove(ctx context.Context, r *record.Record) error {
	return removeFromList(ctx, &q.cursor, r)
}

// Stack lists records in creation order, newest first.
type Stack struct {
	cursor
}

func NewStack(key record.Key, t *record.Type) *Stack {
	return &Stack{
		cursor: cursor{
			Key:    key,
			Type:   t,
			length: listLength,
			rank:   listRank,
		},
	}
}

// Append pushes newly created records to the head. Updates are ignored.
func (s *Stack) Append(ctx context.Context, r *record.Record, isNew bool) error {
	if !isNew {
		return nil
	}
	local, err := localOf(r)
	if err != nil {
		return err
	}
	st, err := s.store()
	if err != nil {
		return err
	}
	err = st.LPush(ctx, s.Key.String(), local)
	if err != nil {
		return fmt.Errorf("stack %s: %w", s.Key, err)
	}
	return nil
}

func (s *Stack) Remove(ctx context.Context, r *record.Record) error {
	return removeFromList(ctx, &s.cursor, r)
}

func removeFromList(ctx context.Context, c *cursor, r *record.Record) error {
	local, err := localOf(r)
	if err != nil {
		return err
	}
	s, err := c.store()
	if err != nil {
		return err
	}
	err = s.LRem(ctx, c.Key.String(), local)
	if err != nil {
		return fmt.Errorf("view %s remove: %w", c.Key, err)
	}
	return nil
}
