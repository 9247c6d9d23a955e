package view

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/fulldump/recordkv/record"
	"github.com/fulldump/recordkv/store"
)

// ScoreFunc ranks a record. It is evaluated on every save.
type ScoreFunc func(r *record.Record) (float64, error)

// FieldScore scores records by the numeric value of field. Records without
// the field score 0. NaN and infinities are rejected.
func FieldScore(field string) ScoreFunc {
	return func(r *record.Record) (float64, error) {
		value, exists := r.Get(field)
		if !exists || value == "" {
			return 0, nil
		}
		score, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("score field '%s': %w", field, err)
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return 0, fmt.Errorf("score field '%s': '%s' is not a finite number", field, value)
		}
		return score, nil
	}
}

// Score keeps records ordered by score, ascending unless Reverse is set.
// Ties are ordered by local key.
type Score struct {
	cursor
	Score   ScoreFunc
	Reverse bool
}

func NewScore(key record.Key, t *record.Type, score ScoreFunc, reverse bool) *Score {
	v := &Score{
		Score:   score,
		Reverse: reverse,
	}
	v.cursor = cursor{
		Key:    key,
		Type:   t,
		length: setLength,
		rank: func(ctx context.Context, s store.Store, key string, i int64) (string, bool, error) {
			return s.ZAt(ctx, key, i, v.Reverse)
		},
	}
	return v
}

// Append adds the record or moves it to its new score, new or not.
func (v *Score) Append(ctx context.Context, r *record.Record, isNew bool) error {
	local, err := localOf(r)
	if err != nil {
		return err
	}
	score, err := v.Score(r)
	if err != nil {
		return err
	}
	s, err := v.store()
	if err != nil {
		return err
	}
	err = s.ZAdd(ctx, v.Key.String(), score, local)
	if err != nil {
		return fmt.Errorf("score %s: %w", v.Key, err)
	}
	return nil
}

func (v *Score) Remove(ctx context.Context, r *record.Record) error {
	local, err := localOf(r)
	if err != nil {
		return err
	}
	s, err := v.store()
	if err != nil {
		return err
	}
	err = s.ZRem(ctx, v.Key.String(), local)
	if err != nil {
		return fmt.Errorf("score %s remove: %w", v.Key, err)
	}
	return nil
}
