package record

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// stages runs cascade steps that must all be attempted. The first failure
// is kept for the caller, later ones are only logged.
type stages struct {
	logger *logrus.Entry
	first  error
}

func (s *stages) attempt(name string, f func() error) {
	err := f()
	if err == nil {
		return
	}
	s.logger.WithField("stage", name).WithError(err).Warn("cascade stage failed")
	if s.first == nil {
		s.first = err
	}
}

// Save validates the record, writes its diff to the primary key, then
// cascades the same diff to every mirror and notifies every view.
func (r *Record) Save(ctx context.Context) error {
	missing := r.Missing()
	if len(missing) > 0 {
		return &MissingFieldError{Fields: missing}
	}

	isNew := false
	if r.key == nil {
		k := r.typ.MakeKey("")
		r.key = &k
		isNew = true
	}
	key := *r.key

	diff := r.Marshal()
	err := r.typ.applyDiff(ctx, key, diff, true)
	if err != nil {
		if isNew {
			r.key = nil
		}
		return fmt.Errorf("save %s: %w", key, err)
	}

	s := &stages{
		logger: r.typ.Logger.WithField("key", key.String()),
	}

	s.attempt("mirrors", func() error {
		var first error
		for _, m := range r.typ.Mirrors {
			err := m.write(ctx, r, diff)
			if err != nil && first == nil {
				first = err
			}
		}
		return first
	})

	s.attempt("views", func() error {
		var first error
		for _, v := range r.typ.Views {
			err := v.Append(ctx, r, isNew)
			if err != nil && first == nil {
				first = err
			}
		}
		return first
	})

	r.commit()

	return s.first
}

// applyDiff writes diff to the hash at key. Deletions go first so a field
// moving between two indexed values never collides with itself. Index
// entries are maintained only when indexed is set.
func (t *Type) applyDiff(ctx context.Context, key Key, diff Diff, indexed bool) error {
	if diff.Empty() {
		return nil
	}

	s, err := t.Store(key)
	if err != nil {
		return err
	}

	if len(diff.Deleted) > 0 {
		fields := make([]string, 0, len(diff.Deleted))
		for _, deletion := range diff.Deleted {
			fields = append(fields, deletion.Field)
		}
		err := s.HDel(ctx, key.String(), fields...)
		if err != nil {
			return fmt.Errorf("delete fields: %w", err)
		}
	}

	if indexed {
		for _, deletion := range diff.Deleted {
			if !t.IsIndexed(deletion.Field) {
				continue
			}
			err := t.unindex(ctx, deletion.Field, deletion.Prior)
			if err != nil {
				return err
			}
		}
	}

	for _, change := range diff.Changed {
		err := s.HSet(ctx, key.String(), change.Field, change.Value)
		if err != nil {
			return fmt.Errorf("set field '%s': %w", change.Field, err)
		}

		if !indexed || !t.IsIndexed(change.Field) {
			continue
		}
		if change.HadOld && change.Old != change.Value {
			err := t.unindex(ctx, change.Field, change.Old)
			if err != nil {
				return err
			}
		}
		err = t.index(ctx, change.Field, change.Value, key.Local)
		if err != nil {
			return err
		}
	}

	return nil
}

func (t *Type) index(ctx context.Context, field, value, local string) error {
	index := t.IndexKey(field)
	s, err := t.Store(index)
	if err != nil {
		return err
	}
	err = s.HSet(ctx, index.String(), value, local)
	if err != nil {
		return fmt.Errorf("index %s '%s': %w", field, value, err)
	}
	return nil
}

func (t *Type) unindex(ctx context.Context, field, value string) error {
	index := t.IndexKey(field)
	s, err := t.Store(index)
	if err != nil {
		return err
	}
	err = s.HDel(ctx, index.String(), value)
	if err != nil {
		return fmt.Errorf("unindex %s '%s': %w", field, value, err)
	}
	return nil
}

// unindexOwned removes the entry for value only while it still points at
// local, so a record never drops an entry another record has taken over.
func (t *Type) unindexOwned(ctx context.Context, field, value, local string) error {
	index := t.IndexKey(field)
	s, err := t.Store(index)
	if err != nil {
		return err
	}
	owner, found, err := s.HGet(ctx, index.String(), value)
	if err != nil {
		return fmt.Errorf("lookup %s '%s': %w", field, value, err)
	}
	if !found || owner != local {
		return nil
	}
	return t.unindex(ctx, field, value)
}

// Remove deletes every mirror copy, takes the record out of every view,
// then deletes the primary hash and its index entries. All three stages
// are attempted; the first failure is returned. The record ends up empty
// and without key.
func (r *Record) Remove(ctx context.Context) error {
	if r.key == nil {
		return fmt.Errorf("remove: %w", ErrMissingKey)
	}
	key := *r.key

	s := &stages{
		logger: r.typ.Logger.WithField("key", key.String()),
	}

	s.attempt("mirrors", func() error {
		var first error
		for _, m := range r.typ.Mirrors {
			err := m.remove(ctx, r)
			if err != nil && first == nil {
				first = err
			}
		}
		return first
	})

	s.attempt("views", func() error {
		var first error
		for _, v := range r.typ.Views {
			err := v.Remove(ctx, r)
			if err != nil && first == nil {
				first = err
			}
		}
		return first
	})

	s.attempt("primary", func() error {
		st, err := r.typ.Store(key)
		if err != nil {
			return err
		}
		err = st.Del(ctx, key.String())
		if err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	})

	s.attempt("indices", func() error {
		var first error
		for _, field := range r.typ.Indices {
			values := []string{}
			persisted, wasPersisted := r.original[field]
			if wasPersisted {
				values = append(values, persisted)
			}
			if value, exists := r.fields[field]; exists && (!wasPersisted || value != persisted) {
				values = append(values, value)
			}
			for _, value := range values {
				err := r.typ.unindexOwned(ctx, field, value, key.Local)
				if err != nil && first == nil {
					first = err
				}
			}
		}
		return first
	})

	r.reset()

	return s.first
}
