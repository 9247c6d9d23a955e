package record

import (
	"context"
	"fmt"
	"strings"
)

// Mirror is a denormalized copy of a parent record kept under a key derived
// from the parent fields. Copies are written only by the parent's Save and
// deleted by the parent's Remove.
type Mirror struct {
	Name string
	// Type holds pool, prefix and indices of the copies.
	Type *Type
	// KeyFunc returns where the copy of parent goes, nil to skip it.
	KeyFunc func(parent *Record) *Key
}

func NewMirror(name string, t *Type, keyFunc func(parent *Record) *Key) *Mirror {
	return &Mirror{
		Name:    name,
		Type:    t,
		KeyFunc: keyFunc,
	}
}

// FieldMirror keeps copies keyed by the value of field, typically a unique
// field like an email. Parents without that field are not mirrored. With a
// nil t the copies go to the parent pool under "<type>_by_<field>:".
func FieldMirror(name string, t *Type, field string) *Mirror {
	return NewMirror(name, t, func(parent *Record) *Key {
		value, exists := parent.Get(field)
		if !exists || value == "" {
			return nil
		}
		if t == nil {
			pt := parent.Type()
			k := NewKey(pt.Pool, strings.ToLower(pt.Name)+"_by_"+field+":", value)
			return &k
		}
		k := t.MakeKey(value)
		return &k
	})
}

func (m *Mirror) MirrorKey(parent *Record) (*Key, error) {
	if m.KeyFunc == nil {
		return nil, fmt.Errorf("mirror '%s': %w", m.Name, ErrMissingKey)
	}
	return m.KeyFunc(parent), nil
}

// target is the type the copies are written with. Without one, copies go
// through the parent type and skip index maintenance.
func (m *Mirror) target(parent *Record) (*Type, bool) {
	if m.Type == nil {
		return parent.typ, false
	}
	return m.Type, true
}

func (m *Mirror) write(ctx context.Context, parent *Record, diff Diff) error {
	key, err := m.MirrorKey(parent)
	if err != nil {
		return err
	}
	if key == nil {
		return nil
	}

	t, indexed := m.target(parent)
	err = t.applyDiff(ctx, *key, diff, indexed)
	if err != nil {
		return fmt.Errorf("mirror '%s' %s: %w", m.Name, key, err)
	}
	return nil
}

func (m *Mirror) remove(ctx context.Context, parent *Record) error {
	key, err := m.MirrorKey(parent)
	if err != nil {
		return err
	}
	if key == nil {
		return nil
	}

	t, indexed := m.target(parent)
	s, err := t.Store(*key)
	if err != nil {
		return err
	}

	if indexed && len(t.Indices) > 0 {
		fields, err := s.HGetAll(ctx, key.String())
		if err != nil {
			return fmt.Errorf("mirror '%s' %s: %w", m.Name, key, err)
		}
		for _, field := range t.Indices {
			value, exists := fields[field]
			if !exists {
				continue
			}
			err := t.unindexOwned(ctx, field, value, key.Local)
			if err != nil {
				return fmt.Errorf("mirror '%s' %s: %w", m.Name, key, err)
			}
		}
	}

	err = s.Del(ctx, key.String())
	if err != nil {
		return fmt.Errorf("mirror '%s' %s: %w", m.Name, key, err)
	}
	return nil
}

// Load reads the copy stored at k.
func (m *Mirror) Load(ctx context.Context, k Key) (*Mirrored, error) {
	if m.Type == nil {
		return nil, fmt.Errorf("mirror '%s' has no type to load with", m.Name)
	}
	r := m.Type.New()
	err := r.Load(ctx, k)
	if err != nil {
		return nil, err
	}
	return &Mirrored{Record: r}, nil
}

func (m *Mirror) LoadLocal(ctx context.Context, local string) (*Mirrored, error) {
	if m.Type == nil {
		return nil, fmt.Errorf("mirror '%s' has no type to load with", m.Name)
	}
	return m.Load(ctx, m.Type.MakeKey(local))
}

// Mirrored is a loaded mirror copy. It can be read but never saved.
type Mirrored struct {
	*Record
}

func (m *Mirrored) Save(ctx context.Context) error {
	return ErrImmutable
}
