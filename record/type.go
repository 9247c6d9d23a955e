package record

import (
	"context"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fulldump/recordkv/pool"
	"github.com/fulldump/recordkv/store"
	"github.com/fulldump/recordkv/utils"
)

// View is an external collection fed by record saves and removes.
type View interface {
	Append(ctx context.Context, r *Record, isNew bool) error
	Remove(ctx context.Context, r *Record) error
}

// Type is the static configuration shared by every record of one kind.
type Type struct {
	Name     string
	Pool     string
	Prefix   string
	Required []string
	Indices  []string
	Views    []View
	Mirrors  []*Mirror

	Pools  *pool.Registry
	Logger *logrus.Entry
}

type TypeOption func(t *Type)

func WithPool(name string) TypeOption {
	return func(t *Type) {
		t.Pool = name
	}
}

func WithPrefix(prefix string) TypeOption {
	return func(t *Type) {
		t.Prefix = prefix
	}
}

func WithRequired(fields ...string) TypeOption {
	return func(t *Type) {
		t.Required = append(t.Required, fields...)
	}
}

func WithIndices(fields ...string) TypeOption {
	return func(t *Type) {
		t.Indices = append(t.Indices, fields...)
	}
}

func WithLogger(logger *logrus.Entry) TypeOption {
	return func(t *Type) {
		t.Logger = logger
	}
}

// NewType returns a type named name. Pool defaults to the lowercased name and
// Prefix to the lowercased name followed by a colon.
func NewType(name string, pools *pool.Registry, options ...TypeOption) *Type {
	t := &Type{
		Name:  name,
		Pools: pools,
	}
	for _, option := range options {
		option(t)
	}

	if t.Pool == "" {
		t.Pool = strings.ToLower(name)
	}
	if t.Prefix == "" {
		t.Prefix = strings.ToLower(name) + ":"
	}
	if t.Pools == nil {
		t.Pools = pool.New(nil)
	}
	if t.Logger == nil {
		t.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	t.Logger = t.Logger.WithField("type", t.Name)

	return t
}

func (t *Type) AddView(v View) *Type {
	t.Views = append(t.Views, v)
	return t
}

func (t *Type) AddMirror(m *Mirror) *Type {
	t.Mirrors = append(t.Mirrors, m)
	return t
}

// New returns an empty record with no key.
func (t *Type) New() *Record {
	r := &Record{typ: t}
	r.reset()
	return r
}

// Create returns a new record with fields set through Set, in field name
// order.
func (t *Type) Create(fields map[string]any) (*Record, error) {
	r := t.New()

	for _, name := range utils.GetKeys(fields) {
		err := r.Set(name, fields[name])
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}

// MakeKey returns a key in this type's pool and prefix; an empty local gets
// a random one.
func (t *Type) MakeKey(local string) Key {
	return NewKey(t.Pool, t.Prefix, local)
}

// IndexKey is the hash mapping values of field to local keys.
func (t *Type) IndexKey(field string) Key {
	return Key{
		Pool:   t.Pool,
		Prefix: "index:" + t.Prefix,
		Local:  field,
	}
}

func (t *Type) IsIndexed(field string) bool {
	return slices.Contains(t.Indices, field)
}

// Store resolves the store holding k, falling back to the type's pool when
// the key does not name one.
func (t *Type) Store(k Key) (store.Store, error) {
	name := k.Pool
	if name == "" {
		name = t.Pool
	}
	return t.Pools.Get(name)
}
