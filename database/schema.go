package database

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/recordkv/record"
	"github.com/fulldump/recordkv/view"
)

const (
	ViewQueue = "queue"
	ViewStack = "stack"
	ViewScore = "score"
)

// Catalog declares every record type served by a database.
type Catalog struct {
	Types []*TypeSchema `json:"types"`
}

type TypeSchema struct {
	Name     string          `json:"name"`
	Pool     string          `json:"pool,omitempty"`
	Prefix   string          `json:"prefix,omitempty"`
	Required []string        `json:"required,omitempty"`
	Indices  []string        `json:"indices,omitempty"`
	Views    []*ViewSchema   `json:"views,omitempty"`
	Mirrors  []*MirrorSchema `json:"mirrors,omitempty"`
}

type ViewSchema struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	// Field and Reverse only apply to score views.
	Field   string `json:"field,omitempty"`
	Reverse bool   `json:"reverse,omitzero"`
}

// MirrorSchema declares a copy of the parent keyed by the value of Field.
type MirrorSchema struct {
	Name   string `json:"name"`
	Field  string `json:"field"`
	Pool   string `json:"pool,omitempty"`
	Prefix string `json:"prefix,omitempty"`
}

// ReadCatalog reads the catalog at filename. A missing file is an empty
// catalog.
func ReadCatalog(filename string) (*Catalog, error) {
	c := &Catalog{Types: []*TypeSchema{}}

	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(data, c)
	if err != nil {
		return nil, fmt.Errorf("decode catalog '%s': %w", filename, err)
	}

	return c, nil
}

func WriteCatalog(filename string, c *Catalog) error {
	data, err := json.Marshal(c, jsontext.WithIndent("    "))
	if err != nil {
		return err
	}
	return os.WriteFile(filename, append(data, '\n'), 0644)
}

func (s *TypeSchema) Validate() error {
	if s.Name == "" {
		return errors.New("type name is required")
	}

	names := map[string]bool{}
	for _, v := range s.Views {
		if v.Name == "" {
			return fmt.Errorf("type '%s': view name is required", s.Name)
		}
		if names[v.Name] {
			return fmt.Errorf("type '%s': view '%s' declared twice", s.Name, v.Name)
		}
		names[v.Name] = true
		switch v.Kind {
		case ViewQueue, ViewStack:
		case ViewScore:
			if v.Field == "" {
				return fmt.Errorf("type '%s': score view '%s' needs a field", s.Name, v.Name)
			}
		default:
			return fmt.Errorf("type '%s': view '%s' has unknown kind '%s'", s.Name, v.Name, v.Kind)
		}
	}

	names = map[string]bool{}
	for _, m := range s.Mirrors {
		if m.Name == "" || m.Field == "" {
			return fmt.Errorf("type '%s': mirror needs name and field", s.Name)
		}
		if names[m.Name] {
			return fmt.Errorf("type '%s': mirror '%s' declared twice", s.Name, m.Name)
		}
		names[m.Name] = true
	}

	return nil
}

// Type is a record type built from its schema, with its views and mirrors
// reachable by name.
type Type struct {
	Schema  *TypeSchema
	Record  *record.Type
	Views   map[string]view.View
	Mirrors map[string]*record.Mirror
}

func (db *Database) build(s *TypeSchema) (*Type, error) {
	err := s.Validate()
	if err != nil {
		return nil, err
	}

	options := []record.TypeOption{
		record.WithRequired(s.Required...),
		record.WithIndices(s.Indices...),
		record.WithLogger(db.logger),
	}
	if s.Pool != "" {
		options = append(options, record.WithPool(s.Pool))
	}
	if s.Prefix != "" {
		options = append(options, record.WithPrefix(s.Prefix))
	}

	t := &Type{
		Schema:  s,
		Record:  record.NewType(s.Name, db.Pools, options...),
		Views:   map[string]view.View{},
		Mirrors: map[string]*record.Mirror{},
	}
	rt := t.Record

	for _, vs := range s.Views {
		key := record.Key{
			Pool:   rt.Pool,
			Prefix: "view:" + rt.Prefix,
			Local:  vs.Name,
		}
		var v view.View
		switch vs.Kind {
		case ViewQueue:
			v = view.NewQueue(key, rt)
		case ViewStack:
			v = view.NewStack(key, rt)
		case ViewScore:
			v = view.NewScore(key, rt, view.FieldScore(vs.Field), vs.Reverse)
		}
		rt.AddView(v)
		t.Views[vs.Name] = v
	}

	for _, ms := range s.Mirrors {
		pool := ms.Pool
		if pool == "" {
			pool = rt.Pool
		}
		prefix := ms.Prefix
		if prefix == "" {
			prefix = strings.ToLower(s.Name) + "_by_" + ms.Field + ":"
		}
		mt := record.NewType(s.Name+"."+ms.Name, db.Pools,
			record.WithPool(pool),
			record.WithPrefix(prefix),
			record.WithLogger(db.logger),
		)
		m := record.FieldMirror(ms.Name, mt, ms.Field)
		rt.AddMirror(m)
		t.Mirrors[ms.Name] = m
	}

	return t, nil
}
