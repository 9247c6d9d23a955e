// Package record maps dirty-tracked records onto store hashes and cascades
// every save and remove to the record's unique indices, mirrors and views.
//
// A record keeps the fields as last loaded or saved (original), the live
// fields, the set of modified field names and the deleted fields with their
// prior values. Save writes only the difference between both states.
package record

import (
	"context"
	"encoding"
	"fmt"
	"reflect"
	"strconv"

	"github.com/fulldump/recordkv/utils"
)

type Record struct {
	typ      *Type
	key      *Key
	fields   map[string]string
	original map[string]string
	modified map[string]struct{}
	// deleted holds the persisted value of each deleted field, nil when the
	// field was never persisted.
	deleted map[string]*string
}

func (r *Record) reset() {
	r.key = nil
	r.fields = map[string]string{}
	r.original = map[string]string{}
	r.modified = map[string]struct{}{}
	r.deleted = map[string]*string{}
}

func (r *Record) Type() *Type {
	return r.typ
}

// Key returns a copy of the record key, nil until the record is saved or
// loaded.
func (r *Record) Key() *Key {
	if r.key == nil {
		return nil
	}
	k := *r.key
	return &k
}

// SetKey makes the next Save write to k as an update of an existing record.
func (r *Record) SetKey(k Key) {
	r.key = &k
}

func (r *Record) Get(field string) (string, bool) {
	value, exists := r.fields[field]
	return value, exists
}

func (r *Record) Has(field string) bool {
	_, exists := r.fields[field]
	return exists
}

func (r *Record) Len() int {
	return len(r.fields)
}

func (r *Record) Fields() map[string]string {
	return copyFields(r.fields)
}

func (r *Record) Modified() []string {
	return utils.GetKeys(r.modified)
}

func (r *Record) Deleted() []string {
	return utils.GetKeys(r.deleted)
}

// Set assigns value, normalized to its string form, to field. Assigning the
// value the field was loaded with drops any pending change on that field.
func (r *Record) Set(field string, value any) error {
	s, err := normalize(value)
	if err != nil {
		return fmt.Errorf("set '%s': %w", field, err)
	}

	r.fields[field] = s
	delete(r.deleted, field)

	if original, exists := r.original[field]; exists && original == s {
		delete(r.modified, field)
		return nil
	}

	r.modified[field] = struct{}{}
	return nil
}

// Delete removes field. Only fields that were persisted will be deleted
// from the store on Save.
func (r *Record) Delete(field string) {
	if _, exists := r.fields[field]; !exists {
		return
	}
	delete(r.fields, field)
	delete(r.modified, field)

	if prior, exists := r.original[field]; exists {
		r.deleted[field] = &prior
	} else {
		r.deleted[field] = nil
	}
}

func (r *Record) Valid() bool {
	return len(r.Missing()) == 0
}

// Missing lists required fields that are absent or empty.
func (r *Record) Missing() []string {
	missing := []string{}
	for _, field := range r.typ.Required {
		if r.fields[field] == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// Revert discards every pending change.
func (r *Record) Revert() {
	r.fields = copyFields(r.original)
	r.modified = map[string]struct{}{}
	r.deleted = map[string]*string{}
}

type Change struct {
	Field string
	Value string
	// Old is the persisted value, meaningful only when HadOld is set.
	Old    string
	HadOld bool
}

type Deletion struct {
	Field string
	Prior string
}

// Diff is what Save writes: the same diff goes to the primary key and to
// every mirror.
type Diff struct {
	Changed []Change
	Deleted []Deletion
}

func (d Diff) Empty() bool {
	return len(d.Changed) == 0 && len(d.Deleted) == 0
}

// Marshal computes the pending diff against the persisted state.
func (r *Record) Marshal() Diff {
	diff := Diff{
		Changed: []Change{},
		Deleted: []Deletion{},
	}

	for _, field := range utils.GetKeys(r.modified) {
		value, exists := r.fields[field]
		if !exists {
			continue
		}
		old, hadOld := r.original[field]
		diff.Changed = append(diff.Changed, Change{
			Field:  field,
			Value:  value,
			Old:    old,
			HadOld: hadOld,
		})
	}

	for _, field := range utils.GetKeys(r.deleted) {
		prior := r.deleted[field]
		if prior == nil {
			continue
		}
		diff.Deleted = append(diff.Deleted, Deletion{
			Field: field,
			Prior: *prior,
		})
	}

	return diff
}

// commit makes the live fields the new baseline.
func (r *Record) commit() {
	r.modified = map[string]struct{}{}
	r.deleted = map[string]*string{}
	r.original = copyFields(r.fields)
}

// Load replaces the record state with the hash stored at k. A missing hash
// loads as an empty record that keeps k.
func (r *Record) Load(ctx context.Context, k Key) error {
	r.reset()

	s, err := r.typ.Store(k)
	if err != nil {
		return err
	}

	values, err := s.HGetAll(ctx, k.String())
	if err != nil {
		return fmt.Errorf("load %s: %w", k, err)
	}

	r.original = values
	r.Revert()
	r.key = &k

	return nil
}

// LoadLocal loads the record whose key in this type is local.
func (r *Record) LoadLocal(ctx context.Context, local string) error {
	return r.Load(ctx, r.typ.MakeKey(local))
}

// LoadByIndex loads the record whose indexed field holds value.
func (r *Record) LoadByIndex(ctx context.Context, field, value string) error {
	if !r.typ.IsIndexed(field) {
		return fmt.Errorf("field '%s' is %w", field, ErrNotIndexed)
	}

	index := r.typ.IndexKey(field)
	s, err := r.typ.Store(index)
	if err != nil {
		return err
	}

	local, found, err := s.HGet(ctx, index.String(), value)
	if err != nil {
		return fmt.Errorf("lookup %s '%s': %w", field, value, err)
	}
	if !found {
		r.reset()
		return fmt.Errorf("%s '%s': %w", field, value, ErrNotFound)
	}

	return r.LoadLocal(ctx, local)
}

func normalize(value any) (string, error) {
	if value == nil {
		return "", fmt.Errorf("%w: nil, use Delete to remove a field", ErrInvalidValue)
	}
	if v := reflect.ValueOf(value); v.Kind() == reflect.Pointer && v.IsNil() {
		return "", fmt.Errorf("%w: nil %T, use Delete to remove a field", ErrInvalidValue, value)
	}

	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case encoding.TextMarshaler:
		b, err := v.MarshalText()
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrInvalidValue, err.Error())
		}
		return string(b), nil
	case fmt.Stringer:
		return v.String(), nil
	}

	return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, value)
}

func copyFields(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
