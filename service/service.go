package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fulldump/recordkv/database"
	"github.com/fulldump/recordkv/record"
	"github.com/fulldump/recordkv/utils"
)

type Service struct {
	db *database.Database
}

func NewService(db *database.Database) *Service {
	return &Service{
		db: db,
	}
}

func (s *Service) ListTypes() []*database.TypeSchema {
	result := []*database.TypeSchema{}
	for _, t := range s.db.ListTypes() {
		result = append(result, t.Schema)
	}
	return result
}

func (s *Service) getType(name string) (*database.Type, error) {
	t, exists := s.db.GetType(name)
	if !exists {
		return nil, fmt.Errorf("%w: '%s'", ErrorTypeNotFound, name)
	}
	return t, nil
}

func (s *Service) GetType(name string) (*database.TypeSchema, error) {
	t, err := s.getType(name)
	if err != nil {
		return nil, err
	}
	return t.Schema, nil
}

func (s *Service) CreateType(schema *database.TypeSchema) (*database.TypeSchema, error) {
	_, exists := s.db.GetType(schema.Name)
	if exists {
		return nil, fmt.Errorf("%w: '%s'", ErrorTypeAlreadyExists, schema.Name)
	}
	t, err := s.db.CreateType(schema)
	if err != nil {
		return nil, err
	}
	return t.Schema, nil
}

func (s *Service) DropType(name string) error {
	_, err := s.getType(name)
	if err != nil {
		return err
	}
	return s.db.DropType(name)
}

func (s *Service) CreateRecord(ctx context.Context, typeName string, fields map[string]any) (*Document, error) {
	t, err := s.getType(typeName)
	if err != nil {
		return nil, err
	}

	r, err := t.Record.Create(fields)
	if err != nil {
		return nil, err
	}

	err = r.Save(ctx)
	if r.Key() == nil {
		return nil, err
	}

	// a cascade failure still leaves a saved record behind
	return newDocument(r), err
}

// load returns the record with local key id, ErrorRecordNotFound when it
// has no fields.
func (s *Service) load(ctx context.Context, t *database.Type, id string) (*record.Record, error) {
	r := t.Record.New()
	err := r.LoadLocal(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Len() == 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrorRecordNotFound, id)
	}
	return r, nil
}

func (s *Service) GetRecord(ctx context.Context, typeName, id string) (*Document, error) {
	t, err := s.getType(typeName)
	if err != nil {
		return nil, err
	}
	r, err := s.load(ctx, t, id)
	if err != nil {
		return nil, err
	}
	return newDocument(r), nil
}

func (s *Service) PatchRecord(ctx context.Context, typeName, id string, patch *Patch) (*Document, error) {
	t, err := s.getType(typeName)
	if err != nil {
		return nil, err
	}
	r, err := s.load(ctx, t, id)
	if err != nil {
		return nil, err
	}

	for _, field := range utils.GetKeys(patch.Set) {
		err := r.Set(field, patch.Set[field])
		if err != nil {
			return nil, err
		}
	}
	for _, field := range patch.Delete {
		r.Delete(field)
	}

	err = r.Save(ctx)
	if errors.Is(err, record.ErrMissingField) {
		return nil, err
	}
	return newDocument(r), err
}

func (s *Service) RemoveRecord(ctx context.Context, typeName, id string) error {
	t, err := s.getType(typeName)
	if err != nil {
		return err
	}
	r, err := s.load(ctx, t, id)
	if err != nil {
		return err
	}
	return r.Remove(ctx)
}

func (s *Service) FindBy(ctx context.Context, typeName, field, value string) (*Document, error) {
	t, err := s.getType(typeName)
	if err != nil {
		return nil, err
	}
	r := t.Record.New()
	err = r.LoadByIndex(ctx, field, value)
	if errors.Is(err, record.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrorRecordNotFound, err.Error())
	}
	if err != nil {
		return nil, err
	}
	if r.Len() == 0 {
		return nil, fmt.Errorf("%w: %s '%s'", ErrorRecordNotFound, field, value)
	}
	return newDocument(r), nil
}

func (s *Service) ListView(ctx context.Context, typeName, viewName string, skip, limit int64) (*Page, error) {
	t, err := s.getType(typeName)
	if err != nil {
		return nil, err
	}
	v, exists := t.Views[viewName]
	if !exists {
		return nil, fmt.Errorf("%w: '%s'", ErrorViewNotFound, viewName)
	}

	total, err := v.Len(ctx)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Total:   total,
		Skip:    skip,
		Limit:   limit,
		Records: []*Document{},
	}
	for i := skip; i < total && i < skip+limit; i++ {
		r, err := v.At(ctx, i)
		if err != nil {
			return nil, err
		}
		page.Records = append(page.Records, newDocument(r))
	}

	return page, nil
}

func (s *Service) GetMirror(ctx context.Context, typeName, mirrorName, id string) (*Document, error) {
	t, err := s.getType(typeName)
	if err != nil {
		return nil, err
	}
	m, exists := t.Mirrors[mirrorName]
	if !exists {
		return nil, fmt.Errorf("%w: '%s'", ErrorMirrorNotFound, mirrorName)
	}

	mirrored, err := m.LoadLocal(ctx, id)
	if err != nil {
		return nil, err
	}
	if mirrored.Len() == 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrorRecordNotFound, id)
	}
	return newDocument(mirrored.Record), nil
}

func newDocument(r *record.Record) *Document {
	id := ""
	if k := r.Key(); k != nil {
		id = k.Local
	}
	return &Document{
		Id:     id,
		Fields: r.Fields(),
	}
}

// IsNotFound reports whether err means some named thing does not exist.
func IsNotFound(err error) bool {
	for _, target := range []error{ErrorTypeNotFound, ErrorViewNotFound, ErrorMirrorNotFound, ErrorRecordNotFound, record.ErrNotFound} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
