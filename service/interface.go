package service

import (
	"context"
	"errors"

	"github.com/fulldump/recordkv/database"
)

var (
	ErrorTypeNotFound      = errors.New("type not found")
	ErrorTypeAlreadyExists = errors.New("type already exists")
	ErrorViewNotFound      = errors.New("view not found")
	ErrorMirrorNotFound    = errors.New("mirror not found")
	ErrorRecordNotFound    = errors.New("record not found")
)

type Servicer interface {
	ListTypes() []*database.TypeSchema
	GetType(name string) (*database.TypeSchema, error)
	CreateType(schema *database.TypeSchema) (*database.TypeSchema, error)
	DropType(name string) error

	CreateRecord(ctx context.Context, typeName string, fields map[string]any) (*Document, error)
	GetRecord(ctx context.Context, typeName, id string) (*Document, error)
	PatchRecord(ctx context.Context, typeName, id string, patch *Patch) (*Document, error)
	RemoveRecord(ctx context.Context, typeName, id string) error
	FindBy(ctx context.Context, typeName, field, value string) (*Document, error)

	ListView(ctx context.Context, typeName, viewName string, skip, limit int64) (*Page, error)
	GetMirror(ctx context.Context, typeName, mirrorName, id string) (*Document, error)
}

// Document is a record as seen from outside: its local key and fields.
type Document struct {
	Id     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// Patch sets and deletes fields of an existing record in one save.
type Patch struct {
	Set    map[string]any `json:"set"`
	Delete []string       `json:"delete"`
}

type Page struct {
	Total   int64       `json:"total"`
	Skip    int64       `json:"skip"`
	Limit   int64       `json:"limit"`
	Records []*Document `json:"records"`
}
