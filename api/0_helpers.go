package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/recordkv/api/apirecordsv1"
	"github.com/fulldump/recordkv/database"
	"github.com/fulldump/recordkv/record"
	"github.com/fulldump/recordkv/service"
)

var ErrUnavailable = errors.New("temporary unavailable")

type PrettyError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (p PrettyError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"error": struct {
			Message     string `json:"message"`
			Description string `json:"description"`
		}{
			p.Message,
			p.Description,
		},
	})
}

func InterceptorUnavailable(db *database.Database) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {

			status := db.GetStatus()
			if status == database.StatusOpening || status == database.StatusClosing {
				box.SetError(ctx, fmt.Errorf("%w: %s", ErrUnavailable, status))
				return
			}
			next(ctx)
		}
	}
}

// classify maps an error to its HTTP status and a human description.
func classify(ctx context.Context, err error) (int, string) {

	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var missing *record.MissingFieldError

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "user is not authenticated"
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "database is not operating, retry later"
	case errors.Is(err, box.ErrResourceNotFound):
		return http.StatusNotFound, fmt.Sprintf("resource '%s' not found", box.GetRequest(ctx).URL.String())
	case errors.Is(err, box.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, fmt.Sprintf("method '%s' not allowed", box.GetRequest(ctx).Method)
	case errors.As(err, &syntaxError):
		return http.StatusBadRequest, "Malformed JSON"
	case errors.As(err, &typeError):
		return http.StatusBadRequest, "Unexpected JSON type"
	case errors.As(err, &missing):
		return http.StatusBadRequest, "record is missing required fields"
	case errors.Is(err, record.ErrInvalidValue):
		return http.StatusBadRequest, "field values must be scalars"
	case errors.Is(err, record.ErrNotIndexed):
		return http.StatusBadRequest, "lookups need a unique index"
	case errors.Is(err, apirecordsv1.ErrBadParameter):
		return http.StatusBadRequest, "bad query parameter"
	case errors.Is(err, service.ErrorTypeAlreadyExists):
		return http.StatusConflict, "type already exists"
	case errors.Is(err, record.ErrImmutable):
		return http.StatusMethodNotAllowed, "mirrored records are read only"
	case service.IsNotFound(err):
		return http.StatusNotFound, "not found"
	}

	return http.StatusInternalServerError, "Unexpected error"
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)

		status, description := classify(ctx, err)

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(PrettyError{
			Message:     err.Error(),
			Description: description,
		})
	}
}
