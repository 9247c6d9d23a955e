package apirecordsv1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fulldump/box"

	"github.com/fulldump/recordkv/service"
)

const defaultLimit = 20

func listView(ctx context.Context, r *http.Request) (*service.Page, error) {

	typeName := box.GetUrlParameter(ctx, "typeName")
	viewName := box.GetUrlParameter(ctx, "viewName")

	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		return nil, err
	}
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil {
		return nil, err
	}

	return GetServicer(ctx).ListView(ctx, typeName, viewName, skip, limit)
}

func getMirror(ctx context.Context) (*service.Document, error) {

	typeName := box.GetUrlParameter(ctx, "typeName")
	mirrorName := box.GetUrlParameter(ctx, "mirrorName")
	recordId := box.GetUrlParameter(ctx, "recordId")

	return GetServicer(ctx).GetMirror(ctx, typeName, mirrorName, recordId)
}

// ErrBadParameter is returned for malformed query parameters.
var ErrBadParameter = errors.New("bad parameter")

func queryInt(r *http.Request, name string, defaultValue int64) (int64, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: '%s' must be a non negative integer", ErrBadParameter, name)
	}
	return n, nil
}
