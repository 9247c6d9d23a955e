package apirecordsv1

import (
	"context"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/recordkv/database"
)

func listTypes(ctx context.Context) ([]*database.TypeSchema, error) {
	return GetServicer(ctx).ListTypes(), nil
}

func getType(ctx context.Context) (*database.TypeSchema, error) {
	typeName := box.GetUrlParameter(ctx, "typeName")
	return GetServicer(ctx).GetType(typeName)
}

func createType(ctx context.Context, w http.ResponseWriter, input *database.TypeSchema) (*database.TypeSchema, error) {

	schema, err := GetServicer(ctx).CreateType(input)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return schema, nil
}

func dropType(ctx context.Context, w http.ResponseWriter) error {

	typeName := box.GetUrlParameter(ctx, "typeName")

	err := GetServicer(ctx).DropType(typeName)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
