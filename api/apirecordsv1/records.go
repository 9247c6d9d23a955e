package apirecordsv1

import (
	"context"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/recordkv/service"
)

func createRecord(ctx context.Context, w http.ResponseWriter, input map[string]any) (*service.Document, error) {

	typeName := box.GetUrlParameter(ctx, "typeName")

	document, err := GetServicer(ctx).CreateRecord(ctx, typeName, input)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return document, nil
}

func getRecord(ctx context.Context) (*service.Document, error) {

	typeName := box.GetUrlParameter(ctx, "typeName")
	recordId := box.GetUrlParameter(ctx, "recordId")

	return GetServicer(ctx).GetRecord(ctx, typeName, recordId)
}

func patchRecord(ctx context.Context, input *service.Patch) (*service.Document, error) {

	typeName := box.GetUrlParameter(ctx, "typeName")
	recordId := box.GetUrlParameter(ctx, "recordId")

	return GetServicer(ctx).PatchRecord(ctx, typeName, recordId, input)
}

func removeRecord(ctx context.Context, w http.ResponseWriter) error {

	typeName := box.GetUrlParameter(ctx, "typeName")
	recordId := box.GetUrlParameter(ctx, "recordId")

	err := GetServicer(ctx).RemoveRecord(ctx, typeName, recordId)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

type findByRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func findBy(ctx context.Context, input *findByRequest) (*service.Document, error) {

	typeName := box.GetUrlParameter(ctx, "typeName")

	return GetServicer(ctx).FindBy(ctx, typeName, input.Field, input.Value)
}
