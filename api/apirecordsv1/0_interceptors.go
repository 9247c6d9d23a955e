package apirecordsv1

import (
	"context"

	"github.com/fulldump/recordkv/service"
)

const ContextServicerKey = "4b2d51c6-1f0e-4c8a-9a43-0f3e6d5b7a12"

func SetServicer(ctx context.Context, s service.Servicer) context.Context {
	return context.WithValue(ctx, ContextServicerKey, s)
}

func GetServicer(ctx context.Context) service.Servicer {
	return ctx.Value(ContextServicerKey).(service.Servicer)
}
