package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
	"github.com/fulldump/box/boxopenapi"

	"github.com/fulldump/recordkv/api/apirecordsv1"
	"github.com/fulldump/recordkv/service"
)

// Build mounts the record API under /v1. Requests need X-Api-Key and
// X-Api-Secret when apiKey is set. metrics is served at /metrics when not
// nil.
func Build(s service.Servicer, version, apiKey, apiSecret string, metrics http.Handler) *box.B {

	b := box.NewBox()

	v1 := b.Resource("/v1")
	v1.WithInterceptors(
		box.SetResponseHeader("Content-Type", "application/json"),
		Authenticate(apiKey, apiSecret),
	)

	apirecordsv1.BuildV1Records(v1, s).
		WithInterceptors(
			injectServicer(s),
		)

	b.Resource("/v1/*").
		WithActions(box.AnyMethod(func(w http.ResponseWriter) interface{} {
			w.WriteHeader(http.StatusNotImplemented)
			return PrettyError{
				Message:     "not implemented",
				Description: "this endpoint does not exist, please check the documentation",
			}
		}).WithName("notImplemented"))

	b.Resource("/release").
		WithActions(box.Get(func() string {
			return version
		}).WithName("release"))

	if metrics != nil {
		b.Handle("GET", "/metrics", metrics.ServeHTTP)
	}

	spec := boxopenapi.Spec(b)
	spec.Info.Title = "RecordKV"
	spec.Info.Description = "Dirty-tracked records over a key-value store, with views, mirrors and unique indices."
	spec.Info.Contact = &boxopenapi.Contact{
		Url: "https://github.com/fulldump/recordkv/issues/new",
	}
	b.Handle("GET", "/openapi.json", func(r *http.Request) any {

		spec.Servers = []boxopenapi.Server{
			{
				Url: "https://" + r.Host,
			},
			{
				Url: "http://" + r.Host,
			},
		}

		return spec
	})

	return b
}

func injectServicer(s service.Servicer) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(apirecordsv1.SetServicer(ctx, s))
		}
	}
}
