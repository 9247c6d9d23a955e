package api

import (
	"io"
	"testing"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
	"github.com/sirupsen/logrus"

	"github.com/fulldump/recordkv/database"
	"github.com/fulldump/recordkv/service"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestAcceptance(t *testing.T) {

	biff.Alternative("Setup", func(a *biff.A) {

		logger := quietLogger()
		db := database.NewDatabase(&database.Config{
			Dir:    t.TempDir(),
			Logger: logger,
		})

		biff.AssertNil(db.Load())
		biff.AssertEqual(db.GetStatus(), database.StatusOperating)
		defer db.Stop()

		s := service.NewService(db)

		b := Build(s, "test", "", "", nil)
		b.WithInterceptors(
			InterceptorUnavailable(db),
			RecoverFromPanic(logger),
			PrettyErrorInterceptor,
		)

		api := apitest.NewWithHandler(b)

		service.Acceptance(a, func(method, path string) *apitest.Request {
			return api.Request(method, "/v1"+path)
		})

	})
}

func TestUnavailable(t *testing.T) {

	db := database.NewDatabase(&database.Config{
		Dir:    t.TempDir(),
		Logger: quietLogger(),
	})

	b := Build(service.NewService(db), "test", "", "", nil)
	b.WithInterceptors(
		InterceptorUnavailable(db),
		PrettyErrorInterceptor,
	)

	resp := apitest.NewWithHandler(b).Request("GET", "/v1/types").Do()
	biff.AssertEqual(resp.StatusCode, 503)
	biff.AssertEqualJson(resp.BodyJson(), map[string]any{
		"error": map[string]any{
			"message":     "temporary unavailable: opening",
			"description": "database is not operating, retry later",
		},
	})
}

func TestRelease(t *testing.T) {

	db := database.NewDatabase(&database.Config{
		Dir:    t.TempDir(),
		Logger: quietLogger(),
	})

	b := Build(service.NewService(db), "v1.2.3", "", "", nil)

	resp := apitest.NewWithHandler(b).Request("GET", "/release").Do()
	biff.AssertEqual(resp.StatusCode, 200)
	biff.AssertEqual(resp.BodyJson(), "v1.2.3")
}

func TestNotImplemented(t *testing.T) {

	db := database.NewDatabase(&database.Config{
		Dir:    t.TempDir(),
		Logger: quietLogger(),
	})
	biff.AssertNil(db.Load())
	defer db.Stop()

	b := Build(service.NewService(db), "test", "", "", nil)
	b.WithInterceptors(PrettyErrorInterceptor)

	resp := apitest.NewWithHandler(b).Request("GET", "/v1/nothing/here").Do()
	biff.AssertEqual(resp.StatusCode, 501)
	biff.AssertEqualJson(resp.BodyJson(), map[string]any{
		"error": map[string]any{
			"message":     "not implemented",
			"description": "this endpoint does not exist, please check the documentation",
		},
	})
}
