package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fulldump/biff"
)

func TestNewType_Defaults(t *testing.T) {

	users := NewType("User", nil)

	biff.AssertEqual(users.Pool, "user")
	biff.AssertEqual(users.Prefix, "user:")
	biff.AssertNotNil(users.Pools)
	biff.AssertEqual(users.IndexKey("email").String(), "index:user:email")
}

func TestCreate(t *testing.T) {

	f := newUserFixture()

	r, err := f.users.Create(map[string]any{
		"name":  "scott",
		"email": "scott@x.com",
	})
	biff.AssertNil(err)

	biff.AssertTrue(r.Has("name"))
	biff.AssertTrue(r.Has("email"))
	biff.AssertEqual(r.Modified(), []string{"email", "name"})
	biff.AssertEqual(len(r.Deleted()), 0)
	biff.AssertNil(r.Key())
}

func TestCreate_InvalidValue(t *testing.T) {

	f := newUserFixture()

	_, err := f.users.Create(map[string]any{"name": nil})
	biff.AssertTrue(errors.Is(err, ErrInvalidValue))
}

func TestSet_Normalizes(t *testing.T) {

	r := newUserFixture().users.New()

	biff.AssertNil(r.Set("int", 42))
	biff.AssertNil(r.Set("float", 2.5))
	biff.AssertNil(r.Set("whole", float64(30)))
	biff.AssertNil(r.Set("bool", true))
	biff.AssertNil(r.Set("bytes", []byte("raw")))
	biff.AssertNil(r.Set("time", time.Date(2012, 1, 2, 3, 4, 5, 0, time.UTC)))

	biff.AssertEqual(r.Fields(), map[string]string{
		"int":   "42",
		"float": "2.5",
		"whole": "30",
		"bool":  "true",
		"bytes": "raw",
		"time":  "2012-01-02T03:04:05Z",
	})
}

func TestSet_RejectsAbsence(t *testing.T) {

	r := newUserFixture().users.New()
	var missing *time.Time

	biff.AssertTrue(errors.Is(r.Set("name", nil), ErrInvalidValue))
	biff.AssertTrue(errors.Is(r.Set("when", missing), ErrInvalidValue))
	biff.AssertTrue(errors.Is(r.Set("tags", []string{"a"}), ErrInvalidValue))
	biff.AssertEqual(r.Len(), 0)
	biff.AssertEqual(len(r.Modified()), 0)
}

func TestSet_OriginalValueIsNoop(t *testing.T) {

	ctx := context.Background()
	f := newUserFixture()

	r, _ := f.users.Create(map[string]any{"name": "A", "email": "a@x.com"})
	biff.AssertNil(r.Save(ctx))
	writes := f.spy.calls["HSet"]

	biff.AssertNil(r.Set("name", "A"))
	biff.AssertEqual(len(r.Modified()), 0)

	// a change reverted by hand is not a change either
	biff.AssertNil(r.Set("name", "B"))
	biff.AssertNil(r.Set("name", "A"))
	biff.AssertEqual(len(r.Modified()), 0)

	biff.AssertNil(r.Save(ctx))
	biff.AssertEqual(f.spy.calls["HSet"], writes)
}

func TestDelete_NeverPersisted(t *testing.T) {

	ctx := context.Background()
	f := newUserFixture()

	r, _ := f.users.Create(map[string]any{"name": "A", "email": "a@x.com"})
	r.Delete("name")

	biff.AssertFalse(r.Has("name"))
	biff.AssertEqual(r.Deleted(), []string{"name"})
	biff.AssertEqual(r.Modified(), []string{"email"})
	biff.AssertEqual(len(r.Marshal().Deleted), 0)

	biff.AssertNil(r.Save(ctx))
	biff.AssertEqual(f.spy.calls["HDel"], 0)
}

func TestDelete_Persisted(t *testing.T) {

	ctx := context.Background()
	f := newUserFixture()

	r, _ := f.users.Create(map[string]any{"name": "A", "email": "a@x.com"})
	biff.AssertNil(r.Save(ctx))

	r.Delete("name")
	biff.AssertEqual(r.Marshal(), Diff{
		Changed: []Change{},
		Deleted: []Deletion{{Field: "name", Prior: "A"}},
	})

	biff.AssertNil(r.Save(ctx))

	loaded := f.users.New()
	biff.AssertNil(loaded.Load(ctx, *r.Key()))
	biff.AssertEqual(loaded.Fields(), map[string]string{"email": "a@x.com"})
}

func TestDelete_ThenSet(t *testing.T) {

	ctx := context.Background()
	f := newUserFixture()

	r, _ := f.users.Create(map[string]any{"name": "A", "email": "a@x.com"})
	biff.AssertNil(r.Save(ctx))

	r.Delete("name")
	biff.AssertNil(r.Set("name", "B"))

	biff.AssertEqual(len(r.Deleted()), 0)
	biff.AssertEqual(r.Modified(), []string{"name"})

	// deleting a field that is not there does nothing
	r.Delete("unknown")
	biff.AssertEqual(len(r.Deleted()), 0)
}

func TestMarshal(t *testing.T) {

	ctx := context.Background()
	f := newUserFixture()

	r, _ := f.users.Create(map[string]any{"name": "A", "email": "a@x.com", "age": 30})
	biff.AssertNil(r.Save(ctx))

	biff.AssertNil(r.Set("email", "b@x.com"))
	biff.AssertNil(r.Set("city", "Madrid"))
	r.Delete("age")

	biff.AssertEqual(r.Marshal(), Diff{
		Changed: []Change{
			{Field: "city", Value: "Madrid"},
			{Field: "email", Value: "b@x.com", Old: "a@x.com", HadOld: true},
		},
		Deleted: []Deletion{
			{Field: "age", Prior: "30"},
		},
	})
}

func TestRevert(t *testing.T) {

	ctx := context.Background()
	f := newUserFixture()

	r, _ := f.users.Create(map[string]any{"name": "A", "email": "a@x.com"})
	biff.AssertNil(r.Save(ctx))

	biff.AssertNil(r.Set("name", "B"))
	biff.AssertNil(r.Set("extra", "x"))
	r.Delete("email")
	r.Revert()

	biff.AssertEqual(r.Fields(), map[string]string{"name": "A", "email": "a@x.com"})
	biff.AssertEqual(len(r.Modified()), 0)
	biff.AssertEqual(len(r.Deleted()), 0)
}

func TestMissing(t *testing.T) {

	r := newUserFixture().users.New()
	biff.AssertEqual(r.Missing(), []string{"email"})
	biff.AssertFalse(r.Valid())

	biff.AssertNil(r.Set("email", ""))
	biff.AssertEqual(r.Missing(), []string{"email"})

	biff.AssertNil(r.Set("email", "a@x.com"))
	biff.AssertTrue(r.Valid())
}

func TestLoad_Missing(t *testing.T) {

	ctx := context.Background()
	f := newUserFixture()

	r := f.users.New()
	biff.AssertNil(r.LoadLocal(ctx, "nobody"))

	biff.AssertEqual(r.Len(), 0)
	biff.AssertNotNil(r.Key())
	biff.AssertEqual(r.Key().String(), "user:nobody")
}

func TestLoad_ReplacesState(t *testing.T) {

	ctx := context.Background()
	f := newUserFixture()

	a, _ := f.users.Create(map[string]any{"name": "A", "email": "a@x.com"})
	biff.AssertNil(a.Save(ctx))

	r, _ := f.users.Create(map[string]any{"pending": "yes"})
	biff.AssertNil(r.Load(ctx, *a.Key()))

	biff.AssertEqual(r.Fields(), map[string]string{"name": "A", "email": "a@x.com"})
	biff.AssertEqual(len(r.Modified()), 0)
}
