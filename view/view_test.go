package view

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fulldump/biff"
	"github.com/sirupsen/logrus"

	"github.com/fulldump/recordkv/pool"
	"github.com/fulldump/recordkv/record"
)

func newUsers() *record.Type {
	logger := logrus.New()
	logger.Out = io.Discard

	return record.NewType("User", pool.New(nil),
		record.WithRequired("email"),
		record.WithIndices("email"),
		record.WithLogger(logrus.NewEntry(logger)),
	)
}

func save(users *record.Type, fields map[string]any) *record.Record {
	r, err := users.Create(fields)
	biff.AssertNil(err)
	biff.AssertNil(r.Save(context.Background()))
	return r
}

func names(ctx context.Context, v View) []string {
	result := []string{}
	for r, err := range v.All(ctx) {
		biff.AssertNil(err)
		name, _ := r.Get("name")
		result = append(result, name)
	}
	return result
}

func TestQueue_UserScenario(t *testing.T) {

	ctx := context.Background()
	users := newUsers()
	v := NewQueue(users.MakeKey("view:all"), users)
	users.AddView(v)

	invalid, _ := users.Create(map[string]any{"name": "A"})
	biff.AssertTrue(errors.Is(invalid.Save(ctx), record.ErrMissingField))

	r := save(users, map[string]any{"name": "A", "email": "a@x.com"})
	n, err := v.Len(ctx)
	biff.AssertNil(err)
	biff.AssertEqual(n, int64(1))

	biff.AssertNil(r.Set("email", "a2@x.com"))
	biff.AssertNil(r.Save(ctx))

	n, err = v.Len(ctx)
	biff.AssertNil(err)
	biff.AssertEqual(n, int64(1))

	first, err := v.At(ctx, 0)
	biff.AssertNil(err)
	email, _ := first.Get("email")
	biff.AssertEqual(email, "a2@x.com")
}

func TestQueue_Order(t *testing.T) {

	ctx := context.Background()
	users := newUsers()
	v := NewQueue(users.MakeKey("view:queue"), users)
	users.AddView(v)

	save(users, map[string]any{"name": "A", "email": "a@x.com"})
	save(users, map[string]any{"name": "B", "email": "b@x.com"})
	save(users, map[string]any{"name": "C", "email": "c@x.com"})

	biff.AssertEqual(names(ctx, v), []string{"A", "B", "C"})
}

func TestStack_Order(t *testing.T) {

	ctx := context.Background()
	users := newUsers()
	v := NewStack(users.MakeKey("view:stack"), users)
	users.AddView(v)

	save(users, map[string]any{"name": "A", "email": "a@x.com"})
	b := save(users, map[string]any{"name": "B", "email": "b@x.com"})
	save(users, map[string]any{"name": "C", "email": "c@x.com"})

	biff.AssertEqual(names(ctx, v), []string{"C", "B", "A"})

	// updates never reorder
	biff.AssertNil(b.Set("name", "B2"))
	biff.AssertNil(b.Save(ctx))
	biff.AssertEqual(names(ctx, v), []string{"C", "B2", "A"})
}

func TestScore(t *testing.T) {

	ctx := context.Background()

	biff.Alternative("Score", func(a *biff.A) {

		users := newUsers()
		asc := NewScore(users.MakeKey("view:age"), users, FieldScore("age"), false)
		desc := NewScore(users.MakeKey("view:age_desc"), users, FieldScore("age"), true)
		users.AddView(asc).AddView(desc)

		save(users, map[string]any{"name": "A", "email": "a@x.com", "age": 30})
		b := save(users, map[string]any{"name": "B", "email": "b@x.com", "age": 10})
		save(users, map[string]any{"name": "C", "email": "c@x.com", "age": 20})

		biff.AssertEqual(names(ctx, asc), []string{"B", "C", "A"})
		biff.AssertEqual(names(ctx, desc), []string{"A", "C", "B"})

		a.Alternative("rescore on update", func(a *biff.A) {

			biff.AssertNil(b.Set("age", 40))
			biff.AssertNil(b.Save(ctx))

			n, err := asc.Len(ctx)
			biff.AssertNil(err)
			biff.AssertEqual(n, int64(3))
			biff.AssertEqual(names(ctx, asc), []string{"C", "A", "B"})
		})

		a.Alternative("remove", func(a *biff.A) {

			biff.AssertNil(b.Remove(ctx))

			biff.AssertEqual(names(ctx, asc), []string{"C", "A"})
			biff.AssertEqual(names(ctx, desc), []string{"A", "C"})
		})

		a.Alternative("bad score", func(a *biff.A) {

			biff.AssertNil(b.Set("age", "old"))
			err := b.Save(ctx)
			biff.AssertNotNil(err)

			// the primary write landed, the score did not move
			biff.AssertEqual(names(ctx, asc), []string{"B", "C", "A"})
		})
	})
}

func TestScore_NotANumber(t *testing.T) {

	ctx := context.Background()
	users := newUsers()
	asc := NewScore(users.MakeKey("view:age"), users, FieldScore("age"), false)
	users.AddView(asc)

	save(users, map[string]any{"name": "A", "email": "a@x.com", "age": 5})

	b, err := users.Create(map[string]any{"name": "B", "email": "b@x.com", "age": "NaN"})
	biff.AssertNil(err)
	err = b.Save(ctx)
	biff.AssertNotNil(err)
	biff.AssertTrue(strings.Contains(err.Error(), "score field 'age'"))

	save(users, map[string]any{"name": "C", "email": "c@x.com", "age": 1})

	// the record without a valid score stays out, the others keep their order
	biff.AssertEqual(names(ctx, asc), []string{"C", "A"})

	biff.AssertNil(b.Set("age", 3))
	biff.AssertNil(b.Save(ctx))
	biff.AssertEqual(names(ctx, asc), []string{"C", "B", "A"})
}

func TestFieldScore_NotFinite(t *testing.T) {

	users := newUsers()

	for _, value := range []string{"NaN", "Inf", "-Inf", "+Inf"} {
		r := users.New()
		biff.AssertNil(r.Set("age", value))

		_, err := FieldScore("age")(r)
		biff.AssertNotNil(err)
	}
}

func TestFieldScore_Missing(t *testing.T) {

	users := newUsers()
	r := users.New()

	score, err := FieldScore("age")(r)
	biff.AssertNil(err)
	biff.AssertEqual(score, float64(0))
}

func TestRemove_FromList(t *testing.T) {

	ctx := context.Background()
	users := newUsers()
	v := NewQueue(users.MakeKey("view:queue"), users)
	users.AddView(v)

	save(users, map[string]any{"name": "A", "email": "a@x.com"})
	b := save(users, map[string]any{"name": "B", "email": "b@x.com"})

	biff.AssertNil(b.Remove(ctx))

	biff.AssertEqual(names(ctx, v), []string{"A"})
}

func TestAt_OutOfRange(t *testing.T) {

	ctx := context.Background()
	users := newUsers()
	v := NewQueue(users.MakeKey("view:queue"), users)
	users.AddView(v)

	save(users, map[string]any{"name": "A", "email": "a@x.com"})

	_, err := v.At(ctx, 1)
	biff.AssertTrue(errors.Is(err, ErrOutOfRange))

	_, err = v.At(ctx, -1)
	biff.AssertTrue(errors.Is(err, ErrOutOfRange))
}

func TestTraverse(t *testing.T) {

	ctx := context.Background()

	biff.Alternative("Traverse", func(a *biff.A) {

		users := newUsers()
		v := NewQueue(users.MakeKey("view:queue"), users)
		users.AddView(v)

		save(users, map[string]any{"name": "A", "email": "a@x.com"})
		save(users, map[string]any{"name": "B", "email": "b@x.com"})
		save(users, map[string]any{"name": "C", "email": "c@x.com"})

		a.Alternative("stop early", func(a *biff.A) {
			visited := []int64{}
			err := v.Traverse(ctx, func(i int64, r *record.Record) bool {
				visited = append(visited, i)
				return i < 1
			})
			biff.AssertNil(err)
			biff.AssertEqual(visited, []int64{0, 1})
		})

		a.Alternative("restartable", func(a *biff.A) {
			biff.AssertEqual(names(ctx, v), []string{"A", "B", "C"})
			biff.AssertEqual(names(ctx, v), []string{"A", "B", "C"})
		})

		a.Alternative("not a snapshot", func(a *biff.A) {
			seen := []string{}
			for r, err := range v.All(ctx) {
				biff.AssertNil(err)
				name, _ := r.Get("name")
				seen = append(seen, name)
				if name == "A" {
					biff.AssertNil(r.Set("name", "A2"))
					biff.AssertNil(r.Save(ctx))
				}
			}
			biff.AssertEqual(seen, []string{"A", "B", "C"})
			biff.AssertEqual(names(ctx, v), []string{"A2", "B", "C"})
		})

		a.Alternative("cancelled", func(a *biff.A) {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			err := v.Traverse(cancelled, func(i int64, r *record.Record) bool {
				return true
			})
			biff.AssertTrue(errors.Is(err, context.Canceled))
		})
	})
}
