package record

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/fulldump/recordkv/pool"
	"github.com/fulldump/recordkv/store"
	"github.com/fulldump/recordkv/store/memstore"
)

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.Out = io.Discard
	return logrus.NewEntry(logger)
}

// spyStore counts calls per operation and fails the ones listed in fail.
type spyStore struct {
	store.Store
	calls map[string]int
	fail  map[string]error
}

func newSpyStore() *spyStore {
	return &spyStore{
		Store: memstore.New(),
		calls: map[string]int{},
		fail:  map[string]error{},
	}
}

func (s *spyStore) track(op string) error {
	s.calls[op]++
	return s.fail[op]
}

func (s *spyStore) HSet(ctx context.Context, key, field, value string) error {
	if err := s.track("HSet"); err != nil {
		return err
	}
	return s.Store.HSet(ctx, key, field, value)
}

func (s *spyStore) HDel(ctx context.Context, key string, fields ...string) error {
	if err := s.track("HDel"); err != nil {
		return err
	}
	return s.Store.HDel(ctx, key, fields...)
}

func (s *spyStore) Del(ctx context.Context, keys ...string) error {
	if err := s.track("Del"); err != nil {
		return err
	}
	return s.Store.Del(ctx, keys...)
}

// recordingView remembers every notification it gets.
type recordingView struct {
	appends []appendCall
	removes []string
	err     error
}

type appendCall struct {
	Local string
	IsNew bool
}

func (v *recordingView) Append(ctx context.Context, r *Record, isNew bool) error {
	v.appends = append(v.appends, appendCall{Local: r.Key().Local, IsNew: isNew})
	return v.err
}

func (v *recordingView) Remove(ctx context.Context, r *Record) error {
	v.removes = append(v.removes, r.Key().Local)
	return v.err
}

type userFixture struct {
	spy      *spyStore
	pools    *pool.Registry
	users    *Type
	byEmail  *Type
	mirror   *Mirror
	view     *recordingView
	mirrored *spyStore
}

func newUserFixture() *userFixture {
	f := &userFixture{
		spy:      newSpyStore(),
		mirrored: newSpyStore(),
		view:     &recordingView{},
	}

	f.pools = pool.New(nil)
	f.pools.Add("database", f.spy)
	f.pools.Add("mirrors", f.mirrored)

	f.users = NewType("User", f.pools,
		WithPool("database"),
		WithPrefix("user:"),
		WithRequired("email"),
		WithIndices("email"),
		WithLogger(quietLogger()),
	)

	f.byEmail = NewType("UserByEmail", f.pools,
		WithPool("mirrors"),
		WithPrefix("user_by_email:"),
		WithLogger(quietLogger()),
	)
	f.mirror = FieldMirror("by_email", f.byEmail, "email")

	f.users.AddMirror(f.mirror)
	f.users.AddView(f.view)

	return f
}
