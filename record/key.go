package record

import (
	"strings"

	"github.com/google/uuid"
)

// Key addresses one store entry: the pool it lives in and the rendered
// string Prefix+Local. Callers put separators in the prefix.
type Key struct {
	Pool   string
	Prefix string
	Local  string
}

// NewKey builds a key, generating a random local part when local is empty.
func NewKey(pool, prefix, local string) Key {
	if local == "" {
		local = newToken()
	}
	return Key{
		Pool:   pool,
		Prefix: prefix,
		Local:  local,
	}
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (k Key) String() string {
	return k.Prefix + k.Local
}

// Equal reports whether both keys address the same store entry.
func (k Key) Equal(other Key) bool {
	return k.Pool == other.Pool && k.String() == other.String()
}
