// Package pool resolves pool names to store connections.
package pool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fulldump/recordkv/store"
	"github.com/fulldump/recordkv/store/memstore"
)

// Factory opens the store for a pool that was never added explicitly.
type Factory func(name string) (store.Store, error)

// MemoryFactory gives every unknown pool its own in-process store.
func MemoryFactory(name string) (store.Store, error) {
	return memstore.New(), nil
}

type Registry struct {
	factory Factory
	stores  map[string]store.Store
	mutex   *sync.Mutex
}

func New(factory Factory) *Registry {
	if factory == nil {
		factory = MemoryFactory
	}
	return &Registry{
		factory: factory,
		stores:  map[string]store.Store{},
		mutex:   &sync.Mutex{},
	}
}

// Add registers s under name, replacing any previous store. The replaced
// store is not closed.
func (r *Registry) Add(name string, s store.Store) {
	r.mutex.Lock()
	r.stores[name] = s
	r.mutex.Unlock()
}

// Get returns the store for name, opening it with the factory on first use.
func (r *Registry) Get(name string) (store.Store, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s, exists := r.stores[name]
	if exists {
		return s, nil
	}

	s, err := r.factory(name)
	if err != nil {
		return nil, fmt.Errorf("open pool '%s': %w", name, err)
	}
	r.stores[name] = s

	return s, nil
}

func (r *Registry) Names() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	names := []string{}
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every store and forgets them. The last error is returned.
func (r *Registry) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var lastErr error
	for name, s := range r.stores {
		err := s.Close()
		if err != nil {
			lastErr = fmt.Errorf("close pool '%s': %w", name, err)
		}
	}
	r.stores = map[string]store.Store{}

	return lastErr
}
