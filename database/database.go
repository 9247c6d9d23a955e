package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fulldump/recordkv/metrics"
	"github.com/fulldump/recordkv/pool"
	"github.com/fulldump/recordkv/store"
	"github.com/fulldump/recordkv/store/boltstore"
	"github.com/fulldump/recordkv/store/memstore"
	"github.com/fulldump/recordkv/store/redisstore"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

const (
	BackendMemory  = "memory"
	BackendJournal = "journal"
	BackendBolt    = "bolt"
	BackendRedis   = "redis"
)

type Config struct {
	Backend string
	Dir     string
	// Schema is the catalog file. Empty keeps the catalog in memory only.
	Schema string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Metrics *metrics.Collector
	Logger  *logrus.Entry
}

type Database struct {
	config *Config
	status string
	logger *logrus.Entry

	Pools *pool.Registry
	Types map[string]*Type
	mutex *sync.RWMutex

	exit chan struct{}
}

func NewDatabase(config *Config) *Database {
	logger := config.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	db := &Database{
		config: config,
		status: StatusOpening,
		logger: logger,
		Types:  map[string]*Type{},
		mutex:  &sync.RWMutex{},
		exit:   make(chan struct{}),
	}

	factory := db.factory()
	if config.Metrics != nil {
		factory = config.Metrics.Factory(factory)
	}
	db.Pools = pool.New(factory)

	return db
}

// factory opens one store per pool name for the configured backend.
func (db *Database) factory() pool.Factory {
	c := db.config
	switch c.Backend {
	case BackendJournal:
		return func(name string) (store.Store, error) {
			return memstore.Open(filepath.Join(c.Dir, name+".journal"))
		}
	case BackendBolt:
		return func(name string) (store.Store, error) {
			return boltstore.Open(filepath.Join(c.Dir, name+".bolt"), boltstore.Options{
				Timeout: time.Second,
			})
		}
	case BackendRedis:
		return func(name string) (store.Store, error) {
			return redisstore.New(&redis.Options{
				Addr:     c.RedisAddr,
				Password: c.RedisPassword,
				DB:       c.RedisDB,
			}), nil
		}
	}
	return pool.MemoryFactory
}

func (db *Database) GetStatus() string {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.status
}

func (db *Database) setStatus(status string) {
	db.mutex.Lock()
	db.status = status
	db.mutex.Unlock()
}

func (db *Database) GetType(name string) (*Type, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	t, exists := db.Types[name]
	return t, exists
}

// ListTypes returns the types sorted by name.
func (db *Database) ListTypes() []*Type {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	result := make([]*Type, 0, len(db.Types))
	for _, t := range db.Types {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Schema.Name < result[j].Schema.Name
	})
	return result
}

// CreateType builds and registers a new type, persisting the catalog when
// it has a file.
func (db *Database) CreateType(s *TypeSchema) (*Type, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	_, exists := db.Types[s.Name]
	if exists {
		return nil, fmt.Errorf("type '%s' already exists", s.Name)
	}

	t, err := db.build(s)
	if err != nil {
		return nil, err
	}
	db.Types[s.Name] = t

	err = db.writeCatalog()
	if err != nil {
		delete(db.Types, s.Name)
		return nil, err
	}

	return t, nil
}

// DropType forgets a type. Stored records are left untouched.
func (db *Database) DropType(name string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	t, exists := db.Types[name]
	if !exists {
		return fmt.Errorf("type '%s' not found", name)
	}
	delete(db.Types, name)

	err := db.writeCatalog()
	if err != nil {
		db.Types[name] = t
		return err
	}

	return nil
}

func (db *Database) catalog() *Catalog {
	c := &Catalog{Types: []*TypeSchema{}}
	for _, t := range db.Types {
		c.Types = append(c.Types, t.Schema)
	}
	sort.Slice(c.Types, func(i, j int) bool {
		return c.Types[i].Name < c.Types[j].Name
	})
	return c
}

func (db *Database) writeCatalog() error {
	if db.config.Schema == "" {
		return nil
	}
	return WriteCatalog(db.config.Schema, db.catalog())
}

// Load prepares the data directory and builds every type in the catalog.
func (db *Database) Load() error {

	db.logger.WithFields(logrus.Fields{
		"backend": db.config.Backend,
		"dir":     db.config.Dir,
	}).Info("loading database")

	if db.config.Dir != "" {
		err := os.MkdirAll(db.config.Dir, 0755)
		if err != nil {
			db.setStatus(StatusClosing)
			return err
		}
	}

	catalog := &Catalog{}
	if db.config.Schema != "" {
		var err error
		catalog, err = ReadCatalog(db.config.Schema)
		if err != nil {
			db.setStatus(StatusClosing)
			return err
		}
	}

	db.mutex.Lock()
	for _, s := range catalog.Types {
		t0 := time.Now()
		t, err := db.build(s)
		if err != nil {
			db.mutex.Unlock()
			db.setStatus(StatusClosing)
			return err
		}
		db.Types[s.Name] = t
		db.logger.WithField("type", s.Name).WithField("took", time.Since(t0).String()).Info("type ready")
	}
	db.mutex.Unlock()

	db.setStatus(StatusOperating)

	return nil
}

func (db *Database) Start() error {

	go func() {
		err := db.Load()
		if err != nil {
			db.logger.WithError(err).Error("load database")
		}
	}()

	<-db.exit

	return nil
}

func (db *Database) Stop() error {

	defer close(db.exit)

	db.setStatus(StatusClosing)

	for _, name := range db.Pools.Names() {
		db.logger.WithField("pool", name).Info("closing pool")
	}

	err := db.Pools.Close()
	if err != nil {
		db.logger.WithError(err).Error("close pools")
	}

	return err
}
