// Package metrics instruments stores with prometheus counters and latency
// histograms, labelled by pool and operation.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fulldump/recordkv/pool"
	"github.com/fulldump/recordkv/store"
)

type Collector struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

func New() *Collector {
	return &Collector{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recordkv",
			Subsystem: "store",
			Name:      "operations",
		}, []string{"pool", "op", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recordkv",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"pool", "op"}),
	}
}

func (c *Collector) Register(r prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{c.Operations, c.Duration} {
		err := r.Register(collector)
		if err != nil {
			return err
		}
	}
	return nil
}

// Factory instruments every store opened by f.
func (c *Collector) Factory(f pool.Factory) pool.Factory {
	if f == nil {
		f = pool.MemoryFactory
	}
	return func(name string) (store.Store, error) {
		s, err := f(name)
		if err != nil {
			return nil, err
		}
		return c.Wrap(name, s), nil
	}
}

func (c *Collector) Wrap(poolName string, s store.Store) *Store {
	return &Store{
		next:      s,
		pool:      poolName,
		collector: c,
	}
}

func (c *Collector) observe(poolName, op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Operations.WithLabelValues(poolName, op, result).Inc()
	c.Duration.WithLabelValues(poolName, op).Observe(time.Since(start).Seconds())
}

// Store forwards every call to the wrapped store and records it.
type Store struct {
	next      store.Store
	pool      string
	collector *Collector
}

func (s *Store) Unwrap() store.Store {
	return s.next
}

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	start := time.Now()
	values, err := s.next.HGetAll(ctx, key)
	s.collector.observe(s.pool, "hgetall", start, err)
	return values, err
}

func (s *Store) HGet(ctx context.Context, key, field string) (string, bool, error) {
	start := time.Now()
	value, found, err := s.next.HGet(ctx, key, field)
	s.collector.observe(s.pool, "hget", start, err)
	return value, found, err
}

func (s *Store) HSet(ctx context.Context, key, field, value string) error {
	start := time.Now()
	err := s.next.HSet(ctx, key, field, value)
	s.collector.observe(s.pool, "hset", start, err)
	return err
}

func (s *Store) HDel(ctx context.Context, key string, fields ...string) error {
	start := time.Now()
	err := s.next.HDel(ctx, key, fields...)
	s.collector.observe(s.pool, "hdel", start, err)
	return err
}

func (s *Store) LPush(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.next.LPush(ctx, key, value)
	s.collector.observe(s.pool, "lpush", start, err)
	return err
}

func (s *Store) RPush(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.next.RPush(ctx, key, value)
	s.collector.observe(s.pool, "rpush", start, err)
	return err
}

func (s *Store) LLen(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	n, err := s.next.LLen(ctx, key)
	s.collector.observe(s.pool, "llen", start, err)
	return n, err
}

func (s *Store) LIndex(ctx context.Context, key string, i int64) (string, bool, error) {
	start := time.Now()
	value, found, err := s.next.LIndex(ctx, key, i)
	s.collector.observe(s.pool, "lindex", start, err)
	return value, found, err
}

func (s *Store) LRem(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.next.LRem(ctx, key, value)
	s.collector.observe(s.pool, "lrem", start, err)
	return err
}

func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	start := time.Now()
	err := s.next.ZAdd(ctx, key, score, member)
	s.collector.observe(s.pool, "zadd", start, err)
	return err
}

func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	n, err := s.next.ZCard(ctx, key)
	s.collector.observe(s.pool, "zcard", start, err)
	return n, err
}

func (s *Store) ZAt(ctx context.Context, key string, i int64, reverse bool) (string, bool, error) {
	start := time.Now()
	member, found, err := s.next.ZAt(ctx, key, i, reverse)
	s.collector.observe(s.pool, "zat", start, err)
	return member, found, err
}

func (s *Store) ZRem(ctx context.Context, key, member string) error {
	start := time.Now()
	err := s.next.ZRem(ctx, key, member)
	s.collector.observe(s.pool, "zrem", start, err)
	return err
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := s.next.Del(ctx, keys...)
	s.collector.observe(s.pool, "del", start, err)
	return err
}

func (s *Store) Close() error {
	return s.next.Close()
}
