package health

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

var _ Provider = (*CachedProvider)(nil)

// CachedProvider memoizes aggregate totals of windows that already ended.
// Such history does not change any more, while windows reaching into the
// future (e.g. the current month) are always passed through.
type CachedProvider struct {
	next      Provider
	cache     *freecache.Cache
	epochs    *epochs
	namespace string
	ttl       time.Duration
	now       func() time.Time
}

// epochs counts invalidations per namespace. A total read from next is only
// stored if no invalidation of its namespace happened in the meantime.
type epochs struct {
	mu     sync.Mutex
	counts map[string]uint64
}

func newEpochs() *epochs {
	return &epochs{counts: make(map[string]uint64)}
}

func (e *epochs) current(namespace string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counts[namespace]
}

func (e *epochs) bump(namespace string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counts[namespace]++
}

// setIfCurrent runs set while holding the lock, and only if epoch is still current.
func (e *epochs) setIfCurrent(namespace string, epoch uint64, set func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.counts[namespace] != epoch {
		return false
	}
	set()
	return true
}

// NewCachedProvider wraps next. The cache can be shared between providers,
// namespace (e.g. the device ID) keeps their keys apart.
func NewCachedProvider(next Provider, cache *freecache.Cache, namespace string, ttl time.Duration) *CachedProvider {
	return newCachedProvider(next, cache, newEpochs(), namespace, ttl)
}

func newCachedProvider(next Provider, cache *freecache.Cache, ep *epochs, namespace string, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:      next,
		cache:     cache,
		epochs:    ep,
		namespace: namespace,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (p *CachedProvider) QueryAggregateTotal(ctx context.Context, metric Metric, start, end time.Time) (float64, error) {
	if end.After(p.now()) {
		return p.next.QueryAggregateTotal(ctx, metric, start, end)
	}

	key := p.key(metric, start, end)
	if cached, err := p.cache.Get(key); err == nil && len(cached) == 8 {
		return math.Float64frombits(binary.BigEndian.Uint64(cached)), nil
	} else if err != nil && !errors.Is(err, freecache.ErrNotFound) {
		log.Warnf("health cache get [%s]: %s", key, err)
	}

	epoch := p.epochs.current(p.namespace)
	total, err := p.next.QueryAggregateTotal(ctx, metric, start, end)
	if err != nil {
		return 0, err
	}

	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, math.Float64bits(total))
	stored := p.epochs.setIfCurrent(p.namespace, epoch, func() {
		if err := p.cache.Set(key, value, int(p.ttl.Seconds())); err != nil {
			log.Warnf("health cache set [%s]: %s", key, err)
		}
	})
	if !stored {
		log.Tracef("health cache [%s]: invalidated during query, not stored", key)
	}

	return total, nil
}

func (p *CachedProvider) QueryCategorySamples(ctx context.Context, metric Metric, start, end time.Time) ([]Sample, error) {
	return p.next.QueryCategorySamples(ctx, metric, start, end)
}

func (p *CachedProvider) QueryAuthorization(ctx context.Context, metrics []Metric) error {
	return p.next.QueryAuthorization(ctx, metrics)
}

func (p *CachedProvider) QueryWorkouts(ctx context.Context, start, end time.Time) ([]Workout, error) {
	return p.next.QueryWorkouts(ctx, start, end)
}

// Invalidate drops every cached total of the namespace that overlaps [start, end).
// New samples can be uploaded for past days, so ingestion calls this.
// Queries already in flight will not store their result afterwards.
func (p *CachedProvider) Invalidate(start, end time.Time) {
	p.epochs.bump(p.namespace)

	prefix := p.namespace + "|"
	var stale [][]byte
	it := p.cache.NewIterator()
	for entry := it.Next(); entry != nil; entry = it.Next() {
		key := string(entry.Key)
		if len(key) < len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		var metric string
		var from, to int64
		if _, err := fmt.Sscanf(key[len(prefix):], "%s %d %d", &metric, &from, &to); err != nil {
			continue
		}
		if from < end.Unix() && to > start.Unix() {
			stale = append(stale, entry.Key)
		}
	}

	for _, key := range stale {
		p.cache.Del(key)
	}
}

func (p *CachedProvider) key(metric Metric, start, end time.Time) []byte {
	return []byte(fmt.Sprintf("%s|%s %d %d", p.namespace, metric, start.Unix(), end.Unix()))
}

// ProviderSource returns the uncached provider of a device.
type ProviderSource func(deviceID string) Provider

// DeviceProviders hands out cached per-device providers that share one cache.
type DeviceProviders struct {
	source ProviderSource
	cache  *freecache.Cache
	epochs *epochs
	ttl    time.Duration
}

func NewDeviceProviders(source ProviderSource, cache *freecache.Cache, ttl time.Duration) *DeviceProviders {
	return &DeviceProviders{
		source: source,
		cache:  cache,
		epochs: newEpochs(),
		ttl:    ttl,
	}
}

func (d *DeviceProviders) ForDevice(deviceID string) Provider {
	return newCachedProvider(d.source(deviceID), d.cache, d.epochs, deviceID, d.ttl)
}

// Invalidate drops the cached totals of the device overlapping [start, end).
func (d *DeviceProviders) Invalidate(deviceID string, start, end time.Time) {
	newCachedProvider(nil, d.cache, d.epochs, deviceID, d.ttl).Invalidate(start, end)
}
