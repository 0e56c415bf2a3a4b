// Package querycache memoizes remote reads by key, shares in-flight fetches,
// and lets mutations invalidate or overwrite entries so observers see fresh data.
package querycache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"pulsecart/internal/resilience"
	"pulsecart/internal/telemetry"
)

const (
	DefaultRetries    = 3
	DefaultRetryDelay = time.Second
)

type Options struct {
	// Retries is the number of extra attempts after a failed read.
	Retries    int
	RetryDelay time.Duration
	// Retryable filters errors worth another attempt; nil retries everything.
	Retryable func(error) bool
	Logger    zerolog.Logger
	Now       func() time.Time
}

type fetchFunc func(ctx context.Context) (any, error)

type entry struct {
	key       Key
	data      any
	hasData   bool
	status    Status
	err       error
	updatedAt time.Time
	staleTime time.Duration
	fetch     fetchFunc

	invalidated bool
	// markPending is set by Invalidate and cleared once a fetch starts,
	// so repeated marks with no fetch in between collapse into one.
	markPending bool
	fetching    bool
	fetchGen    uint64
	fetchID     uint64
	version     uint64
}

type subscriber struct {
	mu       sync.Mutex
	onChange func(Snapshot)
	last     uint64
}

func (s *subscriber) deliver(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.version <= s.last {
		return
	}
	s.last = snap.version
	s.onChange(snap)
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	// gens survive removal so a fetch started before Remove cannot resurrect the entry.
	gens     map[string]uint64
	subs     map[string]map[uint64]*subscriber
	nextSub  uint64
	version  uint64
	fetchSeq uint64
	group    singleflight.Group

	retries    int
	retryDelay time.Duration
	retryable  func(error) bool
	log        zerolog.Logger
	now        func() time.Time
}

func New(opts Options) *Cache {
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		entries:    make(map[string]*entry),
		gens:       make(map[string]uint64),
		subs:       make(map[string]map[uint64]*subscriber),
		retries:    opts.Retries,
		retryDelay: opts.RetryDelay,
		retryable:  opts.Retryable,
		log:        opts.Logger.With().Str("component", "querycache").Logger(),
		now:        opts.Now,
	}
}

// Ensure returns the cached value for q when it is fresh, otherwise it fetches,
// joining a fetch already in flight for the same key.
func Ensure[T any](ctx context.Context, c *Cache, q Query[T]) (T, error) {
	v, err := c.ensure(ctx, q.Key, q.fetcher(), q.StaleTime)
	if err != nil {
		var zero T
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}

func (c *Cache) ensure(ctx context.Context, key Key, fetch fetchFunc, staleTime time.Duration) (any, error) {
	k := key.String()

	c.mu.Lock()
	e := c.entries[k]
	if e != nil && e.hasData && !c.staleLocked(e, staleTime) {
		data := e.data
		c.mu.Unlock()
		telemetry.QueryLookupsTotal.WithLabelValues(key.Family(), "hit").Inc()
		return data, nil
	}

	result := "miss"
	if e != nil && e.fetching && e.fetchGen == c.gens[k] {
		result = "joined"
	}
	ch := c.startFetchLocked(ctx, key, fetch, staleTime)
	c.mu.Unlock()
	telemetry.QueryLookupsTotal.WithLabelValues(key.Family(), result).Inc()

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// startFetchLocked begins or joins the fetch for the current generation of key.
// The fetch runs detached from ctx's cancellation; callers that give up only stop waiting.
func (c *Cache) startFetchLocked(ctx context.Context, key Key, fetch fetchFunc, staleTime time.Duration) <-chan singleflight.Result {
	k := key.String()
	gen := c.gens[k]
	e := c.entryLocked(key)
	e.fetch = fetch
	e.staleTime = staleTime
	e.markPending = false

	if !e.fetching || e.fetchGen != gen {
		c.fetchSeq++
		e.fetching = true
		e.fetchGen = gen
		e.fetchID = c.fetchSeq
		e.status = StatusLoading
		c.log.Debug().Str("key", k).Uint64("generation", gen).Msg("fetch started")
		c.notifyLocked(e)
	}

	fetchCtx := c.log.WithContext(context.WithoutCancel(ctx))
	return c.group.DoChan(k+"#"+strconv.FormatUint(e.fetchID, 10), func() (any, error) {
		return c.runFetch(fetchCtx, key, gen, fetch)
	})
}

func (c *Cache) runFetch(ctx context.Context, key Key, gen uint64, fetch fetchFunc) (any, error) {
	var val any
	err := resilience.RetryIf(ctx, c.retries+1, c.retryDelay, c.retryable, func() error {
		v, err := fetch(ctx)
		if err != nil {
			return err
		}
		val = v
		return nil
	})

	k := key.String()
	c.mu.Lock()
	e := c.entries[k]
	if c.gens[k] != gen || e == nil {
		c.mu.Unlock()
		telemetry.QueryFetchesTotal.WithLabelValues(key.Family(), "discarded").Inc()
		c.log.Debug().Str("key", k).Uint64("generation", gen).Msg("superseded fetch discarded")
		return val, err
	}

	e.fetching = false
	if err != nil {
		e.status = StatusError
		e.err = err
		telemetry.QueryFetchesTotal.WithLabelValues(key.Family(), "error").Inc()
		c.log.Warn().Err(err).Str("key", k).Msg("fetch failed")
	} else {
		e.data = val
		e.hasData = true
		e.status = StatusSuccess
		e.err = nil
		e.updatedAt = c.now()
		e.invalidated = false
		telemetry.QueryFetchesTotal.WithLabelValues(key.Family(), "success").Inc()
	}
	c.notifyLocked(e)
	c.mu.Unlock()
	return val, err
}

// Invalidate marks the entry stale. Observed entries refetch right away;
// unobserved ones refetch on their next Ensure. Marking an entry that is
// already marked and has not been fetched since is a no-op.
func (c *Cache) Invalidate(key Key) {
	k := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[k]
	if e == nil || e.markPending {
		return
	}

	c.gens[k]++
	e.invalidated = true
	e.markPending = true
	e.fetching = false
	telemetry.QueryInvalidationsTotal.WithLabelValues(key.Family(), "invalidate").Inc()
	c.log.Debug().Str("key", k).Msg("invalidated")

	if len(c.subs[k]) > 0 && e.fetch != nil {
		c.startFetchLocked(context.Background(), key, e.fetch, e.staleTime)
		return
	}
	if e.status == StatusLoading {
		e.status = c.settledStatus(e)
	}
	c.notifyLocked(e)
}

// Remove evicts the entry; observers are told the key is back to idle.
func (c *Cache) Remove(key Key) {
	k := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[k]++
	if _, ok := c.entries[k]; !ok {
		return
	}
	delete(c.entries, k)
	telemetry.QueryInvalidationsTotal.WithLabelValues(key.Family(), "remove").Inc()
	c.log.Debug().Str("key", k).Msg("removed")

	c.version++
	snap := Snapshot{Key: k, Status: StatusIdle, Stale: true, version: c.version}
	c.broadcastLocked(k, snap)
}

// SetData overwrites the entry with value as a fresh success.
func (c *Cache) SetData(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(c.entryLocked(key), value)
}

// SetQueryData is SetData that also records q's fetcher and freshness,
// so a later invalidation can refetch the key.
func SetQueryData[T any](c *Cache, q Query[T], value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(q.Key)
	e.fetch = q.fetcher()
	e.staleTime = q.StaleTime
	c.setLocked(e, value)
}

func (c *Cache) setLocked(e *entry, value any) {
	k := e.key.String()
	c.gens[k]++
	e.data = value
	e.hasData = true
	e.status = StatusSuccess
	e.err = nil
	e.updatedAt = c.now()
	e.invalidated = false
	e.markPending = false
	e.fetching = false
	c.notifyLocked(e)
}

// GetData returns the cached value without fetching.
func GetData[T any](c *Cache, key Key) (T, bool) {
	return Data[T](c.Snapshot(key))
}

func (c *Cache) Snapshot(key Key) Snapshot {
	k := key.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[k]
	if e == nil {
		return Snapshot{Key: k, Status: StatusIdle, Stale: true}
	}
	return c.snapshotLocked(e)
}

type SubscribeOptions[T any] struct {
	// InitialData seeds an empty entry and suppresses the mount fetch.
	// An entry that already holds data keeps it.
	InitialData *T
	Disabled    bool
}

// Subscribe registers onChange for every state change of q's key and
// fetches on mount when the entry is missing or stale. It returns the
// state at registration and a function that cancels the subscription.
func Subscribe[T any](c *Cache, q Query[T], opts SubscribeOptions[T], onChange func(Snapshot)) (Snapshot, func()) {
	k := q.Key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSub++
	id := c.nextSub

	unsubscribe := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[k], id)
		if len(c.subs[k]) == 0 {
			delete(c.subs, k)
		}
	}

	e := c.entries[k]
	switch {
	case opts.Disabled:
	case opts.InitialData != nil:
		if e != nil && e.hasData {
			e.fetch = q.fetcher()
			break
		}
		e = c.entryLocked(q.Key)
		e.fetch = q.fetcher()
		e.staleTime = q.StaleTime
		c.setLocked(e, *opts.InitialData)
	case e == nil || c.staleLocked(e, q.StaleTime):
		c.startFetchLocked(context.Background(), q.Key, q.fetcher(), q.StaleTime)
		e = c.entries[k]
	default:
		e.fetch = q.fetcher()
	}

	snap := Snapshot{Key: k, Status: StatusIdle, Stale: true}
	if e != nil {
		snap = c.snapshotLocked(e)
	}

	// Registered after the mount transition so the returned state is not delivered twice.
	if c.subs[k] == nil {
		c.subs[k] = make(map[uint64]*subscriber)
	}
	c.subs[k][id] = &subscriber{onChange: onChange, last: snap.version}
	return snap, unsubscribe
}

func (c *Cache) entryLocked(key Key) *entry {
	k := key.String()
	e := c.entries[k]
	if e == nil {
		e = &entry{key: key, status: StatusIdle}
		c.entries[k] = e
	}
	return e
}

func (c *Cache) staleLocked(e *entry, staleTime time.Duration) bool {
	if e.invalidated || !e.hasData || staleTime <= 0 {
		return true
	}
	return c.now().Sub(e.updatedAt) > staleTime
}

func (c *Cache) settledStatus(e *entry) Status {
	switch {
	case e.err != nil:
		return StatusError
	case e.hasData:
		return StatusSuccess
	default:
		return StatusIdle
	}
}

func (c *Cache) snapshotLocked(e *entry) Snapshot {
	return Snapshot{
		Key:       e.key.String(),
		Data:      e.data,
		HasData:   e.hasData,
		Status:    e.status,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Stale:     c.staleLocked(e, e.staleTime),
		Fetching:  e.fetching,

		Invalidated: e.invalidated,
		version:     e.version,
	}
}

func (c *Cache) notifyLocked(e *entry) {
	c.version++
	e.version = c.version
	c.broadcastLocked(e.key.String(), c.snapshotLocked(e))
}

// broadcastLocked hands snap to observers on their own goroutines;
// version ordering drops deliveries that arrive after a newer one.
func (c *Cache) broadcastLocked(k string, snap Snapshot) {
	for _, sub := range c.subs[k] {
		go sub.deliver(snap)
	}
}
