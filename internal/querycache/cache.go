// Package querycache is a process-wide cache for remote query results.
//
// Entries are keyed by resource name plus serialized query parameters
// (see Key). Each entry tracks its data, lifecycle status, freshness
// deadline and eviction deadline. Concurrent fetches for the same key
// coalesce into a single in-flight request.
//
// Returned data is shared: callers must treat it as read-only and go
// through Write for any modification (copy-on-write contract).
package querycache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"billingdash/internal/logger"
)

// Status is the lifecycle state of a cache entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// FetchFunc loads fresh data for a key. The context is canceled when
// Cancel is called for the key.
type FetchFunc func(ctx context.Context) (any, error)

// Options control freshness and eviction for a fetched entry.
type Options struct {
	// StaleTime is how long a successful result counts as fresh.
	// A fresh entry is served without invoking the fetch function.
	StaleTime time.Duration

	// GCTime is how long an entry survives after its last access.
	GCTime time.Duration
}

type entry struct {
	data    any
	status  Status
	err     error
	staleAt time.Time
	gcAt    time.Time
	opts    Options

	// gen guards against a stale in-flight response overwriting a
	// newer direct write. Write and Cancel bump it; a completing
	// fetch only stores its result if gen is unchanged since start.
	gen uint64
}

// Cache maps query keys to cached results.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	cancels map[string]context.CancelFunc
	group   singleflight.Group

	// now is a test hook for freshness and eviction clocks.
	now func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		cancels: make(map[string]context.CancelFunc),
		now:     time.Now,
	}
}

// Fetch returns cached data for key if it is fresh, otherwise invokes
// fn once (coalescing concurrent callers) and stores the result.
//
// ctx bounds only this caller's wait; the underlying fetch runs on its
// own context so that one impatient caller does not abort a request
// other callers are attached to. Use Cancel to abort the fetch itself.
func (c *Cache) Fetch(ctx context.Context, key string, fn FetchFunc, opts Options) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && e.status == StatusSuccess && c.now().Before(e.staleAt) {
		e.gcAt = c.now().Add(opts.GCTime)
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	e = c.ensureLocked(key)
	e.opts = opts
	if e.status != StatusSuccess {
		e.status = StatusLoading
	}
	startGen := e.gen
	c.mu.Unlock()

	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithCancel(context.Background())
		c.mu.Lock()
		c.cancels[key] = cancel
		c.mu.Unlock()
		defer func() {
			cancel()
			c.mu.Lock()
			delete(c.cancels, key)
			c.mu.Unlock()
		}()

		data, err := fn(fetchCtx)
		c.store(key, startGen, data, err, opts)
		return data, err
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// store records a completed fetch unless the entry moved on (Write or
// Cancel bumped the generation) while the request was in flight.
func (c *Cache) store(key string, startGen uint64, data any, err error, opts Options) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.ensureLocked(key)
	if e.gen != startGen {
		l := logger.WithComponent("querycache")
		l.Debug().
			Str("key", key).
			Msg("Discarding superseded fetch result")
		return
	}
	e.gcAt = c.now().Add(opts.GCTime)
	switch {
	case err == nil:
		e.data = data
		e.err = nil
		e.status = StatusSuccess
		e.staleAt = c.now().Add(opts.StaleTime)
	case errors.Is(err, context.Canceled):
		// Canceled fetches keep whatever data the entry already has.
		if e.data != nil {
			e.status = StatusSuccess
		} else {
			e.status = StatusIdle
		}
	default:
		e.err = err
		e.status = StatusError
	}
}

// Read returns the cached data for key, if any.
func (c *Cache) Read(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.data == nil {
		return nil, false
	}
	e.gcAt = c.now().Add(e.opts.GCTime)
	return e.data, true
}

// Write stores data for key directly, marking it fresh. In-flight
// fetches for the key are superseded: their result will be discarded.
func (c *Cache) Write(key string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.ensureLocked(key)
	e.gen++
	e.data = data
	e.err = nil
	e.status = StatusSuccess
	e.staleAt = c.now().Add(e.opts.StaleTime)
	e.gcAt = c.now().Add(e.opts.GCTime)
}

// Invalidate marks every entry whose key starts with prefix as stale.
// The data stays readable; the next Fetch for the key refetches.
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			e.staleAt = now
		}
	}
}

// Cancel aborts an in-flight fetch for key, if any. Any response that
// still arrives for the aborted request is discarded.
func (c *Cache) Cancel(key string) {
	c.mu.Lock()
	cancel := c.cancels[key]
	if e, ok := c.entries[key]; ok {
		e.gen++
		if e.status == StatusLoading {
			if e.data != nil {
				e.status = StatusSuccess
			} else {
				e.status = StatusIdle
			}
		}
	}
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// CancelPrefix cancels in-flight fetches for every key with prefix.
func (c *Cache) CancelPrefix(prefix string) {
	c.mu.Lock()
	keys := make([]string, 0, len(c.cancels))
	for key := range c.cancels {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	// Generation bumps cover entries with no in-flight request too, so
	// a response racing with the cancel can never land afterwards.
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			e.gen++
		}
	}
	c.mu.Unlock()
	for _, key := range keys {
		c.Cancel(key)
	}
}

// Keys returns all cache keys with the given prefix.
func (c *Cache) Keys(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []string
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Status returns the lifecycle state of the entry for key.
func (c *Cache) Status(key string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.status
	}
	return StatusIdle
}

// Sweep evicts entries whose eviction deadline has passed and returns
// the number removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if e.status != StatusLoading && !e.gcAt.IsZero() && now.After(e.gcAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// StartGC sweeps the cache at the given interval until ctx is done.
func (c *Cache) StartGC(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.Sweep(); n > 0 {
					l := logger.WithComponent("querycache")
					l.Debug().
						Int("evicted", n).
						Msg("Cache sweep completed")
				}
			}
		}
	}()
}

func (c *Cache) ensureLocked(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{status: StatusIdle}
		c.entries[key] = e
	}
	return e
}
