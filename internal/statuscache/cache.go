// Package statuscache keeps job status records in memory under two
// expiration policies: an absolute TTL from creation that bounds memory
// even under continuous polling, and a sliding TTL refreshed on reads that
// reclaims abandoned jobs quickly.
package statuscache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"levelforge/internal/domain"
)

// Config carries the cache tunables.
type Config struct {
	SingleTTL  time.Duration
	BatchTTL   time.Duration
	SlidingTTL time.Duration
	MaxEntries int
}

type entry struct {
	mu          sync.Mutex
	job         domain.Job
	absDeadline time.Time
	lastTouched time.Time
}

// Cache maps job identifiers to lifecycle records. Operations on distinct
// jobs never block each other beyond the brief shard lookup; updates to one
// job serialize on its entry lock.
type Cache struct {
	cfg Config

	mu      sync.RWMutex
	entries map[string]*entry

	now func() time.Time
}

// New builds a Cache. Non-positive durations get conservative defaults.
func New(cfg Config) *Cache {
	if cfg.SingleTTL <= 0 {
		cfg.SingleTTL = 10 * time.Minute
	}
	if cfg.BatchTTL <= 0 {
		cfg.BatchTTL = 30 * time.Minute
	}
	if cfg.SlidingTTL <= 0 {
		cfg.SlidingTTL = 2 * time.Minute
	}
	return &Cache{
		cfg:     cfg,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Put registers a job, replacing any record under the same identifier. The
// absolute deadline depends on the job kind.
func (c *Cache) Put(job domain.Job) {
	now := c.now()
	ttl := c.cfg.SingleTTL
	if job.Kind == domain.JobKindBatch {
		ttl = c.cfg.BatchTTL
	}
	e := &entry{
		job:         job,
		absDeadline: now.Add(ttl),
		lastTouched: now,
	}

	c.mu.Lock()
	c.entries[job.ID] = e
	over := c.cfg.MaxEntries > 0 && len(c.entries) > c.cfg.MaxEntries
	c.mu.Unlock()

	if over {
		c.evictOldest()
	}
}

// Get returns a copy of the job and refreshes its sliding expiry.
func (c *Cache) Get(id string) (domain.Job, bool) {
	e := c.lookup(id)
	if e == nil {
		return domain.Job{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastTouched = c.now()
	return e.job, true
}

// Touch refreshes the sliding expiry without reading the record.
func (c *Cache) Touch(id string) bool {
	e := c.lookup(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	e.lastTouched = c.now()
	e.mu.Unlock()
	return true
}

// Update applies fn to the job under its entry lock, so concurrent
// progress increments from worker completions never lose updates. It
// returns false when the identifier is unknown.
func (c *Cache) Update(id string, fn func(*domain.Job)) bool {
	e := c.lookup(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.job)
	e.job.LastUpdatedAt = c.now()
	return true
}

func (c *Cache) lookup(id string) *entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[id]
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep evicts entries past either deadline and returns how many were
// dropped. A running job survives its sliding deadline; only the absolute
// ceiling can force it out, which is the safety valve against leaked jobs.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, e := range c.entries {
		e.mu.Lock()
		expired := now.After(e.absDeadline) ||
			(e.job.State != domain.JobStateRunning && now.After(e.lastTouched.Add(c.cfg.SlidingTTL)))
		e.mu.Unlock()
		if expired {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// evictOldest drops least-recently-touched non-running entries until the
// cache is back under its soft budget. Best effort: concurrent Puts may
// briefly overshoot.
func (c *Cache) evictOldest() {
	type candidate struct {
		id      string
		touched time.Time
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	excess := len(c.entries) - c.cfg.MaxEntries
	if excess <= 0 {
		return
	}

	candidates := make([]candidate, 0, len(c.entries))
	for id, e := range c.entries {
		e.mu.Lock()
		running := e.job.State == domain.JobStateRunning
		touched := e.lastTouched
		e.mu.Unlock()
		if !running {
			candidates = append(candidates, candidate{id: id, touched: touched})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].touched.Before(candidates[j].touched)
	})
	for i := 0; i < len(candidates) && i < excess; i++ {
		delete(c.entries, candidates[i].id)
	}
}

// StartSweeper runs Sweep periodically until the context is cancelled.
func (c *Cache) StartSweeper(ctx context.Context, every time.Duration, logger zerolog.Logger) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := c.Sweep(); n > 0 {
					logger.Debug().Int("evicted", n).Msg("status cache sweep")
				}
			}
		}
	}()
}
