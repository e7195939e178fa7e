package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Class groups endpoints that share one limit. Generation endpoints get a
// stricter budget than read-only ones.
type Class string

const (
	ClassGenerate Class = "generate"
	ClassRead     Class = "read"
	// ClassExempt marks endpoints that bypass admission entirely
	// (health checks, docs, dashboards).
	ClassExempt Class = "exempt"
)

// Decision is the outcome of one admission check. When Allowed is false,
// ResetAt tells the client when the oldest counted request leaves the
// window.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type record struct {
	mu     sync.Mutex
	stamps []time.Time
}

// Limiter is a per-(client, endpoint-class) sliding-window counter. Each
// key owns its own lock so unrelated clients never contend.
type Limiter struct {
	window time.Duration
	limits map[Class]int

	mu      sync.Mutex
	records map[string]*record

	now func() time.Time
}

// New builds a Limiter with the given window and per-class limits.
func New(window time.Duration, limits map[Class]int) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		window:  window,
		limits:  limits,
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Allow checks and records one request for the given client and class.
// Exempt or unconfigured classes are always allowed without bookkeeping.
func (l *Limiter) Allow(clientKey string, class Class) Decision {
	limit, ok := l.limits[class]
	if class == ClassExempt || !ok || limit <= 0 {
		return Decision{Allowed: true, Limit: 0, Remaining: 0}
	}

	now := l.now()
	rec := l.record(clientKey + "|" + string(class))

	rec.mu.Lock()
	defer rec.mu.Unlock()

	cutoff := now.Add(-l.window)
	kept := rec.stamps[:0]
	for _, ts := range rec.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	rec.stamps = kept

	if len(rec.stamps) >= limit {
		return Decision{
			Allowed:   false,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   rec.stamps[0].Add(l.window),
		}
	}

	rec.stamps = append(rec.stamps, now)
	reset := rec.stamps[0].Add(l.window)
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(rec.stamps),
		ResetAt:   reset,
	}
}

func (l *Limiter) record(key string) *record {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[key]
	if !ok {
		rec = &record{}
		l.records[key] = rec
	}
	return rec
}

// Sweep drops records whose newest timestamp has left the window and
// returns how many were removed.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, rec := range l.records {
		rec.mu.Lock()
		idle := len(rec.stamps) == 0 || !rec.stamps[len(rec.stamps)-1].After(cutoff)
		rec.mu.Unlock()
		if idle {
			delete(l.records, key)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps idle records periodically until the context is
// cancelled.
func (l *Limiter) StartJanitor(ctx context.Context, every time.Duration) {
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
				l.Sweep()
			}
		}
	}()
}
