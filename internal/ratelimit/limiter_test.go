package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func newTestLimiter(window time.Duration, limit int) (*Limiter, *time.Time) {
	l := New(window, map[Class]int{ClassGenerate: limit, ClassRead: limit * 6})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowRejectsOverLimit(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 10)

	for i := 0; i < 10; i++ {
		d := l.Allow("1.2.3.4", ClassGenerate)
		if !d.Allowed {
			t.Fatalf("call %d unexpectedly rejected", i+1)
		}
		if d.Remaining != 10-(i+1) {
			t.Fatalf("call %d remaining = %d, want %d", i+1, d.Remaining, 10-(i+1))
		}
	}

	d := l.Allow("1.2.3.4", ClassGenerate)
	if d.Allowed {
		t.Fatal("11th call within the window must be rejected")
	}
	if d.Remaining != 0 || d.Limit != 10 {
		t.Fatalf("rejection metadata = limit %d remaining %d, want 10/0", d.Limit, d.Remaining)
	}
}

func TestAllowRecoversAfterWindow(t *testing.T) {
	l, now := newTestLimiter(time.Minute, 10)

	for i := 0; i < 10; i++ {
		l.Allow("1.2.3.4", ClassGenerate)
	}
	if d := l.Allow("1.2.3.4", ClassGenerate); d.Allowed {
		t.Fatal("expected rejection while window is full")
	}

	*now = now.Add(61 * time.Second)
	if d := l.Allow("1.2.3.4", ClassGenerate); !d.Allowed {
		t.Fatal("expected acceptance after the window elapsed")
	}
}

func TestRejectionResetAtPointsAtOldestStamp(t *testing.T) {
	l, now := newTestLimiter(time.Minute, 2)

	first := *now
	l.Allow("k", ClassGenerate)
	*now = now.Add(10 * time.Second)
	l.Allow("k", ClassGenerate)
	*now = now.Add(10 * time.Second)

	d := l.Allow("k", ClassGenerate)
	if d.Allowed {
		t.Fatal("expected rejection")
	}
	want := first.Add(time.Minute)
	if !d.ResetAt.Equal(want) {
		t.Fatalf("ResetAt = %v, want %v", d.ResetAt, want)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 1)

	if d := l.Allow("a", ClassGenerate); !d.Allowed {
		t.Fatal("first client should pass")
	}
	if d := l.Allow("a", ClassGenerate); d.Allowed {
		t.Fatal("first client should now be limited")
	}
	if d := l.Allow("b", ClassGenerate); !d.Allowed {
		t.Fatal("second client must not be affected by the first")
	}
	// Same client, different class: separate budget.
	if d := l.Allow("a", ClassRead); !d.Allowed {
		t.Fatal("read class must not share the generate budget")
	}
}

func TestExemptClassSkipsBookkeeping(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 1)

	for i := 0; i < 100; i++ {
		if d := l.Allow("a", ClassExempt); !d.Allowed {
			t.Fatalf("exempt call %d rejected", i)
		}
	}
	if len(l.records) != 0 {
		t.Fatalf("exempt calls must not create records, found %d", len(l.records))
	}
}

func TestSweepDropsIdleRecords(t *testing.T) {
	l, now := newTestLimiter(time.Minute, 5)

	l.Allow("a", ClassGenerate)
	l.Allow("b", ClassGenerate)
	*now = now.Add(2 * time.Minute)
	l.Allow("c", ClassGenerate)

	if removed := l.Sweep(); removed != 2 {
		t.Fatalf("Sweep removed %d, want 2", removed)
	}
	if len(l.records) != 1 {
		t.Fatalf("expected 1 surviving record, got %d", len(l.records))
	}
}

func TestAllowConcurrentClients(t *testing.T) {
	l := New(time.Minute, map[Class]int{ClassGenerate: 50})

	var wg sync.WaitGroup
	allowed := make([]int, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if l.Allow("shared", ClassGenerate).Allowed {
					allowed[n]++
				}
			}
		}(i)
	}
	wg.Wait()

	total := 0
	for _, n := range allowed {
		total += n
	}
	if total != 50 {
		t.Fatalf("concurrent accepts = %d, want exactly 50", total)
	}
}
