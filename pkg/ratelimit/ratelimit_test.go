package ratelimit

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestWindowKey(t *testing.T) {
	base := time.Date(2026, 10, 17, 12, 0, 10, 0, time.UTC)

	a := windowKey("respond-invite:1.2.3.4", base, time.Minute)
	b := windowKey("respond-invite:1.2.3.4", base.Add(40*time.Second), time.Minute)
	c := windowKey("respond-invite:1.2.3.4", base.Add(2*time.Minute), time.Minute)

	if a != b {
		t.Fatalf("same window produced different keys: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("different windows produced the same key %s", a)
	}
}

// memCounter implements WindowCounter for tests
type memCounter struct {
	counts map[string]int64
	ttls   map[string]time.Duration
}

func newMemCounter() *memCounter {
	return &memCounter{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (m *memCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.counts[key]++
	m.ttls[key] = ttl
	return m.counts[key], nil
}

func TestAllowEnforcesLimitPerWindow(t *testing.T) {
	counter := newMemCounter()
	l := NewLimiter(counter, 3, time.Minute)
	now := time.Date(2026, 10, 17, 12, 0, 5, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if ok, err := l.Allow(ctx, "job-requests:1.2.3.4"); !ok || err != nil {
			t.Fatalf("request %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := l.Allow(ctx, "job-requests:1.2.3.4"); ok {
		t.Fatal("4th request in the window must be rejected")
	}
	if ok, _ := l.Allow(ctx, "job-requests:5.6.7.8"); !ok {
		t.Fatal("other clients have their own budget")
	}

	now = now.Add(time.Minute)
	if ok, _ := l.Allow(ctx, "job-requests:1.2.3.4"); !ok {
		t.Fatal("next window must start fresh")
	}
	for key, ttl := range counter.ttls {
		if ttl != time.Minute {
			t.Fatalf("key %s expires after %s, want 1m", key, ttl)
		}
	}
}

func TestAllowFailsOpenWhenRedisIsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()

	client := NewRedisClient(host, port, "")
	defer client.Close()
	l := NewRedisLimiter(client, 1, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok, err := l.Allow(ctx, "respond-invite:1.2.3.4")
	if !ok || err == nil {
		t.Fatalf("expected (true, err) with redis down, got (%v, %v)", ok, err)
	}
}
