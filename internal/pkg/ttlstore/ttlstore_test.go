package ttlstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func TestSetGet_BeforeExpiry(t *testing.T) {
	clock := newClock()
	s := New[string, int](WithClock(clock.Now))

	s.Set("a", 1, time.Minute)
	clock.Advance(59 * time.Second)

	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestGet_ExpiredIsAbsent(t *testing.T) {
	clock := newClock()
	s := New[string, int](WithClock(clock.Now))

	s.Set("a", 1, time.Minute)
	clock.Advance(time.Minute)

	_, ok := s.Get("a")
	assert.False(t, ok)
}

func TestGet_MissingKey(t *testing.T) {
	s := New[string, string]()
	v, ok := s.Get("nope")
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSet_OverwritesValueAndTTL(t *testing.T) {
	clock := newClock()
	s := New[string, string](WithClock(clock.Now))

	s.Set("a", "old", time.Hour)
	s.Set("a", "new", 10*time.Second)

	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "new", v)

	clock.Advance(11 * time.Second)
	_, ok = s.Get("a")
	assert.False(t, ok)
}

func TestUpdate_SeesLiveValue(t *testing.T) {
	clock := newClock()
	s := New[string, []string](WithClock(clock.Now))

	s.Update("k", time.Minute, func(cur []string, found bool) []string {
		assert.False(t, found)
		return append(cur, "first")
	})
	s.Update("k", time.Minute, func(cur []string, found bool) []string {
		assert.True(t, found)
		return append(cur, "second")
	})

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, []string{"first", "second"}, v)
}

func TestUpdate_ExpiredValueIsNotCarriedOver(t *testing.T) {
	clock := newClock()
	s := New[string, int](WithClock(clock.Now))

	s.Set("k", 41, time.Second)
	clock.Advance(2 * time.Second)
	s.Update("k", time.Minute, func(cur int, found bool) int {
		assert.False(t, found)
		assert.Zero(t, cur)
		return 1
	})

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	clock := newClock()
	s := New[string, int](WithClock(clock.Now))

	s.Set("short", 1, time.Second)
	s.Set("long", 2, time.Hour)
	clock.Advance(time.Minute)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("long")
	assert.True(t, ok)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New[string, int]()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Set(i, i, time.Minute)
			v, ok := s.Get(i)
			assert.True(t, ok)
			assert.Equal(t, i, v)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}
