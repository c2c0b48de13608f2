package sched

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockMonotonic(t *testing.T) {
	c := &Clock{}
	first := c.Next()
	second := c.Next()
	require.Greater(t, second, first)
	assert.Equal(t, second, c.Current())
}

func TestClockConcurrent(t *testing.T) {
	c := &Clock{}
	const goroutines = 8
	const perG = 100

	var wg sync.WaitGroup
	seen := make([][]int64, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				seen[i] = append(seen[i], c.Next())
			}
		}(i)
	}
	wg.Wait()

	// Every stamp is unique.
	all := make(map[int64]bool)
	for _, stamps := range seen {
		for _, s := range stamps {
			assert.False(t, all[s], "duplicate stamp %d", s)
			all[s] = true
		}
	}
	assert.Len(t, all, goroutines*perG)
}

func TestRequestFrameRuns(t *testing.T) {
	s := NewScheduler()
	done := make(chan struct{})
	id := s.RequestFrame(func() { close(done) })
	require.NotZero(t, id)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("frame callback never ran")
	}
}

func TestFrameOrderAndBatching(t *testing.T) {
	s := NewScheduler()
	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	for i := 0; i < 3; i++ {
		i := i
		s.RequestFrame(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	s.RequestFrame(func() { close(done) })

	<-done
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestCallbackDuringFrameLandsNextFrame(t *testing.T) {
	s := NewScheduler()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	var events []string
	inner := make(chan struct{})

	s.RequestFrame(func() {
		mu.Lock()
		events = append(events, "outer")
		mu.Unlock()
		s.RequestFrame(func() {
			mu.Lock()
			events = append(events, "inner")
			mu.Unlock()
			close(inner)
		})
	})

	// One frame wait returns after the outer callback's frame; the inner
	// callback must not have run yet in that same frame.
	require.NoError(t, s.WaitFrame(ctx))
	mu.Lock()
	require.Contains(t, events, "outer")
	mu.Unlock()

	select {
	case <-inner:
	case <-time.After(2 * time.Second):
		t.Fatal("nested callback never ran")
	}
	mu.Lock()
	assert.Equal(t, []string{"outer", "inner"}, events)
	mu.Unlock()
}

func TestIdleRunsAfterFrame(t *testing.T) {
	s := NewScheduler()
	var mu sync.Mutex
	var order []string
	done := make(chan struct{})

	s.RequestIdle(func() {
		mu.Lock()
		order = append(order, "idle")
		mu.Unlock()
		close(done)
	})
	s.RequestFrame(func() {
		mu.Lock()
		order = append(order, "frame")
		mu.Unlock()
	})

	<-done
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"frame", "idle"}, order)
}

func TestCancelFrame(t *testing.T) {
	s := NewScheduler()

	// Cancel while the current frame executes, so the target is still
	// pending for the next frame when it is removed.
	ran := false
	done := make(chan struct{})
	s.RequestFrame(func() {
		id := s.RequestFrame(func() { ran = true })
		s.CancelFrame(id)
		s.RequestFrame(func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("follow-up frame never ran")
	}
	assert.False(t, ran, "cancelled callback should not run")
}

func TestWaitFrameContextCancel(t *testing.T) {
	s := NewScheduler()
	s.Close() // no frames will ever fire

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.WaitFrame(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestClosedSchedulerRejects(t *testing.T) {
	s := NewScheduler()
	s.Close()
	assert.Zero(t, s.RequestFrame(func() {}))
	assert.Zero(t, s.RequestIdle(func() {}))
}
