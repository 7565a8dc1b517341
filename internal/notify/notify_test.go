package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneration_ChangedReturnsImmediatelyWhenAlreadyMoved(t *testing.T) {
	var g Generation
	seen := g.Load()
	g.Bump()

	got, err := g.Changed(context.Background(), seen)
	require.NoError(t, err)
	assert.Equal(t, seen+1, got)
}

func TestGeneration_CoalescesBumpsBetweenWaits(t *testing.T) {
	var g Generation
	seen := g.Load()
	g.Bump()
	g.Bump()
	g.Bump()

	got, err := g.Changed(context.Background(), seen)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Changed(ctx, got)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGeneration_WakesAllWaiters(t *testing.T) {
	var g Generation
	seen := g.Load()

	var wg sync.WaitGroup
	results := make(chan uint64, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := g.Changed(context.Background(), seen)
			if err == nil {
				results <- got
			}
		}()
	}
	time.Sleep(10 * time.Millisecond)
	g.Bump()
	wg.Wait()
	close(results)

	var n int
	for got := range results {
		assert.Equal(t, uint64(1), got)
		n++
	}
	assert.Equal(t, 3, n)
}

func TestGeneration_CancelledWaitLeavesNoResidue(t *testing.T) {
	var g Generation
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Changed(ctx, g.Load())
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, uint64(1), g.Bump())
}

func TestGeneration_CloseFailsWaiters(t *testing.T) {
	var g Generation
	done := make(chan error, 1)
	go func() {
		_, err := g.Changed(context.Background(), 0)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	g.Close()
	assert.ErrorIs(t, <-done, ErrClosed)
}

func TestAwait_ReevaluatesOnBump(t *testing.T) {
	var g Generation
	var mu sync.Mutex
	width := 0

	go func() {
		for i := 1; i <= 100; i++ {
			mu.Lock()
			width = i
			mu.Unlock()
			g.Bump()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := Await(ctx, &g, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return width == 100
	})
	require.NoError(t, err)
}

func TestQueue_FIFO(t *testing.T) {
	var q Queue[int]
	q.Push(1)
	q.Push(2)
	q.Push(3)

	for want := 1; want <= 3; want++ {
		got, err := q.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, ok := q.TryNext()
	assert.False(t, ok)
}

func TestQueue_RacingConsumersEachTakeOneItem(t *testing.T) {
	var q Queue[int]
	const consumers = 4

	var wg sync.WaitGroup
	got := make(chan int, consumers)
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := q.Next(context.Background())
			if err == nil {
				got <- v
			}
		}()
	}
	time.Sleep(10 * time.Millisecond)
	for i := 0; i < consumers; i++ {
		q.Push(i)
	}
	wg.Wait()
	close(got)

	seen := map[int]bool{}
	for v := range got {
		assert.False(t, seen[v], "item %d delivered twice", v)
		seen[v] = true
	}
	assert.Len(t, seen, consumers)
	assert.Zero(t, q.Len())
}

func TestQueue_NextHonoursContext(t *testing.T) {
	var q Queue[string]
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := q.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_CloseFailsConsumers(t *testing.T) {
	var q Queue[int]
	q.Push(1)
	q.Close()
	_, err := q.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	q.Push(2)
	assert.Zero(t, q.Len())
}
