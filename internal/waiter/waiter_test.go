package waiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetBeforeProvide(t *testing.T) {
	w, p := New[int]()
	done := make(chan struct{})
	var got int
	var ok bool
	go func() {
		got, ok = w.Get(context.Background())
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	p.Provide(42)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Get")
	}
	require.True(t, ok)
	require.Equal(t, 42, got)
}

func TestGetAfterProvide(t *testing.T) {
	w, p := New[string]()
	p.Provide("hello")

	got, ok := w.Get(context.Background())
	require.True(t, ok)
	require.Equal(t, "hello", got)
}

func TestGetManyConcurrentWaiters(t *testing.T) {
	w, p := New[int]()
	const n = 10
	results := make(chan int, n)
	for i := 0; i < n; i++ {
		go func() {
			v, ok := w.Get(context.Background())
			require.True(t, ok)
			results <- v
		}()
	}
	time.Sleep(10 * time.Millisecond)
	p.Provide(7)

	for i := 0; i < n; i++ {
		require.Equal(t, 7, <-results)
	}
}

func TestAbandonReleasesWaiters(t *testing.T) {
	w, p := New[int]()
	done := make(chan bool)
	go func() {
		_, ok := w.Get(context.Background())
		done <- ok
	}()
	time.Sleep(10 * time.Millisecond)
	p.Abandon()
	require.False(t, <-done)
}

func TestAbandonBeforeGet(t *testing.T) {
	w, p := New[int]()
	p.Abandon()
	_, ok := w.Get(context.Background())
	require.False(t, ok)
}

func TestGetContextCancelled(t *testing.T) {
	w, _ := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := w.Get(ctx)
	require.False(t, ok)
}

func TestProvideTwicePanics(t *testing.T) {
	_, p := New[int]()
	p.Provide(1)
	require.Panics(t, func() { p.Provide(2) })
}

func TestCloneSharesState(t *testing.T) {
	w, p := New[int]()
	clone := w.Clone()
	p.Provide(9)
	v, ok := clone.Get(context.Background())
	require.True(t, ok)
	require.Equal(t, 9, v)
}
