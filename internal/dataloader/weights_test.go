package dataloader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWeightsLoaderReadsSingleSegment(t *testing.T) {
	loader, resolve := newTestLoader(t, 1)
	wl := NewWeightsLoader(loader)

	require.EqualValues(t, loader.TotalByteSize(), wl.ByteSize())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resultCh := make(chan []byte, 1)
	go func() {
		b, err := wl.Read(ctx)
		require.NoError(t, err)
		resultCh <- b
	}()

	time.Sleep(10 * time.Millisecond)
	resolve(0, [][]byte{[]byte("weights-blob")})

	select {
	case b := <-resultCh:
		require.Equal(t, []byte("weights-blob"), b)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Read")
	}
}

func TestNewWeightsLoaderPanicsOnNonUnitSize(t *testing.T) {
	loader, _ := newTestLoader(t, 2)
	require.Panics(t, func() { NewWeightsLoader(loader) })
}
