package dataloader

import (
	"context"
	"fmt"
	"sync"

	"github.com/decthings/model-go/internal/interfaces"
)

// Loader is a lazy, paged reader over one dataset handle, sharing a Manager
// (and hence request-id space and a sender) with every other loader the
// runner creates in the same session. It implements interfaces.DataLoader.
type Loader struct {
	manager       *Manager
	dataset       string
	size          uint32
	totalByteSize uint64

	mu       sync.Mutex
	position uint32
}

// New constructs a Loader for one dataset parameter. size and
// totalByteSize are as reported by the host in the command's Param
// descriptor.
func New(manager *Manager, dataset string, size uint32, totalByteSize uint64) *Loader {
	return &Loader{manager: manager, dataset: dataset, size: size, totalByteSize: totalByteSize}
}

func (l *Loader) TotalByteSize() uint64 { return l.totalByteSize }

func (l *Loader) Size() uint32 { return l.size }

func (l *Loader) Dataset() string { return l.dataset }

func (l *Loader) Position() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *Loader) Remaining() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size - l.position
}

func (l *Loader) HasNext(k uint32) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size-l.position >= k
}

// SetPosition moves the cursor. Panics if position >= Size(), matching the
// Rust implementation's assertion (a caller that seeks past the end has a
// bug worth surfacing immediately rather than silently clamping).
func (l *Loader) SetPosition(position uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if position >= l.size {
		panic(fmt.Sprintf("dataloader: SetPosition(%d) out of range for size %d", position, l.size))
	}
	l.position = position
}

// Next advances the cursor by min(k, Remaining()) and returns that many
// segments, one per item.
func (l *Loader) Next(ctx context.Context, k uint32) ([][]byte, error) {
	l.mu.Lock()
	remaining := l.size - l.position
	n := k
	if n > remaining {
		n = remaining
	}
	start := l.position
	l.mu.Unlock()

	if n == 0 {
		return nil, nil
	}

	segments, err := l.manager.Request(ctx, l.dataset, start, n)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.position += n
	l.mu.Unlock()

	return segments, nil
}

// ShuffleInGroup asks the host to commit to a shared permuted read order
// across this loader's dataset and every other loader passed in.
func (l *Loader) ShuffleInGroup(ctx context.Context, others ...interfaces.DataLoader) error {
	datasets := make([]string, 0, len(others)+1)
	datasets = append(datasets, l.dataset)
	for _, o := range others {
		datasets = append(datasets, o.Dataset())
	}
	return l.manager.Shuffle(ctx, datasets)
}

var _ interfaces.DataLoader = (*Loader)(nil)
