package dataloader

import (
	"context"
	"fmt"

	"github.com/decthings/model-go/internal/interfaces"
)

// weightsLoader coerces a single-item Loader into interfaces.WeightsLoader.
// State and weights parameters always describe exactly one logical value,
// so Read always rewinds to position 0 before pulling it (mirrors the Rust
// WeightsLoader's single Requests::get(0) call, grounded on
// unix/weightsprovider.rs).
type weightsLoader struct {
	loader *Loader
}

// NewWeightsLoader wraps dl for use as a WeightsLoader. Panics if dl
// describes anything other than exactly one item, since a state/weights
// parameter is never anything else.
func NewWeightsLoader(dl *Loader) interfaces.WeightsLoader {
	if dl.Size() != 1 {
		panic(fmt.Sprintf("dataloader: NewWeightsLoader requires size 1, got %d", dl.Size()))
	}
	return &weightsLoader{loader: dl}
}

func (w *weightsLoader) ByteSize() uint64 {
	return w.loader.TotalByteSize()
}

func (w *weightsLoader) Read(ctx context.Context) ([]byte, error) {
	w.loader.SetPosition(0)
	segments, err := w.loader.Next(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(segments) != 1 {
		return nil, fmt.Errorf("dataloader: expected 1 segment from weights read, got %d", len(segments))
	}
	return segments[0], nil
}

var _ interfaces.WeightsLoader = (*weightsLoader)(nil)
