package backend

import (
	"context"
	"testing"

	"github.com/decthings/model-go/internal/interfaces"
	"github.com/stretchr/testify/require"
)

// fakeLoader is a single-item DataLoader/WeightsLoader fixture for exercising
// Model/Instance without the real framed-protocol dataloader.
type fakeLoader struct {
	data []byte
	pos  uint32
}

func (f *fakeLoader) TotalByteSize() uint64 { return uint64(len(f.data)) }
func (f *fakeLoader) Size() uint32          { return 1 }
func (f *fakeLoader) Position() uint32      { return f.pos }
func (f *fakeLoader) Remaining() uint32     { return f.Size() - f.pos }
func (f *fakeLoader) HasNext(k uint32) bool { return f.Remaining() >= k }
func (f *fakeLoader) SetPosition(p uint32)  { f.pos = p }
func (f *fakeLoader) Dataset() string       { return "fake" }
func (f *fakeLoader) ShuffleInGroup(ctx context.Context, others ...interfaces.DataLoader) error {
	return nil
}
func (f *fakeLoader) Next(ctx context.Context, k uint32) ([][]byte, error) {
	if k > f.Remaining() {
		k = f.Remaining()
	}
	if k == 0 {
		return nil, nil
	}
	f.pos += k
	return [][]byte{f.data}, nil
}
func (f *fakeLoader) ByteSize() uint64 { return uint64(len(f.data)) }
func (f *fakeLoader) Read(ctx context.Context) ([]byte, error) {
	return f.data, nil
}

type fakeStateProvider struct {
	entries []interfaces.StateEntry
}

func (p *fakeStateProvider) ProvideAll(ctx context.Context, entries []interfaces.StateEntry) error {
	p.entries = append(p.entries, entries...)
	return nil
}

func TestModelCreateModelStateStoresParams(t *testing.T) {
	m := NewModel()
	provider := &fakeStateProvider{}
	err := m.CreateModelState(context.Background(), interfaces.CreateModelStateOptions{
		Params: map[string]interfaces.DataLoader{
			"w": &fakeLoader{data: []byte("hello")},
		},
		StateProvider: provider,
	})
	require.NoError(t, err)
	require.Len(t, provider.entries, 1)
	require.Equal(t, "w", provider.entries[0].Key)
	require.Equal(t, []byte("hello"), provider.entries[0].Value)
}

func TestModelInstantiateThenEvaluate(t *testing.T) {
	m := NewModel()
	inst, err := m.InstantiateModel(context.Background(), interfaces.InstantiateModelOptions{
		State: map[string]interfaces.WeightsLoader{
			"w": &fakeLoader{data: []byte("weights")},
		},
	})
	require.NoError(t, err)

	outputs, err := inst.Evaluate(context.Background(), interfaces.EvaluateOptions{
		Params: map[string]interfaces.DataLoader{
			"x": &fakeLoader{data: []byte("input")},
		},
	})
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	require.Equal(t, "x", outputs[0].Name)
	require.Equal(t, [][]byte{[]byte("input")}, outputs[0].Data)
}

func TestInstanceGetModelStateReturnsStoredWeights(t *testing.T) {
	m := NewModel()
	inst, err := m.InstantiateModel(context.Background(), interfaces.InstantiateModelOptions{
		State: map[string]interfaces.WeightsLoader{
			"w": &fakeLoader{data: []byte("weights")},
		},
	})
	require.NoError(t, err)

	provider := &fakeStateProvider{}
	err = inst.GetModelState(context.Background(), interfaces.GetModelStateOptions{StateProvider: provider})
	require.NoError(t, err)
	require.Len(t, provider.entries, 1)
	require.Equal(t, "w", provider.entries[0].Key)
	require.Equal(t, []byte("weights"), provider.entries[0].Value)
}

func TestInstanceTrainCancellation(t *testing.T) {
	inst := &Instance{weights: map[string][]byte{}}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- inst.Train(ctx, interfaces.TrainOptions{Tracker: cancelAfter(0)})
	}()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
	}
}

// cancelAfter returns a tracker whose WaitForCancelled reports cancelled
// immediately, simulating CallCancelTrain having already resolved.
type cancelAfter int

func (cancelAfter) WaitForCancelled(ctx context.Context) bool { return true }
func (cancelAfter) Progress(ctx context.Context, progress float32) error { return nil }
func (cancelAfter) Metrics(ctx context.Context, entries []interfaces.MetricEntry) error {
	return nil
}
