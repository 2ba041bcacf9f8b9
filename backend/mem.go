// Package backend provides a reference in-memory Model implementation: a
// fixture for exercising the runtime end-to-end without a real numeric
// model behind it.
package backend

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/decthings/model-go/internal/interfaces"
)

// numShards is the shard count for the in-memory weights store. Grounded on
// go-ublk's Memory backend, which shards a flat byte array by offset range
// to let concurrent I/O proceed without a single global lock; here the
// store holds named byte values instead of a flat address space, so it
// shards by key hash instead of offset.
const numShards = 32

type shardedStore struct {
	shards [numShards]struct {
		mu   sync.RWMutex
		data map[string][]byte
	}
}

func newShardedStore() *shardedStore {
	s := &shardedStore{}
	for i := range s.shards {
		s.shards[i].data = make(map[string][]byte)
	}
	return s
}

func (s *shardedStore) shardFor(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % numShards)
}

func (s *shardedStore) Set(key string, value []byte) {
	i := s.shardFor(key)
	s.shards[i].mu.Lock()
	defer s.shards[i].mu.Unlock()
	s.shards[i].data[key] = value
}

func (s *shardedStore) Snapshot() map[string][]byte {
	out := make(map[string][]byte)
	for i := range s.shards {
		s.shards[i].mu.RLock()
		for k, v := range s.shards[i].data {
			out[k] = v
		}
		s.shards[i].mu.RUnlock()
	}
	return out
}

// Model is a reference Model implementation: CreateModelState reads each
// dataset parameter fully into memory and stores it as model state under
// the same name, with no numeric computation of its own. It exists as a
// demo/test fixture, not a production model.
type Model struct {
	store *shardedStore
}

// NewModel creates an empty in-memory reference Model.
func NewModel() *Model {
	return &Model{store: newShardedStore()}
}

func (m *Model) CreateModelState(ctx context.Context, opts interfaces.CreateModelStateOptions) error {
	entries := make([]interfaces.StateEntry, 0, len(opts.Params))
	for name, loader := range opts.Params {
		data, err := readAll(ctx, loader)
		if err != nil {
			return fmt.Errorf("backend: read param %q: %w", name, err)
		}
		m.store.Set(name, data)
		entries = append(entries, interfaces.StateEntry{Key: name, Value: data})
	}
	return opts.StateProvider.ProvideAll(ctx, entries)
}

func (m *Model) InstantiateModel(ctx context.Context, opts interfaces.InstantiateModelOptions) (interfaces.Instantiated, error) {
	weights := make(map[string][]byte, len(opts.State))
	for name, loader := range opts.State {
		data, err := loader.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("backend: read state %q: %w", name, err)
		}
		weights[name] = data
	}
	return &Instance{weights: weights}, nil
}

// readAll drains a DataLoader to the end and concatenates its segments.
func readAll(ctx context.Context, loader interfaces.DataLoader) ([]byte, error) {
	var out []byte
	for loader.HasNext(1) {
		segs, err := loader.Next(ctx, loader.Remaining())
		if err != nil {
			return nil, err
		}
		for _, seg := range segs {
			out = append(out, seg...)
		}
	}
	return out, nil
}

// Instance is a live instantiated Model value holding the in-memory weights
// map produced by Model.InstantiateModel.
type Instance struct {
	weights map[string][]byte
}

func (in *Instance) Evaluate(ctx context.Context, opts interfaces.EvaluateOptions) ([]interfaces.EvaluateOutput, error) {
	outputs := make([]interfaces.EvaluateOutput, 0, len(opts.Params))
	for name, loader := range opts.Params {
		data, err := readAll(ctx, loader)
		if err != nil {
			return nil, fmt.Errorf("backend: read param %q: %w", name, err)
		}
		outputs = append(outputs, interfaces.EvaluateOutput{Name: name, Data: [][]byte{data}})
	}
	return outputs, nil
}

// trainSteps is the number of synthetic progress increments Train reports.
const trainSteps = 10

// trainStepInterval bounds how long each step waits for cancellation before
// reporting progress and moving on.
const trainStepInterval = 20 * time.Millisecond

func (in *Instance) Train(ctx context.Context, opts interfaces.TrainOptions) error {
	for i := 1; i <= trainSteps; i++ {
		stepCtx, cancel := context.WithTimeout(ctx, trainStepInterval)
		cancelled := opts.Tracker.WaitForCancelled(stepCtx)
		cancel()
		if cancelled {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := opts.Tracker.Progress(ctx, float32(i)/float32(trainSteps)); err != nil {
			return err
		}
	}
	return opts.Tracker.Metrics(ctx, []interfaces.MetricEntry{
		{Name: "steps", Data: []byte(fmt.Sprintf("%d", trainSteps))},
	})
}

func (in *Instance) GetModelState(ctx context.Context, opts interfaces.GetModelStateOptions) error {
	entries := make([]interfaces.StateEntry, 0, len(in.weights))
	for k, v := range in.weights {
		entries = append(entries, interfaces.StateEntry{Key: k, Value: v})
	}
	return opts.StateProvider.ProvideAll(ctx, entries)
}

var (
	_ interfaces.Model       = (*Model)(nil)
	_ interfaces.Instantiated = (*Instance)(nil)
)
