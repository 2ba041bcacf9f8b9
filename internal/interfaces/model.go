// Package interfaces defines the capability surface a user model implements
// and the capabilities the runtime hands back to it. Kept separate from the
// root package to avoid an import cycle between the root package (which
// wires everything together) and internal/runner (which depends on these
// shapes but must not depend on the root package).
package interfaces

import "context"

// Param describes a single named input backed by a dataset handle the model
// pulls bytes from lazily.
type Param struct {
	Name          string
	Dataset       string
	Amount        uint32
	TotalByteSize uint64
}

// OtherModel is a sibling model's identifier plus a filesystem rendezvous
// path owned by the host.
type OtherModel struct {
	ID        string
	MountPath string
}

// OtherModelWithState is OtherModel plus its exposed state parameters, used
// when creating model state (the sibling's state may be read as input).
// State is keyed by parameter name, each value already coerced to a
// single-segment WeightsLoader the way InstantiateModelOptions.State is.
type OtherModelWithState struct {
	ID        string
	MountPath string
	State     map[string]WeightsLoader
}

// DataLoader is a lazy, paged reader over a dataset handle. Implementations
// must be safe to use from a single goroutine at a time; the runtime never
// shares one loader across concurrent callers.
type DataLoader interface {
	// TotalByteSize is the total size in bytes of the underlying dataset.
	TotalByteSize() uint64
	// Size is the item count of the dataset.
	Size() uint32
	// Position is the current cursor position, in items.
	Position() uint32
	// Remaining is Size() - Position().
	Remaining() uint32
	// HasNext reports whether at least k items remain.
	HasNext(k uint32) bool
	// SetPosition moves the cursor. Panics if position >= Size().
	SetPosition(position uint32)
	// Next advances the cursor by min(k, Remaining()) and returns that many
	// opaque byte segments, one per item.
	Next(ctx context.Context, k uint32) ([][]byte, error)
	// ShuffleInGroup asks the host to commit to returning future reads from
	// this dataset and others in the same permuted order. Returns
	// immediately; no reply is awaited.
	ShuffleInGroup(ctx context.Context, others ...DataLoader) error
	// Dataset returns the opaque dataset handle this loader reads from.
	Dataset() string
}

// WeightsLoader is a DataLoader coerced into a single-segment reader: used
// for state/weights parameters, which are always exactly one logical value.
type WeightsLoader interface {
	// ByteSize is the total size in bytes of the value.
	ByteSize() uint64
	// Read rewinds to the start and returns the single backing segment.
	Read(ctx context.Context) ([]byte, error)
}

// StateProvider streams key/value pairs (model state or weights) back to
// the host in size-capped batches.
type StateProvider interface {
	// ProvideAll streams the given key/value pairs. Panics if any key was
	// already provided by this provider, if the cumulative key count would
	// exceed 100, or if any single value is >= 1 GiB.
	ProvideAll(ctx context.Context, entries []StateEntry) error
}

// StateEntry is a single key/value pair handed to a StateProvider.
type StateEntry struct {
	Key   string
	Value []byte
}

// MetricEntry is a single named metric payload handed to a TrainTracker.
type MetricEntry struct {
	Name string
	Data []byte
}

// TrainTracker reports progress/metrics during training and exposes
// cooperative cancellation.
type TrainTracker interface {
	// WaitForCancelled blocks until CallCancelTrain resolves this session's
	// cancellation, or ctx is done. Returns true if cancellation was
	// observed, false if ctx ended first.
	WaitForCancelled(ctx context.Context) bool
	// Progress reports a fractional training progress value.
	Progress(ctx context.Context, progress float32) error
	// Metrics reports a batch of named metric payloads.
	Metrics(ctx context.Context, entries []MetricEntry) error
}

// CreateModelStateOptions is passed to Model.CreateModelState.
type CreateModelStateOptions struct {
	Params        map[string]DataLoader
	StateProvider StateProvider
	OtherModels   map[string]OtherModelWithState
}

// InstantiateModelOptions is passed to Model.InstantiateModel.
type InstantiateModelOptions struct {
	State       map[string]WeightsLoader
	OtherModels map[string]OtherModel
}

// TrainOptions is passed to Instantiated.Train.
type TrainOptions struct {
	Params  map[string]DataLoader
	Tracker TrainTracker
}

// EvaluateOptions is passed to Instantiated.Evaluate.
type EvaluateOptions struct {
	Params map[string]DataLoader
}

// EvaluateOutput is one named tensor output of Instantiated.Evaluate.
type EvaluateOutput struct {
	Name string
	Data [][]byte
}

// GetModelStateOptions is passed to Instantiated.GetModelState.
type GetModelStateOptions struct {
	StateProvider StateProvider
}

// Model is the lifecycle capability surface a user implements.
type Model interface {
	// CreateModelState initializes model state/weights from scratch.
	CreateModelState(ctx context.Context, opts CreateModelStateOptions) error
	// InstantiateModel produces a live, usable model value from previously
	// created state.
	InstantiateModel(ctx context.Context, opts InstantiateModelOptions) (Instantiated, error)
}

// Instantiated is a live model value produced by Model.InstantiateModel.
type Instantiated interface {
	Evaluate(ctx context.Context, opts EvaluateOptions) ([]EvaluateOutput, error)
	Train(ctx context.Context, opts TrainOptions) error
	GetModelState(ctx context.Context, opts GetModelStateOptions) error
}

// Logger is the logging sink the runtime writes operational messages to.
type Logger interface {
	Printf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Observer receives counters for ambient metrics collection.
// Implementations must be thread-safe: methods are called concurrently from
// many command goroutines.
type Observer interface {
	ObserveCommandDispatched(method string)
	ObserveCommandCompleted(method string, latencyNs uint64, panicked bool)
	ObserveBytesIn(n uint64)
	ObserveBytesOut(n uint64)
	ObserveDataRequest(latencyNs uint64)
}
