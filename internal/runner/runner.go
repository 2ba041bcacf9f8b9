// Package runner implements the command dispatcher: it reads frames off
// the host connection, fans each RPC command out to its own goroutine, and
// routes ProvideData replies back to the data loader manager. Grounded on
// decthings-model's unix/mod.rs Runner<M>, including its
// instantiate/dispose race (an in-flight InstantiateModel racing a
// DisposeInstantiatedModel for the same id) and its per-command panic
// isolation.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/decthings/model-go/internal/dataloader"
	"github.com/decthings/model-go/internal/interfaces"
	"github.com/decthings/model-go/internal/protocol"
	"github.com/decthings/model-go/internal/transport"
	"github.com/decthings/model-go/internal/waiter"
)

// instantiatedEntry is the registry record for one instantiated model:
// other command goroutines (Train, Evaluate, GetModelState, a racing
// Dispose) read it to find or cancel the instantiated value.
type instantiatedEntry struct {
	waiter    *waiter.Waiter[interfaces.Instantiated]
	disposeCh chan struct{}
}

// Runner dispatches inbound commands against a single user Model.
type Runner struct {
	model    interfaces.Model
	sender   *transport.Sender
	dlMgr    *dataloader.Manager
	logger   interfaces.Logger
	observer interfaces.Observer

	mu                 sync.Mutex
	instantiatedModels map[string]*instantiatedEntry
	trainingSessions   map[string]*waiter.Provider[struct{}]
}

// New constructs a Runner. sender and dlMgr must share the same underlying
// connection: the runner writes results/events through sender and routes
// ProvideData replies read off that same connection into dlMgr.
func New(model interfaces.Model, sender *transport.Sender, dlMgr *dataloader.Manager, logger interfaces.Logger, observer interfaces.Observer) *Runner {
	return &Runner{
		model:              model,
		sender:             sender,
		dlMgr:              dlMgr,
		logger:             logger,
		observer:           observer,
		instantiatedModels: make(map[string]*instantiatedEntry),
		trainingSessions:   make(map[string]*waiter.Provider[struct{}]),
	}
}

// Run reads frames from r until it errors or ctx ends; ctx is checked
// before each read, and a read already in progress is not interrupted by
// it. Each RPC command
// runs in its own goroutine so a slow or blocked command never stalls
// others; ProvideData replies are routed synchronously since resolving a
// waiter never blocks.
func (r *Runner) Run(ctx context.Context, reader io.Reader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cmd, provideData, err := protocol.ReadMessageFromHost(reader)
		if err != nil {
			r.dlMgr.AbandonAll()
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("runner: read message: %w", err)
		}
		if provideData != nil {
			r.dlMgr.Resolve(provideData.RequestID, provideData.Segments)
			continue
		}
		go r.dispatch(ctx, cmd)
	}
}

func (r *Runner) dispatch(ctx context.Context, cmd protocol.Command) {
	method := methodOf(cmd)
	if r.observer != nil {
		r.observer.ObserveCommandDispatched(method)
	}
	start := time.Now()
	panicked := false
	switch c := cmd.(type) {
	case protocol.CallCreateModelState:
		panicked = r.handleCreateModelState(ctx, c)
	case protocol.CallInstantiateModel:
		panicked = r.handleInstantiateModel(ctx, c)
	case protocol.CallDisposeInstantiatedModel:
		r.handleDisposeInstantiatedModel(c)
	case protocol.CallTrain:
		panicked = r.handleTrain(ctx, c)
	case protocol.CallCancelTrain:
		r.handleCancelTrain(c)
	case protocol.CallEvaluate:
		panicked = r.handleEvaluate(ctx, c)
	case protocol.CallGetModelState:
		panicked = r.handleGetModelState(ctx, c)
	default:
		if r.logger != nil {
			r.logger.Errorf("runner: unhandled command type %T", cmd)
		}
		return
	}
	if r.observer != nil {
		r.observer.ObserveCommandCompleted(method, uint64(time.Since(start).Nanoseconds()), panicked)
	}
}

func methodOf(cmd protocol.Command) string {
	switch cmd.(type) {
	case protocol.CallCreateModelState:
		return "callCreateModelState"
	case protocol.CallInstantiateModel:
		return "callInstantiateModel"
	case protocol.CallDisposeInstantiatedModel:
		return "callDisposeInstantiatedModel"
	case protocol.CallTrain:
		return "callTrain"
	case protocol.CallCancelTrain:
		return "callCancelTrain"
	case protocol.CallEvaluate:
		return "callEvaluate"
	case protocol.CallGetModelState:
		return "callGetModelState"
	default:
		return "unknown"
	}
}

func (r *Runner) sendSimpleResult(ctx context.Context, id string, wireErr *protocol.WireError) {
	body, err := protocol.EncodeSimpleResult(id, wireErr)
	if err != nil {
		if r.logger != nil {
			r.logger.Errorf("runner: encode result for %s: %v", id, err)
		}
		return
	}
	if err := r.sender.SendResult(ctx, body, nil); err != nil && r.logger != nil {
		r.logger.Errorf("runner: send result for %s: %v", id, err)
	}
}

func (r *Runner) buildParamLoaders(params []protocol.ParamJSON) map[string]interfaces.DataLoader {
	out := make(map[string]interfaces.DataLoader, len(params))
	for _, p := range params {
		out[p.Name] = dataloader.New(r.dlMgr, p.Dataset, p.Amount, p.TotalByteSize)
	}
	return out
}

func (r *Runner) buildStateLoaders(params []protocol.ParamJSON) map[string]interfaces.WeightsLoader {
	out := make(map[string]interfaces.WeightsLoader, len(params))
	for _, p := range params {
		l := dataloader.New(r.dlMgr, p.Dataset, 1, p.TotalByteSize)
		out[p.Name] = dataloader.NewWeightsLoader(l)
	}
	return out
}

func (r *Runner) lookupInstantiated(ctx context.Context, id string) (interfaces.Instantiated, bool) {
	r.mu.Lock()
	entry, ok := r.instantiatedModels[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return entry.waiter.Get(ctx)
}
