package runner

import (
	"context"
	"fmt"

	"github.com/decthings/model-go/internal/bufpool"
	"github.com/decthings/model-go/internal/interfaces"
	"github.com/decthings/model-go/internal/panics"
	"github.com/decthings/model-go/internal/protocol"
	"github.com/decthings/model-go/internal/stateprovider"
	"github.com/decthings/model-go/internal/traintracker"
	"github.com/decthings/model-go/internal/waiter"
)

func (r *Runner) handleCreateModelState(ctx context.Context, cmd protocol.CallCreateModelState) bool {
	opts := interfaces.CreateModelStateOptions{
		Params:        r.buildParamLoaders(cmd.Params),
		StateProvider: stateprovider.NewStateProvider(cmd.ID, r.sender),
		OtherModels:   make(map[string]interfaces.OtherModelWithState, len(cmd.OtherModels)),
	}
	for _, om := range cmd.OtherModels {
		opts.OtherModels[om.ID] = interfaces.OtherModelWithState{
			ID:        om.ID,
			MountPath: om.MountPath,
			State:     r.buildStateLoaders(om.State),
		}
	}

	name := fmt.Sprintf("callCreateModelState id=%s", cmd.ID)
	err, panicked := panics.CatchErr(name, func() error {
		return r.model.CreateModelState(ctx, opts)
	})

	var wireErr *protocol.WireError
	if err != nil {
		wireErr = &protocol.WireError{Code: protocol.CodeException, Details: err.Error()}
	}
	r.sendSimpleResult(ctx, cmd.ID, wireErr)
	return panicked
}

func (r *Runner) handleInstantiateModel(ctx context.Context, cmd protocol.CallInstantiateModel) bool {
	w, p := waiter.New[interfaces.Instantiated]()
	disposeCh := make(chan struct{})

	r.mu.Lock()
	r.instantiatedModels[cmd.InstantiatedModelID] = &instantiatedEntry{waiter: w, disposeCh: disposeCh}
	r.mu.Unlock()

	opts := interfaces.InstantiateModelOptions{
		State:       r.buildStateLoaders(cmd.State),
		OtherModels: make(map[string]interfaces.OtherModel, len(cmd.OtherModels)),
	}
	for _, om := range cmd.OtherModels {
		opts.OtherModels[om.ID] = interfaces.OtherModel{ID: om.ID, MountPath: om.MountPath}
	}

	name := fmt.Sprintf("callInstantiateModel id=%s", cmd.ID)
	inst, err, panicked := panics.CatchErr1(name, func() (interfaces.Instantiated, error) {
		return r.model.InstantiateModel(ctx, opts)
	})

	disposedMeanwhile := false
	select {
	case <-disposeCh:
		disposedMeanwhile = true
	default:
	}

	switch {
	case err != nil || disposedMeanwhile:
		// A model value that failed to build, or one disposed of before it
		// finished building, is never handed to callers waiting on it.
		p.Abandon()
	default:
		p.Provide(inst)
	}

	var wireErr *protocol.WireError
	if err != nil {
		wireErr = &protocol.WireError{Code: protocol.CodeException, Details: err.Error()}
	}
	r.sendSimpleResult(ctx, cmd.ID, wireErr)
	return panicked
}

func (r *Runner) handleDisposeInstantiatedModel(cmd protocol.CallDisposeInstantiatedModel) {
	r.mu.Lock()
	entry, ok := r.instantiatedModels[cmd.InstantiatedModelID]
	if ok {
		delete(r.instantiatedModels, cmd.InstantiatedModelID)
	}
	r.mu.Unlock()
	if ok {
		close(entry.disposeCh)
	}
}

func (r *Runner) handleTrain(ctx context.Context, cmd protocol.CallTrain) bool {
	inst, ok := r.lookupInstantiated(ctx, cmd.InstantiatedModelID)
	if !ok {
		r.sendSimpleResult(ctx, cmd.ID, &protocol.WireError{Code: protocol.CodeInstantiatedModelNotFound})
		return false
	}

	tracker, cancelProvider := traintracker.New(r.sender, cmd.TrainingSessionID)
	r.mu.Lock()
	r.trainingSessions[cmd.TrainingSessionID] = cancelProvider
	r.mu.Unlock()

	name := fmt.Sprintf("callTrain id=%s trainingSessionId=%s", cmd.ID, cmd.TrainingSessionID)
	err, panicked := panics.CatchErr(name, func() error {
		return inst.Train(ctx, interfaces.TrainOptions{
			Params:  r.buildParamLoaders(cmd.Params),
			Tracker: tracker,
		})
	})

	r.mu.Lock()
	delete(r.trainingSessions, cmd.TrainingSessionID)
	r.mu.Unlock()

	var wireErr *protocol.WireError
	if err != nil {
		wireErr = &protocol.WireError{Code: protocol.CodeException, Details: err.Error()}
	}
	r.sendSimpleResult(ctx, cmd.ID, wireErr)
	return panicked
}

func (r *Runner) handleCancelTrain(cmd protocol.CallCancelTrain) {
	r.mu.Lock()
	p, ok := r.trainingSessions[cmd.TrainingSessionID]
	if ok {
		delete(r.trainingSessions, cmd.TrainingSessionID)
	}
	r.mu.Unlock()
	if ok {
		p.Provide(struct{}{})
	}
}

func (r *Runner) handleEvaluate(ctx context.Context, cmd protocol.CallEvaluate) bool {
	inst, ok := r.lookupInstantiated(ctx, cmd.InstantiatedModelID)
	if !ok {
		body, err := protocol.EncodeEvaluateResult(cmd.ID, nil, &protocol.WireError{Code: protocol.CodeInstantiatedModelNotFound})
		if err == nil {
			r.sender.SendResult(ctx, body, nil)
		}
		return false
	}

	name := fmt.Sprintf("callEvaluate id=%s", cmd.ID)
	outputs, err, panicked := panics.CatchErr1(name, func() ([]interfaces.EvaluateOutput, error) {
		return inst.Evaluate(ctx, interfaces.EvaluateOptions{Params: r.buildParamLoaders(cmd.Params)})
	})

	if err != nil {
		body, encErr := protocol.EncodeEvaluateResult(cmd.ID, nil, &protocol.WireError{Code: protocol.CodeException, Details: err.Error()})
		if encErr == nil {
			r.sender.SendResult(ctx, body, nil)
		}
		return panicked
	}

	outJSON := make([]protocol.EvaluateOutputJSON, len(outputs))
	var totalSize int
	for _, o := range outputs {
		for _, seg := range o.Data {
			totalSize += len(seg)
		}
	}
	// The combined output size is known up front, so the concatenation
	// buffer is drawn from the pool instead of growing via repeated
	// append; it is returned once the frame has actually been written.
	blob := bufpool.Get(totalSize)
	offset := 0
	for i, o := range outputs {
		sizes := make([]uint64, len(o.Data))
		for j, seg := range o.Data {
			sizes[j] = uint64(len(seg))
			offset += copy(blob[offset:], seg)
		}
		outJSON[i] = protocol.EvaluateOutputJSON{Name: o.Name, ByteSizes: sizes}
	}

	body, encErr := protocol.EncodeEvaluateResult(cmd.ID, outJSON, nil)
	if encErr != nil {
		bufpool.Put(blob)
		if r.logger != nil {
			r.logger.Errorf("runner: encode evaluate result for %s: %v", cmd.ID, encErr)
		}
		return false
	}
	release := func() { bufpool.Put(blob) }
	if sendErr := r.sender.SendResultWithRelease(ctx, body, [][]byte{blob}, release); sendErr != nil && r.logger != nil {
		r.logger.Errorf("runner: send evaluate result for %s: %v", cmd.ID, sendErr)
	}
	return false
}

func (r *Runner) handleGetModelState(ctx context.Context, cmd protocol.CallGetModelState) bool {
	inst, ok := r.lookupInstantiated(ctx, cmd.InstantiatedModelID)
	if !ok {
		r.sendSimpleResult(ctx, cmd.ID, &protocol.WireError{Code: protocol.CodeInstantiatedModelNotFound})
		return false
	}

	name := fmt.Sprintf("callGetModelState id=%s", cmd.ID)
	err, panicked := panics.CatchErr(name, func() error {
		return inst.GetModelState(ctx, interfaces.GetModelStateOptions{
			StateProvider: stateprovider.NewStateProvider(cmd.ID, r.sender),
		})
	})

	var wireErr *protocol.WireError
	if err != nil {
		wireErr = &protocol.WireError{Code: protocol.CodeException, Details: err.Error()}
	}
	r.sendSimpleResult(ctx, cmd.ID, wireErr)
	return panicked
}
