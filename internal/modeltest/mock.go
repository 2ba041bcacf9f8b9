// Package modeltest provides in-memory fakes of the interfaces.Model /
// interfaces.Instantiated capability surface for exercising the runner and
// the bootstrap end-to-end without a real ML backend.
//
// Grounded on go-ublk's testing.go MockBackend: call-count tracking under a
// mutex, injectable behavior via function fields, and compile-time
// interface assertions.
package modeltest

import (
	"context"
	"sync"

	"github.com/decthings/model-go/internal/interfaces"
)

// MockModel is a configurable interfaces.Model. Each exported func field,
// if set, is invoked in place of the default no-op/zero-value behavior.
type MockModel struct {
	CreateModelStateFunc func(ctx context.Context, opts interfaces.CreateModelStateOptions) error
	InstantiateModelFunc func(ctx context.Context, opts interfaces.InstantiateModelOptions) (interfaces.Instantiated, error)

	mu                    sync.Mutex
	createModelStateCalls int
	instantiateModelCalls int
}

func (m *MockModel) CreateModelState(ctx context.Context, opts interfaces.CreateModelStateOptions) error {
	m.mu.Lock()
	m.createModelStateCalls++
	m.mu.Unlock()
	if m.CreateModelStateFunc != nil {
		return m.CreateModelStateFunc(ctx, opts)
	}
	return nil
}

func (m *MockModel) InstantiateModel(ctx context.Context, opts interfaces.InstantiateModelOptions) (interfaces.Instantiated, error) {
	m.mu.Lock()
	m.instantiateModelCalls++
	m.mu.Unlock()
	if m.InstantiateModelFunc != nil {
		return m.InstantiateModelFunc(ctx, opts)
	}
	return &MockInstantiated{}, nil
}

// CreateModelStateCalls reports how many times CreateModelState was called.
func (m *MockModel) CreateModelStateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createModelStateCalls
}

// InstantiateModelCalls reports how many times InstantiateModel was called.
func (m *MockModel) InstantiateModelCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.instantiateModelCalls
}

// MockInstantiated is a configurable interfaces.Instantiated.
type MockInstantiated struct {
	EvaluateFunc      func(ctx context.Context, opts interfaces.EvaluateOptions) ([]interfaces.EvaluateOutput, error)
	TrainFunc         func(ctx context.Context, opts interfaces.TrainOptions) error
	GetModelStateFunc func(ctx context.Context, opts interfaces.GetModelStateOptions) error

	mu                 sync.Mutex
	evaluateCalls      int
	trainCalls         int
	getModelStateCalls int
}

func (m *MockInstantiated) Evaluate(ctx context.Context, opts interfaces.EvaluateOptions) ([]interfaces.EvaluateOutput, error) {
	m.mu.Lock()
	m.evaluateCalls++
	m.mu.Unlock()
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, opts)
	}
	return nil, nil
}

func (m *MockInstantiated) Train(ctx context.Context, opts interfaces.TrainOptions) error {
	m.mu.Lock()
	m.trainCalls++
	m.mu.Unlock()
	if m.TrainFunc != nil {
		return m.TrainFunc(ctx, opts)
	}
	return nil
}

func (m *MockInstantiated) GetModelState(ctx context.Context, opts interfaces.GetModelStateOptions) error {
	m.mu.Lock()
	m.getModelStateCalls++
	m.mu.Unlock()
	if m.GetModelStateFunc != nil {
		return m.GetModelStateFunc(ctx, opts)
	}
	return nil
}

// EvaluateCalls reports how many times Evaluate was called.
func (m *MockInstantiated) EvaluateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evaluateCalls
}

// TrainCalls reports how many times Train was called.
func (m *MockInstantiated) TrainCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trainCalls
}

// GetModelStateCalls reports how many times GetModelState was called.
func (m *MockInstantiated) GetModelStateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getModelStateCalls
}

var (
	_ interfaces.Model       = (*MockModel)(nil)
	_ interfaces.Instantiated = (*MockInstantiated)(nil)
)
