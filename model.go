// Package model is the guest-side runtime adapter for a hosted model
// execution platform: it binds a user's Model implementation to a host
// process over a framed unix-socket protocol, marshaling parameters and
// large data payloads lazily, reporting training progress and metrics,
// supporting cooperative cancellation, and isolating user-code panics.
package model

import "github.com/decthings/model-go/internal/interfaces"

// The capability-surface types below are aliases of internal/interfaces so
// a model implementation can be written entirely against this package,
// without importing an internal path.

type (
	Param                = interfaces.Param
	OtherModel            = interfaces.OtherModel
	OtherModelWithState   = interfaces.OtherModelWithState
	DataLoader            = interfaces.DataLoader
	WeightsLoader         = interfaces.WeightsLoader
	StateProvider         = interfaces.StateProvider
	StateEntry            = interfaces.StateEntry
	MetricEntry           = interfaces.MetricEntry
	TrainTracker          = interfaces.TrainTracker
	CreateModelStateOptions = interfaces.CreateModelStateOptions
	InstantiateModelOptions = interfaces.InstantiateModelOptions
	TrainOptions            = interfaces.TrainOptions
	EvaluateOptions         = interfaces.EvaluateOptions
	EvaluateOutput          = interfaces.EvaluateOutput
	GetModelStateOptions    = interfaces.GetModelStateOptions
	Model                   = interfaces.Model
	Instantiated            = interfaces.Instantiated
	Logger                  = interfaces.Logger
	Observer                = interfaces.Observer
)
