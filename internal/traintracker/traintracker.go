// Package traintracker implements the guest-side handle a running Train
// call uses to report progress/metrics and observe cooperative
// cancellation. Grounded on decthings-model's unix/traintracker.rs: the
// Rust AsyncWaiter<()> cancel signal becomes a waiter.Waiter[struct{}]
// here, and progress/metrics reporting are direct event sends.
package traintracker

import (
	"context"
	"fmt"

	"github.com/decthings/model-go/internal/interfaces"
	"github.com/decthings/model-go/internal/protocol"
	"github.com/decthings/model-go/internal/transport"
	"github.com/decthings/model-go/internal/waiter"
)

type tracker struct {
	sender            *transport.Sender
	trainingSessionID string
	cancelWaiter      *waiter.Waiter[struct{}]
}

// New returns a TrainTracker for the given training session plus the
// Provider the runner uses to deliver a CallCancelTrain signal. The
// Provider is separate from the tracker so the runner can hold it in its
// training-sessions registry without exposing cancellation delivery to
// the user model.
func New(sender *transport.Sender, trainingSessionID string) (interfaces.TrainTracker, *waiter.Provider[struct{}]) {
	w, p := waiter.New[struct{}]()
	return &tracker{sender: sender, trainingSessionID: trainingSessionID, cancelWaiter: w}, p
}

func (t *tracker) WaitForCancelled(ctx context.Context) bool {
	_, ok := t.cancelWaiter.Get(ctx)
	return ok
}

func (t *tracker) Progress(ctx context.Context, progress float32) error {
	body, err := protocol.EncodeTrainingProgress(t.trainingSessionID, progress)
	if err != nil {
		return fmt.Errorf("traintracker: encode progress: %w", err)
	}
	return t.sender.SendEvent(ctx, body, nil)
}

func (t *tracker) Metrics(ctx context.Context, entries []interfaces.MetricEntry) error {
	names := make([]string, len(entries))
	data := make([][]byte, len(entries))
	for i, e := range entries {
		names[i] = e.Name
		data[i] = e.Data
	}
	body, err := protocol.EncodeTrainingMetrics(t.trainingSessionID, names)
	if err != nil {
		return fmt.Errorf("traintracker: encode metrics: %w", err)
	}
	return t.sender.SendEvent(ctx, body, data)
}

var _ interfaces.TrainTracker = (*tracker)(nil)
