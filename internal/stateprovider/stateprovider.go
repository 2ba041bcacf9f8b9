// Package stateprovider implements the guest-side batching and validation
// that sits between a user model's GetModelState/CreateModelState code and
// the wire events that stream key/value pairs back to the host. Grounded
// on decthings-model's unix/stateprovider.rs and unix/weightsprovider.rs,
// which are identical except for which event they emit; this package keeps
// that duplication as two thin constructors over one shared implementation
// rather than porting it twice.
package stateprovider

import (
	"context"
	"fmt"

	"github.com/decthings/model-go/internal/interfaces"
	"github.com/decthings/model-go/internal/protocol"
	"github.com/decthings/model-go/internal/transport"
)

const (
	maxKeys          = 100
	maxValueBytes    = 1 << 30 // 1 GiB
	maxBatchBytes    = 1 << 30 // 1 GiB, strictly less-than per entry added
)

// eventKind selects which wire event a provider emits its batches as.
type eventKind int

const (
	eventProvideStateData eventKind = iota
	eventProvideWeightsData
)

type provider struct {
	commandID string
	sender    *transport.Sender
	kind      eventKind
	provided  map[string]struct{}
}

// NewStateProvider returns a StateProvider that emits provideStateData
// events tagged with commandID.
func NewStateProvider(commandID string, sender *transport.Sender) interfaces.StateProvider {
	return &provider{commandID: commandID, sender: sender, kind: eventProvideStateData, provided: make(map[string]struct{})}
}

// NewWeightsProvider returns a StateProvider that emits provideWeightsData
// events tagged with commandID. The guest-side validation and batching are
// identical to NewStateProvider; only the wire event name differs.
func NewWeightsProvider(commandID string, sender *transport.Sender) interfaces.StateProvider {
	return &provider{commandID: commandID, sender: sender, kind: eventProvideWeightsData, provided: make(map[string]struct{})}
}

// ProvideAll validates entries and streams them to the host in batches of
// at most 1 GiB. Panics on a duplicate key, on exceeding 100 total keys
// across every ProvideAll call on this provider, or on a single value
// >= 1 GiB, mirroring the Rust provider's same three panics.
func (p *provider) ProvideAll(ctx context.Context, entries []interfaces.StateEntry) error {
	for _, e := range entries {
		if _, dup := p.provided[e.Key]; dup {
			panic(fmt.Sprintf("StateProvider: State key %q was provided multiple times.", e.Key))
		}
		p.provided[e.Key] = struct{}{}
	}
	if len(p.provided) > maxKeys {
		panic(fmt.Sprintf("StateProvider: Cannot provide more than %d keys.", maxKeys))
	}
	for _, e := range entries {
		if len(e.Value) >= maxValueBytes {
			panic("StateProvider: Cannot provide more than 1 gigabyte for a single key. Split it into multiple keys.")
		}
	}

	i := 0
	for i < len(entries) {
		names := []string{entries[i].Key}
		values := [][]byte{entries[i].Value}
		total := len(entries[i].Value)
		i++
		for i < len(entries) && total+len(entries[i].Value) < maxBatchBytes {
			total += len(entries[i].Value)
			names = append(names, entries[i].Key)
			values = append(values, entries[i].Value)
			i++
		}
		if err := p.sendBatch(ctx, names, values); err != nil {
			return err
		}
	}
	return nil
}

func (p *provider) sendBatch(ctx context.Context, names []string, values [][]byte) error {
	var body []byte
	var err error
	switch p.kind {
	case eventProvideStateData:
		body, err = protocol.EncodeProvideStateData(p.commandID, names)
	case eventProvideWeightsData:
		body, err = protocol.EncodeProvideWeightsData(p.commandID, names)
	}
	if err != nil {
		return fmt.Errorf("stateprovider: encode batch: %w", err)
	}
	return p.sender.SendEvent(ctx, body, values)
}

var _ interfaces.StateProvider = (*provider)(nil)
