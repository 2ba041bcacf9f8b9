// Package dataloader implements the guest-side lazy dataset reader and the
// request/reply correlation that backs it. Grounded on decthings-model's
// unix/dataloader.rs: the Rust DataLoaderManager's next_req_id counter plus
// a map of outstanding oneshot channels becomes a Manager over
// internal/waiter providers; the Rust DataLoaderImpl's position/size
// bookkeeping becomes the Loader type in loader.go.
package dataloader

import (
	"context"
	"fmt"
	"sync"

	"github.com/decthings/model-go/internal/protocol"
	"github.com/decthings/model-go/internal/transport"
	"github.com/decthings/model-go/internal/waiter"
)

// Manager correlates outbound data requests with the host's ProvideData
// replies and fans out shuffle commitments. One Manager is shared by every
// DataLoader the runner creates for the session, across all commands, so
// they all share one request-id space and one sender.
type Manager struct {
	sender *transport.Sender

	mu        sync.Mutex
	nextReqID uint32
	pending   map[uint32]*waiter.Provider[[][]byte]
}

// NewManager returns a Manager that sends requestData/shuffle events over
// sender.
func NewManager(sender *transport.Sender) *Manager {
	return &Manager{
		sender:  sender,
		pending: make(map[uint32]*waiter.Provider[[][]byte]),
	}
}

// Resolve delivers a ProvideData reply to whichever Request call is
// awaiting requestID. Called from the inbound read loop. A requestID with
// no pending waiter is silently ignored (the request may already have been
// abandoned by a cancelled context).
func (m *Manager) Resolve(requestID uint32, segments [][]byte) {
	m.mu.Lock()
	p, ok := m.pending[requestID]
	if ok {
		delete(m.pending, requestID)
	}
	m.mu.Unlock()
	if ok {
		p.Provide(segments)
	}
}

// AbandonAll releases every outstanding request without a value, used when
// the underlying connection is torn down so callers blocked in Request
// don't hang forever.
func (m *Manager) AbandonAll() {
	m.mu.Lock()
	pending := m.pending
	m.pending = make(map[uint32]*waiter.Provider[[][]byte])
	m.mu.Unlock()
	for _, p := range pending {
		p.Abandon()
	}
}

// Request asks the host for amount items of dataset starting at startIndex
// and blocks until the reply arrives, ctx ends, or AbandonAll releases it;
// the last two return an error.
func (m *Manager) Request(ctx context.Context, dataset string, startIndex, amount uint32) ([][]byte, error) {
	w, p := waiter.New[[][]byte]()

	m.mu.Lock()
	reqID := m.nextReqID
	m.nextReqID++
	m.pending[reqID] = p
	m.mu.Unlock()

	body, err := protocol.EncodeRequestData(reqID, dataset, startIndex, amount)
	if err != nil {
		m.mu.Lock()
		delete(m.pending, reqID)
		m.mu.Unlock()
		return nil, fmt.Errorf("dataloader: encode requestData: %w", err)
	}
	if err := m.sender.SendDataEvent(ctx, body); err != nil {
		m.mu.Lock()
		delete(m.pending, reqID)
		m.mu.Unlock()
		return nil, err
	}

	segments, ok := w.Get(ctx)
	if !ok {
		m.mu.Lock()
		delete(m.pending, reqID)
		m.mu.Unlock()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("dataloader: request %d abandoned", reqID)
	}
	return segments, nil
}

// Shuffle asks the host to commit to a shared permuted read order across
// datasets. It does not await a reply.
func (m *Manager) Shuffle(ctx context.Context, datasets []string) error {
	body, err := protocol.EncodeShuffle(datasets)
	if err != nil {
		return fmt.Errorf("dataloader: encode shuffle: %w", err)
	}
	return m.sender.SendDataEvent(ctx, body)
}
