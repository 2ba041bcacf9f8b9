// Package transport owns the single outbound byte-stream writer and the
// connection bootstrap to the host's IPC endpoint. Grounded on
// decthings-model's unix/host_protocol.rs Sender (single-writer
// serializer over an mpsc queue) and on go-ublk's discipline of giving one
// goroutine exclusive ownership of a shared wire resource
// (internal/queue/runner.go's per-tag state machine serializes access to
// the shared io_uring submission queue the same way Sender serializes
// access to the shared socket).
package transport

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/decthings/model-go/internal/protocol"
)

// ErrSenderClosed is returned by Send* calls made after the writer loop has
// exited (e.g. following a fatal write error).
var ErrSenderClosed = errors.New("transport: sender closed")

type messageKind int

const (
	kindResultOrEvent messageKind = iota
	kindDataEvent
)

type message struct {
	kind    messageKind
	body    []byte
	extras  [][]byte
	release func()
}

// Sender is a cloneable handle to a single outbound writer goroutine. The
// zero value is not usable; construct with NewSender.
type Sender struct {
	queue chan message
}

// flusher is implemented by *bufio.Writer; the writer loop flushes after
// every message if the underlying writer supports it, matching the Rust
// Sender's per-message flush.
type flusher interface {
	Flush() error
}

// NewSender starts the writer goroutine over w and returns the sender
// handle plus a channel that receives exactly one value (nil or the fatal
// error that stopped the loop) when the loop exits.
func NewSender(w io.Writer) (*Sender, <-chan error) {
	queue := make(chan message, 1)
	done := make(chan error, 1)

	go func() {
		done <- runWriter(w, queue)
	}()

	return &Sender{queue: queue}, done
}

func runWriter(w io.Writer, queue chan message) error {
	var flush func() error
	if f, ok := w.(flusher); ok {
		flush = f.Flush
	} else {
		flush = func() error { return nil }
	}

	for msg := range queue {
		var err error
		switch msg.kind {
		case kindResultOrEvent:
			err = protocol.WriteResultOrEvent(w, msg.body, msg.extras)
		case kindDataEvent:
			err = protocol.WriteDataEvent(w, msg.body)
		}
		if msg.release != nil {
			msg.release()
		}
		if err != nil {
			return err
		}
		if err := flush(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) send(ctx context.Context, msg message) error {
	select {
	case s.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendResult enqueues a result frame for the given JSON body and any extra
// segments (e.g. the concatenated evaluate output tensors).
func (s *Sender) SendResult(ctx context.Context, body []byte, extras [][]byte) error {
	return s.send(ctx, message{kind: kindResultOrEvent, body: body, extras: extras})
}

// SendResultWithRelease is SendResult plus a callback invoked once the
// frame has been written (or the write failed), so a caller that built
// extras from a pooled buffer can return it without racing the writer
// goroutine.
func (s *Sender) SendResultWithRelease(ctx context.Context, body []byte, extras [][]byte, release func()) error {
	return s.send(ctx, message{kind: kindResultOrEvent, body: body, extras: extras, release: release})
}

// SendEvent enqueues an event frame.
func (s *Sender) SendEvent(ctx context.Context, body []byte, extras [][]byte) error {
	return s.send(ctx, message{kind: kindResultOrEvent, body: body, extras: extras})
}

// SendDataEvent enqueues a data-event frame (requestData / shuffle).
func (s *Sender) SendDataEvent(ctx context.Context, body []byte) error {
	return s.send(ctx, message{kind: kindDataEvent, body: body})
}

// Close signals the writer goroutine to exit once it drains the queue. Safe
// to call once; callers must not Send after calling Close.
func (s *Sender) Close() {
	close(s.queue)
}

// BufferedWriter wraps w in a *bufio.Writer, the concrete type the writer
// loop recognizes for per-message flushing.
func BufferedWriter(w io.Writer) *bufio.Writer {
	return bufio.NewWriter(w)
}
