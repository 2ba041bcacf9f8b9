package model

import (
	"bufio"
	"context"
	"fmt"

	"github.com/decthings/model-go/internal/config"
	"github.com/decthings/model-go/internal/dataloader"
	"github.com/decthings/model-go/internal/logging"
	"github.com/decthings/model-go/internal/protocol"
	"github.com/decthings/model-go/internal/runner"
	"github.com/decthings/model-go/internal/transport"
)

// Options configures Run.
type Options struct {
	// Logger receives operational log messages. If nil, a default leveled
	// logger writing to stderr is used.
	Logger Logger

	// Observer receives ambient metrics. If nil, a NoOpObserver is used.
	Observer Observer
}

// Run is the adapter's entry point: it reads IPC_PATH from the
// environment, dials the host's unix-domain socket, sends the startup
// handshake, and dispatches commands against m until the connection
// closes or ctx is done.
//
// Mirrors go-ublk's CreateAndServe/StopAndDelete symmetry minus the delete
// half: there is no explicit session teardown in this protocol, so Run
// returning (on EOF or a fatal I/O error) is the whole lifecycle.
func Run(ctx context.Context, m Model, opts Options) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapError("Run", CodeInvalidConfiguration, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(&logging.Config{Level: cfg.LogLevel}).WithPrefix("session")
	}

	conn, err := transport.Dial(cfg.IPCPath)
	if err != nil {
		return WrapError("Run", CodeConnectionFailed, err)
	}
	defer conn.Close()
	stopOnDone := context.AfterFunc(ctx, func() { conn.Close() })
	defer stopOnDone()

	logger.Printf("connected to host at %s", cfg.IPCPath)

	observer := opts.Observer
	if observer == nil {
		observer = &NoOpObserver{}
	}

	writer := transport.BufferedWriter(conn)
	reader := bufio.NewReader(conn)

	sender, writerDone := transport.NewSender(writer)
	dlMgr := dataloader.NewManager(sender)
	r := runner.New(m, sender, dlMgr, logger, observer)

	initBody, err := protocol.EncodeModelSessionInitialized()
	if err != nil {
		return WrapError("Run", CodeException, err)
	}
	if err := sender.SendEvent(ctx, initBody, nil); err != nil {
		return WrapError("Run", CodeConnectionFailed, fmt.Errorf("send handshake: %w", err))
	}

	runErr := r.Run(ctx, reader)
	sender.Close()
	if writeErr := <-writerDone; writeErr != nil && runErr == nil {
		runErr = writeErr
	}

	if runErr != nil {
		logger.Errorf("session ended: %v", runErr)
		return WrapError("Run", CodeConnectionFailed, runErr)
	}
	logger.Printf("session ended")
	return nil
}
