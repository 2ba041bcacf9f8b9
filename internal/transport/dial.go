package transport

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// sockBufSize is the SO_SNDBUF/SO_RCVBUF size set on the IPC socket. Evaluate
// results and state/weights batches can be tens of megabytes; a larger
// kernel buffer than the 212KiB Linux default cuts down on the number of
// partial writes/reads for the common large-payload case.
const sockBufSize = 1 << 20

// Dial opens a unix-domain socket at path and returns it as a net.Conn.
// Grounded on go-ublk's internal/queue/runner.go pattern of reaching past
// the generic standard-library interface to raw syscalls when it needs
// control (retry-on-EINTR open, socket option tuning) the stdlib doesn't
// expose: here, unix.Socket/unix.Connect plus unix.SetsockoptInt tune
// SO_SNDBUF/SO_RCVBUF before the fd is handed to net.FileConn.
func Dial(path string) (net.Conn, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("transport: socket: %w", err)
	}

	addr := &unix.SockaddrUnix{Name: path}
	for {
		err = unix.Connect(fd, addr)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: connect %s: %w", path, err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, sockBufSize); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: set SO_SNDBUF: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, sockBufSize); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: set SO_RCVBUF: %w", err)
	}

	f := os.NewFile(uintptr(fd), path)
	defer f.Close()

	conn, err := net.FileConn(f)
	if err != nil {
		return nil, fmt.Errorf("transport: FileConn: %w", err)
	}
	return conn, nil
}
