package agentrpc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// maxResponseBytes bounds a single response line from the agent.
const maxResponseBytes = 1 << 20

// transport performs one request/response exchange per Unix socket
// connection. It holds no connection state and never retries; retry policy
// belongs to the Client.
type transport struct {
	socketPath string
	timeout    time.Duration
}

// send dials the agent socket, writes one newline-terminated request
// document, and reads one response line. A single deadline covers connect,
// write, and read; the connection is closed on every exit path.
func (t transport) send(ctx context.Context, req []byte) ([]byte, error) {
	deadline := time.Now().Add(t.timeout)

	d := net.Dialer{Deadline: deadline}
	conn, err := d.DialContext(ctx, "unix", t.socketPath)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: dialing %s: %v", ErrCallTimeout, t.socketPath, err)
		}
		return nil, fmt.Errorf("%w: dialing %s: %v", ErrConnectionFailure, t.socketPath, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("%w: setting deadline: %v", ErrConnectionFailure, err)
	}

	if _, err := conn.Write(req); err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: writing request: %v", ErrCallTimeout, err)
		}
		return nil, fmt.Errorf("%w: writing request: %v", ErrConnectionFailure, err)
	}

	r := bufio.NewReader(io.LimitReader(conn, maxResponseBytes))
	resp, err := r.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: no response within %s", ErrCallTimeout, t.timeout)
		}
		return nil, fmt.Errorf("%w: reading response: %v", ErrConnectionFailure, err)
	}

	resp = bytes.TrimSpace(resp)
	if len(resp) == 0 {
		return nil, fmt.Errorf("%w: empty response from agent", ErrProtocol)
	}
	return resp, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
