package agentrpc

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the client can produce. Specific
// failures wrap one of these; callers classify with errors.Is, or use
// errors.As with *RPCError for errors returned by the agent itself.
var (
	// ErrConnectionFailure covers sockets that cannot be opened or written,
	// and peers that close before responding.
	ErrConnectionFailure = errors.New("agent connection failure")

	// ErrCallTimeout means no response arrived within the per-call timeout.
	ErrCallTimeout = errors.New("agent call timed out")

	// ErrProtocol means the agent responded with something that is not a
	// valid response document (empty or non-JSON).
	ErrProtocol = errors.New("agent protocol error")

	// ErrNotConnected means an operation that requires a connected client
	// was called before Connect succeeded.
	ErrNotConnected = errors.New("not connected to agent")

	// ErrInvalidArgument means the caller supplied arguments the client
	// rejected before performing any I/O.
	ErrInvalidArgument = errors.New("invalid argument")
)

// RPCError is an error object returned by the agent. Code, Message, and Data
// carry the agent's values verbatim.
type RPCError struct {
	Code    int
	Message string
	Data    any
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
