// Package agentrpc implements the JSON-RPC 2.0 client that plugins use to
// talk to their supervising Stavily agent over a Unix domain socket.
//
// Each call opens a dedicated connection, writes one newline-terminated
// request document, and reads one response line. The client tracks a logical
// connection state: Connect establishes it with a ping probe and only an
// explicit Disconnect tears it down — transport failures on individual calls
// leave the state untouched, so callers must re-check IsConnected after a
// failed call if they care.
//
// A Client is owned by a single monitor loop and is not safe for concurrent
// use without external mutual exclusion.
package agentrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// EnvSocketPath is the environment variable the agent sets to point plugins
// at its control socket.
const EnvSocketPath = "STAVILY_AGENT_SOCKET"

// Defaults used by the configuration layer for unset connection settings.
const (
	DefaultTimeout    = 5 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// Config carries the client connection settings. MaxRetries and RetryDelay
// are taken as-is (zero is meaningful); a zero Timeout falls back to
// DefaultTimeout.
type Config struct {
	// SocketPath is the agent's Unix socket path. When empty the value of
	// EnvSocketPath is used.
	SocketPath string

	// Timeout bounds connect+write+read of a single call.
	Timeout time.Duration

	// MaxRetries is the number of extra connect probes after the first
	// attempt fails.
	MaxRetries int

	// RetryDelay is the fixed pause between connect probes.
	RetryDelay time.Duration
}

// Client is a JSON-RPC client for one agent socket.
type Client struct {
	tr         transport
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	nextID    uint64
	connected bool
}

// New builds a Client. It fails when no socket path is configured and
// EnvSocketPath is unset.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	path := cfg.SocketPath
	if path == "" {
		path = os.Getenv(EnvSocketPath)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: socket path not configured and %s not set",
			ErrInvalidArgument, EnvSocketPath)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		tr:         transport{socketPath: path, timeout: timeout},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}, nil
}

// SocketPath returns the resolved socket path the client dials.
func (c *Client) SocketPath() string { return c.tr.socketPath }

// Connect verifies the agent is reachable with a ping probe through the
// normal call path and marks the client connected. A failed probe is retried
// up to MaxRetries extra times with a fixed delay. Connecting an already
// connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	if c.connected {
		return nil
	}

	var last error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Agent connect attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("delay", c.retryDelay),
				zap.Error(last))
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: connect cancelled: %w", ErrConnectionFailure, ctx.Err())
			case <-time.After(c.retryDelay):
			}
		}

		if _, err := c.call(ctx, "ping", nil); err != nil {
			last = err
			continue
		}

		c.connected = true
		c.logger.Info("Connected to agent", zap.String("socket", c.tr.socketPath))
		return nil
	}

	return fmt.Errorf("%w: failed after %d attempts: %w",
		ErrConnectionFailure, c.maxRetries+1, last)
}

// Disconnect drops the logical connection. It performs no I/O and is
// idempotent.
func (c *Client) Disconnect() {
	c.connected = false
	c.logger.Debug("Disconnected from agent")
}

// IsConnected reports the logical connection state.
func (c *Client) IsConnected() bool { return c.connected }

// Session runs fn with a connected client and guarantees Disconnect on every
// exit path.
func (c *Client) Session(ctx context.Context, fn func(*Client) error) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Disconnect()
	return fn(c)
}

// ReportTrigger reports a threshold breach to the agent and returns the
// agent's acknowledgment.
func (c *Client) ReportTrigger(ctx context.Context, triggerName string, payload map[string]any) (map[string]any, error) {
	if !c.connected {
		return nil, fmt.Errorf("%w: report_trigger requires Connect", ErrNotConnected)
	}

	res, err := c.call(ctx, "report_trigger", map[string]any{
		"trigger_name": triggerName,
		"payload":      payload,
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Reported trigger to agent", zap.String("trigger", triggerName))
	return decodeObject(res)
}

// UploadLogs sends structured log records to the agent. Every entry must
// carry a level, message, and timestamp; an incomplete entry fails the whole
// call with ErrInvalidArgument before any socket I/O.
func (c *Client) UploadLogs(ctx context.Context, entries []LogEntry) (map[string]any, error) {
	if !c.connected {
		return nil, fmt.Errorf("%w: upload_logs requires Connect", ErrNotConnected)
	}
	for i, e := range entries {
		if e.Level == "" || e.Message == "" || e.Timestamp == "" {
			return nil, fmt.Errorf("%w: log entry %d must carry level, message, and timestamp",
				ErrInvalidArgument, i)
		}
	}

	res, err := c.call(ctx, "upload_logs", map[string]any{"logs": entries})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Uploaded log entries to agent", zap.Int("count", len(entries)))
	return decodeObject(res)
}

// GetAgentInfo fetches the agent's identity. Missing fields default to
// "unknown".
func (c *Client) GetAgentInfo(ctx context.Context) (AgentInfo, error) {
	if !c.connected {
		return AgentInfo{}, fmt.Errorf("%w: get_agent_info requires Connect", ErrNotConnected)
	}

	res, err := c.call(ctx, "get_agent_info", nil)
	if err != nil {
		return AgentInfo{}, err
	}
	obj, err := decodeObject(res)
	if err != nil {
		return AgentInfo{}, err
	}

	return AgentInfo{
		AgentID:     stringOr(obj, "agent_id", "unknown"),
		Version:     stringOr(obj, "version", "unknown"),
		Environment: stringOr(obj, "environment", "unknown"),
	}, nil
}

// GetConfig fetches one configuration section from the agent. A reply
// without a "config" member decodes to an empty map.
func (c *Client) GetConfig(ctx context.Context, section string) (map[string]any, error) {
	if !c.connected {
		return nil, fmt.Errorf("%w: get_config requires Connect", ErrNotConnected)
	}

	res, err := c.call(ctx, "get_config", map[string]any{"section": section})
	if err != nil {
		return nil, err
	}
	obj, err := decodeObject(res)
	if err != nil {
		return nil, err
	}

	if cfg, ok := obj["config"].(map[string]any); ok {
		return cfg, nil
	}
	return map[string]any{}, nil
}

// call performs one JSON-RPC exchange. Request ids strictly increase per
// client instance, starting at 1, and are never reused.
func (c *Client) call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	c.nextID++
	req := request{
		JSONRPC: protocolVersion,
		Method:  method,
		ID:      c.nextID,
		Params:  params,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling %s request: %v", ErrInvalidArgument, method, err)
	}

	raw, err := c.tr.send(ctx, append(data, '\n'))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON response to %s: %v", ErrProtocol, method, err)
	}
	if resp.Error != nil {
		return nil, &RPCError{
			Code:    resp.Error.Code,
			Message: resp.Error.Message,
			Data:    resp.Error.Data,
		}
	}
	return resp.Result, nil
}

// decodeObject unmarshals a result member into a map. An absent or null
// result decodes to an empty map.
func decodeObject(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: result is not an object: %v", ErrProtocol, err)
	}
	return m, nil
}

func stringOr(obj map[string]any, key, fallback string) string {
	if v, ok := obj[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
