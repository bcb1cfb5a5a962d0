package agentrpc

import "encoding/json"

// protocolVersion is the JSON-RPC version stamped on every request.
const protocolVersion = "2.0"

// request is one outgoing JSON-RPC 2.0 request document.
type request struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	ID      uint64         `json:"id"`
	Params  map[string]any `json:"params,omitempty"`
}

// response is one incoming JSON-RPC 2.0 response document. Exactly one of
// Result and Error is expected to be present.
type response struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *responseError  `json:"error,omitempty"`
}

type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// AgentInfo describes the supervising agent. Fields the agent omits from its
// reply default to "unknown".
type AgentInfo struct {
	AgentID     string `json:"agent_id"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

// LogEntry is one structured log record for upload_logs. The agent requires
// all three fields; UploadLogs rejects entries missing any of them.
type LogEntry struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
