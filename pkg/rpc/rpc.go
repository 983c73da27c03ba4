// Package rpc defines the JSON-RPC 2.0 method surface and tool dispatch
// interface described by spec.md §6, without providing a transport. The
// wire protocol is out-of-core (spec.md's OUT OF SCOPE list names "JSON-RPC
// dispatch and tool schema wiring" explicitly); this package exists so the
// line-delimited stdio/UNIX-socket framing spec.md describes has real Go
// types and a dispatch table to plug a transport into, grounded on
// pkg/mcp/types.go's Tool/CallToolRequest/CallToolResponse shape and
// pkg/mcp/server.go's doCallTool name-based dispatch.
package rpc

import "encoding/json"

// Error codes from spec.md §6's wire protocol table.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeToolNotFound   = -32001
	CodeToolError      = -32002
)

// Request is one JSON-RPC 2.0 request object.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is one JSON-RPC 2.0 response object. Exactly one of Result or
// Error is set, matching the spec.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// Method names §6 lists on the wire.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "initialized"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
	MethodShutdown    = "shutdown"
)

// Tool describes one callable tool, advertised via tools/list.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ToolsListResult is the result payload of a tools/list call.
type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}

// ToolsCallParams is the params payload of a tools/call request.
type ToolsCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Content is one piece of a tool call's response, matching spec.md §6's
// {type:"text", text} shape.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolsCallResult wraps a tool's output for the wire. Structured carries an
// optional machine-readable result alongside the text rendering.
type ToolsCallResult struct {
	Content    []Content   `json:"content"`
	IsError    bool        `json:"isError,omitempty"`
	Structured interface{} `json:"structured,omitempty"`
}

// Handler executes one named tool against whatever backing store a
// transport wires in (typically a *pkg/mind.Mind). Implementations decide
// how to turn args into a Mind call and a Mind result into ToolsCallResult.
type Handler func(args map[string]interface{}) (ToolsCallResult, error)

// Dispatcher routes tools/call requests to registered Handlers by name. It
// has no network code; a transport (stdio framer, UNIX socket listener)
// owns reading Requests and writing Responses, and calls Dispatch for each
// one, mirroring pkg/mcp's doCallTool name lookup.
type Dispatcher struct {
	tools    []Tool
	handlers map[string]Handler
}

// NewDispatcher builds an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register adds one named tool and its handler. Registering the same name
// twice replaces the previous registration.
func (d *Dispatcher) Register(tool Tool, h Handler) {
	for i, t := range d.tools {
		if t.Name == tool.Name {
			d.tools[i] = tool
			d.handlers[tool.Name] = h
			return
		}
	}
	d.tools = append(d.tools, tool)
	d.handlers[tool.Name] = h
}

// ListTools implements tools/list.
func (d *Dispatcher) ListTools() ToolsListResult {
	return ToolsListResult{Tools: append([]Tool(nil), d.tools...)}
}

// CallTool implements tools/call, returning a JSON-RPC error (code
// CodeToolNotFound) when no handler is registered under params.Name.
func (d *Dispatcher) CallTool(params ToolsCallParams) (ToolsCallResult, *Error) {
	h, ok := d.handlers[params.Name]
	if !ok {
		return ToolsCallResult{}, &Error{Code: CodeToolNotFound, Message: "unknown tool: " + params.Name}
	}
	result, err := h(params.Arguments)
	if err != nil {
		return ToolsCallResult{}, &Error{Code: CodeToolError, Message: err.Error()}
	}
	return result, nil
}
