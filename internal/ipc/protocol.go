package ipc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/1broseidon/queuelip/internal/command"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandOpenAuxiliary          CommandType = "OPEN_AUXILIARY"
	CommandCloseAuxiliary         CommandType = "CLOSE_AUXILIARY"
	CommandShowPrimary            CommandType = "SHOW_PRIMARY"
	CommandHidePrimary            CommandType = "HIDE_PRIMARY"
	CommandCreatePrimaryIfMissing CommandType = "CREATE_PRIMARY_IF_MISSING"
	CommandReopenPrimary          CommandType = "REOPEN_PRIMARY"
	CommandCreatePopup            CommandType = "CREATE_POPUP"
	CommandCloseWindow            CommandType = "CLOSE_WINDOW"
	CommandCloseCurrentWindow     CommandType = "CLOSE_CURRENT_WINDOW"
	CommandForceQuit              CommandType = "FORCE_QUIT"
	CommandGetStatus              CommandType = "GET_STATUS"
	CommandListWindows            CommandType = "LIST_WINDOWS"
)

// CommandFor converts a command name (open_auxiliary) to its wire form.
func CommandFor(name string) CommandType {
	return CommandType(strings.ToUpper(command.Normalize(name)))
}

// Request represents an IPC request from client to server
type Request struct {
	Command   CommandType     `json:"command"`
	Caller    string          `json:"caller,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status    string          `json:"status"` // "OK" or "ERROR"
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: command is required")
	}
	return &req, nil
}

// Args decodes the request payload. An absent payload yields zero Args.
func (r *Request) Args() (command.Args, error) {
	var args command.Args
	if len(r.Payload) == 0 || string(r.Payload) == "null" {
		return args, nil
	}
	if err := json.Unmarshal(r.Payload, &args); err != nil {
		return args, fmt.Errorf("invalid %s payload: %w", r.Command, err)
	}
	return args, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
