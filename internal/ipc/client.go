package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/1broseidon/queuelip/internal/command"
	"github.com/1broseidon/queuelip/internal/runtimepath"
	"github.com/1broseidon/queuelip/internal/shell"
	"github.com/1broseidon/queuelip/internal/window"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
	caller     string
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for an explicit socket path.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// WithCaller returns a copy of c that identifies itself as the window label
// caller, used by close_current_window.
func (c *Client) WithCaller(caller string) *Client {
	cp := *c
	cp.caller = caller
	return &cp
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// Invoke sends the named command with args and returns the raw response
// data.
func (c *Client) Invoke(name string, args command.Args) (json.RawMessage, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", name, err)
	}
	resp, err := c.sendRequest(&Request{
		Command:   CommandFor(name),
		Caller:    c.caller,
		RequestID: uuid.NewString(),
		Payload:   payload,
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*shell.Status, error) {
	data, err := c.Invoke(command.GetStatus, command.Args{})
	if err != nil {
		return nil, err
	}

	var status shell.Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// ListWindows retrieves the live windows.
func (c *Client) ListWindows() ([]window.Info, error) {
	data, err := c.Invoke(command.ListWindows, command.Args{})
	if err != nil {
		return nil, err
	}

	var infos []window.Info
	if err := json.Unmarshal(data, &infos); err != nil {
		return nil, fmt.Errorf("failed to parse windows data: %w", err)
	}
	return infos, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
