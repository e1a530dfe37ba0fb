package mcp

import (
	"context"
	"encoding/json"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/1broseidon/queuelip/internal/command"
)

const (
	ServerName    = "queuelip"
	ServerVersion = "0.1.0"
)

// Invoker sends a command to the running daemon. *ipc.Client satisfies it.
type Invoker interface {
	Invoke(name string, args command.Args) (json.RawMessage, error)
}

// Server is the MCP server exposing the window commands as tools.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Invoker
	logger    *zap.Logger
}

// NewServer creates an MCP server that forwards tool calls to daemon.
func NewServer(daemon Invoker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		daemon: daemon,
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        command.OpenAuxiliary,
		Description: "Show an auxiliary window (mini, dashboard, or any configured kind) and hide the primary window. Only one primary surface is visible at a time. The optional context is delivered to the window as a <kind>-context event.",
	}, s.handleOpenAuxiliary)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        command.CloseAuxiliary,
		Description: "Hide (or destroy, for destroy-recreate kinds) an auxiliary window and restore the primary window. Closing a kind that is not open is a no-op.",
	}, s.handleCloseAuxiliary)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        command.ShowPrimary,
		Description: "Show, unminimize and focus the primary window. Fails if the primary window does not exist.",
	}, s.handleShowPrimary)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        command.HidePrimary,
		Description: "Hide the primary window without destroying it.",
	}, s.handleHidePrimary)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        command.CreatePrimaryIfMissing,
		Description: "Show the primary window, creating it first if it does not exist.",
	}, s.handleCreatePrimaryIfMissing)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        command.ReopenPrimary,
		Description: "Rebuild the primary window after a destroy-recreate auxiliary window replaced it.",
	}, s.handleReopenPrimary)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        command.CreatePopup,
		Description: "Open a transient popup window under a new label. Fails if the label is already live or reserved.",
	}, s.handleCreatePopup)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        command.CloseWindow,
		Description: "Destroy the window with the given label immediately.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        command.ForceQuit,
		Description: "Exit the application after a short grace period. Never fails.",
	}, s.handleForceQuit)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        command.GetStatus,
		Description: "Report whether the application is running or exiting, its uptime, configured auxiliary kinds and live windows.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        command.ListWindows,
		Description: "List live windows with role, kind, visibility and generation.",
	}, s.handleListWindows)
}
