package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/1broseidon/queuelip/internal/command"
	"github.com/1broseidon/queuelip/internal/shell"
	"github.com/1broseidon/queuelip/internal/window"
)

func (s *Server) action(name string, args command.Args) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if _, err := s.daemon.Invoke(name, args); err != nil {
		s.logger.Info("tool failed", zap.String("tool", name), zap.Error(err))
		return nil, ActionOutput{}, fmt.Errorf("%s: %w", name, err)
	}
	return nil, ActionOutput{Command: name, OK: true}, nil
}

func (s *Server) handleOpenAuxiliary(_ context.Context, _ *mcpsdk.CallToolRequest, args OpenAuxiliaryInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	kind := strings.TrimSpace(args.Kind)
	if kind == "" {
		return nil, ActionOutput{}, fmt.Errorf("kind is required")
	}
	return s.action(command.OpenAuxiliary, command.Args{Kind: kind, Context: args.Context})
}

func (s *Server) handleCloseAuxiliary(_ context.Context, _ *mcpsdk.CallToolRequest, args KindInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	kind := strings.TrimSpace(args.Kind)
	if kind == "" {
		return nil, ActionOutput{}, fmt.Errorf("kind is required")
	}
	return s.action(command.CloseAuxiliary, command.Args{Kind: kind})
}

func (s *Server) handleShowPrimary(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.action(command.ShowPrimary, command.Args{})
}

func (s *Server) handleHidePrimary(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.action(command.HidePrimary, command.Args{})
}

func (s *Server) handleCreatePrimaryIfMissing(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.action(command.CreatePrimaryIfMissing, command.Args{})
}

func (s *Server) handleReopenPrimary(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.action(command.ReopenPrimary, command.Args{})
}

func (s *Server) handleCreatePopup(_ context.Context, _ *mcpsdk.CallToolRequest, args CreatePopupInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.action(command.CreatePopup, command.Args{Label: args.Label, Title: args.Title, URL: args.URL})
}

func (s *Server) handleCloseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args LabelInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	label := strings.TrimSpace(args.Label)
	if label == "" {
		return nil, ActionOutput{}, fmt.Errorf("label is required")
	}
	return s.action(command.CloseWindow, command.Args{Label: label})
}

func (s *Server) handleForceQuit(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.action(command.ForceQuit, command.Args{})
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	data, err := s.daemon.Invoke(command.GetStatus, command.Args{})
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("%s: %w", command.GetStatus, err)
	}
	var st shell.Status
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, StatusOutput{}, fmt.Errorf("failed to parse status: %w", err)
	}
	return nil, StatusOutput{
		State:   st.State,
		Uptime:  st.Uptime,
		Kinds:   st.Kinds,
		Windows: toWindowInfos(st.Windows),
	}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.daemon.Invoke(command.ListWindows, command.Args{})
	if err != nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("%s: %w", command.ListWindows, err)
	}
	var infos []window.Info
	if err := json.Unmarshal(data, &infos); err != nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("failed to parse windows: %w", err)
	}
	return nil, ListWindowsOutput{Windows: toWindowInfos(infos)}, nil
}

func toWindowInfos(infos []window.Info) []WindowInfo {
	out := make([]WindowInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, WindowInfo{
			Label:      info.Label,
			Role:       info.Role,
			Kind:       info.Kind,
			Visibility: info.Visibility,
			Title:      info.Title,
			URL:        info.URL,
			Generation: info.Generation,
		})
	}
	return out
}
