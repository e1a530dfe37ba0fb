package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/1broseidon/queuelip/internal/command"
	"github.com/1broseidon/queuelip/internal/config"
	"github.com/1broseidon/queuelip/internal/lifecycle"
	"github.com/1broseidon/queuelip/internal/platform"
	"github.com/1broseidon/queuelip/internal/shell"
	"github.com/1broseidon/queuelip/internal/window"
)

func startDaemon(t *testing.T) (*Client, *shell.Shell) {
	t.Helper()

	policy, err := lifecycle.New(config.DefaultConfig().PolicyConfig())
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	sh, err := shell.New(shell.Options{
		Policy: policy,
		System: platform.NewMemorySystem(),
		Logger: logger,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = sh.Run(ctx) }()
	<-sh.Ready()

	socket := filepath.Join(t.TempDir(), "q.sock")
	srv, err := NewServer(socket, command.NewDispatcher(sh, logger, nil), logger)
	require.NoError(t, err)
	require.NoError(t, srv.Start())

	t.Cleanup(func() {
		srv.Stop()
		cancel()
		<-sh.Done()
	})
	return NewClientWithSocket(socket), sh
}

func TestServer_OpenAuxiliaryAndListWindows(t *testing.T) {
	client, _ := startDaemon(t)

	_, err := client.Invoke(command.OpenAuxiliary, command.Args{Kind: "dashboard", Context: "ctx-1"})
	require.NoError(t, err)

	infos, err := client.ListWindows()
	require.NoError(t, err)

	byLabel := map[string]window.Info{}
	for _, info := range infos {
		byLabel[info.Label] = info
	}
	require.Contains(t, byLabel, "dashboard")
	assert.Equal(t, "visible", byLabel["dashboard"].Visibility)
	assert.Equal(t, "hidden", byLabel[window.PrimaryLabel].Visibility)
}

func TestServer_StatusReportsKinds(t *testing.T) {
	client, _ := startDaemon(t)

	status, err := client.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "running", status.State)
	assert.Equal(t, []string{"dashboard", "mini"}, status.Kinds)
	require.Len(t, status.Windows, 1)
	assert.NoError(t, client.Ping())
}

func TestServer_ErrorsAreStrings(t *testing.T) {
	client, _ := startDaemon(t)

	_, err := client.Invoke(command.OpenAuxiliary, command.Args{Kind: "settings"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daemon error")
	assert.Contains(t, err.Error(), "settings")

	_, err = client.Invoke(command.CreatePopup, command.Args{Label: "main"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "main")
}

func TestServer_CloseCurrentWindowUsesCaller(t *testing.T) {
	client, _ := startDaemon(t)

	_, err := client.Invoke(command.CreatePopup, command.Args{Label: "about", Title: "About", URL: "about.html"})
	require.NoError(t, err)

	_, err = client.WithCaller("about").Invoke(command.CloseCurrentWindow, command.Args{})
	require.NoError(t, err)

	infos, err := client.ListWindows()
	require.NoError(t, err)
	for _, info := range infos {
		assert.NotEqual(t, "about", info.Label)
	}
}

func TestServer_ForceQuitTerminatesShell(t *testing.T) {
	client, sh := startDaemon(t)

	_, err := client.Invoke(command.ForceQuit, command.Args{})
	require.NoError(t, err)

	select {
	case <-sh.Exit().Done():
		assert.Equal(t, 0, sh.Exit().Code())
	case <-time.After(2 * time.Second):
		t.Fatal("shell did not terminate after force_quit")
	}
}

func TestServer_RawProtocol(t *testing.T) {
	client, _ := startDaemon(t)

	conn, err := net.Dial("unix", client.socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`{"command":"GET_STATUS","request_id":"r-1"}` + "\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "r-1", resp.RequestID)
	assert.NotEmpty(t, resp.Data)
}

func TestServer_InvalidRequest(t *testing.T) {
	client, _ := startDaemon(t)

	conn, err := net.Dial("unix", client.socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not json\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	assert.Equal(t, "ERROR", resp.Status)
	assert.Contains(t, resp.Error, "Invalid request")
}

func TestServer_SecondStartFails(t *testing.T) {
	client, _ := startDaemon(t)

	other, err := NewServer(client.socketPath, command.NewDispatcher(nil, nil, nil), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, other.Start(), ErrAlreadyRunning)
}

func TestClient_NoDaemon(t *testing.T) {
	client := NewClientWithSocket(filepath.Join(t.TempDir(), "absent.sock"))
	err := client.Ping()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is the daemon running?")
}

func TestCommandFor(t *testing.T) {
	assert.Equal(t, CommandOpenAuxiliary, CommandFor(command.OpenAuxiliary))
	assert.Equal(t, CommandCloseCurrentWindow, CommandFor("close-current-window"))
}
