package daemon

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/1broseidon/queuelip/internal/command"
	"github.com/1broseidon/queuelip/internal/config"
	"github.com/1broseidon/queuelip/internal/ipc"
	"github.com/1broseidon/queuelip/internal/platform"
	"github.com/1broseidon/queuelip/internal/shell"
	"github.com/1broseidon/queuelip/internal/window"
)

type result struct {
	code int
	err  error
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Backend = config.BackendMemory
	cfg.ExitGrace = 50 * time.Millisecond
	cfg.Bridge.Listen = "127.0.0.1:0"
	cfg.ReconcileInterval = 20 * time.Millisecond
	return cfg
}

func startRun(t *testing.T, ctx context.Context, opts Options) (<-chan result, *shell.Shell) {
	t.Helper()

	started := make(chan *shell.Shell, 1)
	opts.Started = func(sh *shell.Shell) { started <- sh }
	if opts.Logger == nil {
		opts.Logger = zaptest.NewLogger(t)
	}

	done := make(chan result, 1)
	go func() {
		code, err := Run(ctx, opts)
		done <- result{code: code, err: err}
	}()

	select {
	case sh := <-started:
		return done, sh
	case r := <-done:
		t.Fatalf("daemon exited early: code=%d err=%v", r.code, r.err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not become ready")
	}
	return nil, nil
}

func waitResult(t *testing.T, done <-chan result) result {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("daemon did not exit")
	}
	return result{}
}

func TestRun_ForceQuitOverIPC(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "q.sock")
	done, _ := startRun(t, context.Background(), Options{Config: testConfig(), SocketPath: socket})

	client := ipc.NewClientWithSocket(socket)
	require.NoError(t, client.Ping())

	_, err := client.Invoke(command.OpenAuxiliary, command.Args{Kind: "dashboard"})
	require.NoError(t, err)
	infos, err := client.ListWindows()
	require.NoError(t, err)
	assert.NotEmpty(t, infos)

	_, err = client.Invoke(command.ForceQuit, command.Args{})
	require.NoError(t, err)

	r := waitResult(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, 0, r.code)
	assert.NoFileExists(t, socket)
}

func TestRun_ContextCancelExitsCleanly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig()
	cfg.Bridge.Enabled = false
	done, _ := startRun(t, ctx, Options{Config: cfg, SocketPath: filepath.Join(t.TempDir(), "q.sock")})

	cancel()
	r := waitResult(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, 0, r.code)
}

func TestRun_SessionExitRequest(t *testing.T) {
	sys := platform.NewMemorySystem()
	cfg := testConfig()
	cfg.Bridge.Enabled = false
	done, sh := startRun(t, context.Background(), Options{
		Config:     cfg,
		SocketPath: filepath.Join(t.TempDir(), "q.sock"),
		System:     sys,
	})

	_, ok := sh.HandleOf(context.Background(), window.PrimaryLabel)
	require.True(t, ok, "primary window should exist after startup")

	sys.RequestExit()
	r := waitResult(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, 0, r.code)
}

func TestRun_HotkeyOpensAuxiliary(t *testing.T) {
	sys := platform.NewMemorySystem()
	cfg := testConfig()
	cfg.Bridge.Enabled = false
	cfg.Hotkeys = map[string]config.Hotkey{
		"Mod4-d": {Command: "open-auxiliary", Kind: "dashboard"},
	}
	socket := filepath.Join(t.TempDir(), "q.sock")
	done, sh := startRun(t, context.Background(), Options{Config: cfg, SocketPath: socket, System: sys})

	require.True(t, sys.PressKey("Mod4-d"))
	require.Eventually(t, func() bool {
		_, ok := sh.HandleOf(context.Background(), "dashboard")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	_, err := ipc.NewClientWithSocket(socket).Invoke(command.ForceQuit, command.Args{})
	require.NoError(t, err)
	waitResult(t, done)
}

func TestRun_SecondInstanceRefused(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "q.sock")
	cfg := testConfig()
	cfg.Bridge.Enabled = false
	done, _ := startRun(t, context.Background(), Options{Config: cfg, SocketPath: socket})

	code, err := Run(context.Background(), Options{
		Config:     cfg,
		SocketPath: socket,
		Logger:     zaptest.NewLogger(t),
	})
	assert.ErrorIs(t, err, ipc.ErrAlreadyRunning)
	assert.Equal(t, 1, code)

	_, err = ipc.NewClientWithSocket(socket).Invoke(command.ForceQuit, command.Args{})
	require.NoError(t, err)
	waitResult(t, done)
}

func TestRun_InvalidBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Backend = "wayland"
	code, err := Run(context.Background(), Options{Config: cfg, SocketPath: filepath.Join(t.TempDir(), "q.sock")})
	require.Error(t, err)
	assert.Equal(t, 1, code)
}

type fakeTarget struct {
	calls   atomic.Int32
	dropped []string
	err     error
	panics  bool
}

func (f *fakeTarget) Reconcile(context.Context) ([]string, error) {
	f.calls.Add(1)
	if f.panics {
		panic("boom")
	}
	return f.dropped, f.err
}

func TestReconciler_ReconcileNow(t *testing.T) {
	target := &fakeTarget{dropped: []string{"dashboard"}}
	r := NewReconciler(ReconcilerConfig{Logger: zaptest.NewLogger(t)}, target)

	assert.Equal(t, []string{"dashboard"}, r.ReconcileNow(context.Background()))
	assert.Equal(t, int32(1), target.calls.Load())
}

func TestReconciler_ErrorsAndPanicsAreContained(t *testing.T) {
	target := &fakeTarget{err: errors.New("shell stopped")}
	r := NewReconciler(ReconcilerConfig{}, target)
	assert.Nil(t, r.ReconcileNow(context.Background()))

	target.err = nil
	target.panics = true
	assert.NotPanics(t, func() { r.ReconcileNow(context.Background()) })
}

func TestReconciler_RunTicksUntilCancelled(t *testing.T) {
	target := &fakeTarget{}
	r := NewReconciler(ReconcilerConfig{Interval: 5 * time.Millisecond}, target)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return target.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}

func TestReconciler_DefaultInterval(t *testing.T) {
	r := NewReconciler(ReconcilerConfig{}, &fakeTarget{})
	assert.Equal(t, 10*time.Second, r.interval)
}
