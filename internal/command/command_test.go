package command

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/queuelip/internal/monitoring"
	"github.com/1broseidon/queuelip/internal/shell"
	"github.com/1broseidon/queuelip/internal/window"
)

type fakeCoordinator struct {
	calls []string
	err   error
}

func (f *fakeCoordinator) record(parts ...string) error {
	f.calls = append(f.calls, strings.Join(parts, ":"))
	return f.err
}

func (f *fakeCoordinator) OpenAuxiliary(_ context.Context, kind, payload string) error {
	return f.record("open", kind, payload)
}
func (f *fakeCoordinator) CloseAuxiliary(_ context.Context, kind string) error {
	return f.record("close", kind)
}
func (f *fakeCoordinator) ShowPrimary(context.Context) error { return f.record("show") }
func (f *fakeCoordinator) HidePrimary(context.Context) error { return f.record("hide") }
func (f *fakeCoordinator) CreatePrimaryIfMissing(context.Context) error {
	return f.record("create_primary")
}
func (f *fakeCoordinator) ReopenPrimary(context.Context) error { return f.record("reopen") }
func (f *fakeCoordinator) CreatePopup(_ context.Context, label, title, url string) error {
	return f.record("popup", label, title, url)
}
func (f *fakeCoordinator) CloseWindow(_ context.Context, label string) error {
	return f.record("close_window", label)
}
func (f *fakeCoordinator) CloseCurrentWindow(_ context.Context, caller string) error {
	return f.record("close_current", caller)
}
func (f *fakeCoordinator) ForceQuit(context.Context) error { return f.record("quit") }
func (f *fakeCoordinator) Status(context.Context) (shell.Status, error) {
	return shell.Status{State: "running"}, f.record("status")
}
func (f *fakeCoordinator) Windows(context.Context) ([]window.Info, error) {
	return []window.Info{{Label: window.PrimaryLabel}}, f.record("windows")
}

func TestDispatch_RoutesEveryCommand(t *testing.T) {
	coord := &fakeCoordinator{}
	d := NewDispatcher(coord, nil, nil)
	ctx := context.Background()

	calls := []Call{
		{Name: "OPEN_AUXILIARY", Args: Args{Kind: "dashboard", Context: "c1"}},
		{Name: "close-auxiliary", Args: Args{Kind: "mini"}},
		{Name: ShowPrimary},
		{Name: HidePrimary},
		{Name: CreatePrimaryIfMissing},
		{Name: ReopenPrimary},
		{Name: CreatePopup, Args: Args{Label: "about", Title: "About", URL: "about.html"}},
		{Name: CloseWindow, Args: Args{Label: "about"}},
		{Name: CloseCurrentWindow, Caller: "p1"},
		{Name: ForceQuit},
	}
	for _, call := range calls {
		data, err := d.Dispatch(ctx, call)
		require.NoError(t, err, call.Name)
		assert.Nil(t, data, call.Name)
	}

	assert.Equal(t, []string{
		"open:dashboard:c1",
		"close:mini",
		"show",
		"hide",
		"create_primary",
		"reopen",
		"popup:about:About:about.html",
		"close_window:about",
		"close_current:p1",
		"quit",
	}, coord.calls)
}

func TestDispatch_QueriesReturnData(t *testing.T) {
	d := NewDispatcher(&fakeCoordinator{}, nil, nil)

	data, err := d.Dispatch(context.Background(), Call{Name: "GET_STATUS"})
	require.NoError(t, err)
	assert.Equal(t, shell.Status{State: "running"}, data)

	data, err = d.Dispatch(context.Background(), Call{Name: ListWindows})
	require.NoError(t, err)
	infos, ok := data.([]window.Info)
	require.True(t, ok)
	assert.Equal(t, window.PrimaryLabel, infos[0].Label)
}

func TestDispatch_MissingArguments(t *testing.T) {
	coord := &fakeCoordinator{}
	d := NewDispatcher(coord, nil, nil)

	for _, name := range []string{OpenAuxiliary, CloseAuxiliary, CloseWindow} {
		_, err := d.Dispatch(context.Background(), Call{Name: name})
		assert.ErrorIs(t, err, ErrMissingArg, name)
	}
	assert.Empty(t, coord.calls)
}

func TestDispatch_UnknownCommand(t *testing.T) {
	d := NewDispatcher(&fakeCoordinator{}, nil, nil)
	_, err := d.Dispatch(context.Background(), Call{Name: "TILE"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, err.Error(), "TILE")
}

func TestDispatch_PropagatesCoordinatorErrors(t *testing.T) {
	want := errors.New("boom")
	d := NewDispatcher(&fakeCoordinator{err: want}, nil, nil)
	_, err := d.Dispatch(context.Background(), Call{Name: ShowPrimary})
	assert.ErrorIs(t, err, want)
}

func TestDispatch_RecordsCommandMetric(t *testing.T) {
	metrics := monitoring.NewMetrics()
	d := NewDispatcher(&fakeCoordinator{}, nil, metrics)
	_, err := d.Dispatch(context.Background(), Call{Transport: "ipc", Name: "SHOW_PRIMARY"})
	require.NoError(t, err)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() != "queuelip_commands_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["transport"] == "ipc" && labels["command"] == ShowPrimary {
				found = true
				assert.Equal(t, 1.0, m.GetCounter().GetValue())
			}
		}
	}
	assert.True(t, found, "expected commands_total{transport=ipc,command=show_primary}")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "close_current_window", Normalize(" CLOSE-CURRENT-WINDOW "))
	assert.Len(t, Names(), 12)
}
