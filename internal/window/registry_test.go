package window

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/queuelip/internal/platform"
)

var popupChrome = platform.Chrome{Width: 300, Height: 400}

func TestCreate_ReplacesStaleEntry(t *testing.T) {
	sys := platform.NewMemorySystem()
	r := NewRegistry(sys)

	first, err := r.Create("p1", RoleTransient, "popup", popupChrome)
	require.NoError(t, err)
	second, err := r.Create("p1", RoleTransient, "popup", popupChrome)
	require.NoError(t, err)

	assert.Equal(t, 2, second.Generation)
	_, ok := r.LabelFor(first.Handle)
	assert.False(t, ok)
	_, ok = sys.Window(first.Handle)
	assert.False(t, ok, "replaced OS window should be released")
	assert.Len(t, sys.Windows(), 1)
}

func TestCreate_ReplacedWindowAlreadyGone(t *testing.T) {
	sys := platform.NewMemorySystem()
	r := NewRegistry(sys)

	first, err := r.Create("p1", RoleTransient, "popup", popupChrome)
	require.NoError(t, err)
	sys.Vanish(first.Handle)

	second, err := r.Create("p1", RoleTransient, "popup", popupChrome)
	require.NoError(t, err)
	label, ok := r.LabelFor(second.Handle)
	require.True(t, ok)
	assert.Equal(t, "p1", label)
}

func TestCreate_ReleaseFailureKeepsStaleEntry(t *testing.T) {
	sys := platform.NewMemorySystem()
	r := NewRegistry(sys)

	first, err := r.Create("p1", RoleTransient, "popup", popupChrome)
	require.NoError(t, err)

	refused := errors.New("bad access")
	sys.FailNext("destroy", refused)
	_, err = r.Create("p1", RoleTransient, "popup", popupChrome)

	var cerr *CreationError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, refused)

	cur, ok := r.Lookup("p1")
	require.True(t, ok)
	assert.Equal(t, first.Handle, cur.Handle)
	label, ok := r.LabelFor(first.Handle)
	require.True(t, ok)
	assert.Equal(t, "p1", label)
	assert.Equal(t, 1, cur.Generation)
}

func TestDestroy(t *testing.T) {
	sys := platform.NewMemorySystem()
	r := NewRegistry(sys)

	w, err := r.Create("dashboard", RoleAuxiliary, "dashboard", popupChrome)
	require.NoError(t, err)
	require.NoError(t, r.Destroy("dashboard"))
	assert.ErrorIs(t, r.Destroy("dashboard"), ErrNotFound)

	_, ok := sys.Window(w.Handle)
	assert.False(t, ok)
	assert.Zero(t, r.Len())
}
