package wizard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/family-office/internal/model"
)

func TestFileStore_LoadMissing(t *testing.T) {
	t.Parallel()
	b, err := FileStore{Dir: t.TempDir()}.Load(StorageKey)
	require.NoError(t, err)
	require.Nil(t, b)
}

func TestFileStore_SaveLoad(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested")
	fs := FileStore{Dir: dir}

	require.NoError(t, fs.Save("k", []byte(`{"a":1}`)))
	require.NoError(t, fs.Save("k", []byte(`{"a":2}`)))
	b, err := fs.Load("k")
	require.NoError(t, err)
	require.Equal(t, `{"a":2}`, string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestMachine_SurvivesReloadThroughFileStore(t *testing.T) {
	t.Parallel()
	fs := FileStore{Dir: t.TempDir()}

	m := New(fs, zaptest.NewLogger(t))
	m.Mount()
	require.NoError(t, m.SetDataType(model.ResourceContacts))
	require.NoError(t, m.SetInputMethod(InputManual))
	m.UpdateFormData(map[string]any{"name": "Ada"})

	reloaded := New(fs, zaptest.NewLogger(t)).Mount()
	require.Equal(t, StepEnterData, reloaded.CurrentStep)
	require.Equal(t, model.ResourceContacts, reloaded.SelectedDataType)
	require.Equal(t, InputManual, reloaded.SelectedInputMethod)
	require.Equal(t, "Ada", reloaded.FormData["name"])
	require.True(t, reloaded.IsDirty)
}
