package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/drey/internal/config"
	"github.com/dyluth/drey/internal/storage"
	"github.com/dyluth/drey/pkg/store"
)

// useWorkspace points the command package at a throwaway directory so the
// default relative storage path lands there.
func useWorkspace(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(oldWD)) })

	old := cfgPath
	cfgPath = filepath.Join(dir, "drey.yml")
	t.Cleanup(func() { cfgPath = old })

	return dir
}

func testCommand(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	useWorkspace(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, config.DefaultFilePath, cfg.Storage.Path)
}

func TestOpenAdapter(t *testing.T) {
	t.Run("file backend", func(t *testing.T) {
		dir := useWorkspace(t)
		cfg := config.Default()
		cfg.Storage.Path = filepath.Join(dir, "state.json")

		adapter, err := openAdapter(cfg)
		require.NoError(t, err)
		defer adapter.Close()
		assert.IsType(t, &storage.FileAdapter{}, adapter)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage.Backend = "carrier-pigeon"

		_, err := openAdapter(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown storage backend")
	})
}

func TestOpenStore_RoundTrip(t *testing.T) {
	useWorkspace(t)
	ctx := context.Background()

	st, adapter, err := openStore(ctx)
	require.NoError(t, err)

	board := store.NewBoard("Persisted", "", "")
	require.NoError(t, st.AddBoard(board))
	st.SetCurrentBoard(board.ID)
	require.NoError(t, saveStore(ctx, st, adapter))
	require.NoError(t, adapter.Close())

	st, adapter, err = openStore(ctx)
	require.NoError(t, err)
	defer adapter.Close()

	loaded := st.GetBoard(board.ID)
	require.NotNil(t, loaded)
	assert.Equal(t, "Persisted", loaded.Name)
	assert.Equal(t, board.ID, st.Get(store.KeyCurrentBoardID))

	// Loading persisted state must not create an undoable history entry.
	assert.False(t, st.CanUndo())
	assert.Equal(t, 0, st.HistoryLength())
}

func TestRunInit(t *testing.T) {
	dir := useWorkspace(t)

	require.NoError(t, runInit(testCommand(t), nil))

	// Config file written with defaults.
	cfg, err := config.Load(filepath.Join(dir, "drey.yml"))
	require.NoError(t, err)
	assert.Equal(t, config.BackendFile, cfg.Storage.Backend)

	// A default board was created, selected and persisted.
	st, adapter, err := openStore(context.Background())
	require.NoError(t, err)
	defer adapter.Close()

	boards := st.GetActiveBoards()
	require.Len(t, boards, 1)
	assert.Equal(t, config.DefaultBoardName, boards[0].Name)
	assert.True(t, boards[0].IsDefault)
	assert.Equal(t, boards[0].ID, st.Get(store.KeyCurrentBoardID))
}

func TestRunInit_RefusesToOverwrite(t *testing.T) {
	useWorkspace(t)

	require.NoError(t, runInit(testCommand(t), nil))

	err := runInit(testCommand(t), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRunInit_ForceKeepsBoards(t *testing.T) {
	useWorkspace(t)

	require.NoError(t, runInit(testCommand(t), nil))

	forceInit = true
	t.Cleanup(func() { forceInit = false })
	require.NoError(t, runInit(testCommand(t), nil))

	st, adapter, err := openStore(context.Background())
	require.NoError(t, err)
	defer adapter.Close()
	assert.Len(t, st.GetActiveBoards(), 1, "re-init must not duplicate the default board")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly-10", truncate("exactly-10", 10))
	assert.Equal(t, "toolong...", truncate("toolong-and-then-some", 10))
}
