package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/dyluth/drey/internal/config"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/storage"
	"github.com/dyluth/drey/pkg/store"
)

// loadConfig reads the config file named by --config. A missing file is not
// an error: commands run against the defaults, so 'drey task add' works in a
// bare directory without an init step.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}

// openAdapter builds the storage adapter selected by the configuration.
func openAdapter(cfg *config.Config) (storage.Adapter, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		return storage.NewFileAdapter(cfg.Storage.Path)
	case config.BackendRedis:
		return storage.NewRedisAdapter(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		}, cfg.Storage.Profile)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

// openStore loads persisted state into a fresh store. The seeding mutation
// is applied silently and outside history, so the first thing the user can
// undo is their own first change, not the load itself.
func openStore(ctx context.Context) (*store.Store, storage.Adapter, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	adapter, err := openAdapter(cfg)
	if err != nil {
		return nil, nil, err
	}

	st := store.New(store.Config{MaxHistorySize: cfg.History.MaxEntries})

	snap, err := adapter.Load(ctx)
	if err != nil {
		if !storage.IsNotFound(err) {
			adapter.Close()
			return nil, nil, fmt.Errorf("failed to load state: %w", err)
		}
		return st, adapter, nil
	}

	filter := snap.Filter
	if filter == "" {
		filter = store.DefaultFilter
	}

	st.Apply(store.Patch{
		store.KeyBoards:         snap.Boards,
		store.KeyCurrentBoardID: snap.CurrentBoardID,
		store.KeyFilter:         filter,
	}, store.Options{AddToHistory: false, Silent: true})

	return st, adapter, nil
}

// saveStore persists the store's current state through the adapter.
func saveStore(ctx context.Context, st *store.Store, adapter storage.Adapter) error {
	state := st.GetState()
	snap := &storage.Snapshot{
		Boards:         state.Boards,
		CurrentBoardID: state.CurrentBoardID,
		Filter:         state.Filter,
	}
	if err := adapter.Save(ctx, snap); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// requireCurrentBoard resolves the board a task command targets: the --board
// flag when given, otherwise the persisted current board.
func requireCurrentBoard(st *store.Store, boardID string) (*store.Board, error) {
	if boardID != "" {
		board := st.GetBoard(boardID)
		if board == nil {
			return nil, printer.Error(
				fmt.Sprintf("Board not found: %s", boardID),
				"No board with that ID exists.",
				[]string{"Run 'drey board list' to see available boards."},
			)
		}
		return board, nil
	}

	board := st.GetCurrentBoard()
	if board == nil {
		return nil, printer.Error(
			"No board selected",
			"Task commands need a board to work on.",
			[]string{
				"Run 'drey board select <id>' to pick one.",
				"Or pass --board <id> to this command.",
			},
		)
	}
	return board, nil
}

// findTaskBoard locates the board holding taskID, searching active and
// archived task lists on every board.
func findTaskBoard(st *store.Store, taskID string) (*store.Board, error) {
	boards, _ := st.Get(store.KeyBoards).([]store.Board)
	for i := range boards {
		for _, t := range boards[i].Tasks {
			if t.ID == taskID {
				return &boards[i], nil
			}
		}
		for _, t := range boards[i].ArchivedTasks {
			if t.ID == taskID {
				return &boards[i], nil
			}
		}
	}
	return nil, printer.Error(
		fmt.Sprintf("Task not found: %s", taskID),
		"No task with that ID exists on any board.",
		[]string{"Run 'drey task list' to see task IDs."},
	)
}
