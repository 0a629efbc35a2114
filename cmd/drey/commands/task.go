package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/pkg/store"
)

var (
	taskBoardID      string
	taskListJSON     bool
	taskListStatus   string
	taskListArchived bool
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks on a board",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var taskAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a task to the current board",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks on the current board",
	Long: `List tasks on the current board.

By default the persisted status filter applies; --status overrides it for
this invocation without changing the stored preference.`,
	RunE: runTaskList,
}

var taskMoveCmd = &cobra.Command{
	Use:   "move <task-id> <todo|doing|done>",
	Short: "Move a task to another status column",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskMove,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Mark a task as done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return moveTask(cmd, args[0], store.StatusDone)
	},
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <task-id>",
	Short: "Remove a task permanently",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

var taskArchiveCmd = &cobra.Command{
	Use:   "archive <task-id>",
	Short: "Archive a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskArchive,
}

var taskRestoreCmd = &cobra.Command{
	Use:   "restore <task-id>",
	Short: "Restore an archived task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRestore,
}

func init() {
	taskCmd.PersistentFlags().StringVar(&taskBoardID, "board", "", "Board ID (defaults to the current board)")

	taskListCmd.Flags().BoolVar(&taskListJSON, "json", false, "Output in JSON format")
	taskListCmd.Flags().StringVar(&taskListStatus, "status", "", "Show only tasks with this status (todo, doing, done)")
	taskListCmd.Flags().BoolVar(&taskListArchived, "archived", false, "List archived tasks")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskRmCmd)
	taskCmd.AddCommand(taskArchiveCmd)
	taskCmd.AddCommand(taskRestoreCmd)
	rootCmd.AddCommand(taskCmd)
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, adapter, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	board, err := requireCurrentBoard(st, taskBoardID)
	if err != nil {
		return err
	}

	task := store.NewTask(args[0])
	if err := st.AddTask(board.ID, task); err != nil {
		return printer.Error("Failed to add task", err.Error(), nil)
	}

	if err := saveStore(ctx, st, adapter); err != nil {
		return err
	}

	printer.Success("Added task to %q\n", board.Name)
	printer.Detail("  %s\n", task.ID)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, adapter, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	board, err := requireCurrentBoard(st, taskBoardID)
	if err != nil {
		return err
	}

	tasks := board.Tasks
	if taskListArchived {
		tasks = board.ArchivedTasks
	}

	// The --status flag overrides the persisted filter for one run.
	filter := taskListStatus
	if filter == "" {
		filter, _ = st.Get(store.KeyFilter).(string)
	}
	if filter != store.DefaultFilter {
		status := store.Status(filter)
		if err := status.Validate(); err != nil {
			return printer.Error("Invalid status filter", err.Error(),
				[]string{"Valid filters: all, todo, doing, done."})
		}
		filtered := make([]store.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.Status == status {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	if taskListJSON {
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal tasks: %w", err)
		}
		printer.Println(string(data))
		return nil
	}

	printer.Info("Board: %s\n", board.Name)
	if len(tasks) == 0 {
		printer.Info("No tasks.\n")
		return nil
	}

	for _, t := range tasks {
		printTask(t)
	}
	return nil
}

// printTask renders one task line with a status glyph.
func printTask(t store.Task) {
	glyph := "[ ]"
	switch t.Status {
	case store.StatusDoing:
		glyph = "[~]"
	case store.StatusDone:
		glyph = "[x]"
	}
	printer.Printf("%s %s\n", glyph, t.Text)
	printer.Detail("    %s  %s\n", t.ID, t.Status)
}

func runTaskMove(cmd *cobra.Command, args []string) error {
	status := store.Status(args[1])
	if err := status.Validate(); err != nil {
		return printer.Error("Invalid status", err.Error(),
			[]string{"Valid statuses: todo, doing, done."})
	}
	return moveTask(cmd, args[0], status)
}

func moveTask(cmd *cobra.Command, taskID string, status store.Status) error {
	ctx := cmd.Context()
	st, adapter, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	board, err := resolveTaskBoard(st, taskID)
	if err != nil {
		return err
	}

	if err := st.MoveTask(board.ID, taskID, status); err != nil {
		return printer.Error("Failed to move task", err.Error(), nil)
	}

	if err := saveStore(ctx, st, adapter); err != nil {
		return err
	}

	printer.Success("Moved task to %s\n", status)
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	return taskAction(cmd, args[0], (*store.Store).RemoveTask, "Removed task")
}

func runTaskArchive(cmd *cobra.Command, args []string) error {
	return taskAction(cmd, args[0], (*store.Store).ArchiveTask, "Archived task")
}

func runTaskRestore(cmd *cobra.Command, args []string) error {
	return taskAction(cmd, args[0], (*store.Store).RestoreTask, "Restored task")
}

// taskAction runs a (boardID, taskID) store mutation shared by rm, archive
// and restore.
func taskAction(cmd *cobra.Command, taskID string, action func(*store.Store, string, string) error, verb string) error {
	ctx := cmd.Context()
	st, adapter, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	board, err := resolveTaskBoard(st, taskID)
	if err != nil {
		return err
	}

	if err := action(st, board.ID, taskID); err != nil {
		return printer.Error("Operation failed", err.Error(), nil)
	}

	if err := saveStore(ctx, st, adapter); err != nil {
		return err
	}

	printer.Success("%s\n", verb)
	return nil
}

// resolveTaskBoard honours --board when set and searches otherwise.
func resolveTaskBoard(st *store.Store, taskID string) (*store.Board, error) {
	if taskBoardID != "" {
		board := st.GetBoard(taskBoardID)
		if board == nil {
			return nil, printer.Error(
				fmt.Sprintf("Board not found: %s", taskBoardID),
				"No board with that ID exists.",
				[]string{"Run 'drey board list' to see available boards."},
			)
		}
		return board, nil
	}
	return findTaskBoard(st, taskID)
}
