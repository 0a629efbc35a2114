package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/pkg/store"
)

var (
	boardDescription string
	boardColor       string
	boardDefault     bool
	boardListJSON    bool
	boardArchived    bool
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage boards",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var boardAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a new board",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardAdd,
}

var boardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List boards",
	Long: `List boards with their IDs and task counts.

The current board is marked with an asterisk. Use --archived to list
archived boards instead, or --json for machine-readable output.`,
	RunE: runBoardList,
}

var boardSelectCmd = &cobra.Command{
	Use:   "select <board-id>",
	Short: "Make a board the current board",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardSelect,
}

var boardRmCmd = &cobra.Command{
	Use:   "rm <board-id>",
	Short: "Remove a board and all its tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardRm,
}

func init() {
	boardAddCmd.Flags().StringVar(&boardDescription, "description", "", "Board description")
	boardAddCmd.Flags().StringVar(&boardColor, "color", "", "Board color as a hex string")
	boardAddCmd.Flags().BoolVar(&boardDefault, "default", false, "Make this the default board")

	boardListCmd.Flags().BoolVar(&boardListJSON, "json", false, "Output in JSON format")
	boardListCmd.Flags().BoolVar(&boardArchived, "archived", false, "List archived boards")

	boardCmd.AddCommand(boardAddCmd)
	boardCmd.AddCommand(boardListCmd)
	boardCmd.AddCommand(boardSelectCmd)
	boardCmd.AddCommand(boardRmCmd)
	rootCmd.AddCommand(boardCmd)
}

func runBoardAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, adapter, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	board := store.NewBoard(args[0], boardDescription, boardColor)
	board.IsDefault = boardDefault

	if err := st.AddBoard(board); err != nil {
		return printer.Error(
			"Failed to create board",
			err.Error(),
			nil,
		)
	}

	// The first board becomes current automatically.
	if st.GetCurrentBoard() == nil {
		st.SetCurrentBoard(board.ID)
	}

	if err := saveStore(ctx, st, adapter); err != nil {
		return err
	}

	printer.Success("Created board %q\n", board.Name)
	printer.Detail("  %s\n", board.ID)
	return nil
}

func runBoardList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, adapter, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	var boards []store.Board
	if boardArchived {
		boards = st.GetArchivedBoards()
	} else {
		boards = st.GetActiveBoards()
	}

	if boardListJSON {
		data, err := json.MarshalIndent(boards, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal boards: %w", err)
		}
		printer.Println(string(data))
		return nil
	}

	if len(boards) == 0 {
		printer.Info("No boards found.\n\n")
		printer.Info("Run 'drey board add <name>' to create one.\n")
		return nil
	}

	currentID, _ := st.Get(store.KeyCurrentBoardID).(string)

	printer.Printf("%-2s %-36s %-20s %-6s %s\n", "", "ID", "NAME", "TASKS", "FLAGS")
	for _, b := range boards {
		marker := ""
		if b.ID == currentID {
			marker = "*"
		}
		flags := ""
		if b.IsDefault {
			flags = "default"
		}
		printer.Printf("%-2s %-36s %-20s %-6d %s\n", marker, b.ID, truncate(b.Name, 20), len(b.Tasks), flags)
	}
	return nil
}

func runBoardSelect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, adapter, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	board := st.GetBoard(args[0])
	if board == nil {
		return printer.Error(
			fmt.Sprintf("Board not found: %s", args[0]),
			"No board with that ID exists.",
			[]string{"Run 'drey board list' to see available boards."},
		)
	}

	st.SetCurrentBoard(board.ID)
	if err := saveStore(ctx, st, adapter); err != nil {
		return err
	}

	printer.Success("Selected board %q\n", board.Name)
	return nil
}

func runBoardRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, adapter, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	board := st.GetBoard(args[0])
	if board == nil {
		return printer.Error(
			fmt.Sprintf("Board not found: %s", args[0]),
			"No board with that ID exists.",
			[]string{"Run 'drey board list' to see available boards."},
		)
	}
	if board.IsDefault {
		return printer.Error(
			"Cannot remove the default board",
			fmt.Sprintf("%q is the default board.", board.Name),
			[]string{"Make another board the default first with 'drey board add --default' or the HTTP API."},
		)
	}

	st.RemoveBoard(board.ID)
	if err := saveStore(ctx, st, adapter); err != nil {
		return err
	}

	printer.Success("Removed board %q\n", board.Name)
	return nil
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
