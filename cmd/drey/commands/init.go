package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/config"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/pkg/store"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new drey workspace",
	Long: `Initialize a new drey workspace in the current directory.

Creates:
  • drey.yml - Configuration file with the file backend selected
  • A default board, persisted to the configured storage

Use --force to overwrite an existing drey.yml (stored boards are kept).`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing drey.yml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgPath); err == nil && !forceInit {
		return printer.Error(
			fmt.Sprintf("%s already exists", cfgPath),
			"This directory is already initialized.",
			[]string{"Use --force to overwrite the configuration."},
		)
	}

	cfg := config.Default()
	if err := cfg.Write(cfgPath); err != nil {
		return err
	}
	printer.Success("Created %s\n", cfgPath)

	ctx := cmd.Context()
	st, adapter, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	// Seed a default board only when the store is empty, so re-running
	// init with --force never clobbers existing boards.
	if boards, _ := st.Get(store.KeyBoards).([]store.Board); len(boards) > 0 {
		printer.Info("Keeping %d existing board(s)\n", len(boards))
		return nil
	}

	board := store.NewBoard(cfg.Board.DefaultName, "", cfg.Board.DefaultColor)
	board.IsDefault = true
	if err := st.AddBoard(board); err != nil {
		return err
	}
	st.SetCurrentBoard(board.ID)

	if err := saveStore(ctx, st, adapter); err != nil {
		return err
	}

	printer.Success("Created default board %q\n", board.Name)
	printer.Detail("  %s\n", board.ID)
	printer.Info("\nNext: drey task add \"your first task\"\n")
	return nil
}
