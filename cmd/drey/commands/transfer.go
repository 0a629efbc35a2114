package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/transfer"
	"github.com/dyluth/drey/pkg/store"
)

var importReplace bool

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export all boards as a JSON document",
	Long: `Export every board, the current selection and the filter as a
versioned JSON document. Writes to stdout when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import boards from an exported JSON document",
	Long: `Import boards from a document produced by 'drey export'.

By default boards are merged: matched boards keep whichever side was
modified most recently, task lists are combined, and unknown boards are
appended. Use --replace to discard the existing boards entirely.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Replace existing boards instead of merging")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, adapter, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	data, err := transfer.Export(st.GetState())
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	printer.Success("Exported to %s\n", args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	doc, err := transfer.Parse(data)
	if err != nil {
		return printer.Error(
			"Import failed",
			err.Error(),
			[]string{"Only documents produced by 'drey export' can be imported."},
		)
	}

	ctx := cmd.Context()
	st, adapter, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	boards := doc.Boards
	if !importReplace {
		existing, _ := st.Get(store.KeyBoards).([]store.Board)
		boards = transfer.Merge(existing, doc.Boards)
	}

	current, _ := st.Get(store.KeyCurrentBoardID).(string)

	st.Set(store.Patch{
		store.KeyBoards:         boards,
		store.KeyCurrentBoardID: transfer.PickCurrent(boards, current, doc.CurrentBoardID),
	})

	if err := saveStore(ctx, st, adapter); err != nil {
		return err
	}

	printer.Success("Imported %d board(s)\n", len(doc.Boards))
	return nil
}
