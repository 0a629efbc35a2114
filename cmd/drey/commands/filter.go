package commands

import (
	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/pkg/store"
)

var filterCmd = &cobra.Command{
	Use:   "filter [all|todo|doing|done]",
	Short: "Show or set the persisted status filter",
	Long: `Show or set the status filter applied by 'drey task list'.

With no argument the current filter is printed. With an argument the filter
is stored, so every frontend sharing this state sees the same view.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, adapter, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	if len(args) == 0 {
		current, _ := st.Get(store.KeyFilter).(string)
		printer.Printf("%s\n", current)
		return nil
	}

	value := args[0]
	if value != store.DefaultFilter {
		if err := store.Status(value).Validate(); err != nil {
			return printer.Error("Invalid filter", err.Error(),
				[]string{"Valid filters: all, todo, doing, done."})
		}
	}

	st.Set(store.Patch{store.KeyFilter: value})
	if err := saveStore(ctx, st, adapter); err != nil {
		return err
	}

	printer.Success("Filter set to %s\n", value)
	return nil
}
