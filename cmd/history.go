package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"echoload/internal/report"
	"echoload/internal/tui/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show previous runs, or one run's summary as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 1 {
			rec, err := store.Get(args[0])
			if err != nil {
				return err
			}
			return report.WriteSummaryJSON(cmd.OutOrStdout(), rec.Summary)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		records, err := store.List(limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
			return nil
		}

		if interactive, _ := cmd.Flags().GetBool("tui"); interactive {
			_, err := tea.NewProgram(history.NewModel(records)).Run()
			return err
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("ID", "TIME", "SCENARIO", "HOST", "USERS", "REQS", "FAIL %", "RPS", "P90 MS")
		for i, row := range history.Rows(records) {
			t.Row(append([]string{records[i].ID}, row...)...)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "show at most this many runs (0 shows all)")
	historyCmd.Flags().Bool("tui", false, "browse runs interactively")
}
