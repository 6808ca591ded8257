package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/crease/internal/store"
	"github.com/ayusman/crease/internal/technique"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved analyses",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var (
	historyType  string
	historyLimit int
)

func init() {
	historyCmd.Flags().StringVarP(&historyType, "type", "t", "", "Only show batting, bowling or fielding")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum rows to print (0 for all)")

	historyCmd.AddCommand(historyShowCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyType != "" {
		if _, err := technique.ParseSkillType(historyType); err != nil {
			return err
		}
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	analyses, err := st.Analyses().List(store.ListOptions{Type: historyType, Limit: historyLimit})
	if err != nil {
		return fmt.Errorf("failed to list analyses: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(analyses) == 0 {
		fmt.Fprintln(out, "No saved analyses.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tSCORE\tFRAMES\tFILE")
	for _, a := range analyses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			a.ID, a.CreatedAt.Local().Format("2006-01-02 15:04"), a.Type, a.OverallScore, a.FrameCount, a.FileName)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	a, err := st.Analyses().GetByID(args[0])
	if err != nil {
		return fmt.Errorf("analysis %s: %w", args[0], err)
	}

	var summary technique.Summary
	if err := json.Unmarshal(a.Summary, &summary); err != nil {
		return fmt.Errorf("analysis %s has an unreadable summary: %w", a.ID, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s\n", a.CreatedAt.Local().Format("2006-01-02 15:04"), a.FileName)
	printSummary(out, &summary)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Analyses().Delete(args[0]); err != nil {
		return fmt.Errorf("analysis %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}
