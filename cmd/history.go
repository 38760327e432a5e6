package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/cabcoat/cabcoat/internal/config"
	"github.com/cabcoat/cabcoat/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var historyPath string
	var limit int
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded generations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if historyPath == "" {
				historyPath = config.Load().History
			}
			if historyPath == "" {
				return fmt.Errorf("--file or CABCOAT_HISTORY is required")
			}

			records, err := history.ReadFile(historyPath)
			if err != nil {
				return err
			}

			if failedOnly {
				failed := records[:0]
				for _, r := range records {
					if !r.Succeeded() {
						failed = append(failed, r)
					}
				}
				records = failed
			}
			if limit > 0 && len(records) > limit {
				records = records[len(records)-limit:]
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tSESSION\tCOLOR\tHARDWARE\tSHEEN\tDURATION\tRESULT")
			for _, r := range records {
				color := r.ColorName
				switch {
				case r.RestoreOriginal:
					color = "(original)"
				case r.CustomColor != "":
					color = r.CustomColor
				}
				result := "ok"
				if !r.Succeeded() {
					result = r.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					time.UnixMilli(r.StartedAtMS).Format(time.DateTime),
					r.SessionID, color, r.Hardware, r.Sheen,
					(time.Duration(r.DurationMS) * time.Millisecond).String(),
					result)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&historyPath, "file", "f", "", "Parquet history file (default $CABCOAT_HISTORY)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Show only the most recent N generations (0 for all)")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Show only failed generations")

	return cmd
}
