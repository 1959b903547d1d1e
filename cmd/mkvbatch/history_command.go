package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mkvbatch/internal/history"
)

type historyRunJSON struct {
	RunID      string `json:"run_id"`
	Folder1    string `json:"folder1"`
	Folder2    string `json:"folder2"`
	OutputDir  string `json:"output_dir"`
	Total      int    `json:"total"`
	Processed  int    `json:"processed"`
	Status     string `json:"status"`
	FailedFile string `json:"failed_file,omitempty"`
	Message    string `json:"message,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recent merge batches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				if store == nil {
					return errors.New("batch history is disabled (history.enabled = false)")
				}
				var runs []history.Run
				if len(args) == 1 {
					run, err := store.Get(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if run == nil {
						return fmt.Errorf("run %s not found", args[0])
					}
					runs = []history.Run{*run}
				} else {
					var err error
					runs, err = store.Recent(cmd.Context(), limit)
					if err != nil {
						return err
					}
				}

				if jsonOutput {
					out := make([]historyRunJSON, 0, len(runs))
					for _, run := range runs {
						out = append(out, toHistoryJSON(run))
					}
					return writeJSON(cmd, out)
				}

				w := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(w, "No batches recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortRunID(run.RunID),
						humanize.Time(run.StartedAt),
						string(run.Status),
						fmt.Sprintf("%d/%d", run.Processed, run.Total),
						run.OutputDir,
						run.Message,
					})
				}
				fmt.Fprintln(w, renderTable(
					[]string{"Run", "Started", "Status", "Files", "Output", "Message"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of batches to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func toHistoryJSON(run history.Run) historyRunJSON {
	out := historyRunJSON{
		RunID:      run.RunID,
		Folder1:    run.Folder1,
		Folder2:    run.Folder2,
		OutputDir:  run.OutputDir,
		Total:      run.Total,
		Processed:  run.Processed,
		Status:     string(run.Status),
		FailedFile: run.FailedFile,
		Message:    run.Message,
		StartedAt:  run.StartedAt.Format(time.RFC3339),
	}
	if !run.FinishedAt.IsZero() {
		out.FinishedAt = run.FinishedAt.Format(time.RFC3339)
	}
	return out
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

