package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mkvbatch/internal/history"
	"mkvbatch/internal/merge"
	"mkvbatch/internal/progress"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var sampleName string
	var presetPath string
	var flags selectionFlags

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge every file present in both input folders",
		Long: "Merge every file present in both input folders into the output folder.\n\n" +
			"The track selection is built from the first matching pair (or --sample),\n" +
			"then edited by the preset and the selection flags, and applied to every\n" +
			"pair by track id. The batch stops at the first failing file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			prepared, err := prepareBatch(cmd, ctx, prepareOptions{
				sampleName: sampleName,
				presetPath: presetPath,
				flags:      &flags,
			})
			if err != nil {
				return err
			}
			cfg := prepared.cfg

			return ctx.withHistory(func(store *history.Store) error {
				opts := []merge.Option{
					merge.WithLogger(prepared.logger),
					merge.WithSkipWarnings(cfg.Merge.WarnOnSkippedTracks),
				}
				if store != nil {
					opts = append(opts, merge.WithRecorder(store))
				}
				orchestrator := merge.New(prepared.tool, opts...)

				ch, err := orchestrator.Start(cmd.Context(), merge.Batch{
					Folder1:   cfg.Paths.Folder1,
					Folder2:   cfg.Paths.Folder2,
					OutputDir: cfg.Paths.OutputDir,
					Files:     prepared.files,
					Selection: prepared.sample.Model.Snapshot(),
				})
				if err != nil {
					return err
				}

				final := consumeProgress(cmd.ErrOrStderr(), ch, len(prepared.files))
				if final.State == progress.StateFailed {
					return fmt.Errorf("batch %s failed: %s", final.RunID, final.Message)
				}
				fmt.Fprintln(cmd.OutOrStdout(), final.Message)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sampleName, "sample", "", "File name of the sample pair (defaults to the first match)")
	cmd.Flags().StringVar(&presetPath, "preset", "", "Preset file to apply (defaults to merge.preset)")
	flags.register(cmd)
	return cmd
}
