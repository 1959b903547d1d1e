package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"mkvbatch/internal/config"
	"mkvbatch/internal/language"
	"mkvbatch/internal/merge"
	"mkvbatch/internal/preset"
	"mkvbatch/internal/selection"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var sampleName string
	var presetPath string
	var writePreset string
	var jsonOutput bool
	var flags selectionFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Probe the sample pair and show the resulting track selection",
		Long: "Probe the first matching pair (or --sample) and show the track selection a\n" +
			"merge would use. Preset and selection flags are applied the same way merge\n" +
			"applies them, so analyze --write-preset captures an edited selection.",
		RunE: func(cmd *cobra.Command, args []string) error {
			prepared, err := prepareBatch(cmd, ctx, prepareOptions{
				sampleName: sampleName,
				presetPath: presetPath,
				flags:      &flags,
			})
			if err != nil {
				return err
			}
			snap := prepared.sample.Model.Snapshot()

			if writePreset != "" {
				target, err := config.ExpandPath(writePreset)
				if err != nil {
					return err
				}
				if err := preset.WriteFile(target, snap); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote preset to %s\n", target)
			}

			if jsonOutput {
				return writeJSON(cmd, preset.Save(snap))
			}
			renderSample(cmd.OutOrStdout(), prepared, snap)
			return nil
		},
	}
	cmd.Flags().StringVar(&sampleName, "sample", "", "File name of the sample pair (defaults to the first match)")
	cmd.Flags().StringVar(&presetPath, "preset", "", "Preset file to apply (defaults to merge.preset)")
	cmd.Flags().StringVar(&writePreset, "write-preset", "", "Save the resulting selection as a preset file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the selection in preset form")
	flags.register(cmd)
	return cmd
}

func renderSample(out io.Writer, prepared *preparedBatch, snap selection.Snapshot) {
	sample := prepared.sample
	fmt.Fprintf(out, "Sample: %s (%d matching file(s))\n", sample.Filename, len(prepared.files))
	fmt.Fprintf(out, "Title:  %s\n", snap.Global.Title)
	for _, slot := range selection.Slots {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Folder %d: %s\n", slot, sample.Paths[slot])
		if outcome := sample.Probes[slot]; !outcome.OK() {
			fmt.Fprintf(out, "  probe failed (%s); section options unavailable\n", outcome.Reason)
		}
		fmt.Fprintln(out, renderSelectionTable(sample, slot, snap.Tracks[slot]))
		avail := sample.Available(slot)
		keep := snap.Global.Sections(slot)
		fmt.Fprintf(out, "Chapters:    %s\n", sectionState(avail.Chapters, keep.Chapters))
		fmt.Fprintf(out, "Global tags: %s\n", sectionState(avail.GlobalTags, keep.GlobalTags))
		fmt.Fprintf(out, "Attachments: %s\n", sectionState(avail.Attachments, keep.Attachments))
	}
}

func renderSelectionTable(sample *merge.Sample, slot selection.Slot, tracks []selection.TrackSelection) string {
	rows := make([][]string, 0, len(tracks))
	for _, sel := range tracks {
		kind, codec := "", ""
		if info, ok := sample.Model.TrackInfo(slot, sel.TrackID); ok {
			kind, codec = info.Type, info.Codec
		}
		rows = append(rows, []string{
			strconv.Itoa(sel.TrackID),
			yesNo(sel.Include),
			language.TrackType(kind),
			codec,
			languageLabel(sel.Language),
			sel.Name,
			yesNo(sel.Default),
			yesNo(sel.Forced),
		})
	}
	return renderTable(
		[]string{"ID", "Include", "Type", "Codec", "Language", "Name", "Default", "Forced"},
		rows,
		[]columnAlignment{alignRight},
	)
}

func sectionState(available, keep bool) string {
	switch {
	case !available && keep:
		return "keep (not present in sample)"
	case !available:
		return "not present"
	case keep:
		return "keep"
	default:
		return "strip"
	}
}
