package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mkvbatch/internal/config"
	"mkvbatch/internal/preset"
	"mkvbatch/internal/selection"
)

func newPresetCommand(ctx *commandContext) *cobra.Command {
	presetCmd := &cobra.Command{
		Use:   "preset",
		Short: "Inspect saved track selection presets",
	}
	presetCmd.AddCommand(newPresetShowCommand(ctx))
	return presetCmd
}

func newPresetShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "show [file]",
		Short:       "Print a preset file (defaults to merge.preset)",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				path = cfg.Merge.Preset
			}
			if path == "" {
				return fmt.Errorf("no preset file given and merge.preset is not set")
			}
			expanded, err := config.ExpandPath(path)
			if err != nil {
				return err
			}
			snap, err := preset.ReadFile(expanded)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, preset.Save(snap))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Preset: %s\n", expanded)
			fmt.Fprintf(out, "Title:  %s\n", snap.Global.Title)
			sectionRows := make([][]string, 0, len(selection.Slots))
			for _, slot := range selection.Slots {
				keep := snap.Global.Sections(slot)
				sectionRows = append(sectionRows, []string{
					fmt.Sprintf("Folder %d", slot),
					yesNo(keep.Chapters),
					yesNo(keep.GlobalTags),
					yesNo(keep.Attachments),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Source", "Chapters", "Global tags", "Attachments"}, sectionRows, nil))

			for _, slot := range selection.Slots {
				tracks := snap.Tracks[slot]
				fmt.Fprintf(out, "\nFolder %d tracks:\n", slot)
				if len(tracks) == 0 {
					fmt.Fprintln(out, "  (none)")
					continue
				}
				rows := make([][]string, 0, len(tracks))
				for _, sel := range tracks {
					rows = append(rows, []string{
						strconv.Itoa(sel.TrackID),
						yesNo(sel.Include),
						languageLabel(sel.Language),
						sel.Name,
						yesNo(sel.Default),
						yesNo(sel.Forced),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Include", "Language", "Name", "Default", "Forced"},
					rows,
					[]columnAlignment{alignRight},
				))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the normalized preset document")
	return cmd
}
