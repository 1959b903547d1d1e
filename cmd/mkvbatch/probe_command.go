package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mkvbatch/internal/config"
	"mkvbatch/internal/language"
	"mkvbatch/internal/media/mkvinfo"
	"mkvbatch/internal/selection"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var slotFlag int
	var showTags bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Show tracks, sections and attachments of an MKV file",
		Long: "Show tracks, sections and attachments of an MKV file.\n\n" +
			"With --slot the argument is a file name inside folder 1 or folder 2.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := resolveSlotPath(cfg, slotFlag, args[0])
			if err != nil {
				return err
			}
			_, prober, _, err := ctx.prober()
			if err != nil {
				return err
			}
			outcome := prober.Probe(cmd.Context(), path)
			if !outcome.OK() {
				return fmt.Errorf("probe %s (%s): %w", path, outcome.Reason, outcome.Err)
			}
			result := *outcome.Result

			if jsonOutput {
				_, err := cmd.OutOrStdout().Write(indentJSON(result.RawJSON()))
				return err
			}

			out := cmd.OutOrStdout()
			printContainer(out, path, result)
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTrackTable(result.Tracks))
			fmt.Fprintln(out)
			printSections(out, result)
			if result.HasAttachments() {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderAttachmentTable(result.Attachments))
			}
			if showTags {
				fmt.Fprintln(out)
				tags := result.TagsJSON()
				if tags == nil {
					fmt.Fprintln(out, "No global tags")
				} else {
					fmt.Fprintln(out, "Global tags:")
					_, _ = out.Write(indentJSON(tags))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&slotFlag, "slot", 0, "Resolve the file name inside folder 1 or 2")
	cmd.Flags().BoolVar(&showTags, "tags", false, "Print the global tags section as JSON")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw identification document")
	return cmd
}

// resolveSlotPath joins name onto the slot's folder when slot is set.
func resolveSlotPath(cfg *config.Config, slot int, name string) (string, error) {
	if slot == 0 {
		return config.ExpandPath(name)
	}
	parsed := selection.Slot(slot)
	if !parsed.Valid() {
		return "", fmt.Errorf("invalid slot %d: want 1 or 2", slot)
	}
	folder := cfg.Paths.Folder1
	if parsed == selection.Slot2 {
		folder = cfg.Paths.Folder2
	}
	if folder == "" {
		return "", fmt.Errorf("folder %d not configured", slot)
	}
	return filepath.Join(folder, filepath.Base(name)), nil
}

func printContainer(out io.Writer, path string, result mkvinfo.Result) {
	fmt.Fprintf(out, "File:      %s\n", path)
	container := result.Container.Type
	if container == "" {
		container = "unknown"
	}
	fmt.Fprintf(out, "Container: %s\n", container)
	if title := result.Container.Properties.Title; title != "" {
		fmt.Fprintf(out, "Title:     %s\n", title)
	}
	if ns := result.Container.Properties.Duration; ns > 0 {
		fmt.Fprintf(out, "Duration:  %s\n", time.Duration(ns).Round(time.Second))
	}
}

func printSections(out io.Writer, result mkvinfo.Result) {
	fmt.Fprintf(out, "Chapters:    %s\n", yesNo(result.HasChapters()))
	fmt.Fprintf(out, "Global tags: %s\n", yesNo(result.HasGlobalTags()))
	fmt.Fprintf(out, "Attachments: %s\n", yesNo(result.HasAttachments()))
}

func renderTrackTable(tracks []mkvinfo.Track) string {
	rows := make([][]string, 0, len(tracks))
	for _, track := range tracks {
		rows = append(rows, []string{
			strconv.Itoa(track.ID),
			language.TrackType(track.Type),
			track.Codec,
			languageLabel(track.Properties.Language),
			track.Properties.Name,
			yesNo(track.Properties.Default),
			yesNo(track.Properties.Forced),
		})
	}
	return renderTable(
		[]string{"ID", "Type", "Codec", "Language", "Name", "Default", "Forced"},
		rows,
		[]columnAlignment{alignRight},
	)
}

func renderAttachmentTable(attachments []mkvinfo.Attachment) string {
	rows := make([][]string, 0, len(attachments))
	for _, a := range attachments {
		size := "-"
		if a.Size > 0 {
			size = humanize.IBytes(uint64(a.Size))
		}
		rows = append(rows, []string{a.ID, a.FileName, a.MimeType, size, a.Description})
	}
	return renderTable(
		[]string{"ID", "File name", "MIME type", "Size", "Description"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
	)
}

func languageLabel(code string) string {
	if code == "" {
		return language.DisplayName(code)
	}
	return fmt.Sprintf("%s (%s)", language.DisplayName(code), code)
}

func indentJSON(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return append(append([]byte(nil), raw...), '\n')
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}
