package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mkvbatch/internal/matcher"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "match",
		Short: "List file names present in both input folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			files, err := matcher.FindMatching(cfg.Paths.Folder1, cfg.Paths.Folder2)
			if err != nil {
				return err
			}
			if jsonOutput {
				if files == nil {
					files = []string{}
				}
				return writeJSON(cmd, files)
			}

			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No matching files found")
				return nil
			}
			rows := make([][]string, 0, len(files))
			for i, name := range files {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					name,
					fileSize(filepath.Join(cfg.Paths.Folder1, name)),
					fileSize(filepath.Join(cfg.Paths.Folder2, name)),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "File", "Folder 1", "Folder 2"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "%d matching file(s)\n", len(files))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "-"
	}
	return humanize.IBytes(uint64(info.Size()))
}
