package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mkvbatch/internal/config"
)

func newExtractAttachmentCommand(ctx *commandContext) *cobra.Command {
	var slotFlag int

	cmd := &cobra.Command{
		Use:   "extract-attachment <file> <attachment-id> [destination]",
		Short: "Save one attachment of an MKV file",
		Long: "Save one attachment of an MKV file using mkvextract.\n\n" +
			"Without a destination the attachment's own file name is used in the\n" +
			"current directory. With --slot the file argument is a name inside\n" +
			"folder 1 or folder 2.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			src, err := resolveSlotPath(cfg, slotFlag, args[0])
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[1])

			tool, prober, _, err := ctx.prober()
			if err != nil {
				return err
			}

			var dest string
			if len(args) == 3 {
				dest = args[2]
			} else {
				outcome := prober.Probe(cmd.Context(), src)
				if !outcome.OK() {
					return fmt.Errorf("probe %s (%s): %w", src, outcome.Reason, outcome.Err)
				}
				for _, a := range outcome.Result.Attachments {
					if a.ID == id {
						dest = filepath.Base(a.FileName)
						break
					}
				}
				if dest == "" || dest == "." {
					return fmt.Errorf("attachment %s not found in %s; pass a destination", id, src)
				}
			}
			dest, err = config.ExpandPath(dest)
			if err != nil {
				return err
			}

			if err := tool.ExtractAttachment(cmd.Context(), src, id, dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved attachment %s to %s\n", id, dest)
			return nil
		},
	}
	cmd.Flags().IntVar(&slotFlag, "slot", 0, "Resolve the file name inside folder 1 or 2")
	return cmd
}
