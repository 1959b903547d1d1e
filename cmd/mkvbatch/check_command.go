package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mkvbatch/internal/deps"
	"mkvbatch/internal/preflight"
	"mkvbatch/internal/services/mkvtoolnix"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the MKVToolNix directory and batch folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			failed := false

			for _, line := range renderSectionHeader("Paths", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range preflight.RunAll(cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed = true
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Binaries", colorize) {
				fmt.Fprintln(out, line)
			}
			requirements := deps.MKVToolNix(cfg.Paths.ToolDir, cfg.MkvmergeBinary(), cfg.MkvextractBinary())
			mkvmergeReady := false
			for _, status := range deps.CheckBinaries(requirements) {
				kind := statusOK
				detail := status.Command
				switch {
				case status.Available && status.Name == "mkvmerge":
					mkvmergeReady = true
				case !status.Available && status.Optional:
					kind = statusWarn
					detail = status.Detail
				case !status.Available:
					kind = statusError
					detail = status.Detail
					failed = true
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, detail, colorize))
			}

			if mkvmergeReady {
				tool, _, err := ctx.toolkit()
				if err != nil {
					return err
				}
				caps := tool.Capabilities(cmd.Context())
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Section stripping", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, section := range mkvtoolnix.Sections {
					kind := statusOK
					detail := "supported"
					if !caps.Supports(section) {
						kind = statusWarn
						detail = "not supported; " + strings.ReplaceAll(section.String(), "_", " ") + " are always kept"
					}
					fmt.Fprintln(out, renderStatusLine(section.String(), kind, detail, colorize))
				}
			}

			if failed {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
