package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var overrides pathOverrides

	ctx := newCommandContext(&configFlag, &overrides)

	rootCmd := &cobra.Command{
		Use:           "mkvbatch",
		Short:         "Merge matching MKV files from two folders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	flags.StringVar(&overrides.toolDir, "tool-dir", "", "Directory containing mkvmerge and mkvextract")
	flags.StringVar(&overrides.folder1, "folder1", "", "First input folder")
	flags.StringVar(&overrides.folder2, "folder2", "", "Second input folder")
	flags.StringVar(&overrides.outputDir, "output", "", "Output folder for merged files")

	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newMatchCommand(ctx))
	rootCmd.AddCommand(newProbeCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newMergeCommand(ctx))
	rootCmd.AddCommand(newPresetCommand(ctx))
	rootCmd.AddCommand(newExtractAttachmentCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
