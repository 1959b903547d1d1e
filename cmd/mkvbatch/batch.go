package main

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"mkvbatch/internal/config"
	"mkvbatch/internal/matcher"
	"mkvbatch/internal/merge"
	"mkvbatch/internal/preflight"
	"mkvbatch/internal/preset"
	"mkvbatch/internal/selection"
	"mkvbatch/internal/services/mkvtoolnix"
)

// preparedBatch is a validated pair of folders with the sample analyzed and
// the selection model edited by preset and flags.
type preparedBatch struct {
	cfg    *config.Config
	files  []string
	tool   *mkvtoolnix.Toolkit
	logger *slog.Logger
	sample *merge.Sample
}

type prepareOptions struct {
	// sampleName picks the sample pair; empty uses the first match.
	sampleName string
	presetPath string
	flags      *selectionFlags
}

func prepareBatch(cmd *cobra.Command, ctx *commandContext, opts prepareOptions) (*preparedBatch, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := preflight.Validate(cfg); err != nil {
		return nil, err
	}
	files, err := matcher.FindMatching(cfg.Paths.Folder1, cfg.Paths.Folder2)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s and %s", merge.ErrNoFiles, cfg.Paths.Folder1, cfg.Paths.Folder2)
	}

	sampleName := files[0]
	if name := strings.TrimSpace(opts.sampleName); name != "" {
		if !slices.Contains(files, name) {
			return nil, fmt.Errorf("sample %q is not present in both folders", name)
		}
		sampleName = name
	}

	tool, prober, logger, err := ctx.prober()
	if err != nil {
		return nil, err
	}
	sample, err := merge.AnalyzeSample(cmd.Context(), tool, prober, cfg.Paths.Folder1, cfg.Paths.Folder2, sampleName)
	if err != nil {
		return nil, err
	}

	presetPath := strings.TrimSpace(opts.presetPath)
	if presetPath == "" {
		presetPath = cfg.Merge.Preset
	}
	if presetPath != "" {
		expanded, err := config.ExpandPath(presetPath)
		if err != nil {
			return nil, err
		}
		snap, err := preset.ReadFile(expanded)
		if err != nil {
			return nil, err
		}
		skipped := preset.Apply(sample.Model, snap, logger)
		if cfg.Merge.WarnOnSkippedTracks {
			printSkipped(cmd.ErrOrStderr(), skipped)
		}
	}

	if opts.flags != nil {
		if err := opts.flags.apply(sample.Model, cmd.Flags().Changed); err != nil {
			return nil, err
		}
	}
	printUnavailableSections(cmd.ErrOrStderr(), sample)

	return &preparedBatch{
		cfg:    cfg,
		files:  files,
		tool:   tool,
		logger: logger,
		sample: sample,
	}, nil
}

func printSkipped(out io.Writer, skipped []preset.Skipped) {
	if len(skipped) == 0 {
		return
	}
	refs := make([]string, 0, len(skipped))
	for _, s := range skipped {
		refs = append(refs, fmt.Sprintf("%d:%d", s.Slot, s.TrackID))
	}
	fmt.Fprintf(out, "Preset tracks not in sample, ignored: %s\n", strings.Join(refs, ", "))
}

// printUnavailableSections notes kept sections the sample does not carry.
func printUnavailableSections(out io.Writer, sample *merge.Sample) {
	global := sample.Model.Global()
	for _, slot := range selection.Slots {
		toggles := global.Sections(slot)
		avail := sample.Available(slot)
		var missing []string
		if toggles.Chapters && !avail.Chapters {
			missing = append(missing, "chapters")
		}
		if toggles.GlobalTags && !avail.GlobalTags {
			missing = append(missing, "global tags")
		}
		if toggles.Attachments && !avail.Attachments {
			missing = append(missing, "attachments")
		}
		if len(missing) > 0 {
			fmt.Fprintf(out, "Note: folder %d sample has no %s to keep\n", slot, strings.Join(missing, " or "))
		}
	}
}
