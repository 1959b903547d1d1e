package merge

import (
	"context"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"mkvbatch/internal/probe"
	"mkvbatch/internal/selection"
	"mkvbatch/internal/services"
	"mkvbatch/internal/services/mkvtoolnix"
)

// Opener opens a source for track discovery.
type Opener interface {
	Open(ctx context.Context, path string) (*mkvtoolnix.Source, error)
}

// Prober runs a soft-failing metadata probe.
type Prober interface {
	Probe(ctx context.Context, path string) probe.Outcome
}

// Sample is the analyzed first pair of a batch.
type Sample struct {
	Filename string
	Paths    map[selection.Slot]string
	Sources  map[selection.Slot]*mkvtoolnix.Source
	Probes   map[selection.Slot]probe.Outcome
	Model    *selection.Model
}

// Available reports which optional sections slot's sample carries. Sections
// of a slot whose probe failed are reported unavailable.
func (s *Sample) Available(slot selection.Slot) probe.Availability {
	return s.Probes[slot].Sections()
}

// AnalyzeSample probes both files of the sample pair concurrently and builds
// a selection model from their tracks. A failed probe only disables section
// options; the slot's tracks are then read by opening the file directly, and
// only that failing is an error.
func AnalyzeSample(ctx context.Context, opener Opener, prober Prober, folder1, folder2, filename string) (*Sample, error) {
	sample := &Sample{
		Filename: filename,
		Paths: map[selection.Slot]string{
			selection.Slot1: filepath.Join(folder1, filename),
			selection.Slot2: filepath.Join(folder2, filename),
		},
	}

	sources := make([]*mkvtoolnix.Source, len(selection.Slots))
	outcomes := make([]probe.Outcome, len(selection.Slots))
	g, gctx := errgroup.WithContext(ctx)
	for i, slot := range selection.Slots {
		path := sample.Paths[slot]
		slotCtx := services.WithSlot(gctx, int(slot))
		g.Go(func() error {
			outcome := prober.Probe(slotCtx, path)
			outcomes[i] = outcome
			if outcome.OK() {
				sources[i] = mkvtoolnix.NewSource(path, *outcome.Result)
				return nil
			}
			src, err := opener.Open(slotCtx, path)
			if err != nil {
				return services.Wrap(services.ErrProbe, "merge", "open sample", path, err)
			}
			sources[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sample.Sources = make(map[selection.Slot]*mkvtoolnix.Source, len(selection.Slots))
	sample.Probes = make(map[selection.Slot]probe.Outcome, len(selection.Slots))
	for i, slot := range selection.Slots {
		sample.Sources[slot] = sources[i]
		sample.Probes[slot] = outcomes[i]
	}

	sample.Model = selection.NewModel(DefaultTitle(sample.Sources[selection.Slot1], filename))
	for _, slot := range selection.Slots {
		sample.Model.Seed(slot, sample.Sources[slot].Info.Tracks)
	}
	return sample, nil
}

// DefaultTitle is the slot 1 container title, else filename without extension.
func DefaultTitle(src *mkvtoolnix.Source, filename string) string {
	if src != nil {
		if title := strings.TrimSpace(src.Info.Container.Properties.Title); title != "" {
			return title
		}
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
