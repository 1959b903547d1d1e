package mkvtoolnix

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mkvbatch/internal/logging"
	"mkvbatch/internal/services"
)

var trackKinds = []struct {
	kind    string
	include string
	exclude string
}{
	{"video", "--video-tracks", "--no-video"},
	{"audio", "--audio-tracks", "--no-audio"},
	{"subtitles", "--subtitle-tracks", "--no-subtitles"},
	{"buttons", "--button-tracks", "--no-buttons"},
}

// Mux writes out to dst. The operation is atomic: mkvmerge writes a hidden
// temporary file next to dst which is renamed on success. Every failure is
// tagged services.ErrMux.
func (t *Toolkit) Mux(ctx context.Context, out *Output, dst string) error {
	if out == nil || len(out.sources) == 0 {
		return services.Wrap(services.ErrMux, "mkvtoolnix", "mux", "output has no sources", nil)
	}
	dst = strings.TrimSpace(dst)
	if dst == "" {
		return services.Wrap(services.ErrMux, "mkvtoolnix", "mux", "destination required", nil)
	}

	tmpPath := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".mkvbatch.tmp")
	args := BuildMuxArgs(out, tmpPath)

	t.logger.Debug("executing mkvmerge",
		logging.String("destination", dst),
		logging.Int("source_count", len(out.sources)),
		logging.Int("track_count", len(out.tracks)),
	)

	if _, err := t.run.Run(ctx, t.MkvmergePath(), args); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrMux, "mkvtoolnix", "mux", filepath.Base(dst), err)
	}

	if _, err := os.Stat(tmpPath); err != nil {
		return services.Wrap(services.ErrMux, "mkvtoolnix", "mux", "mkvmerge did not produce output", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrMux, "mkvtoolnix", "mux", "finalize output", err)
	}
	return nil
}

// BuildMuxArgs renders the mkvmerge command line for out writing to outputPath.
// Sources become input files in registration order; each selected track gets
// explicit language, name, default and forced values, and --track-order keeps
// the attachment order of the output.
func BuildMuxArgs(out *Output, outputPath string) []string {
	args := []string{"-o", outputPath}
	if title := out.Title; title != "" {
		args = append(args, "--title", title)
	}

	order := make([]string, 0, len(out.tracks))
	for fileIdx, src := range out.sources {
		selected := make(map[string][]string)
		for _, entry := range out.tracks {
			if entry.Source != src {
				continue
			}
			tr := entry.Track
			id := strconv.Itoa(tr.ID)
			args = append(args,
				"--language", id+":"+tr.Language,
				"--track-name", id+":"+tr.Name,
				"--default-track", id+":"+yesNo(tr.Default),
				"--forced-track", id+":"+yesNo(tr.Forced),
			)
			kind := strings.ToLower(tr.Type)
			selected[kind] = append(selected[kind], id)
			order = append(order, fmt.Sprintf("%d:%d", fileIdx, tr.ID))
		}
		for _, k := range trackKinds {
			if ids := selected[k.kind]; len(ids) > 0 {
				args = append(args, k.include, strings.Join(ids, ","))
			} else {
				args = append(args, k.exclude)
			}
		}
		for _, section := range Sections {
			if src.Stripped(section) {
				args = append(args, section.flag())
			}
		}
		args = append(args, src.Path)
	}
	if len(order) > 0 {
		args = append(args, "--track-order", strings.Join(order, ","))
	}
	return args
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
