package probe

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"mkvbatch/internal/logging"
	"mkvbatch/internal/media/mkvinfo"
	"mkvbatch/internal/services"
	"mkvbatch/internal/services/mkvtoolnix"
)

// Reason classifies a soft probe failure.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonBinaryMissing Reason = "binary_missing"
	ReasonEmptyOutput   Reason = "empty_output"
	ReasonExitStatus    Reason = "exit_status"
	ReasonMalformed     Reason = "malformed"
	ReasonUnknown       Reason = "unknown"
)

// Identifier is the subset of the mkvtoolnix toolkit the service needs.
type Identifier interface {
	Identify(ctx context.Context, path string) (mkvinfo.Result, error)
}

// Outcome is the result of probing one file. Result is nil on failure.
type Outcome struct {
	Path   string
	Result *mkvinfo.Result
	Reason Reason
	Err    error
}

// OK reports whether a document was obtained.
func (o Outcome) OK() bool {
	return o.Result != nil
}

// Sections reports which optional sections the probed file carries. A failed
// probe reports none.
func (o Outcome) Sections() Availability {
	if o.Result == nil {
		return Availability{}
	}
	return Availability{
		Chapters:    o.Result.HasChapters(),
		GlobalTags:  o.Result.HasGlobalTags(),
		Attachments: o.Result.HasAttachments(),
	}
}

// Availability describes which optional-section toggles are meaningful for a slot.
type Availability struct {
	Chapters    bool
	GlobalTags  bool
	Attachments bool
}

// Service runs soft-failing probes.
type Service struct {
	tool   Identifier
	logger *slog.Logger
}

func NewService(tool Identifier, logger *slog.Logger) *Service {
	return &Service{tool: tool, logger: logging.NewComponentLogger(logger, "probe")}
}

// Probe identifies path. It never returns an error; failures are logged and
// reflected in the outcome reason.
func (s *Service) Probe(ctx context.Context, path string) Outcome {
	outcome := Outcome{Path: path}
	if s == nil || s.tool == nil {
		outcome.Reason = ReasonBinaryMissing
		outcome.Err = services.Wrap(services.ErrProbe, "probe", "identify", "no identification tool configured", nil)
		return outcome
	}

	result, err := s.tool.Identify(ctx, path)
	if err != nil {
		outcome.Reason = Classify(err)
		outcome.Err = services.Wrap(services.ErrProbe, "probe", "identify", filepath.Base(path), err)
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "metadata probe failed", "probe_failed",
			logging.String("path", path),
			logging.String("reason", string(outcome.Reason)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(outcome.Reason)),
			logging.String(logging.FieldImpact, "chapter, tag and attachment options disabled for this file"),
		)
		return outcome
	}
	outcome.Result = &result
	s.logger.Debug("metadata probe complete",
		logging.String("path", path),
		logging.Int("tracks", len(result.Tracks)),
		logging.Bool("chapters", result.HasChapters()),
		logging.Bool("global_tags", result.HasGlobalTags()),
		logging.Int("attachments", len(result.Attachments)),
	)
	return outcome
}

// Classify maps an identification error to a failure reason.
func Classify(err error) Reason {
	var exitErr *mkvtoolnix.ExitError
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, mkvtoolnix.ErrBinaryNotFound):
		return ReasonBinaryMissing
	case errors.Is(err, mkvtoolnix.ErrEmptyOutput):
		return ReasonEmptyOutput
	case errors.As(err, &exitErr):
		return ReasonExitStatus
	case errors.Is(err, mkvinfo.ErrMalformed):
		return ReasonMalformed
	default:
		return ReasonUnknown
	}
}

func hintFor(reason Reason) string {
	switch reason {
	case ReasonBinaryMissing:
		return "verify paths.tool_dir contains mkvmerge"
	case ReasonEmptyOutput:
		return "mkvmerge printed nothing; check the file is readable"
	case ReasonExitStatus:
		return "run mkvmerge -J on the file manually to see the error"
	case ReasonMalformed:
		return "mkvmerge output was not valid JSON; check the mkvtoolnix version"
	default:
		return "check logs for details"
	}
}
