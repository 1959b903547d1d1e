package mkvtoolnix_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"mkvbatch/internal/media/mkvinfo"
	"mkvbatch/internal/services"
	"mkvbatch/internal/services/mkvtoolnix"
)

type call struct {
	binary string
	args   []string
}

type stubRunner struct {
	calls   []call
	respond func(binary string, args []string) ([]byte, error)
}

func (s *stubRunner) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	s.calls = append(s.calls, call{binary: binary, args: append([]string(nil), args...)})
	if s.respond == nil {
		return nil, nil
	}
	return s.respond(binary, args)
}

func newToolkit(t *testing.T, runner *stubRunner, opts ...mkvtoolnix.Option) *mkvtoolnix.Toolkit {
	t.Helper()
	opts = append([]mkvtoolnix.Option{mkvtoolnix.WithRunner(runner), mkvtoolnix.WithBinaryNames("mkvmerge", "mkvextract")}, opts...)
	tk, err := mkvtoolnix.New("/opt/mkvtoolnix", opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return tk
}

func TestNewRequiresToolDir(t *testing.T) {
	if _, err := mkvtoolnix.New("  "); !errors.Is(err, services.ErrPath) {
		t.Fatalf("expected ErrPath, got %v", err)
	}
}

func TestIdentifyClassifiesFailures(t *testing.T) {
	tests := []struct {
		name    string
		output  []byte
		err     error
		wantErr error
	}{
		{"missing binary", nil, mkvtoolnix.ErrBinaryNotFound, mkvtoolnix.ErrBinaryNotFound},
		{"empty output", []byte("  \n"), nil, mkvtoolnix.ErrEmptyOutput},
		{"malformed", []byte("{oops"), nil, mkvinfo.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{respond: func(string, []string) ([]byte, error) { return tt.output, tt.err }}
			_, err := newToolkit(t, runner).Identify(context.Background(), "/in/a.mkv")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Identify error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("non-zero exit", func(t *testing.T) {
		runner := &stubRunner{respond: func(string, []string) ([]byte, error) {
			return nil, &mkvtoolnix.ExitError{Binary: "mkvmerge", Code: 2, Stderr: "bad file"}
		}}
		_, err := newToolkit(t, runner).Identify(context.Background(), "/in/a.mkv")
		var exitErr *mkvtoolnix.ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != 2 {
			t.Fatalf("expected ExitError code 2, got %v", err)
		}
	})
}

func TestOpenBuildsSourceTracks(t *testing.T) {
	runner := &stubRunner{respond: func(binary string, args []string) ([]byte, error) {
		return []byte(`{"container":{"properties":{"title":"T"}},"tracks":[{"id":0,"type":"video","codec":"HEVC","properties":{"language":"und"}},{"id":1,"type":"audio","codec":"AAC","properties":{"language":"eng","default_track":true}}]}`), nil
	}}
	src, err := newToolkit(t, runner).Open(context.Background(), "/in/a.mkv")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := runner.calls[0]; got.binary != filepath.Join("/opt/mkvtoolnix", "mkvmerge") || !reflect.DeepEqual(got.args, []string{"-J", "/in/a.mkv"}) {
		t.Fatalf("unexpected identify call %+v", got)
	}
	track, ok := src.Track(1)
	if !ok || track.Language != "eng" || !track.Default {
		t.Fatalf("unexpected track %+v", track)
	}
}

func TestCapabilitiesScannedOnce(t *testing.T) {
	runner := &stubRunner{respond: func(string, []string) ([]byte, error) {
		return []byte("  --no-chapters   Don't keep chapters\n  --no-attachments  Don't keep attachments\n"), nil
	}}
	tk := newToolkit(t, runner)
	caps := tk.Capabilities(context.Background())
	_ = tk.Capabilities(context.Background())

	want := mkvtoolnix.Capabilities{NoChapters: true, NoAttachments: true}
	if caps != want {
		t.Fatalf("capabilities = %+v, want %+v", caps, want)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected a single --help scan, got %d calls", len(runner.calls))
	}
	if !caps.Supports(mkvtoolnix.SectionChapters) || caps.Supports(mkvtoolnix.SectionGlobalTags) {
		t.Fatal("Supports disagrees with descriptor")
	}
}

func TestCapabilitiesScanFailureDegrades(t *testing.T) {
	runner := &stubRunner{respond: func(string, []string) ([]byte, error) { return nil, mkvtoolnix.ErrBinaryNotFound }}
	caps := newToolkit(t, runner).Capabilities(context.Background())
	if caps != (mkvtoolnix.Capabilities{}) {
		t.Fatalf("expected empty descriptor, got %+v", caps)
	}
}

func TestCapabilitiesPinned(t *testing.T) {
	runner := &stubRunner{}
	caps := newToolkit(t, runner, mkvtoolnix.WithCapabilities(mkvtoolnix.AllCapabilities())).Capabilities(context.Background())
	if caps != mkvtoolnix.AllCapabilities() || len(runner.calls) != 0 {
		t.Fatalf("expected pinned capabilities without scanning, got %+v (%d calls)", caps, len(runner.calls))
	}
}

func TestExtractAttachmentArguments(t *testing.T) {
	runner := &stubRunner{}
	tk := newToolkit(t, runner)
	if err := tk.ExtractAttachment(context.Background(), "/in/a.mkv", "3", "/tmp/font.ttf"); err != nil {
		t.Fatalf("ExtractAttachment: %v", err)
	}
	want := []string{"attachments", "extract", "/in/a.mkv", "3:/tmp/font.ttf"}
	if got := runner.calls[0]; got.binary != filepath.Join("/opt/mkvtoolnix", "mkvextract") || !reflect.DeepEqual(got.args, want) {
		t.Fatalf("unexpected extract call %+v", got)
	}
}

func TestExtractAttachmentFailureIsExtractionError(t *testing.T) {
	runner := &stubRunner{respond: func(string, []string) ([]byte, error) {
		return nil, &mkvtoolnix.ExitError{Binary: "mkvextract", Code: 2}
	}}
	err := newToolkit(t, runner).ExtractAttachment(context.Background(), "/in/a.mkv", "3", "/tmp/x")
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if services.IsFatal(err) {
		t.Fatal("extraction errors must not be fatal")
	}
}

func TestExecRunnerReportsExitStatus(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "mkvmerge")
	body := "#!/bin/sh\necho 'Error: no such file' 1>&2\nexit 2\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	tk, err := mkvtoolnix.New(dir, mkvtoolnix.WithBinaryNames("mkvmerge", "mkvextract"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = tk.Identify(context.Background(), "/in/a.mkv")
	var exitErr *mkvtoolnix.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 2 || !strings.Contains(exitErr.Stderr, "no such file") {
		t.Fatalf("unexpected exit error %+v", exitErr)
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	tk, err := mkvtoolnix.New(t.TempDir(), mkvtoolnix.WithBinaryNames("mkvmerge", "mkvextract"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := tk.Identify(context.Background(), "/in/a.mkv"); !errors.Is(err, mkvtoolnix.ErrBinaryNotFound) {
		t.Fatalf("expected ErrBinaryNotFound, got %v", err)
	}
}
