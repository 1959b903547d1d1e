package matcher_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"mkvbatch/internal/matcher"
	"mkvbatch/internal/services"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestFindMatching(t *testing.T) {
	tests := []struct {
		name  string
		left  []string
		right []string
		want  []string
	}{
		{"intersection sorted", []string{"c.mkv", "a.mkv", "b.mkv"}, []string{"b.mkv", "c.mkv", "d.mkv"}, []string{"b.mkv", "c.mkv"}},
		{"no overlap", []string{"a.mkv"}, []string{"b.mkv"}, []string{}},
		{"case sensitive", []string{"Movie.mkv"}, []string{"movie.mkv"}, []string{}},
		{"extension sensitive", []string{"movie.mkv"}, []string{"movie.mka"}, []string{}},
		{"empty dirs", nil, nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir1, dir2 := t.TempDir(), t.TempDir()
			touch(t, dir1, tt.left...)
			touch(t, dir2, tt.right...)

			got, err := matcher.FindMatching(dir1, dir2)
			if err != nil {
				t.Fatalf("FindMatching: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			again, _ := matcher.FindMatching(dir1, dir2)
			if !reflect.DeepEqual(got, again) {
				t.Fatal("result not stable across calls")
			}
		})
	}
}

func TestFindMatchingSkipsSubdirectories(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	for _, dir := range []string{dir1, dir2} {
		if err := os.Mkdir(filepath.Join(dir, "extras"), 0o755); err != nil {
			t.Fatal(err)
		}
		touch(t, filepath.Join(dir, "extras"), "nested.mkv")
	}
	touch(t, dir1, "a.mkv")
	touch(t, dir2, "a.mkv")

	got, err := matcher.FindMatching(dir1, dir2)
	if err != nil {
		t.Fatalf("FindMatching: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a.mkv"}) {
		t.Fatalf("got %q", got)
	}
}

func TestFindMatchingSymlinks(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	for _, dir := range []string{dir1, dir2} {
		target := filepath.Join(dir, "season")
		if err := os.Mkdir(target, 0o755); err != nil {
			t.Fatal(err)
		}
		touch(t, dir, "real.mkv")
		links := map[string]string{
			"season.mkv": target,
			"linked.mkv": filepath.Join(dir, "real.mkv"),
			"broken.mkv": filepath.Join(dir, "missing.mkv"),
		}
		for name, dest := range links {
			if err := os.Symlink(dest, filepath.Join(dir, name)); err != nil {
				t.Skipf("symlinks unavailable: %v", err)
			}
		}
	}

	got, err := matcher.FindMatching(dir1, dir2)
	if err != nil {
		t.Fatalf("FindMatching: %v", err)
	}
	if want := []string{"linked.mkv", "real.mkv"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFindMatchingMissingDirectory(t *testing.T) {
	existing := t.TempDir()
	missing := filepath.Join(t.TempDir(), "gone")

	for _, pair := range [][2]string{{missing, existing}, {existing, missing}} {
		_, err := matcher.FindMatching(pair[0], pair[1])
		if !errors.Is(err, services.ErrPath) {
			t.Fatalf("expected ErrPath, got %v", err)
		}
		if !strings.Contains(err.Error(), missing) {
			t.Fatalf("error should name the missing path: %v", err)
		}
	}
}
