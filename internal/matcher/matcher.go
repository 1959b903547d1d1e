// Package matcher pairs same-named files across two input directories.
package matcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"mkvbatch/internal/services"
)

// FindMatching returns the names present as regular entries in both dir1 and
// dir2, sorted ascending. Matching is exact and non-recursive; subdirectories
// never pair. An empty result is not an error.
func FindMatching(dir1, dir2 string) ([]string, error) {
	names1, err := listFiles(dir1)
	if err != nil {
		return nil, err
	}
	names2, err := listFiles(dir2)
	if err != nil {
		return nil, err
	}

	matches := make([]string, 0, min(len(names1), len(names2)))
	for name := range names1 {
		if _, ok := names2[name]; ok {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func listFiles(dir string) (map[string]struct{}, error) {
	if dir == "" {
		return nil, services.Wrap(services.ErrPath, "matcher", "list directory", "directory not set", nil)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		msg := dir
		if errors.Is(err, fs.ErrNotExist) {
			msg = "directory not found: " + dir
		}
		return nil, services.Wrap(services.ErrPath, "matcher", "list directory", msg, err)
	}
	names := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			// Links pair by their own name but only when they resolve to a file.
			info, err := os.Stat(filepath.Join(dir, entry.Name()))
			if err != nil || info.IsDir() {
				continue
			}
		}
		names[entry.Name()] = struct{}{}
	}
	return names, nil
}
