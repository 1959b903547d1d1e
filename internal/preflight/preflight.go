package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"mkvbatch/internal/config"
	"mkvbatch/internal/deps"
	"mkvbatch/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Access modes for CheckDirectoryAccess.
const (
	ReadOnly  = unix.R_OK | unix.X_OK
	ReadWrite = unix.R_OK | unix.W_OK | unix.X_OK
)

// RunAll executes every check for cfg in display order.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{CheckToolDir(cfg)}
	results = append(results,
		CheckDirectoryAccess("Folder 1", cfg.Paths.Folder1, ReadOnly),
		CheckDirectoryAccess("Folder 2", cfg.Paths.Folder2, ReadOnly),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir, ReadWrite),
	)
	return results
}

// Validate returns a services.ErrPath naming the first failing check.
func Validate(cfg *config.Config) error {
	for _, result := range RunAll(cfg) {
		if !result.Passed {
			return services.Wrap(services.ErrPath, "preflight", result.Name, result.Detail, nil)
		}
	}
	return nil
}

// CheckToolDir verifies the MKVToolNix directory exists and holds mkvmerge.
func CheckToolDir(cfg *config.Config) Result {
	const name = "MKVToolNix"
	dir := strings.TrimSpace(cfg.Paths.ToolDir)
	if dir == "" {
		return Result{Name: name, Detail: "paths.tool_dir not set"}
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a directory)", dir)}
	}
	status := deps.CheckBinaries(deps.MKVToolNix(dir, cfg.MkvmergeBinary(), cfg.MkvextractBinary()))[0]
	if !status.Available {
		return Result{Name: name, Detail: fmt.Sprintf("mkvmerge not found at: %s", dir)}
	}
	return Result{Name: name, Passed: true, Detail: status.Command}
}

// CheckDirectoryAccess verifies that path is set, exists, is a directory and
// grants mode.
func CheckDirectoryAccess(name, path string, mode uint32) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not set"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	label := "read ok"
	if mode&unix.W_OK != 0 {
		label = "read/write ok"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, label)}
}
