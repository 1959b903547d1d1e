package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Requirement defines an external binary mkvbatch relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Commands containing a path separator are checked in place; bare names are
// resolved through PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		case strings.ContainsAny(cmd, `/\`):
			info, err := os.Stat(cmd)
			if err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else if !isExecutable(info) {
				status.Detail = fmt.Sprintf("%q is not executable", cmd)
			} else {
				status.Available = true
			}
		default:
			if _, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

// MKVToolNix returns the requirements for a tool directory: mkvmerge is
// mandatory, mkvextract only backs attachment extraction.
func MKVToolNix(toolDir, mkvmerge, mkvextract string) []Requirement {
	return []Requirement{
		{
			Name:        "mkvmerge",
			Command:     inDir(toolDir, mkvmerge),
			Description: "Required for probing and muxing",
		},
		{
			Name:        "mkvextract",
			Command:     inDir(toolDir, mkvextract),
			Description: "Used to extract attachments",
			Optional:    true,
		},
	}
}

func inDir(dir, name string) string {
	if strings.TrimSpace(dir) == "" || strings.TrimSpace(name) == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
