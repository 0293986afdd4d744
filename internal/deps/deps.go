package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency pykit relies on.
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

// Defaults returns the external binaries the pykit subcommands depend on.
// pythonBinary is the configured base interpreter used to build environments.
func Defaults(pythonBinary string) []Requirement {
	return []Requirement{
		{Name: "Python", Command: pythonBinary, Description: "creates isolated environments"},
		{Name: "wget", Command: "wget", Description: "mirrors documentation sites (pykit docs)"},
		{Name: "ffmpeg", Command: "ffmpeg", Description: "splits media files (pykit split)", Optional: true},
		{Name: "ffprobe", Command: "ffprobe", Description: "inspects media files (pykit split)", Optional: true},
		{Name: "1Password CLI", Command: "op", Description: "stores generated aliases (pykit alias)", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
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
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
