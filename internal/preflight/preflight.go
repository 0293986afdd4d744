package preflight

import (
	"fmt"
	"os"

	"pykit/internal/config"
	"pykit/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	for _, status := range deps.CheckBinaries(deps.Defaults(cfg.Python.Binary)) {
		result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
		if status.Available {
			result.Detail = status.Command
		} else {
			result.Detail = status.Detail
			if status.Description != "" {
				result.Detail += " (" + status.Description + ")"
			}
		}
		results = append(results, result)
	}

	results = append(results, CheckDirectoryAccess("Environment base", cfg.Paths.EnvBaseDir))
	results = append(results, CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	return results
}

// CheckDirectoryAccess verifies that the directory exists (or can be created)
// and is writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return Result{Name: name, Detail: fmt.Sprintf("%s is not a directory", path)}
	case os.IsNotExist(err):
		// Not created yet; the parent must be writable so EnsureDirectories
		// can create it later.
		if mkErr := os.MkdirAll(path, 0o755); mkErr != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, mkErr)}
		}
	case err != nil:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}

	if err := checkWritable(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// AllPassed reports whether every non-optional check passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed && !result.Optional {
			return false
		}
	}
	return true
}
