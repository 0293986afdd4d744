package venv

import (
	"path/filepath"
	"runtime"
)

// interpreterRelPath returns the interpreter location relative to an
// environment root. Windows venvs place executables under Scripts\, POSIX
// venvs under bin/.
func interpreterRelPath() string {
	if runtime.GOOS == "windows" {
		return filepath.Join("Scripts", "python.exe")
	}
	return filepath.Join("bin", "python")
}

// installerRelPath returns the pip location relative to an environment root.
func installerRelPath() string {
	if runtime.GOOS == "windows" {
		return filepath.Join("Scripts", "pip.exe")
	}
	return filepath.Join("bin", "pip")
}

// toolRelPath returns the location of a console-script entry point (such as
// yt-dlp or gallery-dl) relative to an environment root.
func toolRelPath(tool string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join("Scripts", tool+".exe")
	}
	return filepath.Join("bin", tool)
}
