package venv

import (
	"fmt"
	"strings"
)

// CreationError reports that an isolated environment could not be built:
// the base interpreter is missing, the base directory is unwritable, or the
// venv module exited non-zero. Output carries the tool's diagnostic text.
type CreationError struct {
	Env    string
	Output string
	Err    error
}

func (e *CreationError) Error() string {
	msg := fmt.Sprintf("create environment %s: %v", e.Env, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *CreationError) Unwrap() error { return e.Err }

// InstallError reports that the environment's package installer exited
// non-zero. Output carries the installer's combined stdout/stderr verbatim.
type InstallError struct {
	Env    string
	Output string
	Err    error
}

func (e *InstallError) Error() string {
	msg := fmt.Sprintf("install packages into %s: %v", e.Env, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *InstallError) Unwrap() error { return e.Err }
