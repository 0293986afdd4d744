package main

import (
	"errors"
	"fmt"

	"pykit/internal/relaunch"
	"pykit/internal/venv"
)

// Exit codes for environment provisioning failures. Code 0/1 keep their
// conventional meanings; the relaunched script's own exit code passes
// through untouched.
const (
	exitCreateFailed  = 10
	exitInstallFailed = 11
	exitSpawnFailed   = 12
)

// exitCodeError carries an explicit process exit code through cobra's error
// return path. An empty message suppresses output, used when the relaunched
// child already wrote its own diagnostics.
type exitCodeError struct {
	code    int
	message string
}

func (e *exitCodeError) Error() string { return e.message }

func exitWithCode(code int) error {
	return &exitCodeError{code: code}
}

// exitCode maps provisioning failures onto their reserved exit codes.
func exitCode(err error) int {
	var creation *venv.CreationError
	if errors.As(err, &creation) {
		return exitCreateFailed
	}
	var install *venv.InstallError
	if errors.As(err, &install) {
		return exitInstallFailed
	}
	var spawn *relaunch.SpawnError
	if errors.As(err, &spawn) {
		return exitSpawnFailed
	}
	return 1
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func formatCount(n int, singular string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %ss", n, singular)
}
