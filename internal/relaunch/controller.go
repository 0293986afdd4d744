package relaunch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"pykit/internal/logging"
	"pykit/internal/venv"
)

// Marker is the sentinel appended as the final argument of a relaunched
// invocation. No legitimate caller argument collides with it.
const Marker = "--pykit-in-env"

// State enumerates the controller's relaunch state machine.
type State int

const (
	// Unchecked is the initial state of every invocation.
	Unchecked State = iota
	// Provisioned means the invocation runs inside the target environment
	// and control returns to the caller.
	Provisioned
	// Relaunched is terminal: the script was re-executed inside the
	// environment and the original process must exit.
	Relaunched
)

func (s State) String() string {
	switch s {
	case Provisioned:
		return "provisioned"
	case Relaunched:
		return "relaunched"
	default:
		return "unchecked"
	}
}

// SpawnError reports that the relaunch command could not be started even
// though environment setup succeeded.
type SpawnError struct {
	Env         string
	Interpreter string
	Err         error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("relaunch via %s (environment %s): %v", e.Interpreter, e.Env, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Controller performs the provisioning check for one invocation.
type Controller struct {
	Manager *venv.Manager
	// Script is the path of the script being provisioned.
	Script string
	// ProjectRoot is the enclosing project directory; empty means the
	// script's own directory.
	ProjectRoot string
	// Name overrides the computed environment identity when non-empty.
	Name string
	// Args are the invocation's arguments (not including the script path).
	Args []string
	// CurrentInterpreter is the executable running this invocation; empty
	// means os.Executable().
	CurrentInterpreter string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// runCommand is a test seam; nil means (*exec.Cmd).Run.
	runCommand func(*exec.Cmd) error
}

// Result reports the state the controller settled in.
type Result struct {
	State State
	// Env is the environment identity the decision was made for.
	Env string
	// Args are the invocation arguments with the marker stripped; callers
	// resuming after a Provisioned result should use these.
	Args []string
	// ExitCode is the relaunched process's exit code; meaningful only when
	// State is Relaunched.
	ExitCode int
}

// AutoSwitch runs the state machine for the current invocation. When the
// result state is Relaunched the original process must exit with
// Result.ExitCode and perform no further work.
func (c *Controller) AutoSwitch(ctx context.Context, requirements []string) (Result, error) {
	logger := logging.NewComponentLogger(c.Logger, "relaunch")

	// A marker proves this invocation is the product of a prior relaunch.
	// Trust it unconditionally; re-verifying could loop forever against a
	// misbehaving filesystem.
	if args, found := stripMarker(c.Args); found {
		logger.Debug("relaunch marker present, proceeding in place")
		return Result{State: Provisioned, Env: c.environmentName(), Args: args}, nil
	}

	name := c.environmentName()
	handle := c.Manager.Handle(name)

	if c.Manager.Exists(name) && c.runningInsideEnvironment(handle) {
		logger.Debug("already running under environment interpreter",
			logging.String("env", name))
		return Result{State: Provisioned, Env: name, Args: c.Args}, nil
	}

	handle, err := c.Manager.Setup(ctx, name, requirements)
	if err != nil {
		// Fail closed: no relaunch into an environment that could not be
		// provisioned.
		return Result{State: Unchecked, Env: name, Args: c.Args}, err
	}

	return c.spawn(ctx, logger, handle)
}

func (c *Controller) environmentName() string {
	if c.Name != "" {
		return c.Name
	}
	return venv.ComputeIdentity(c.Script, c.ProjectRoot)
}

// runningInsideEnvironment compares resolved executable paths rather than mere
// presence, so a user manually invoking the environment's interpreter is
// detected without a marker.
func (c *Controller) runningInsideEnvironment(handle venv.Handle) bool {
	current := c.CurrentInterpreter
	if current == "" {
		exe, err := os.Executable()
		if err != nil {
			return false
		}
		current = exe
	}
	resolvedCurrent, err := filepath.EvalSymlinks(current)
	if err != nil {
		return false
	}
	resolvedTarget, err := filepath.EvalSymlinks(c.Manager.InterpreterPath(handle))
	if err != nil {
		return false
	}
	return resolvedCurrent == resolvedTarget
}

func (c *Controller) spawn(ctx context.Context, logger *slog.Logger, handle venv.Handle) (Result, error) {
	interpreter := c.Manager.InterpreterPath(handle)
	args := make([]string, 0, len(c.Args)+2)
	args = append(args, c.Script)
	args = append(args, c.Args...)
	args = append(args, Marker)

	cmd := exec.CommandContext(ctx, interpreter, args...)
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	logger.Info("relaunching inside environment",
		logging.String("env", handle.Name),
		logging.String("interpreter", interpreter),
		logging.String("script", c.Script),
	)

	run := c.runCommand
	if run == nil {
		run = (*exec.Cmd).Run
	}
	if err := run(cmd); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return Result{State: Unchecked, Env: handle.Name, Args: c.Args},
				&SpawnError{Env: handle.Name, Interpreter: interpreter, Err: err}
		}
		// The relaunch happened; the child failing is the script's own
		// business and its exit code passes through.
		return Result{State: Relaunched, Env: handle.Name, Args: c.Args, ExitCode: exitErr.ExitCode()}, nil
	}
	return Result{State: Relaunched, Env: handle.Name, Args: c.Args, ExitCode: 0}, nil
}

func stripMarker(args []string) ([]string, bool) {
	found := false
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == Marker {
			found = true
			continue
		}
		out = append(out, arg)
	}
	return out, found
}
