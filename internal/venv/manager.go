package venv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"pykit/internal/config"
	"pykit/internal/logging"
)

// Handle identifies a provisioned (or about to be provisioned) environment.
type Handle struct {
	Name string
	Root string
}

// Manager creates and provisions isolated environments under a base directory.
type Manager struct {
	baseDir        string
	python         string
	createTimeout  time.Duration
	installTimeout time.Duration
	logger         *slog.Logger
}

// NewManager builds a Manager from application configuration.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{
		baseDir:        cfg.Paths.EnvBaseDir,
		python:         cfg.Python.Binary,
		createTimeout:  time.Duration(cfg.Python.CreateTimeoutSeconds) * time.Second,
		installTimeout: time.Duration(cfg.Python.InstallTimeoutSeconds) * time.Second,
		logger:         logging.NewComponentLogger(logger, "venv"),
	}
}

// BaseDir returns the directory all environments live under.
func (m *Manager) BaseDir() string { return m.baseDir }

// Handle returns the handle an environment with the given name would have,
// whether or not it exists yet.
func (m *Manager) Handle(name string) Handle {
	return Handle{Name: name, Root: filepath.Join(m.baseDir, name)}
}

// Exists reports whether the named environment is present. Presence means the
// interpreter executable exists at its expected location; a leftover directory
// without one does not count.
func (m *Manager) Exists(name string) bool {
	info, err := os.Stat(m.InterpreterPath(m.Handle(name)))
	return err == nil && !info.IsDir()
}

// InterpreterPath returns the absolute path of the environment's interpreter.
func (m *Manager) InterpreterPath(h Handle) string {
	return filepath.Join(h.Root, interpreterRelPath())
}

// InstallerPath returns the absolute path of the environment's pip executable.
func (m *Manager) InstallerPath(h Handle) string {
	return filepath.Join(h.Root, installerRelPath())
}

// ToolPath returns the absolute path a console-script entry point would have
// inside the environment.
func (m *Manager) ToolPath(h Handle, tool string) string {
	return filepath.Join(h.Root, toolRelPath(tool))
}

// Create builds the named environment. Re-running over a partially-created
// directory completes it; the venv module tolerates an existing target.
func (m *Manager) Create(ctx context.Context, name string) (Handle, error) {
	lock, err := m.acquireLock(name)
	if err != nil {
		return Handle{}, &CreationError{Env: name, Err: err}
	}
	defer lock.Unlock()
	return m.createLocked(ctx, name)
}

// Install runs the environment's pip with the given requirements. Installing
// an already-satisfied requirement is a no-op for pip, so repeated calls are
// safe.
func (m *Manager) Install(ctx context.Context, h Handle, requirements []string) error {
	if len(requirements) == 0 {
		return nil
	}
	lock, err := m.acquireLock(h.Name)
	if err != nil {
		return &InstallError{Env: h.Name, Err: err}
	}
	defer lock.Unlock()
	return m.installLocked(ctx, h, requirements)
}

// Setup is the entry point callers should normally use: create the environment
// when absent, then install the requirements. Installation always runs so a
// grown requirement set reaches an existing environment.
func (m *Manager) Setup(ctx context.Context, name string, requirements []string) (Handle, error) {
	lock, err := m.acquireLock(name)
	if err != nil {
		return Handle{}, &CreationError{Env: name, Err: err}
	}
	defer lock.Unlock()

	handle := m.Handle(name)
	if !m.Exists(name) {
		handle, err = m.createLocked(ctx, name)
		if err != nil {
			return Handle{}, err
		}
	}
	if err := m.installLocked(ctx, handle, requirements); err != nil {
		return Handle{}, err
	}
	return handle, nil
}

// List returns the names of all environments under the base directory that
// hold an interpreter, sorted alphabetically.
func (m *Manager) List() ([]Handle, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read environment base %s: %w", m.baseDir, err)
	}
	var handles []Handle
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if m.Exists(entry.Name()) {
			handles = append(handles, m.Handle(entry.Name()))
		}
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i].Name < handles[j].Name })
	return handles, nil
}

func (m *Manager) createLocked(ctx context.Context, name string) (Handle, error) {
	if _, err := exec.LookPath(m.python); err != nil {
		return Handle{}, &CreationError{Env: name, Err: fmt.Errorf("base interpreter %q not found: %w", m.python, err)}
	}
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return Handle{}, &CreationError{Env: name, Err: fmt.Errorf("create base directory: %w", err)}
	}

	handle := m.Handle(name)
	m.logger.Info("creating environment",
		logging.String("env", name),
		logging.String("root", handle.Root),
	)

	runCtx := ctx
	if m.createTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.createTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, m.python, "-m", "venv", handle.Root)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Handle{}, &CreationError{Env: name, Output: string(output), Err: err}
	}

	// venv exited zero but the layout must still be sane before Exists starts
	// treating the directory as valid.
	if !m.Exists(name) {
		return Handle{}, &CreationError{Env: name, Output: string(output), Err: fmt.Errorf("interpreter missing at %s after creation", m.InterpreterPath(handle))}
	}
	return handle, nil
}

func (m *Manager) installLocked(ctx context.Context, h Handle, requirements []string) error {
	if len(requirements) == 0 {
		return nil
	}
	m.logger.Info("installing requirements",
		logging.String("env", h.Name),
		logging.Any("requirements", requirements),
	)

	runCtx := ctx
	if m.installTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.installTimeout)
		defer cancel()
	}

	args := append([]string{"install"}, requirements...)
	cmd := exec.CommandContext(runCtx, m.InstallerPath(h), args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &InstallError{Env: h.Name, Output: string(output), Err: err}
	}
	return nil
}

func (m *Manager) acquireLock(name string) (*flock.Flock, error) {
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	lock := flock.New(filepath.Join(m.baseDir, name+".lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock environment %s: %w", name, err)
	}
	return lock, nil
}
