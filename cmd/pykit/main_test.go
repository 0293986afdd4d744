package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pykit/internal/config"
	"pykit/internal/history"
	"pykit/internal/relaunch"
	"pykit/internal/venv"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.EnvBaseDir = filepath.Join(base, "envs")
	cfgVal.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfgVal.Paths.CertDir = filepath.Join(base, "certs")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Python.Binary = fakePythonBinary(t, base)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, &cfgVal)

	return &cliTestEnv{cfg: &cfgVal, configPath: configPath, baseDir: base}
}

// fakePythonBinary emulates `python -m venv <root>`: it lays down a bin/python
// that logs its arguments and a bin/pip that always succeeds.
func fakePythonBinary(t *testing.T, dir string) string {
	t.Helper()
	binary := filepath.Join(dir, "python3")
	argLog := filepath.Join(dir, "interp-args.log")
	script := "#!/bin/sh\n" +
		"root=\"$3\"\n" +
		"mkdir -p \"$root/bin\" || exit 1\n" +
		"printf '#!/bin/sh\\necho \"$@\" >> \"" + argLog + "\"\\nexit 0\\n' > \"$root/bin/python\"\n" +
		"chmod +x \"$root/bin/python\"\n" +
		"printf '#!/bin/sh\\nexit 0\\n' > \"$root/bin/pip\"\n" +
		"chmod +x \"$root/bin/pip\"\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("write python stub: %v", err)
	}
	return binary
}

func interpArgsLog(env *cliTestEnv) string {
	return filepath.Join(env.baseDir, "interp-args.log")
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nenv_base_dir = %q\ndownload_dir = %q\ncert_dir = %q\nlog_dir = %q\n\n[python]\nbinary = %q\n",
		cfg.Paths.EnvBaseDir,
		cfg.Paths.DownloadDir,
		cfg.Paths.CertDir,
		cfg.Paths.LogDir,
		cfg.Python.Binary,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got %q", needle, haystack)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// Re-running without --overwrite refuses to clobber.
	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil {
		t.Fatal("expected error for existing config file")
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.cfg.Paths.EnvBaseDir)
}

func TestEnvSetupInfoAndList(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"env", "setup", "--name", "tool-demo", "-r", "requests"}, env.configPath)
	if err != nil {
		t.Fatalf("env setup: %v", err)
	}
	requireContains(t, out, "Environment tool-demo ready")

	out, _, err = runCLI(t, []string{"env", "info", "--name", "tool-demo"}, env.configPath)
	if err != nil {
		t.Fatalf("env info: %v", err)
	}
	requireContains(t, out, "Provisioned: yes")

	out, _, err = runCLI(t, []string{"env", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("env list: %v", err)
	}
	requireContains(t, out, "tool-demo")
	requireContains(t, out, "1 environment")
}

func TestEnvInfoDerivesIdentityFromScript(t *testing.T) {
	env := setupCLITestEnv(t)

	script := filepath.Join(env.baseDir, "project", "tool.py")
	if err := os.MkdirAll(filepath.Dir(script), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(script, []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"env", "info", script}, env.configPath)
	if err != nil {
		t.Fatalf("env info: %v", err)
	}
	requireContains(t, out, "project-tool-")
	requireContains(t, out, "Provisioned: no")
}

func TestRunRelaunchesScriptWithMarker(t *testing.T) {
	env := setupCLITestEnv(t)

	script := filepath.Join(env.baseDir, "job.py")
	if err := os.WriteFile(script, []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := runCLI(t, []string{"run", script, "--", "hello", "world"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	logged, readErr := os.ReadFile(interpArgsLog(env))
	if readErr != nil {
		t.Fatalf("environment interpreter was not invoked: %v", readErr)
	}
	line := strings.TrimSpace(string(logged))
	if !strings.Contains(line, script) {
		t.Fatalf("script path not passed to interpreter: %s", line)
	}
	if !strings.Contains(line, "hello world") {
		t.Fatalf("caller args not forwarded: %s", line)
	}
	if !strings.HasSuffix(line, "--pykit-in-env") {
		t.Fatalf("marker must be the final argument: %s", line)
	}
}

func TestRunPassesThroughChildExitCode(t *testing.T) {
	env := setupCLITestEnv(t)

	// Replace the venv layout so the provisioned interpreter exits 7.
	binary := filepath.Join(env.baseDir, "python3")
	script := "#!/bin/sh\n" +
		"root=\"$3\"\n" +
		"mkdir -p \"$root/bin\" || exit 1\n" +
		"printf '#!/bin/sh\\nexit 7\\n' > \"$root/bin/python\"\n" +
		"chmod +x \"$root/bin/python\"\n" +
		"printf '#!/bin/sh\\nexit 0\\n' > \"$root/bin/pip\"\n" +
		"chmod +x \"$root/bin/pip\"\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	job := filepath.Join(env.baseDir, "fail.py")
	if err := os.WriteFile(job, []byte("raise SystemExit(7)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := runCLI(t, []string{"run", job}, env.configPath)
	if err == nil {
		t.Fatal("expected error carrying the child's exit code")
	}
	var coded *exitCodeError
	if !errors.As(err, &coded) {
		t.Fatalf("expected exit code error, got %T: %v", err, err)
	}
	if coded.code != 7 {
		t.Fatalf("expected exit code 7, got %d", coded.code)
	}
}

func TestDoctorJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	// Provide every required binary so the check set passes.
	binDir := filepath.Join(env.baseDir, "stub-bin")
	makeStubExecutables(t, binDir, "wget", "ffmpeg", "ffprobe", "op")
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	out, _, err := runCLI(t, []string{"doctor", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	requireContains(t, out, `"passed": true`)
	requireContains(t, out, "wget")
}

func TestHistoryListAndPrune(t *testing.T) {
	env := setupCLITestEnv(t)

	cfg, _, _, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	if _, err := store.Add(context.Background(), "docs", "https://example.com", "/tmp/out", history.StatusOK, ""); err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	store.Close()

	out, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "docs")
	requireContains(t, out, "https://example.com")

	out, _, err = runCLI(t, []string{"history", "prune", "--days", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, out, "Removed")
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "creation failure",
			err:  &venv.CreationError{Env: "tool-demo", Err: errors.New("permission denied")},
			want: exitCreateFailed,
		},
		{
			name: "install failure",
			err:  &venv.InstallError{Env: "tool-demo", Output: "no matching distribution", Err: errors.New("exit status 1")},
			want: exitInstallFailed,
		},
		{
			name: "spawn failure",
			err:  &relaunch.SpawnError{Env: "tool-demo", Interpreter: "/envs/tool-demo/bin/python", Err: errors.New("no such file")},
			want: exitSpawnFailed,
		},
		{
			name: "wrapped creation failure",
			err:  fmt.Errorf("run script: %w", &venv.CreationError{Env: "tool-demo", Err: errors.New("base dir unwritable")}),
			want: exitCreateFailed,
		},
		{
			name: "wrapped install failure",
			err:  fmt.Errorf("run script: %w", &venv.InstallError{Env: "tool-demo", Err: errors.New("exit status 1")}),
			want: exitInstallFailed,
		},
		{
			name: "plain error",
			err:  errors.New("something else"),
			want: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.err); got != tc.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestRunUnwritableBaseDirFailsClosed(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	env := setupCLITestEnv(t)

	script := filepath.Join(env.baseDir, "job.py")
	if err := os.WriteFile(script, []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Make the environment base directory unwritable so provisioning fails.
	if err := os.MkdirAll(env.cfg.Paths.EnvBaseDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(env.cfg.Paths.EnvBaseDir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(env.cfg.Paths.EnvBaseDir, 0o755) })

	_, _, err := runCLI(t, []string{"run", script}, env.configPath)
	if err == nil {
		t.Fatal("expected creation failure for unwritable base dir")
	}
	var creation *venv.CreationError
	if !errors.As(err, &creation) {
		t.Fatalf("expected CreationError, got %T: %v", err, err)
	}
	if got := exitCode(err); got != exitCreateFailed {
		t.Fatalf("expected exit code %d, got %d", exitCreateFailed, got)
	}
	// The interpreter must never have been spawned.
	if _, statErr := os.Stat(interpArgsLog(env)); statErr == nil {
		t.Fatal("interpreter was invoked despite failed provisioning")
	}
}

func makeStubExecutables(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create stub bin dir: %v", err)
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
}
