package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pykit/internal/config"
	"pykit/internal/history"
	"pykit/internal/relaunch"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var envName string
	var projectRoot string
	var requirements []string

	cmd := &cobra.Command{
		Use:   "run <script.py> [args...]",
		Short: "Run a Python script inside its isolated environment",
		Long: `Run a Python script inside an isolated environment provisioned for it.

The environment is derived from the script's location, created on first use,
and reused afterwards. Requirements given with -r are installed before the
script starts. The script's exit code becomes pykit's exit code.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve script path: %w", err)
			}
			if _, err := os.Stat(script); err != nil {
				return fmt.Errorf("script %s: %w", args[0], err)
			}

			root := projectRoot
			if root != "" {
				if root, err = config.ExpandPath(root); err != nil {
					return fmt.Errorf("resolve project root: %w", err)
				}
			}

			manager, err := ctx.envManager()
			if err != nil {
				return err
			}

			controller := &relaunch.Controller{
				Manager:     manager,
				Script:      script,
				ProjectRoot: root,
				Name:        envName,
				Args:        args[1:],
				Logger:      ctx.log(),
			}

			result, err := controller.AutoSwitch(cmd.Context(), requirements)
			if err != nil {
				ctx.recordRun(cmd.Context(), "run", script, "", history.StatusFailed, err.Error())
				return err
			}

			switch result.State {
			case relaunch.Relaunched:
				status := history.StatusOK
				detail := ""
				if result.ExitCode != 0 {
					status = history.StatusFailed
					detail = fmt.Sprintf("exit code %d", result.ExitCode)
				}
				ctx.recordRun(cmd.Context(), "run", script, "", status, detail)
				if result.ExitCode != 0 {
					return exitWithCode(result.ExitCode)
				}
				return nil
			case relaunch.Provisioned:
				// Already inside the environment; nothing left to launch from
				// here, the caller's own process continues.
				fmt.Fprintf(cmd.OutOrStdout(), "Environment %s is active (%s)\n",
					result.Env, manager.InterpreterPath(manager.Handle(result.Env)))
				return nil
			default:
				return fmt.Errorf("environment check did not settle for %s", filepath.Base(script))
			}
		},
	}

	cmd.Flags().StringVarP(&envName, "name", "n", "", "Override the derived environment name")
	cmd.Flags().StringVar(&projectRoot, "project-root", "", "Project directory used to derive the environment name")
	cmd.Flags().StringArrayVarP(&requirements, "requirement", "r", nil, "pip requirement to install (repeatable)")
	return cmd
}
