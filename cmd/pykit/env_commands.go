package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pykit/internal/config"
	"pykit/internal/venv"
)

func newEnvCommand(ctx *commandContext) *cobra.Command {
	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Inspect and provision isolated environments",
	}

	envCmd.AddCommand(newEnvListCommand(ctx))
	envCmd.AddCommand(newEnvInfoCommand(ctx))
	envCmd.AddCommand(newEnvSetupCommand(ctx))

	return envCmd
}

func newEnvListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List provisioned environments",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.envManager()
			if err != nil {
				return err
			}
			handles, err := manager.List()
			if err != nil {
				return err
			}

			if jsonOutput {
				type jsonEnv struct {
					Name        string `json:"name"`
					Root        string `json:"root"`
					Interpreter string `json:"interpreter"`
				}
				envs := make([]jsonEnv, 0, len(handles))
				for _, h := range handles {
					envs = append(envs, jsonEnv{
						Name:        h.Name,
						Root:        h.Root,
						Interpreter: manager.InterpreterPath(h),
					})
				}
				return writeJSON(cmd, map[string]any{"environments": envs})
			}

			out := cmd.OutOrStdout()
			if len(handles) == 0 {
				fmt.Fprintf(out, "No environments under %s\n", manager.BaseDir())
				return nil
			}

			rows := make([][]string, 0, len(handles))
			for _, h := range handles {
				rows = append(rows, []string{h.Name, h.Root})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Path"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%s\n", formatCount(len(handles), "environment"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable output")
	return cmd
}

func newEnvInfoCommand(ctx *commandContext) *cobra.Command {
	var envName string
	var projectRoot string

	cmd := &cobra.Command{
		Use:   "info <script.py>",
		Short: "Show the environment a script maps to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.envManager()
			if err != nil {
				return err
			}

			name, err := resolveEnvName(envName, projectRoot, args)
			if err != nil {
				return err
			}
			handle := manager.Handle(name)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:        %s\n", handle.Name)
			fmt.Fprintf(out, "Path:        %s\n", handle.Root)
			fmt.Fprintf(out, "Interpreter: %s\n", manager.InterpreterPath(handle))
			fmt.Fprintf(out, "Provisioned: %s\n", yesNo(manager.Exists(name)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&envName, "name", "n", "", "Inspect an environment by name instead of by script")
	cmd.Flags().StringVar(&projectRoot, "project-root", "", "Project directory used to derive the environment name")
	return cmd
}

func newEnvSetupCommand(ctx *commandContext) *cobra.Command {
	var envName string
	var projectRoot string
	var requirements []string

	cmd := &cobra.Command{
		Use:   "setup <script.py>",
		Short: "Provision a script's environment without running it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.envManager()
			if err != nil {
				return err
			}

			name, err := resolveEnvName(envName, projectRoot, args)
			if err != nil {
				return err
			}

			handle, err := manager.Setup(cmd.Context(), name, requirements)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Environment %s ready at %s\n", handle.Name, handle.Root)
			if len(requirements) > 0 {
				fmt.Fprintf(out, "Installed %s\n", formatCount(len(requirements), "requirement"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&envName, "name", "n", "", "Provision an environment by name instead of by script")
	cmd.Flags().StringVar(&projectRoot, "project-root", "", "Project directory used to derive the environment name")
	cmd.Flags().StringArrayVarP(&requirements, "requirement", "r", nil, "pip requirement to install (repeatable)")
	return cmd
}

// resolveEnvName maps an explicit name or a script argument onto an
// environment identity. Exactly one of the two must be provided.
func resolveEnvName(envName, projectRoot string, args []string) (string, error) {
	if envName != "" {
		return envName, nil
	}
	if len(args) == 0 {
		return "", fmt.Errorf("a script path or --name is required")
	}
	script, err := config.ExpandPath(args[0])
	if err != nil {
		return "", fmt.Errorf("resolve script path: %w", err)
	}
	root := projectRoot
	if root != "" {
		if root, err = config.ExpandPath(root); err != nil {
			return "", fmt.Errorf("resolve project root: %w", err)
		}
	}
	return venv.ComputeIdentity(script, root), nil
}
