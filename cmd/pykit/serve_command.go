package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pykit/internal/config"
	"pykit/internal/fileserver"
	"pykit/internal/localtls"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	var rootDir string

	cmd := &cobra.Command{
		Use:   "serve [directory]",
		Short: "Serve a directory over HTTPS with a self-signed certificate",
		Long: `Serve a directory tree over HTTPS. A self-signed certificate is generated on
first use and cached under the configured certificate directory, so repeat
runs present the same certificate. Stops cleanly on Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			bind := addr
			if bind == "" {
				bind = cfg.Serve.Bind
			}

			root := rootDir
			if len(args) == 1 {
				root = args[0]
			}
			if root == "" {
				if root, err = os.Getwd(); err != nil {
					return fmt.Errorf("resolve working directory: %w", err)
				}
			} else if root, err = config.ExpandPath(root); err != nil {
				return fmt.Errorf("resolve serve directory: %w", err)
			}
			if info, err := os.Stat(root); err != nil || !info.IsDir() {
				return fmt.Errorf("serve directory %s is not a directory", root)
			}

			certs := localtls.NewManager(cfg.Paths.CertDir, cfg.Serve.CommonName, cfg.Serve.ValidDays, ctx.log())
			tlsCfg, err := certs.TLSConfig()
			if err != nil {
				return err
			}

			server, err := fileserver.New(fileserver.Options{
				Addr:      bind,
				RootDir:   root,
				TLSConfig: tlsCfg,
				Logger:    ctx.log(),
			})
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := server.Start(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s (Ctrl-C to stop)\n", root, server.URL())

			<-runCtx.Done()
			fmt.Fprintln(cmd.OutOrStdout(), "Shutting down")
			return server.Shutdown()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address host:port (default: from config)")
	cmd.Flags().StringVarP(&rootDir, "dir", "d", "", "Directory to serve (default: current directory)")
	return cmd
}
