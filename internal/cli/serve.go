package cli

import (
	"github.com/spf13/cobra"

	"github.com/lockview/lockview/internal/server"
)

// newServeCmd creates the serve command, which exposes the lockfile over
// a read-only HTTP API.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lockfile over a read-only HTTP API",
		Long: `Serve loads the lockfile once and exposes it over HTTP:

  GET /healthz
  GET /api/v1/lockfile
  GET /api/v1/packages
  GET /api/v1/packages/{name}
  GET /api/v1/packages/{name}/artifacts?platform=&machine=&python=
  GET /api/v1/graph

The server shuts down gracefully on SIGINT/SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lf, path, err := openLockfile(ctx)
			if err != nil {
				return err
			}
			cfg := configFromContext(ctx)
			logger := loggerFromContext(ctx)

			if addr == "" {
				addr = cfg.Server.Addr
			}

			srv := server.New(server.Config{Addr: addr}, lf, logger)
			logger.Info("serving lockfile", "path", path, "addr", addr)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
