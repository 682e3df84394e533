package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/runoshun/maestro/internal/app"
	"github.com/runoshun/maestro/internal/httpapi"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// newServeCommand creates the serve command that runs the HTTP API.
func newServeCommand(e *env) *cobra.Command {
	var opts struct {
		Addr     string
		Store    string
		Launcher bool
		Redis    bool
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the control plane server",
		Long: `Run the HTTP API server.

The server owns all state. With store.kind = "memory" (the default) state is
lost on exit; use store.kind = "json" to persist it to store.path.

When [launcher] is enabled the server starts a worker process for every
spawned session and reports its lifecycle itself. When [redis] is enabled
every event is also published to the configured channel.

Examples:
  # Serve on the configured address
  maestro serve

  # Serve on another port with the launcher enabled
  maestro serve --addr 127.0.0.1:4000 --launcher`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := e.loadConfig()
			if err != nil {
				return err
			}
			if opts.Addr != "" {
				cfg.Server.Address = opts.Addr
			}
			if opts.Store != "" {
				cfg.Store.Kind = opts.Store
			}
			if cmd.Flags().Changed("launcher") {
				cfg.Launcher.Enabled = opts.Launcher
			}
			if cmd.Flags().Changed("redis") {
				cfg.Redis.Enabled = opts.Redis
			}
			// Relative paths are taken from the working directory.
			cfg.Store.Path = e.resolve(cfg.Store.Path)
			cfg.Log.Dir = e.resolve(cfg.Log.Dir)

			c, err := app.New(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			detach, err := c.Attach(ctx)
			if err != nil {
				return fmt.Errorf("attach consumers: %w", err)
			}
			defer detach()

			ln, err := net.Listen("tcp", cfg.Server.Address)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Server.Address, err)
			}

			srv := httpapi.NewServer(cfg.Server.Address, httpapi.NewHandler(c), c.Slog)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "maestro listening on http://%s\n", ln.Addr())

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Serve(ln)
			})
			g.Go(func() error {
				<-gctx.Done()
				return srv.Shutdown(context.WithoutCancel(gctx))
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (overrides server.address)")
	cmd.Flags().StringVar(&opts.Store, "store", "", "Store kind: memory or json (overrides store.kind)")
	cmd.Flags().BoolVar(&opts.Launcher, "launcher", false, "Start worker processes for spawned sessions")
	cmd.Flags().BoolVar(&opts.Redis, "redis", false, "Publish events to Redis")

	return cmd
}

func (e *env) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.workDir, path)
}
