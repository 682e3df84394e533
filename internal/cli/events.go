package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/infra/redisbridge"
	"github.com/spf13/cobra"
)

// newEventsCommand creates the events command that follows the Redis event feed.
func newEventsCommand(e *env) *cobra.Command {
	var opts struct {
		Count int
		JSON  bool
	}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow the server's event feed",
		Long: `Print events as the server publishes them to Redis.

Requires a server running with [redis] enabled. Events published while this
command is not connected are not replayed.

Examples:
  maestro events
  maestro events --count 10 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := e.loadConfig()
			if err != nil {
				return err
			}
			bridge, err := redisbridge.New(redisbridge.Options(cfg.Redis), cfg.Redis.Channel, domain.RealClock{}, nil)
			if err != nil {
				return err
			}
			defer func() { _ = bridge.Close() }()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			sub, err := bridge.Subscribe(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = sub.Close() }()

			w := cmd.OutOrStdout()
			seen := 0
			errs := sub.Errors()
			for {
				select {
				case <-ctx.Done():
					return nil
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(err.Error()))
				case msg, ok := <-sub.Events():
					if !ok {
						return nil
					}
					if opts.JSON {
						if err := writeJSON(w, msg); err != nil {
							return err
						}
					} else {
						_, _ = fmt.Fprintf(w, "%s %s %s\n",
							mutedStyle.Render(msg.Timestamp.Local().Format(time.TimeOnly)),
							okStyle.Render(string(msg.Event)),
							msg.Payload)
					}
					seen++
					if opts.Count > 0 && seen >= opts.Count {
						return nil
					}
				}
			}
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "n", 0, "Exit after this many events (0 = follow)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print each event as JSON")

	return cmd
}
