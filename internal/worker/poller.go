// Package worker holds the worker-side queue poller.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runoshun/maestro/internal/client"
	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/httpapi"
)

// maxBackoff caps the wait between attempts after connectivity failures.
const maxBackoff = 30 * time.Second

// QueueAPI is the part of the API client the poller needs.
type QueueAPI interface {
	Claim(ctx context.Context, sessionID string) (*httpapi.ClaimResponse, error)
	UpdateSession(ctx context.Context, sessionID string, req httpapi.UpdateSessionRequest) (*httpapi.UpdateSessionResponse, error)
}

// Options bounds a wait.
type Options struct {
	Interval         time.Duration // Pause between "no work" answers
	Timeout          time.Duration // Total time spent on "no work" answers before giving up
	MaxConnectErrors int           // Consecutive connectivity failures tolerated
}

// OptionsFromConfig converts the [queue] section.
func OptionsFromConfig(cfg domain.QueueConfig) (Options, error) {
	interval, timeout, err := cfg.Durations()
	if err != nil {
		return Options{}, err
	}
	return Options{Interval: interval, Timeout: timeout, MaxConnectErrors: cfg.MaxConnectErrors}, nil
}

// Result is the outcome of a wait. Exactly one of Item or TimedOut is set.
type Result struct {
	Item     *domain.QueueItem
	Task     *domain.Task
	Waited   time.Duration // Budget consumed by "no work" answers
	Attempts int
	TimedOut bool
}

// Poller claims the next queue item for a session, waiting for one to arrive.
// Fields are ordered to minimize memory padding.
type Poller struct {
	api    QueueAPI
	logger domain.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	opts   Options
}

// NewPoller creates a Poller.
func NewPoller(api QueueAPI, opts Options, logger domain.Logger) *Poller {
	return &Poller{api: api, opts: opts, logger: logger, sleep: sleepCtx}
}

// Wait claims the next item of sessionID's queue. Only "no work" answers
// consume the timeout budget; connectivity failures back off without
// touching it, up to MaxConnectErrors in a row. When the budget runs out the
// session is moved to idle and a TimedOut result is returned without error.
func (p *Poller) Wait(ctx context.Context, sessionID string) (*Result, error) {
	res := &Result{}
	connectErrors := 0

	for {
		res.Attempts++
		claim, err := p.api.Claim(ctx, sessionID)
		switch {
		case err == nil && !claim.Empty:
			res.Item, res.Task = claim.Item, claim.Task
			p.log(sessionID, fmt.Sprintf("claimed %s after %d attempts", claim.Item.TaskID, res.Attempts))
			return res, nil

		case err == nil:
			connectErrors = 0
			if res.Waited >= p.opts.Timeout {
				return p.timeout(ctx, sessionID, res)
			}
			step := min(p.opts.Interval, p.opts.Timeout-res.Waited)
			if err := p.sleep(ctx, step); err != nil {
				return nil, err
			}
			res.Waited += step

		case errors.Is(err, client.ErrUnavailable):
			connectErrors++
			if connectErrors > p.opts.MaxConnectErrors {
				return nil, fmt.Errorf("giving up after %d connection failures: %w", connectErrors, err)
			}
			p.log(sessionID, fmt.Sprintf("server unreachable (%d/%d): %v", connectErrors, p.opts.MaxConnectErrors, err))
			if err := p.sleep(ctx, backoff(p.opts.Interval, connectErrors)); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("claim queue item: %w", err)
		}
	}
}

// timeout moves the session to idle. A session that cannot go idle (already
// ended, or waiting for input) keeps its status.
func (p *Poller) timeout(ctx context.Context, sessionID string, res *Result) (*Result, error) {
	res.TimedOut = true
	idle := domain.SessionStatusIdle
	_, err := p.api.UpdateSession(ctx, sessionID, httpapi.UpdateSessionRequest{
		Status: &idle,
		Reason: fmt.Sprintf("no queued work after %s", res.Waited),
	})
	if err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
		return nil, fmt.Errorf("mark session idle: %w", err)
	}
	p.log(sessionID, fmt.Sprintf("no work after %s", res.Waited))
	return res, nil
}

func (p *Poller) log(sessionID, msg string) {
	if p.logger != nil {
		p.logger.Info(sessionID, "queue", msg)
	}
}

// backoff doubles base per consecutive failure, capped at maxBackoff.
func backoff(base time.Duration, failures int) time.Duration {
	d := base
	for i := 1; i < failures && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
