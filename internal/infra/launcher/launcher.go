// Package launcher is an optional headless process launcher. It consumes
// session:spawn events, starts the worker command with the session's
// environment, and reports the process lifecycle back as hook signals.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sync"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
)

// HookFunc delivers one lifecycle signal for a session.
type HookFunc func(ctx context.Context, sessionID string, signal domain.HookSignal, exitCode int) error

// Launcher starts worker processes.
// Fields are ordered to minimize memory padding.
type Launcher struct {
	ctx    context.Context
	hook   HookFunc
	logger domain.Logger
	cancel context.CancelFunc
	procs  map[string]*exec.Cmd
	logDir string // Process output goes to <logDir>/process-<id>.log; empty discards it
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// New creates a Launcher. Processes it starts are killed when Close is called.
func New(hook HookFunc, logDir string, logger domain.Logger) *Launcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Launcher{
		ctx:    ctx,
		cancel: cancel,
		hook:   hook,
		logDir: logDir,
		logger: logger,
		procs:  make(map[string]*exec.Cmd),
	}
}

// Attach subscribes the launcher to session:spawn on bus.
func (l *Launcher) Attach(bus *event.Bus) func() {
	return event.Subscribe(bus, event.SessionSpawn, "launcher", func(_ context.Context, p domain.SpawnPayload) error {
		return l.Launch(p)
	})
}

// Launch starts the process described by p without waiting for it.
// A process that cannot be started is reported as ended with exit code -1.
func (l *Launcher) Launch(p domain.SpawnPayload) error {
	sessionID := p.Session.ID
	if p.Command == "" {
		return fmt.Errorf("session %s: empty command", sessionID)
	}

	// #nosec G204 - command comes from the server's own spawn configuration
	cmd := exec.CommandContext(l.ctx, p.Command, p.Args...)
	cmd.Dir = p.Cwd
	cmd.Env = environ(p.EnvVars)
	out, closeOut := l.output(sessionID)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		closeOut()
		l.log(domain.HookProcessEnded, sessionID, fmt.Sprintf("start %s: %v", p.Command, err))
		return errors.Join(fmt.Errorf("start %s: %w", p.Command, err), l.deliver(sessionID, domain.HookProcessEnded, -1))
	}

	l.mu.Lock()
	l.procs[sessionID] = cmd
	l.mu.Unlock()
	l.log(domain.HookProcessStarted, sessionID, fmt.Sprintf("started %s (pid %d)", p.Command, cmd.Process.Pid))
	startErr := l.deliver(sessionID, domain.HookProcessStarted, 0)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer closeOut()
		code := exitCode(cmd.Wait())

		l.mu.Lock()
		delete(l.procs, sessionID)
		l.mu.Unlock()

		l.log(domain.HookProcessEnded, sessionID, fmt.Sprintf("exited with code %d", code))
		if err := l.deliver(sessionID, domain.HookProcessEnded, code); err != nil && l.logger != nil {
			l.logger.Warn(sessionID, "launcher", fmt.Sprintf("deliver process-ended: %v", err))
		}
	}()
	return startErr
}

// Running returns the ids of sessions whose process is alive.
func (l *Launcher) Running() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := slices.Collect(maps.Keys(l.procs))
	slices.Sort(ids)
	return ids
}

// Stop kills the process of one session. The exit is still reported.
func (l *Launcher) Stop(sessionID string) error {
	l.mu.Lock()
	cmd, ok := l.procs[sessionID]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s: no running process", sessionID)
	}
	return cmd.Process.Kill()
}

// Wait blocks until every started process has exited and been reported.
func (l *Launcher) Wait() {
	l.wg.Wait()
}

// Close kills every running process and waits for their exits to be reported.
func (l *Launcher) Close() error {
	l.cancel()
	l.wg.Wait()
	return nil
}

func (l *Launcher) deliver(sessionID string, signal domain.HookSignal, code int) error {
	if l.hook == nil {
		return nil
	}
	if err := l.hook(context.Background(), sessionID, signal, code); err != nil {
		return fmt.Errorf("deliver %s: %w", signal, err)
	}
	return nil
}

func (l *Launcher) log(signal domain.HookSignal, sessionID, msg string) {
	if l.logger != nil {
		l.logger.Info(sessionID, "launcher", fmt.Sprintf("%s: %s", signal, msg))
	}
}

// output opens the per-process output file, or discards output without a log directory.
func (l *Launcher) output(sessionID string) (io.Writer, func()) {
	if l.logDir == "" {
		return io.Discard, func() {}
	}
	if err := os.MkdirAll(l.logDir, 0o750); err != nil {
		return io.Discard, func() {}
	}
	path := filepath.Join(l.logDir, "process-"+filepath.Base(sessionID)+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { _ = f.Close() }
}

// environ returns the parent environment extended with vars.
func environ(vars map[string]string) []string {
	env := os.Environ()
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		env = append(env, k+"="+vars[k])
	}
	return env
}

// exitCode maps a Wait error to a process exit code. Killed processes and
// other failures report -1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
