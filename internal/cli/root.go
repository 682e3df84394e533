// Package cli provides the command-line interface for maestro.
package cli

import (
	"fmt"
	"os"

	"github.com/runoshun/maestro/internal/client"
	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/infra/config"
	"github.com/spf13/cobra"
)

// Command group IDs.
const (
	groupServer = "server"
	groupManage = "manage"
	groupWorker = "worker"
)

// env carries the process environment and global flags to the commands.
type env struct {
	getenv     func(string) string
	configPath string // --config
	serverURL  string // --server
	workDir    string
}

func (e *env) loader() *config.Loader {
	return config.NewLoaderWithEnv(e.configPath, e.workDir, e.getenv)
}

func (e *env) loadConfig() (*domain.Config, error) {
	return e.loader().Load()
}

// client returns an API client. The server URL comes from --server, then
// MAESTRO_API_URL, then the config file's public URL.
func (e *env) client() *client.Client {
	url := e.serverURL
	if url == "" {
		url = e.getenv(domain.EnvAPIURL)
	}
	if url == "" {
		url = domain.DefaultPublicURL
		if cfg, err := e.loadConfig(); err == nil {
			url = cfg.Server.PublicURL
		}
	}
	return client.New(url)
}

// sessionID resolves the session a worker command acts for.
func (e *env) sessionID(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if id := e.getenv(domain.EnvSessionID); id != "" {
		return id, nil
	}
	return "", domain.NewValidationError("session", fmt.Sprintf("pass --session or set %s", domain.EnvSessionID))
}

// NewRootCommand creates the root command for maestro.
func NewRootCommand(version string) *cobra.Command {
	wd, _ := os.Getwd()
	return newRootCommand(&env{getenv: os.Getenv, workDir: wd}, version)
}

func newRootCommand(e *env, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "maestro",
		Short: "Multi-agent orchestration control plane",
		Long: `maestro tracks projects, tasks and the worker sessions acting on them.

Run "maestro serve" to start the server. Workers started by it receive
MAESTRO_SESSION_ID and MAESTRO_API_URL and use the worker commands
(hook, queue) to report back.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "Config file (default ./maestro.toml or $MAESTRO_CONFIG)")
	root.PersistentFlags().StringVar(&e.serverURL, "server", "", "Server URL (default $MAESTRO_API_URL or server.public_url)")

	root.AddGroup(
		&cobra.Group{ID: groupServer, Title: "Server Commands:"},
		&cobra.Group{ID: groupManage, Title: "Management Commands:"},
		&cobra.Group{ID: groupWorker, Title: "Worker Commands:"},
	)

	serveCmd := newServeCommand(e)
	serveCmd.GroupID = groupServer

	configCmd := newConfigCommand(e)
	configCmd.GroupID = groupServer

	eventsCmd := newEventsCommand(e)
	eventsCmd.GroupID = groupServer

	projectCmd := newProjectCommand(e)
	projectCmd.GroupID = groupManage

	taskCmd := newTaskCommand(e)
	taskCmd.GroupID = groupManage

	spawnCmd := newSpawnCommand(e)
	spawnCmd.GroupID = groupManage

	statusCmd := newStatusCommand(e)
	statusCmd.GroupID = groupManage

	skillCmd := newSkillCommand(e)
	skillCmd.GroupID = groupManage

	hookCmd := newHookCommand(e)
	hookCmd.GroupID = groupWorker

	queueCmd := newQueueCommand(e)
	queueCmd.GroupID = groupWorker

	logCmd := newLogCommand(e)
	logCmd.GroupID = groupWorker

	root.AddCommand(
		serveCmd, configCmd, eventsCmd,
		projectCmd, taskCmd, spawnCmd, statusCmd, skillCmd,
		hookCmd, queueCmd, logCmd,
	)

	return root
}
