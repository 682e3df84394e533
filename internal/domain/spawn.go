package domain

import (
	"maps"
	"regexp"
	"strings"
)

// Environment variables handed to a spawned worker so it can identify itself
// on first contact with the server.
const (
	EnvSessionID   = "MAESTRO_SESSION_ID"
	EnvProjectID   = "MAESTRO_PROJECT_ID"
	EnvTaskIDs     = "MAESTRO_TASK_IDS"
	EnvAPIURL      = "MAESTRO_API_URL"
	EnvRole        = "MAESTRO_ROLE"
	EnvStrategy    = "MAESTRO_STRATEGY"
	EnvSpawnSource = "MAESTRO_SPAWN_SOURCE"
	EnvConfig      = "MAESTRO_CONFIG"
)

// LaunchSpec is everything an external launcher needs to start a worker.
type LaunchSpec struct {
	EnvVars map[string]string
	Command string
	Cwd     string
	Args    []string
}

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsValidEnvVarName returns true if the name is a valid environment variable name.
func IsValidEnvVarName(name string) bool {
	return envNamePattern.MatchString(name)
}

// NewLaunchSpec builds the launch contract for session s. The configured
// extra variables are included, but never replace the MAESTRO_* ones.
func NewLaunchSpec(s *Session, project *Project, spawn SpawnConfig, apiURL string, source SpawnSource) LaunchSpec {
	env := make(map[string]string, len(spawn.Env)+7)
	maps.Copy(env, spawn.Env)
	maps.Copy(env, map[string]string{
		EnvSessionID:   s.ID,
		EnvProjectID:   s.ProjectID,
		EnvTaskIDs:     strings.Join(s.TaskIDs, ","),
		EnvAPIURL:      apiURL,
		EnvRole:        string(s.Role),
		EnvStrategy:    string(s.Strategy),
		EnvSpawnSource: string(source),
	})
	return LaunchSpec{
		Command: spawn.Command,
		Args:    append([]string(nil), spawn.Args...),
		Cwd:     project.WorkingDir,
		EnvVars: env,
	}
}

// ParseTaskIDs splits a MAESTRO_TASK_IDS value.
func ParseTaskIDs(v string) []string {
	var ids []string
	for _, id := range strings.Split(v, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
