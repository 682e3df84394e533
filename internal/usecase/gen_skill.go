package usecase

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runoshun/maestro/internal/domain"
)

//go:embed skill_maestro_worker.md
var workerSkillContent string

// skillDirs are the agent skill locations written below the target directory.
var skillDirs = []string{
	".claude/skills/maestro-worker",
	".codex/skills/maestro-worker",
	".opencode/skill/maestro-worker",
}

// GenSkillInput contains the input for the GenSkill use case.
type GenSkillInput struct {
	Dir   string // Target directory, usually a project's working directory
	Force bool   // Overwrite existing skill files
}

// GenSkillOutput contains the output of the GenSkill use case.
type GenSkillOutput struct {
	CreatedPaths []string // Paths to the written skill files
	SkippedPaths []string // Existing files left alone
}

// GenSkill writes the worker skill file that teaches agents the worker commands.
type GenSkill struct{}

// NewGenSkill creates a new GenSkill use case.
func NewGenSkill() *GenSkill {
	return &GenSkill{}
}

// Execute writes SKILL.md into each agent's skill directory under in.Dir.
func (uc *GenSkill) Execute(_ context.Context, in GenSkillInput) (*GenSkillOutput, error) {
	if in.Dir == "" {
		return nil, domain.NewValidationError("dir", "cannot be empty")
	}

	out := &GenSkillOutput{CreatedPaths: make([]string, 0, len(skillDirs))}
	for _, dir := range skillDirs {
		fullDir := filepath.Join(in.Dir, dir)
		skillPath := filepath.Join(fullDir, "SKILL.md")

		if !in.Force {
			if _, err := os.Stat(skillPath); err == nil {
				out.SkippedPaths = append(out.SkippedPaths, skillPath)
				continue
			}
		}

		if err := os.MkdirAll(fullDir, 0o750); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", fullDir, err)
		}
		if err := os.WriteFile(skillPath, []byte(workerSkillContent), 0o600); err != nil {
			return nil, fmt.Errorf("write skill file %s: %w", skillPath, err)
		}
		out.CreatedPaths = append(out.CreatedPaths, skillPath)
	}
	return out, nil
}
