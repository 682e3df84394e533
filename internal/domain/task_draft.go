package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TaskDraft is a task described in an import file, before it has an ID.
// Fields are ordered to minimize memory padding.
type TaskDraft struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"-"`
	Priority    Priority `json:"priority,omitempty" yaml:"priority"`
	ParentRef   string   `json:"parent,omitempty" yaml:"parent"`
	DependsOn   []string `json:"dependsOn,omitempty" yaml:"depends_on"`
}

// ResolveDraftRef turns a reference found in an import file into a task ID.
//
//   - "" resolves to "".
//   - "#<id>" is an existing task ID and is returned without the prefix.
//   - "<n>" is the 1-based position of an earlier draft in the same file;
//     created holds the IDs assigned so far, in file order.
func ResolveDraftRef(ref string, created []string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	if id, ok := strings.CutPrefix(ref, "#"); ok {
		if id == "" {
			return "", NewValidationError("ref", "empty task ID after #")
		}
		return id, nil
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return "", NewValidationError("ref", fmt.Sprintf("%q is neither an index nor #<task-id>", ref))
	}
	if n < 1 || n > len(created) {
		return "", NewValidationError("ref", fmt.Sprintf("index %d does not name an earlier task", n))
	}
	return created[n-1], nil
}
