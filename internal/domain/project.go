package domain

import "time"

// Project is a workspace root that owns tasks and sessions.
type Project struct {
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	WorkingDir  string    `json:"workingDir"`
	Description string    `json:"description,omitempty"`
}

// Clone returns a copy of the project.
func (p *Project) Clone() *Project {
	c := *p
	return &c
}
