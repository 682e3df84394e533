package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every domain error wraps exactly one of these so callers
// (the HTTP layer in particular) can classify failures with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Domain errors.
var (
	ErrProjectNotFound   = fmt.Errorf("project %w", ErrNotFound)
	ErrTaskNotFound      = fmt.Errorf("task %w", ErrNotFound)
	ErrParentNotFound    = fmt.Errorf("parent task %w", ErrNotFound)
	ErrSessionNotFound   = fmt.Errorf("session %w", ErrNotFound)
	ErrQueueNotFound     = fmt.Errorf("queue %w", ErrNotFound)
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmptyTitle        = fmt.Errorf("%w: title cannot be empty", ErrValidation)
	ErrEmptyName         = fmt.Errorf("%w: name cannot be empty", ErrValidation)
	ErrNoFieldsToUpdate  = fmt.Errorf("%w: no fields to update", ErrValidation)
	ErrProjectNotEmpty   = fmt.Errorf("%w: project still has tasks or sessions", ErrConflict)
	ErrTaskHasChildren   = fmt.Errorf("%w: task has child tasks (choose detach or cascade)", ErrConflict)
	ErrQueueBusy         = fmt.Errorf("%w: another queue item is already processing", ErrConflict)
	ErrNoProcessingItem  = fmt.Errorf("%w: no queue item is processing", ErrConflict)
	ErrQueueEmpty        = fmt.Errorf("%w: no queued items", ErrConflict)
	ErrAlreadyQueued     = fmt.Errorf("%w: task is already pending in this queue", ErrConflict)
	ErrSessionEnded      = fmt.Errorf("%w: session has ended", ErrConflict)
	ErrNotQueueStrategy  = fmt.Errorf("%w: session does not use the queue strategy", ErrValidation)
	ErrProjectMismatch   = fmt.Errorf("%w: task and session belong to different projects", ErrValidation)
	ErrParentCycle       = fmt.Errorf("%w: parent would create a cycle", ErrValidation)
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// TransitionError reports a status change rejected by a transition table.
type TransitionError struct {
	Entity string // task, task session, session, queue item
	From   string
	To     string
}

// NewTransitionError creates a TransitionError.
func NewTransitionError[S ~string](entity string, from, to S) *TransitionError {
	return &TransitionError{Entity: entity, From: string(from), To: string(to)}
}

func (e *TransitionError) Error() string {
	from := e.From
	if from == "" {
		from = "(none)"
	}
	return fmt.Sprintf("%s: %s -> %s: %v", e.Entity, from, e.To, ErrInvalidTransition)
}

// Unwrap lets errors.Is match ErrInvalidTransition.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
