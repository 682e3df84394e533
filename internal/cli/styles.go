package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/runoshun/maestro/internal/domain"
)

// colors is the palette used for status output.
var colors = struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Todo    lipgloss.Color
	Active  lipgloss.Color
	Paused  lipgloss.Color
	Done    lipgloss.Color
	Closed  lipgloss.Color
}{
	Primary: lipgloss.Color("#6C5CE7"), // Purple
	Muted:   lipgloss.Color("#636E72"), // Gray
	Error:   lipgloss.Color("#D63031"), // Red
	Success: lipgloss.Color("#00B894"), // Green
	Warning: lipgloss.Color("#FDCB6E"), // Yellow
	Todo:    lipgloss.Color("#74B9FF"), // Light blue
	Active:  lipgloss.Color("#FDCB6E"), // Yellow
	Paused:  lipgloss.Color("#A29BFE"), // Lavender
	Done:    lipgloss.Color("#00B894"), // Green
	Closed:  lipgloss.Color("#636E72"), // Gray
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colors.Primary)
	mutedStyle  = lipgloss.NewStyle().Foreground(colors.Muted)
	errorStyle  = lipgloss.NewStyle().Foreground(colors.Error)
	okStyle     = lipgloss.NewStyle().Foreground(colors.Success)
)

func taskStatusStyle(s domain.TaskStatus) lipgloss.Style {
	var c lipgloss.Color
	switch s {
	case domain.TaskStatusTodo:
		c = colors.Todo
	case domain.TaskStatusInProgress:
		c = colors.Active
	case domain.TaskStatusBlocked:
		c = colors.Paused
	case domain.TaskStatusCompleted:
		c = colors.Done
	default:
		c = colors.Closed
	}
	return lipgloss.NewStyle().Foreground(c)
}

func sessionStatusStyle(s domain.SessionStatus) lipgloss.Style {
	var c lipgloss.Color
	switch s {
	case domain.SessionStatusSpawning, domain.SessionStatusIdle:
		c = colors.Todo
	case domain.SessionStatusWorking:
		c = colors.Active
	case domain.SessionStatusNeedsUserInput:
		c = colors.Warning
	case domain.SessionStatusCompleted:
		c = colors.Done
	case domain.SessionStatusFailed:
		c = colors.Error
	default:
		c = colors.Closed
	}
	return lipgloss.NewStyle().Foreground(c)
}

func queueItemStyle(s domain.QueueItemStatus) lipgloss.Style {
	var c lipgloss.Color
	switch s {
	case domain.QueueItemQueued:
		c = colors.Todo
	case domain.QueueItemProcessing:
		c = colors.Active
	case domain.QueueItemCompleted:
		c = colors.Done
	case domain.QueueItemFailed:
		c = colors.Error
	default:
		c = colors.Closed
	}
	return lipgloss.NewStyle().Foreground(c)
}
