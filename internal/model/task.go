package model

import (
	"strings"
	"time"
)

const (
	TaskStatusNotStarted = "Not Started"
	TaskStatusInProgress = "In Progress"
	TaskStatusDone       = "Done"
	TaskStatusCompleted  = "Completed"
)

const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

type Task struct {
	ID          int        `json:"id"`
	ProjectID   int        `json:"projectId"`
	StageID     string     `json:"stageId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssigneeID  *int       `json:"assigneeId,omitempty"`
	CreatedBy   int        `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsDone treats both historical spellings of completion as done.
func (t Task) IsDone() bool {
	return IsDoneStatus(t.Status)
}

func IsDoneStatus(status string) bool {
	s := strings.TrimSpace(status)
	return strings.EqualFold(s, TaskStatusDone) || strings.EqualFold(s, TaskStatusCompleted)
}

// CanonicalTaskStatus maps case variants onto the stored spelling.
func CanonicalTaskStatus(s string) (string, bool) {
	for _, known := range []string{TaskStatusNotStarted, TaskStatusInProgress, TaskStatusDone, TaskStatusCompleted} {
		if strings.EqualFold(strings.TrimSpace(s), known) {
			return known, true
		}
	}
	return "", false
}

// CanonicalPriority maps case variants onto the stored spelling.
func CanonicalPriority(s string) (string, bool) {
	for _, known := range []string{PriorityHigh, PriorityMedium, PriorityLow} {
		if strings.EqualFold(strings.TrimSpace(s), known) {
			return known, true
		}
	}
	return "", false
}

// TaskPatch carries a partial update; nil fields are left untouched.
type TaskPatch struct {
	Status      *string
	Title       *string
	Description *string
	Priority    *string
	DueDate     *time.Time
	AssigneeID  *int
}
