package model

import "time"

const (
	BlockerOpen          = "Open"
	BlockerAssigned      = "Assigned"
	BlockerInvestigating = "Investigating"
	BlockerResolved      = "Resolved"
)

type Blocker struct {
	ID            int        `json:"id"`
	TaskID        int        `json:"taskId"`
	ProjectID     int        `json:"projectId"`
	ReporterID    int        `json:"reporterId"`
	AssigneeID    *int       `json:"assigneeId,omitempty"`
	Reason        string     `json:"reason"`
	Notes         string     `json:"notes"`
	Status        string     `json:"status"`
	AttachmentURL string     `json:"attachmentUrl,omitempty"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ValidBlockerStatus reports whether s is a status a PM may set.
func ValidBlockerStatus(s string) bool {
	switch s {
	case BlockerOpen, BlockerAssigned, BlockerInvestigating, BlockerResolved:
		return true
	}
	return false
}
