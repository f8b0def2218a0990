package model

import "time"

const (
	ProjectStatusPlanning  = "Planning"
	ProjectStatusActive    = "Active"
	ProjectStatusOnHold    = "On Hold"
	ProjectStatusCompleted = "Completed"
)

type Project struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Code      string     `json:"code"`
	Status    string     `json:"status"`
	Progress  int        `json:"progress"`
	LeadID    int        `json:"leadId"`
	MemberIDs []int      `json:"memberIds"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ValidProjectStatus reports whether s is one of the known project statuses.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted:
		return true
	}
	return false
}
