package model

import "time"

const (
	ApprovalNotSubmitted = "Not Submitted"
	ApprovalPending      = "Pending"
	ApprovalApproved     = "Approved"
	ApprovalRejected     = "Rejected"
)

type StageApproval struct {
	ID          int        `json:"id"`
	ProjectID   int        `json:"projectId"`
	ProjectName string     `json:"projectName,omitempty"`
	StageID     string     `json:"stageId"`
	Status      string     `json:"status"`
	RequesterID *int       `json:"requesterId,omitempty"`
	ApproverID  *int       `json:"approverId,omitempty"`
	Comment     string     `json:"comment,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
