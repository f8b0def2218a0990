package stage

import (
	"strings"

	"pmboard/internal/model"
)

const (
	WorkNotStarted = "Not Started"
	WorkInProgress = "In Progress"
	WorkCompleted  = "Completed"
)

// View is the derived state of one stage for one project.
type View struct {
	Stage
	Locked bool `json:"locked"`
	// ApprovalStatus is what the board reports. Empty stages always report
	// Not Submitted, whatever row is stored.
	ApprovalStatus string `json:"approvalStatus"`
	// StoredStatus is the persisted row's status and is what gates the next
	// stage.
	StoredStatus string               `json:"storedStatus"`
	Approval     *model.StageApproval `json:"approval,omitempty"`
	TaskCount    int                  `json:"taskCount"`
	DoneCount    int                  `json:"doneCount"`
	WorkStatus   string               `json:"workStatus"`
	CanSubmit    bool                 `json:"canSubmit"`
	Current      bool                 `json:"current"`
}

// Board is the evaluated stage list of a project.
type Board struct {
	ProjectID     int    `json:"projectId"`
	Stages        []View `json:"stages"`
	Current       string `json:"currentStage"`
	ApprovedCount int    `json:"approvedCount"`
	Progress      int    `json:"progress"`
}

// View returns the view for any stage alias.
func (b Board) View(alias string) View {
	id := NormalizeID(alias)
	for _, v := range b.Stages {
		if v.ID == id {
			return v
		}
	}
	return View{}
}

// Evaluate derives the board from a project's tasks and approval rows. It is
// recomputed on every read; nothing it returns is stored.
func Evaluate(tasks []model.Task, approvals []model.StageApproval) Board {
	rows := latestApprovals(approvals)

	byStage := make(map[string][]model.Task, len(stages))
	for _, t := range tasks {
		id := NormalizeID(t.StageID)
		byStage[id] = append(byStage[id], t)
	}

	b := Board{Stages: make([]View, 0, len(stages))}
	totalTasks, totalDone := 0, 0
	blocked := false

	for _, st := range stages {
		v := View{Stage: st, Locked: blocked, StoredStatus: model.ApprovalNotSubmitted}

		if row, ok := rows[st.ID]; ok {
			r := row
			v.Approval = &r
			v.StoredStatus = row.Status
		}

		for _, t := range byStage[st.ID] {
			v.TaskCount++
			if t.IsDone() {
				v.DoneCount++
			}
		}
		totalTasks += v.TaskCount
		totalDone += v.DoneCount

		if v.TaskCount == 0 {
			v.ApprovalStatus = model.ApprovalNotSubmitted
		} else {
			v.ApprovalStatus = v.StoredStatus
		}

		v.WorkStatus = workStatus(byStage[st.ID], v.DoneCount)
		v.CanSubmit = !v.Locked &&
			v.TaskCount > 0 &&
			v.DoneCount == v.TaskCount &&
			v.StoredStatus != model.ApprovalPending &&
			v.StoredStatus != model.ApprovalApproved

		approved := v.StoredStatus == model.ApprovalApproved
		if approved {
			b.ApprovedCount++
		} else if b.Current == "" {
			b.Current = st.ID
		}
		if !approved {
			blocked = true
		}

		b.Stages = append(b.Stages, v)
	}

	if b.Current == "" {
		b.Current = Last().ID
	}
	for i := range b.Stages {
		b.Stages[i].Current = b.Stages[i].ID == b.Current
	}
	if totalTasks > 0 {
		b.Progress = totalDone * 100 / totalTasks
	}
	return b
}

// latestApprovals keeps one row per canonical stage id. Rows written before
// the (project, stage) uniqueness existed may repeat; the most recently
// updated one wins.
func latestApprovals(approvals []model.StageApproval) map[string]model.StageApproval {
	rows := make(map[string]model.StageApproval, len(approvals))
	for _, a := range approvals {
		id := NormalizeID(a.StageID)
		prev, ok := rows[id]
		if !ok || !a.UpdatedAt.Before(prev.UpdatedAt) {
			a.StageID = id
			a.Status = canonicalApproval(a.Status)
			rows[id] = a
		}
	}
	return rows
}

func canonicalApproval(s string) string {
	for _, known := range []string{
		model.ApprovalNotSubmitted,
		model.ApprovalPending,
		model.ApprovalApproved,
		model.ApprovalRejected,
	} {
		if strings.EqualFold(strings.TrimSpace(s), known) {
			return known
		}
	}
	return model.ApprovalNotSubmitted
}

func workStatus(tasks []model.Task, done int) string {
	if len(tasks) == 0 {
		return WorkNotStarted
	}
	if done == len(tasks) {
		return WorkCompleted
	}
	if done > 0 {
		return WorkInProgress
	}
	for _, t := range tasks {
		if strings.EqualFold(strings.TrimSpace(t.Status), model.TaskStatusInProgress) {
			return WorkInProgress
		}
	}
	return WorkNotStarted
}

// CanonicalApprovalStatus maps case variants onto the stored spelling.
func CanonicalApprovalStatus(s string) (string, bool) {
	c := canonicalApproval(s)
	if !strings.EqualFold(strings.TrimSpace(s), c) {
		return "", false
	}
	return c, true
}
