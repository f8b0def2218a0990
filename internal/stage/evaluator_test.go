package stage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmboard/internal/model"
)

func task(stageID, status string) model.Task {
	return model.Task{ProjectID: 1, StageID: stageID, Status: status}
}

func approval(stageID, status string) model.StageApproval {
	return model.StageApproval{ProjectID: 1, StageID: stageID, Status: status}
}

func approvedThrough(n int) []model.StageApproval {
	var out []model.StageApproval
	for i := 0; i < n; i++ {
		out = append(out, approval(stages[i].ID, model.ApprovalApproved))
	}
	return out
}

func TestEvaluateFreshProject(t *testing.T) {
	b := Evaluate(nil, nil)

	require.Len(t, b.Stages, 5)
	assert.Equal(t, "stage-1", b.Current)
	assert.Equal(t, 0, b.Progress)
	assert.False(t, b.Stages[0].Locked)
	for _, v := range b.Stages[1:] {
		assert.True(t, v.Locked, v.ID)
	}
	for _, v := range b.Stages {
		assert.Equal(t, model.ApprovalNotSubmitted, v.ApprovalStatus)
		assert.False(t, v.CanSubmit)
	}
	assert.True(t, b.Stages[0].Current)
}

func TestLockedWheneverAnEarlierStageIsNotApproved(t *testing.T) {
	statuses := []string{"", model.ApprovalPending, model.ApprovalRejected, model.ApprovalApproved}

	// every combination of stored statuses across the five stages
	var walk func(i int, rows []model.StageApproval)
	walk = func(i int, rows []model.StageApproval) {
		if i == len(stages) {
			b := Evaluate(nil, rows)
			for j, v := range b.Stages {
				want := false
				for k := 0; k < j; k++ {
					if b.Stages[k].StoredStatus != model.ApprovalApproved {
						want = true
					}
				}
				assert.Equal(t, want, v.Locked, "stage %s rows %v", v.ID, rows)
			}
			return
		}
		for _, s := range statuses {
			next := rows
			if s != "" {
				next = append(append([]model.StageApproval(nil), rows...), approval(stages[i].ID, s))
			}
			walk(i+1, next)
		}
	}
	walk(0, nil)
}

func TestEmptyStageAlwaysReportsNotSubmitted(t *testing.T) {
	for _, s := range []string{model.ApprovalPending, model.ApprovalApproved, model.ApprovalRejected} {
		b := Evaluate(nil, []model.StageApproval{approval("stage-1", s)})
		v := b.View("stage-1")
		assert.Equal(t, model.ApprovalNotSubmitted, v.ApprovalStatus, s)
		assert.Equal(t, s, v.StoredStatus, s)
		assert.False(t, v.CanSubmit)
	}
}

func TestEmptyStageStillGatesTheNext(t *testing.T) {
	tasks := []model.Task{task("stage-2", model.TaskStatusDone)}
	b := Evaluate(tasks, nil)

	assert.True(t, b.View("stage-2").Locked)
	assert.False(t, b.View("stage-2").CanSubmit)
	assert.Equal(t, "stage-1", b.Current)

	// a stored Approved row on the empty stage opens the gate even though the
	// board shows Not Submitted for it
	b = Evaluate(tasks, []model.StageApproval{approval("stage-1", model.ApprovalApproved)})
	assert.Equal(t, model.ApprovalNotSubmitted, b.View("stage-1").ApprovalStatus)
	assert.False(t, b.View("stage-2").Locked)
	assert.True(t, b.View("stage-2").CanSubmit)
}

func TestCanSubmit(t *testing.T) {
	tests := []struct {
		name      string
		tasks     []model.Task
		approvals []model.StageApproval
		stageID   string
		want      bool
	}{
		{
			name:    "no tasks",
			stageID: "stage-1",
		},
		{
			name:    "tasks not done",
			tasks:   []model.Task{task("stage-1", model.TaskStatusDone), task("stage-1", model.TaskStatusInProgress)},
			stageID: "stage-1",
		},
		{
			name:    "all done",
			tasks:   []model.Task{task("stage-1", model.TaskStatusDone), task("stage-1", model.TaskStatusCompleted)},
			stageID: "stage-1",
			want:    true,
		},
		{
			name:      "already pending",
			tasks:     []model.Task{task("stage-1", model.TaskStatusDone)},
			approvals: []model.StageApproval{approval("stage-1", model.ApprovalPending)},
			stageID:   "stage-1",
		},
		{
			name:      "already approved",
			tasks:     []model.Task{task("stage-1", model.TaskStatusDone)},
			approvals: []model.StageApproval{approval("stage-1", model.ApprovalApproved)},
			stageID:   "stage-1",
		},
		{
			name:      "rejected can resubmit",
			tasks:     []model.Task{task("stage-1", model.TaskStatusDone)},
			approvals: []model.StageApproval{approval("stage-1", model.ApprovalRejected)},
			stageID:   "stage-1",
			want:      true,
		},
		{
			name:    "locked",
			tasks:   []model.Task{task("stage-2", model.TaskStatusDone)},
			stageID: "stage-2",
		},
		{
			name:      "unlocked later stage",
			tasks:     []model.Task{task("F3", "done")},
			approvals: approvedThrough(2),
			stageID:   "Execution",
			want:      true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Evaluate(tt.tasks, tt.approvals)
			assert.Equal(t, tt.want, b.View(tt.stageID).CanSubmit)
		})
	}
}

func TestApprovingUnlocksNextStage(t *testing.T) {
	for i := 0; i < len(stages)-1; i++ {
		before := Evaluate(nil, approvedThrough(i))
		assert.True(t, before.Stages[i+1].Locked)
		assert.Equal(t, stages[i].ID, before.Current)

		after := Evaluate(nil, approvedThrough(i+1))
		assert.False(t, after.Stages[i+1].Locked)
		assert.Equal(t, stages[i+1].ID, after.Current)
	}
}

func TestAllApprovedCurrentIsLastStage(t *testing.T) {
	b := Evaluate(nil, approvedThrough(5))
	assert.Equal(t, "stage-5", b.Current)
	assert.Equal(t, 5, b.ApprovedCount)
	assert.True(t, b.Stages[4].Current)
	for _, v := range b.Stages {
		assert.False(t, v.Locked)
	}
}

func TestWorkStatus(t *testing.T) {
	b := Evaluate([]model.Task{
		task("stage-1", model.TaskStatusDone),
		task("stage-1", model.TaskStatusDone),
		task("stage-2", model.TaskStatusNotStarted),
		task("stage-3", model.TaskStatusInProgress),
		task("stage-4", model.TaskStatusDone),
		task("stage-4", model.TaskStatusNotStarted),
	}, nil)

	assert.Equal(t, WorkCompleted, b.View("stage-1").WorkStatus)
	assert.Equal(t, WorkNotStarted, b.View("stage-2").WorkStatus)
	assert.Equal(t, WorkInProgress, b.View("stage-3").WorkStatus)
	assert.Equal(t, WorkInProgress, b.View("stage-4").WorkStatus)
	assert.Equal(t, WorkNotStarted, b.View("stage-5").WorkStatus)

	// completing work never submits or approves
	assert.Equal(t, model.ApprovalNotSubmitted, b.View("stage-1").ApprovalStatus)
	assert.Equal(t, 50, b.Progress)
}

func TestLatestDuplicateRowWins(t *testing.T) {
	older := approval("stage-1", model.ApprovalPending)
	older.UpdatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := approval("F1", model.ApprovalApproved)
	newer.UpdatedAt = older.UpdatedAt.Add(time.Hour)

	b := Evaluate(nil, []model.StageApproval{newer, older})
	assert.Equal(t, model.ApprovalApproved, b.View("stage-1").StoredStatus)
	assert.False(t, b.View("stage-2").Locked)
}

func TestStoredStatusCaseInsensitive(t *testing.T) {
	b := Evaluate(nil, []model.StageApproval{approval("stage-1", "approved")})
	assert.Equal(t, model.ApprovalApproved, b.View("stage-1").StoredStatus)
	assert.False(t, b.View("stage-2").Locked)
}

func TestTasksWithAliasStageIDs(t *testing.T) {
	b := Evaluate([]model.Task{
		task("F2", model.TaskStatusDone),
		task("Planning", model.TaskStatusDone),
		task("stage-2", model.TaskStatusInProgress),
	}, nil)
	assert.Equal(t, 3, b.View("stage-2").TaskCount)
	assert.Equal(t, 2, b.View("stage-2").DoneCount)
}

func TestSubmitApproveScenario(t *testing.T) {
	tasks := []model.Task{
		task("stage-1", model.TaskStatusNotStarted),
		task("stage-1", model.TaskStatusInProgress),
	}
	assert.False(t, Evaluate(tasks, nil).View("stage-1").CanSubmit)

	tasks[0].Status = model.TaskStatusDone
	tasks[1].Status = model.TaskStatusDone
	assert.True(t, Evaluate(tasks, nil).View("stage-1").CanSubmit)

	rows := []model.StageApproval{approval("stage-1", model.ApprovalPending)}
	b := Evaluate(tasks, rows)
	assert.Equal(t, model.ApprovalPending, b.View("stage-1").ApprovalStatus)
	assert.False(t, b.View("stage-1").CanSubmit)

	rows[0].Status = model.ApprovalApproved
	b = Evaluate(tasks, rows)
	assert.Equal(t, model.ApprovalApproved, b.View("stage-1").ApprovalStatus)
	assert.False(t, b.View("stage-2").Locked)
	assert.Equal(t, "stage-2", b.Current)
}

func TestRejectScenario(t *testing.T) {
	tasks := []model.Task{task("stage-1", model.TaskStatusDone)}
	row := approval("stage-1", model.ApprovalRejected)
	row.Comment = "fix X"

	b := Evaluate(tasks, []model.StageApproval{row})
	v := b.View("stage-1")
	assert.Equal(t, model.ApprovalRejected, v.ApprovalStatus)
	require.NotNil(t, v.Approval)
	assert.Equal(t, "fix X", v.Approval.Comment)
	assert.True(t, b.View("stage-2").Locked)
	assert.True(t, v.CanSubmit)
}

func TestCanonicalApprovalStatus(t *testing.T) {
	got, ok := CanonicalApprovalStatus("pending")
	assert.True(t, ok)
	assert.Equal(t, model.ApprovalPending, got)

	_, ok = CanonicalApprovalStatus("maybe")
	assert.False(t, ok)
}
