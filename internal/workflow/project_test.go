package workflow

import (
	"context"
	"testing"
	"time"

	"pmboard/internal/model"
	"pmboard/pkg/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProjectsScopedToMembership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	all, err := f.svc.ListProjects(ctx, pm)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	mine, err := f.svc.ListProjects(ctx, member)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := f.svc.ListProjects(ctx, outsider)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.GetProject(ctx, outsider, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProject(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	leadID := lead.UserID

	p, err := f.svc.CreateProject(ctx, pm, ProjectInput{Name: "  Gemini ", Code: "GEM", LeadID: &leadID})
	require.NoError(t, err)
	assert.Equal(t, "Gemini", p.Name)
	assert.Equal(t, model.ProjectStatusPlanning, p.Status)
	assert.Equal(t, lead.UserID, p.LeadID)
	assert.NotNil(t, p.MemberIDs)

	_, err = f.svc.CreateProject(ctx, member, ProjectInput{Name: "x", Code: "X"})
	var denied *rbac.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestCreateProjectValidation(t *testing.T) {
	f := newFixture()
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	tests := []struct {
		name string
		in   ProjectInput
	}{
		{"no name", ProjectInput{Code: "A"}},
		{"no code", ProjectInput{Name: "A"}},
		{"bad status", ProjectInput{Name: "A", Code: "A", Status: "Someday"}},
		{"dates reversed", ProjectInput{Name: "A", Code: "A", StartDate: &start, EndDate: &end}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateProject(context.Background(), pm, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUpdateProjectKeepsUnsetFields(t *testing.T) {
	f := newFixture()

	p, err := f.svc.UpdateProject(context.Background(), pm, 1, ProjectInput{Status: model.ProjectStatusOnHold})
	require.NoError(t, err)
	assert.Equal(t, "Apollo", p.Name)
	assert.Equal(t, "APL", p.Code)
	assert.Equal(t, model.ProjectStatusOnHold, p.Status)
	assert.Equal(t, []int{member.UserID}, p.MemberIDs)
}

func TestDeleteProject(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var denied *rbac.PermissionDeniedError
	assert.ErrorAs(t, f.svc.DeleteProject(ctx, lead, 1), &denied)

	require.NoError(t, f.svc.DeleteProject(ctx, pm, 1))
	assert.ErrorIs(t, f.svc.DeleteProject(ctx, pm, 1), ErrNotFound)
}

func TestComments(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	task := f.addTask("stage-1", model.TaskStatusInProgress)

	_, err := f.svc.AddComment(ctx, member, task.ID, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	c, err := f.svc.AddComment(ctx, member, task.ID, " waiting on legal ")
	require.NoError(t, err)
	assert.Equal(t, "waiting on legal", c.Body)
	assert.Equal(t, member.UserID, c.AuthorID)

	list, err := f.svc.ListComments(ctx, lead, task.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.ListComments(ctx, outsider, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttachments(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	task := f.addTask("stage-1", model.TaskStatusInProgress)

	_, err := f.svc.AddAttachment(ctx, member, task.ID, model.FileAttachment{FileName: "plan.pdf"})
	assert.ErrorIs(t, err, ErrValidation)

	a, err := f.svc.AddAttachment(ctx, member, task.ID, model.FileAttachment{FileName: "plan.pdf", URL: "s3://docs/plan.pdf", SizeBytes: 2048})
	require.NoError(t, err)
	assert.Equal(t, task.ID, a.TaskID)
	assert.Equal(t, member.UserID, a.UploaderID)

	list, err := f.svc.ListAttachments(ctx, pm, task.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
