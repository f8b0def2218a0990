package workflow

import (
	"context"
	"strings"
	"time"

	"pmboard/internal/model"
	"pmboard/pkg/rbac"
)

// ProjectInput carries create and edit fields. On edit, empty strings, a nil
// LeadID and a nil MemberIDs slice keep the stored value.
type ProjectInput struct {
	Name      string
	Code      string
	Status    string
	LeadID    *int
	MemberIDs []int
	StartDate *time.Time
	EndDate   *time.Time
}

func (s *Service) ListProjects(ctx context.Context, actor model.Actor) ([]model.Project, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionReadProject); err != nil {
		return nil, err
	}
	if isManager(actor.Role) {
		return s.projects.ListAll(ctx)
	}
	return s.projects.ListForUser(ctx, actor.UserID)
}

func (s *Service) GetProject(ctx context.Context, actor model.Actor, id int) (*model.Project, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionReadProject); err != nil {
		return nil, err
	}
	return s.project(ctx, actor, id)
}

func (s *Service) CreateProject(ctx context.Context, actor model.Actor, in ProjectInput) (*model.Project, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionCreateProject); err != nil {
		return nil, err
	}
	p := &model.Project{
		Name:      strings.TrimSpace(in.Name),
		Code:      strings.TrimSpace(in.Code),
		Status:    in.Status,
		LeadID:    actor.UserID,
		MemberIDs: in.MemberIDs,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
	}
	if p.Status == "" {
		p.Status = model.ProjectStatusPlanning
	}
	if in.LeadID != nil {
		p.LeadID = *in.LeadID
	}
	if p.MemberIDs == nil {
		p.MemberIDs = []int{}
	}
	if err := validateProject(p); err != nil {
		return nil, err
	}

	if _, err := s.projects.Insert(ctx, p); err != nil {
		return nil, storeError("project", err)
	}
	return p, nil
}

func (s *Service) UpdateProject(ctx context.Context, actor model.Actor, id int, in ProjectInput) (*model.Project, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionUpdateProject); err != nil {
		return nil, err
	}
	p, err := s.project(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		p.Name = name
	}
	if code := strings.TrimSpace(in.Code); code != "" {
		p.Code = code
	}
	if in.Status != "" {
		p.Status = in.Status
	}
	if in.LeadID != nil {
		p.LeadID = *in.LeadID
	}
	if in.MemberIDs != nil {
		p.MemberIDs = in.MemberIDs
	}
	if in.StartDate != nil {
		p.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		p.EndDate = in.EndDate
	}
	if err := validateProject(p); err != nil {
		return nil, err
	}

	if err := s.projects.Update(ctx, p); err != nil {
		return nil, storeError("project", err)
	}
	return p, nil
}

func (s *Service) DeleteProject(ctx context.Context, actor model.Actor, id int) error {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionDeleteProject); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return storeError("project", err)
	}
	return nil
}

func validateProject(p *model.Project) error {
	if p.Name == "" {
		return validation("name is required")
	}
	if p.Code == "" {
		return validation("code is required")
	}
	if !model.ValidProjectStatus(p.Status) {
		return validation("unknown project status %q", p.Status)
	}
	if p.LeadID <= 0 {
		return validation("leadId is required")
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return validation("endDate is before startDate")
	}
	return nil
}
