package workflow

import (
	"context"
	"sort"
	"sync"
	"time"

	contractmq "pmboard/contracts/mq"
	"pmboard/internal/model"
	"pmboard/internal/repository"

	"go.uber.org/zap"
)

type memProjects struct {
	mu       sync.Mutex
	rows     map[int]*model.Project
	progress map[int]int
	nextID   int
}

func (m *memProjects) Insert(ctx context.Context, p *model.Project) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.rows[p.ID] = &cp
	return p.ID, nil
}

func (m *memProjects) GetByID(ctx context.Context, id int) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProjects) ListAll(ctx context.Context) ([]model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Project{}
	for _, p := range m.rows {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memProjects) ListForUser(ctx context.Context, userID int) ([]model.Project, error) {
	all, _ := m.ListAll(ctx)
	out := []model.Project{}
	for _, p := range all {
		if p.LeadID == userID {
			out = append(out, p)
			continue
		}
		for _, id := range p.MemberIDs {
			if id == userID {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (m *memProjects) Update(ctx context.Context, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memProjects) UpdateProgress(ctx context.Context, id, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[id] = progress
	return nil
}

func (m *memProjects) Delete(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memTasks struct {
	mu     sync.Mutex
	rows   map[int]*model.Task
	nextID int
}

func (m *memTasks) Insert(ctx context.Context, t *model.Task) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	cp := *t
	m.rows[t.ID] = &cp
	return t.ID, nil
}

func (m *memTasks) ListByProject(ctx context.Context, projectID int) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Task{}
	for id := 1; id <= m.nextID; id++ {
		if t, ok := m.rows[id]; ok && t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTasks) GetByID(ctx context.Context, id int) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTasks) Update(ctx context.Context, id int, patch model.TaskPatch) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		t.DueDate = patch.DueDate
	}
	if patch.AssigneeID != nil {
		t.AssigneeID = patch.AssigneeID
	}
	cp := *t
	return &cp, nil
}

func (m *memTasks) Delete(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type storedEvent struct {
	routingKey string
	payload    any
}

type memApprovals struct {
	mu     sync.Mutex
	rows   map[[2]any]*model.StageApproval
	events []storedEvent
	clock  time.Time
	nextID int
}

func (m *memApprovals) ListByProject(ctx context.Context, projectID int) ([]model.StageApproval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.StageApproval{}
	for _, a := range m.rows {
		if a.ProjectID == projectID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StageID < out[j].StageID })
	return out, nil
}

func (m *memApprovals) ListPending(ctx context.Context) ([]model.StageApproval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.StageApproval{}
	for _, a := range m.rows {
		if a.Status == model.ApprovalPending {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Upsert mirrors the ON CONFLICT update of the Postgres store.
func (m *memApprovals) Upsert(ctx context.Context, a *model.StageApproval, routingKey string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = m.clock.Add(time.Second)
	key := [2]any{a.ProjectID, a.StageID}
	if prev, ok := m.rows[key]; ok {
		if a.RequesterID == nil {
			a.RequesterID = prev.RequesterID
		}
		if a.SubmittedAt == nil {
			a.SubmittedAt = prev.SubmittedAt
		}
		a.ID = prev.ID
		a.CreatedAt = prev.CreatedAt
	} else {
		m.nextID++
		a.ID = m.nextID
		a.CreatedAt = m.clock
	}
	a.UpdatedAt = m.clock
	cp := *a
	m.rows[key] = &cp
	m.events = append(m.events, storedEvent{routingKey: routingKey, payload: payload})
	return nil
}

type memBlockers struct {
	mu     sync.Mutex
	rows   map[int]*model.Blocker
	events []*contractmq.BlockerReportedPayload
	nextID int
}

func (m *memBlockers) Insert(ctx context.Context, b *model.Blocker, event *contractmq.BlockerReportedPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = m.nextID
	event.BlockerID = b.ID
	cp := *b
	m.rows[b.ID] = &cp
	m.events = append(m.events, event)
	return nil
}

func (m *memBlockers) GetByID(ctx context.Context, id int) (*model.Blocker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBlockers) MarkOpenIfUnset(ctx context.Context, id int) (*model.Blocker, error) {
	m.mu.Lock()
	b, ok := m.rows[id]
	if ok && b.Status == "" {
		b.Status = model.BlockerOpen
	}
	m.mu.Unlock()
	return m.GetByID(ctx, id)
}

func (m *memBlockers) ListByProject(ctx context.Context, projectID int) ([]model.Blocker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Blocker{}
	for _, b := range m.rows {
		if b.ProjectID == projectID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBlockers) ListByTask(ctx context.Context, taskID int) ([]model.Blocker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Blocker{}
	for _, b := range m.rows {
		if b.TaskID == taskID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBlockers) UpdateStatus(ctx context.Context, id int, status string, assigneeID *int) (*model.Blocker, error) {
	m.mu.Lock()
	b, ok := m.rows[id]
	if !ok {
		m.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	b.Status = status
	if assigneeID != nil {
		b.AssigneeID = assigneeID
	}
	m.mu.Unlock()
	return m.GetByID(ctx, id)
}

type memComments struct {
	mu          sync.Mutex
	comments    []model.Comment
	attachments []model.FileAttachment
}

func (m *memComments) InsertComment(ctx context.Context, c *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = len(m.comments) + 1
	m.comments = append(m.comments, *c)
	return nil
}

func (m *memComments) ListComments(ctx context.Context, taskID int) ([]model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Comment{}
	for _, c := range m.comments {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memComments) InsertAttachment(ctx context.Context, a *model.FileAttachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = len(m.attachments) + 1
	m.attachments = append(m.attachments, *a)
	return nil
}

func (m *memComments) ListAttachments(ctx context.Context, taskID int) ([]model.FileAttachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.FileAttachment{}
	for _, a := range m.attachments {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fixture struct {
	svc       *Service
	projects  *memProjects
	tasks     *memTasks
	approvals *memApprovals
	blockers  *memBlockers
	comments  *memComments
}

var (
	pm       = model.Actor{UserID: 1, Role: "pm"}
	lead     = model.Actor{UserID: 2, Role: "member"}
	member   = model.Actor{UserID: 3, Role: "member"}
	outsider = model.Actor{UserID: 9, Role: "member"}
)

// newFixture seeds project 1, led by user 2 with user 3 as a member.
func newFixture() *fixture {
	f := &fixture{
		projects:  &memProjects{rows: map[int]*model.Project{}, progress: map[int]int{}},
		tasks:     &memTasks{rows: map[int]*model.Task{}},
		approvals: &memApprovals{rows: map[[2]any]*model.StageApproval{}, clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		blockers:  &memBlockers{rows: map[int]*model.Blocker{}},
		comments:  &memComments{},
	}
	f.svc = NewService(Stores{
		Projects:  f.projects,
		Tasks:     f.tasks,
		Approvals: f.approvals,
		Blockers:  f.blockers,
		Comments:  f.comments,
	}, zap.NewNop())
	f.svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	_, _ = f.projects.Insert(context.Background(), &model.Project{
		Name:      "Apollo",
		Code:      "APL",
		Status:    model.ProjectStatusActive,
		LeadID:    lead.UserID,
		MemberIDs: []int{member.UserID},
	})
	return f
}

func (f *fixture) addTask(stageID, status string) *model.Task {
	t := &model.Task{ProjectID: 1, StageID: stageID, Title: "t", Priority: model.PriorityMedium, Status: status}
	_, _ = f.tasks.Insert(context.Background(), t)
	return t
}
