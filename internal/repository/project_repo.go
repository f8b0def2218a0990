package repository

import (
	"context"
	"fmt"

	"pmboard/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

const projectSelect = `
        SELECT p.id, p.name, p.code, p.status, p.progress, p.lead_id,
               COALESCE(array_agg(m.user_id ORDER BY m.user_id) FILTER (WHERE m.user_id IS NOT NULL), '{}'),
               p.start_date, p.end_date, p.created_at, p.updated_at
        FROM projects p
        LEFT JOIN project_members m ON m.project_id = p.id
`

func (r *ProjectRepository) Insert(ctx context.Context, p *model.Project) (int, error) {
	r.logger.Debug("Inserting project",
		zap.Int("lead_id", p.LeadID),
		zap.String("code", p.Code),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO projects (name, code, status, progress, lead_id, start_date, end_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at
    `
	err = tx.QueryRow(ctx, query,
		p.Name,
		p.Code,
		p.Status,
		p.Progress,
		p.LeadID,
		p.StartDate,
		p.EndDate,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return 0, mapError(err)
	}

	if err := replaceMembers(ctx, tx, p.ID, p.MemberIDs); err != nil {
		r.logger.Error("Failed to insert project members", zap.Error(err), zap.Int("project_id", p.ID))
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("Project inserted successfully",
		zap.Int("id", p.ID),
		zap.Int("lead_id", p.LeadID),
	)
	return p.ID, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int) (*model.Project, error) {
	query := projectSelect + `
        WHERE p.id = $1
        GROUP BY p.id
    `
	p, err := scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

// ListAll returns every project; used for PMs.
func (r *ProjectRepository) ListAll(ctx context.Context) ([]model.Project, error) {
	query := projectSelect + `
        GROUP BY p.id
        ORDER BY p.created_at DESC
    `
	return r.list(ctx, query)
}

// ListForUser returns projects the user leads or is a member of.
func (r *ProjectRepository) ListForUser(ctx context.Context, userID int) ([]model.Project, error) {
	query := projectSelect + `
        WHERE p.lead_id = $1
           OR EXISTS (SELECT 1 FROM project_members pm WHERE pm.project_id = p.id AND pm.user_id = $1)
        GROUP BY p.id
        ORDER BY p.created_at DESC
    `
	return r.list(ctx, query, userID)
}

func (r *ProjectRepository) list(ctx context.Context, query string, args ...any) ([]model.Project, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query projects", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			r.logger.Error("Failed to scan project row", zap.Error(err))
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// Update overwrites the editable fields and the member list.
func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	r.logger.Debug("Updating project", zap.Int("project_id", p.ID))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        UPDATE projects
        SET name = $1, code = $2, status = $3, lead_id = $4,
            start_date = $5, end_date = $6, updated_at = NOW()
        WHERE id = $7
        RETURNING updated_at
    `
	err = tx.QueryRow(ctx, query,
		p.Name,
		p.Code,
		p.Status,
		p.LeadID,
		p.StartDate,
		p.EndDate,
		p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update project", zap.Error(err), zap.Int("project_id", p.ID))
		return mapError(err)
	}

	if err := replaceMembers(ctx, tx, p.ID, p.MemberIDs); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("Project updated successfully", zap.Int("project_id", p.ID))
	return nil
}

// UpdateProgress stores the task completion percentage shown on lists.
func (r *ProjectRepository) UpdateProgress(ctx context.Context, id, progress int) error {
	query := `UPDATE projects SET progress = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, progress, id)
	if err != nil {
		r.logger.Error("Failed to update project progress",
			zap.Error(err),
			zap.Int("project_id", id),
		)
	}
	return err
}

func (r *ProjectRepository) Delete(ctx context.Context, id int) error {
	r.logger.Debug("Deleting project", zap.Int("project_id", id))
	result, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete project", zap.Error(err), zap.Int("project_id", id))
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.logger.Info("Project deleted", zap.Int("project_id", id))
	return nil
}

func replaceMembers(ctx context.Context, tx pgx.Tx, projectID int, memberIDs []int) error {
	if _, err := tx.Exec(ctx, `DELETE FROM project_members WHERE project_id = $1`, projectID); err != nil {
		return err
	}
	for _, uid := range memberIDs {
		_, err := tx.Exec(ctx, `
            INSERT INTO project_members (project_id, user_id)
            VALUES ($1, $2)
            ON CONFLICT DO NOTHING
        `, projectID, uid)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	var members []int32
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Code,
		&p.Status,
		&p.Progress,
		&p.LeadID,
		&members,
		&p.StartDate,
		&p.EndDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.MemberIDs = make([]int, 0, len(members))
	for _, m := range members {
		p.MemberIDs = append(p.MemberIDs, int(m))
	}
	return &p, nil
}
