package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zhouzirui/creator-surge/backend/internal/model/chat"
	"github.com/zhouzirui/creator-surge/backend/internal/model/project"
)

const projectColumns = `id, name, description, project_type, status, created_at, updated_at, user_id, tech_stack, deployment_url`

func scanProject(row pgx.Row) (project.Project, error) {
	var (
		p      project.Project
		kind   string
		status string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &kind, &status, &p.CreatedAt, &p.UpdatedAt, &p.UserID, &p.TechStack, &p.DeploymentURL)
	if err != nil {
		return project.Project{}, err
	}
	p.ProjectType = project.Type(kind)
	p.Status = project.Status(status)
	if p.TechStack == nil {
		p.TechStack = []string{}
	}
	return p, nil
}

// insertActivity appends a feed entry inside an existing transaction.
func insertActivity(ctx context.Context, tx pgx.Tx, a project.Activity) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO activities (id, project_id, user_id, action, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.ProjectID, a.UserID, string(a.Action), a.Description, a.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction and commits when it returns nil.
func (s *PostgresStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func techStack(p project.Project) []string {
	if p.TechStack == nil {
		return []string{}
	}
	return p.TechStack
}

func (s *PostgresStore) CreateProject(ctx context.Context, p project.Project, activity project.Activity) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO projects (`+projectColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			p.ID, p.Name, p.Description, string(p.ProjectType), string(p.Status),
			p.CreatedAt, p.UpdatedAt, p.UserID, techStack(p), p.DeploymentURL,
		)
		if err != nil {
			return mapErr("insert project", err)
		}
		return insertActivity(ctx, tx, activity)
	})
}

func (s *PostgresStore) ListProjects(ctx context.Context, userID string) ([]project.Project, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects WHERE user_id = $1
		ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	out := make([]project.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (project.Project, error) {
	p, err := scanProject(s.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return project.Project{}, mapErr("get project", err)
	}
	return p, nil
}

func updateProjectTx(ctx context.Context, tx pgx.Tx, p project.Project) error {
	tag, err := tx.Exec(ctx, `
		UPDATE projects
		SET name = $2, description = $3, status = $4, updated_at = $5, tech_stack = $6, deployment_url = $7
		WHERE id = $1`,
		p.ID, p.Name, p.Description, string(p.Status), p.UpdatedAt, techStack(p), p.DeploymentURL,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, p project.Project, activity project.Activity) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := updateProjectTx(ctx, tx, p); err != nil {
			return err
		}
		return insertActivity(ctx, tx, activity)
	})
}

func (s *PostgresStore) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const chatColumns = `id, project_id, role, content, created_at, code_generated, degraded`

func (s *PostgresStore) ListProjectChats(ctx context.Context, projectID string) ([]project.Chat, error) {
	return s.queryChats(ctx, `
		SELECT `+chatColumns+`
		FROM project_chats WHERE project_id = $1
		ORDER BY created_at, seq`, projectID)
}

func (s *PostgresStore) RecentProjectChats(ctx context.Context, projectID string, limit int) ([]project.Chat, error) {
	if limit <= 0 {
		return s.ListProjectChats(ctx, projectID)
	}
	return s.queryChats(ctx, `
		SELECT `+chatColumns+` FROM (
			SELECT `+chatColumns+`, seq
			FROM project_chats WHERE project_id = $1
			ORDER BY created_at DESC, seq DESC
			LIMIT $2
		) recent
		ORDER BY created_at, seq`, projectID, limit)
}

func (s *PostgresStore) queryChats(ctx context.Context, sql string, args ...any) ([]project.Chat, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query project chats: %w", err)
	}
	defer rows.Close()

	out := make([]project.Chat, 0)
	for rows.Next() {
		var (
			c    project.Chat
			role string
		)
		if err := rows.Scan(&c.ID, &c.ProjectID, &role, &c.Content, &c.Timestamp, &c.CodeGenerated, &c.Degraded); err != nil {
			return nil, fmt.Errorf("scan project chat: %w", err)
		}
		c.Role = chat.Role(role)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) RecordProjectTurn(ctx context.Context, turn ProjectTurn) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE projects SET updated_at = $2 WHERE id = $1`,
			turn.User.ProjectID, turn.Assistant.Timestamp)
		if err != nil {
			return fmt.Errorf("touch project: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		for _, c := range []project.Chat{turn.User, turn.Assistant} {
			_, err := tx.Exec(ctx, `
				INSERT INTO project_chats (id, project_id, role, content, created_at, code_generated, degraded)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				c.ID, c.ProjectID, string(c.Role), c.Content, c.Timestamp, c.CodeGenerated, c.Degraded,
			)
			if err != nil {
				return fmt.Errorf("insert project chat: %w", err)
			}
		}
		return insertActivity(ctx, tx, turn.Activity)
	})
}

func saveDeploymentTx(ctx context.Context, tx pgx.Tx, d project.Deployment) error {
	logs := d.BuildLogs
	if logs == nil {
		logs = []string{}
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO deployments (id, project_id, status, deployed_url, build_logs, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, deployed_url = EXCLUDED.deployed_url,
		    build_logs = EXCLUDED.build_logs, completed_at = EXCLUDED.completed_at`,
		d.ID, d.ProjectID, string(d.Status), d.DeployedURL, logs, d.CreatedAt, d.CompletedAt,
	)
	if err != nil {
		return mapErr("save deployment", err)
	}
	return nil
}

func (s *PostgresStore) SaveDeployment(ctx context.Context, d project.Deployment) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return saveDeploymentTx(ctx, tx, d)
	})
}

func (s *PostgresStore) CompleteDeployment(ctx context.Context, d project.Deployment, p *project.Project, activity project.Activity) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := saveDeploymentTx(ctx, tx, d); err != nil {
			return err
		}
		if p != nil {
			if err := updateProjectTx(ctx, tx, *p); err != nil {
				return err
			}
		}
		return insertActivity(ctx, tx, activity)
	})
}

func (s *PostgresStore) ListDeployments(ctx context.Context, projectID string) ([]project.Deployment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, status, deployed_url, build_logs, created_at, completed_at
		FROM deployments WHERE project_id = $1
		ORDER BY created_at DESC, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query deployments: %w", err)
	}
	defer rows.Close()

	out := make([]project.Deployment, 0)
	for rows.Next() {
		var (
			d      project.Deployment
			status string
		)
		if err := rows.Scan(&d.ID, &d.ProjectID, &status, &d.DeployedURL, &d.BuildLogs, &d.CreatedAt, &d.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan deployment: %w", err)
		}
		d.Status = project.DeploymentStatus(status)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddCollaborator(ctx context.Context, c project.Collaborator, activity project.Activity) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO collaborators (id, project_id, email, role, added_at)
			VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.ProjectID, c.Email, string(c.Role), c.AddedAt,
		)
		if err != nil {
			return mapErr("insert collaborator", err)
		}
		return insertActivity(ctx, tx, activity)
	})
}

func (s *PostgresStore) ListCollaborators(ctx context.Context, projectID string) ([]project.Collaborator, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, email, role, added_at
		FROM collaborators WHERE project_id = $1
		ORDER BY added_at, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query collaborators: %w", err)
	}
	defer rows.Close()

	out := make([]project.Collaborator, 0)
	for rows.Next() {
		var (
			c    project.Collaborator
			role string
		)
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Email, &role, &c.AddedAt); err != nil {
			return nil, fmt.Errorf("scan collaborator: %w", err)
		}
		c.Role = project.CollaboratorRole(role)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddComment(ctx context.Context, c project.Comment, activity project.Activity) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO comments (id, project_id, user_id, content, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.ProjectID, c.UserID, c.Content, c.Timestamp,
		)
		if err != nil {
			return mapErr("insert comment", err)
		}
		return insertActivity(ctx, tx, activity)
	})
}

func (s *PostgresStore) ListComments(ctx context.Context, projectID string) ([]project.Comment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, user_id, content, created_at
		FROM comments WHERE project_id = $1
		ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	out := make([]project.Comment, 0)
	for rows.Next() {
		var c project.Comment
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.UserID, &c.Content, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListActivities(ctx context.Context, projectID string, limit int) ([]project.Activity, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, user_id, action, description, created_at
		FROM activities WHERE project_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	out := make([]project.Activity, 0)
	for rows.Next() {
		var (
			a      project.Activity
			action string
		)
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.UserID, &action, &a.Description, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Action = project.Action(action)
		out = append(out, a)
	}
	return out, rows.Err()
}
