package postgres

import (
	"context"

	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/models"
	"fahrerexpress/storage"
)

type adminActionRepo struct {
	db  querier
	log logger.ILogger
}

func NewAdminActionRepo(db querier, log logger.ILogger) storage.IAdminActionStorage {
	return &adminActionRepo{db: db, log: log}
}

func (r *adminActionRepo) Create(ctx context.Context, action *models.AdminAction) error {
	query := `
		INSERT INTO admin_actions (action, admin_id, admin_email, job_id, assignment_id, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		action.Action, action.AdminID, action.AdminEmail, action.JobID, action.AssignmentID, action.Note,
	).Scan(&action.ID, &action.CreatedAt)
	if err != nil {
		r.log.Error("failed to append admin action", logger.String("action", action.Action), logger.Error(err))
		return err
	}
	return nil
}

func (r *adminActionRepo) ListByJob(ctx context.Context, jobID string) ([]*models.AdminAction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, action, admin_id, admin_email, job_id, assignment_id, note, created_at
		FROM admin_actions
		WHERE job_id = $1
		ORDER BY created_at`, jobID)
	if err != nil {
		if isInvalidText(err) {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	var actions []*models.AdminAction
	for rows.Next() {
		var a models.AdminAction
		if err := rows.Scan(&a.ID, &a.Action, &a.AdminID, &a.AdminEmail, &a.JobID, &a.AssignmentID, &a.Note, &a.CreatedAt); err != nil {
			return nil, err
		}
		actions = append(actions, &a)
	}
	return actions, rows.Err()
}
