package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/models"
	"fahrerexpress/storage"
)

const assignmentColumns = `id, job_id, driver_id, status, rate_type, rate_value, start_date,
	end_date, note, assigned_by, assigned_at`

type assignmentRepo struct {
	db  querier
	log logger.ILogger
}

func NewAssignmentRepo(db querier, log logger.ILogger) storage.IAssignmentStorage {
	return &assignmentRepo{db: db, log: log}
}

func scanAssignment(row rowScanner) (*models.JobAssignment, error) {
	var a models.JobAssignment
	err := row.Scan(
		&a.ID, &a.JobID, &a.DriverID, &a.Status, &a.RateType, &a.RateValue, &a.StartDate,
		&a.EndDate, &a.Note, &a.AssignedBy, &a.AssignedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) Create(ctx context.Context, a *models.JobAssignment) (*models.JobAssignment, error) {
	query := `
		INSERT INTO job_assignments (job_id, driver_id, status, rate_type, rate_value, start_date, end_date, note, assigned_by)
		VALUES ($1, $2, 'assigned', $3, $4, $5, $6, $7, $8)
		RETURNING ` + assignmentColumns

	created, err := scanAssignment(r.db.QueryRow(ctx, query,
		a.JobID, a.DriverID, a.RateType, a.RateValue, a.StartDate, a.EndDate, a.Note, a.AssignedBy,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrConflict
		}
		r.log.Error("failed to create assignment", logger.String("job_id", a.JobID), logger.Error(err))
		return nil, err
	}
	return created, nil
}

// ensureAttempts bounds the insert/read loop in CreateIfNoneActive. A second
// pass only happens when the blocking assignment was cancelled in between.
const ensureAttempts = 2

func (r *assignmentRepo) CreateIfNoneActive(ctx context.Context, a *models.JobAssignment) (*models.JobAssignment, bool, error) {
	query := `
		INSERT INTO job_assignments (job_id, driver_id, status, rate_type, rate_value, start_date, end_date, note, assigned_by)
		VALUES ($1, $2, 'assigned', $3, $4, $5, $6, $7, $8)
		ON CONFLICT (job_id) WHERE status IN ('assigned', 'confirmed') DO NOTHING
		RETURNING ` + assignmentColumns

	for attempt := 1; ; attempt++ {
		created, err := scanAssignment(r.db.QueryRow(ctx, query,
			a.JobID, a.DriverID, a.RateType, a.RateValue, a.StartDate, a.EndDate, a.Note, a.AssignedBy,
		))
		if err == nil {
			return created, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			r.log.Error("failed to ensure assignment", logger.String("job_id", a.JobID), logger.Error(err))
			return nil, false, err
		}

		existing, err := r.GetActiveByJob(ctx, a.JobID)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, storage.ErrNotFound) || attempt == ensureAttempts {
			return nil, false, err
		}
		r.log.Debug("active assignment vanished, retrying insert", logger.String("job_id", a.JobID))
	}
}

func (r *assignmentRepo) GetActiveByJob(ctx context.Context, jobID string) (*models.JobAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM job_assignments
		WHERE job_id = $1 AND status IN ('assigned', 'confirmed')`
	a, err := scanAssignment(r.db.QueryRow(ctx, query, jobID))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *assignmentRepo) CancelActive(ctx context.Context, jobID string) (int64, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE job_assignments SET status = 'cancelled'
		WHERE job_id = $1 AND status IN ('assigned', 'confirmed')`, jobID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *assignmentRepo) DeleteByAdmin(ctx context.Context, adminID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `DELETE FROM job_assignments WHERE assigned_by = $1 RETURNING job_id`, adminID)
	if err != nil {
		r.log.Error("failed to delete admin assignments", logger.String("admin_id", adminID), logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	seen := map[string]bool{}
	var jobIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			jobIDs = append(jobIDs, id)
		}
	}
	return jobIDs, rows.Err()
}
