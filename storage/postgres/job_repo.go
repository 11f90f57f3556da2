package postgres

import (
	"context"
	"time"

	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/models"
	"fahrerexpress/storage"
)

const jobColumns = `id, customer_name, customer_email, customer_phone, company, einsatzort,
	start_date, end_date, time_window, vehicle_type, license_class, notes,
	status, created_at, updated_at, completed_at`

type jobRepo struct {
	db  querier
	log logger.ILogger
}

func NewJobRepo(db querier, log logger.ILogger) storage.IJobStorage {
	return &jobRepo{db: db, log: log}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.JobRequest, error) {
	var j models.JobRequest
	err := row.Scan(
		&j.ID, &j.CustomerName, &j.CustomerEmail, &j.CustomerPhone, &j.Company, &j.Einsatzort,
		&j.StartDate, &j.EndDate, &j.TimeWindow, &j.VehicleType, &j.LicenseClass, &j.Notes,
		&j.Status, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *jobRepo) Create(ctx context.Context, job *models.JobRequest) (*models.JobRequest, error) {
	query := `
		INSERT INTO job_requests (customer_name, customer_email, customer_phone, company, einsatzort,
			start_date, end_date, time_window, vehicle_type, license_class, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'open')
		RETURNING ` + jobColumns

	created, err := scanJob(r.db.QueryRow(ctx, query,
		job.CustomerName,
		job.CustomerEmail,
		job.CustomerPhone,
		job.Company,
		job.Einsatzort,
		job.StartDate,
		job.EndDate,
		job.TimeWindow,
		job.VehicleType,
		job.LicenseClass,
		job.Notes,
	))
	if err != nil {
		r.log.Error("failed to create job request", logger.Error(err))
		return nil, err
	}
	return created, nil
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*models.JobRequest, error) {
	job, err := scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM job_requests WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return job, nil
}

func (r *jobRepo) List(ctx context.Context, status string) ([]*models.JobRequest, error) {
	query := `SELECT ` + jobColumns + ` FROM job_requests WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.JobRequest
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *jobRepo) SetStatus(ctx context.Context, id, status string, completedAt *time.Time) (*models.JobRequest, error) {
	query := `
		UPDATE job_requests
		SET status = $1, completed_at = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + jobColumns

	job, err := scanJob(r.db.QueryRow(ctx, query, status, completedAt, id))
	if err != nil {
		err = notFound(err)
		if err != storage.ErrNotFound {
			r.log.Error("failed to update job status", logger.String("id", id), logger.Error(err))
		}
		return nil, err
	}
	return job, nil
}

func (r *jobRepo) Reopen(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.Exec(ctx, `
		UPDATE job_requests
		SET status = 'open', completed_at = NULL, updated_at = NOW()
		WHERE id = ANY($1::uuid[])
		  AND NOT EXISTS (
			SELECT 1 FROM job_assignments a
			WHERE a.job_id = job_requests.id AND a.status IN ('assigned', 'confirmed')
		  )`, ids)
	if err != nil {
		r.log.Error("failed to reopen jobs", logger.Int("count", len(ids)), logger.Error(err))
		return 0, err
	}
	return res.RowsAffected(), nil
}
