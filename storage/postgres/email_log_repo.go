package postgres

import (
	"context"

	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/models"
	"fahrerexpress/storage"
)

type emailLogRepo struct {
	db  querier
	log logger.ILogger
}

func NewEmailLogRepo(db querier, log logger.ILogger) storage.IEmailLogStorage {
	return &emailLogRepo{db: db, log: log}
}

func (r *emailLogRepo) Create(ctx context.Context, entry *models.EmailLog) error {
	query := `
		INSERT INTO email_log (recipient, template, subject, status, error, provider_id, job_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		entry.Recipient, entry.Template, entry.Subject, entry.Status, entry.Error, entry.ProviderID, entry.JobID,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		r.log.Error("failed to write email log", logger.String("template", entry.Template), logger.Error(err))
		return err
	}
	return nil
}
