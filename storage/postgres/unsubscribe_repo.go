package postgres

import (
	"context"
	"time"

	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/models"
	"fahrerexpress/storage"
)

type unsubscribeRepo struct {
	db  querier
	log logger.ILogger
}

func NewUnsubscribeRepo(db querier, log logger.ILogger) storage.IUnsubscribeStorage {
	return &unsubscribeRepo{db: db, log: log}
}

func (r *unsubscribeRepo) Create(ctx context.Context, t *models.UnsubscribeToken) error {
	return r.db.QueryRow(ctx,
		"INSERT INTO customer_unsubscribe_tokens (token, email) VALUES ($1, $2) RETURNING created_at",
		t.Token, t.Email,
	).Scan(&t.CreatedAt)
}

func (r *unsubscribeRepo) GetByToken(ctx context.Context, token string) (*models.UnsubscribeToken, error) {
	var t models.UnsubscribeToken
	err := r.db.QueryRow(ctx,
		"SELECT token, email, created_at, used_at FROM customer_unsubscribe_tokens WHERE token = $1", token,
	).Scan(&t.Token, &t.Email, &t.CreatedAt, &t.UsedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *unsubscribeRepo) MarkUsed(ctx context.Context, token string, at time.Time) (bool, error) {
	res, err := r.db.Exec(ctx,
		"UPDATE customer_unsubscribe_tokens SET used_at = $1 WHERE token = $2 AND used_at IS NULL", at, token)
	if err != nil {
		r.log.Error("failed to mark unsubscribe token used", logger.Error(err))
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (r *unsubscribeRepo) Suppress(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, "INSERT INTO email_suppressions (email) VALUES (lower($1)) ON CONFLICT DO NOTHING", email)
	return err
}
