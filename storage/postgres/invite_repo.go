package postgres

import (
	"context"
	"time"

	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/models"
	"fahrerexpress/storage"
)

const inviteColumns = `id, job_id, driver_id, token, token_expires_at, status, created_at,
	responded_at, user_agent, ip`

type inviteRepo struct {
	db  querier
	log logger.ILogger
}

func NewInviteRepo(db querier, log logger.ILogger) storage.IInviteStorage {
	return &inviteRepo{db: db, log: log}
}

func scanInvite(row rowScanner) (*models.AssignmentInvite, error) {
	var i models.AssignmentInvite
	err := row.Scan(
		&i.ID, &i.JobID, &i.DriverID, &i.Token, &i.TokenExpiresAt, &i.Status, &i.CreatedAt,
		&i.RespondedAt, &i.UserAgent, &i.IP,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *inviteRepo) Create(ctx context.Context, invite *models.AssignmentInvite) (*models.AssignmentInvite, error) {
	query := `
		INSERT INTO assignment_invites (job_id, driver_id, token, token_expires_at, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING ` + inviteColumns

	created, err := scanInvite(r.db.QueryRow(ctx, query, invite.JobID, invite.DriverID, invite.Token, invite.TokenExpiresAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrConflict
		}
		r.log.Error("failed to create invite", logger.String("job_id", invite.JobID), logger.Error(err))
		return nil, err
	}
	return created, nil
}

func (r *inviteRepo) GetByToken(ctx context.Context, token string) (*models.AssignmentInvite, error) {
	i, err := scanInvite(r.db.QueryRow(ctx, `SELECT `+inviteColumns+` FROM assignment_invites WHERE token = $1`, token))
	if err != nil {
		return nil, notFound(err)
	}
	return i, nil
}

func (r *inviteRepo) Respond(ctx context.Context, id, status string, at time.Time, userAgent, ip *string) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE assignment_invites
		SET status = $1, responded_at = $2, user_agent = $3, ip = $4
		WHERE id = $5 AND status = 'pending'`,
		status, at, userAgent, ip, id,
	)
	if err != nil {
		r.log.Error("failed to record invite response", logger.String("id", id), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (r *inviteRepo) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE assignment_invites
		SET status = 'expired', responded_at = $1
		WHERE status = 'pending' AND token_expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}
