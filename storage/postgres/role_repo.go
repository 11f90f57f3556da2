package postgres

import (
	"context"

	"fahrerexpress/pkg/logger"
	"fahrerexpress/storage"
)

type roleRepo struct {
	db  querier
	log logger.ILogger
}

func NewRoleRepo(db querier, log logger.ILogger) storage.IRoleStorage {
	return &roleRepo{db: db, log: log}
}

func (r *roleRepo) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)", userID, role,
	).Scan(&ok)
	if isInvalidText(err) {
		return false, nil
	}
	if err != nil {
		r.log.Error("failed to look up role", logger.String("user_id", userID), logger.Error(err))
		return false, err
	}
	return ok, nil
}

func (r *roleRepo) Grant(ctx context.Context, userID, role string) error {
	_, err := r.db.Exec(ctx, "INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING", userID, role)
	return err
}
