package postgres

import (
	"context"

	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/models"
	"fahrerexpress/storage"
)

const driverColumns = `id, user_id, first_name, last_name, email, phone, license_classes,
	qualifications, city, telegram_chat_id, status, created_at`

type driverRepo struct {
	db  querier
	log logger.ILogger
}

func NewDriverRepo(db querier, log logger.ILogger) storage.IDriverStorage {
	return &driverRepo{db: db, log: log}
}

func scanDriver(row rowScanner) (*models.DriverProfile, error) {
	var d models.DriverProfile
	err := row.Scan(
		&d.ID, &d.UserID, &d.FirstName, &d.LastName, &d.Email, &d.Phone, &d.LicenseClasses,
		&d.Qualifications, &d.City, &d.TelegramChatID, &d.Status, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *driverRepo) Create(ctx context.Context, driver *models.DriverProfile) (*models.DriverProfile, error) {
	status := driver.Status
	if status == "" {
		status = models.DriverStatusPending
	}
	licenses := driver.LicenseClasses
	if licenses == nil {
		licenses = []string{}
	}
	quals := driver.Qualifications
	if quals == nil {
		quals = []string{}
	}

	query := `
		INSERT INTO fahrer_profile (user_id, first_name, last_name, email, phone, license_classes,
			qualifications, city, telegram_chat_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + driverColumns

	created, err := scanDriver(r.db.QueryRow(ctx, query,
		driver.UserID, driver.FirstName, driver.LastName, driver.Email, driver.Phone, licenses,
		quals, driver.City, driver.TelegramChatID, status,
	))
	if err != nil {
		r.log.Error("failed to create driver profile", logger.Error(err))
		return nil, err
	}
	return created, nil
}

func (r *driverRepo) GetByID(ctx context.Context, id string) (*models.DriverProfile, error) {
	d, err := scanDriver(r.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM fahrer_profile WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

func (r *driverRepo) GetApproved(ctx context.Context) ([]*models.DriverProfile, error) {
	rows, err := r.db.Query(ctx, `SELECT `+driverColumns+` FROM fahrer_profile WHERE status = 'approved' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*models.DriverProfile
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

func (r *driverRepo) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.Exec(ctx, "UPDATE fahrer_profile SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
