package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"fahrerexpress/pkg/apperrors"
	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/mailer"
	"fahrerexpress/pkg/metrics"
	"fahrerexpress/pkg/models"
	"fahrerexpress/storage"
)

type AssignRequest struct {
	JobID     string     `json:"jobId"`
	DriverID  string     `json:"driverId"`
	RateType  string     `json:"rateType"`
	RateValue float64    `json:"rateValue"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Note      string     `json:"note,omitempty"`
}

func (r AssignRequest) validate() error {
	if strings.TrimSpace(r.JobID) == "" || strings.TrimSpace(r.DriverID) == "" {
		return apperrors.Validation("jobId and driverId are required")
	}
	switch r.RateType {
	case models.RateTypeHourly, models.RateTypeDaily, models.RateTypeFlat:
	default:
		return apperrors.Validation("rateType must be hourly, daily or flat")
	}
	if r.RateValue < 0 {
		return apperrors.Validation("rateValue must not be negative")
	}
	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		return apperrors.Validation("endDate is before startDate")
	}
	return nil
}

type AssignmentService interface {
	AssignDriver(ctx context.Context, admin models.Identity, req AssignRequest) (*models.JobAssignment, error)
	// EnsureAssignment creates an assignment for (jobID, driverID) unless the
	// job already has an active one. It is safe to call repeatedly.
	EnsureAssignment(ctx context.Context, jobID, driverID string) (*models.JobAssignment, bool, error)
}

type assignmentService struct {
	stg    storage.IStorage
	notify *notifier
	log    logger.ILogger
}

func NewAssignmentService(stg storage.IStorage, n *notifier, log logger.ILogger) AssignmentService {
	return &assignmentService{stg: stg, notify: n, log: log}
}

func (s *assignmentService) AssignDriver(ctx context.Context, admin models.Identity, req AssignRequest) (*models.JobAssignment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	job, err := s.stg.Job().GetByID(ctx, req.JobID)
	if err != nil {
		return nil, storageErr(err, "job not found")
	}
	driver, err := s.stg.Driver().GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, storageErr(err, "driver not found")
	}

	var assignment *models.JobAssignment
	err = s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		adminID := admin.UserID
		created, err := tx.Assignment().Create(ctx, &models.JobAssignment{
			JobID:      job.ID,
			DriverID:   driver.ID,
			RateType:   req.RateType,
			RateValue:  req.RateValue,
			StartDate:  req.StartDate,
			EndDate:    req.EndDate,
			Note:       req.Note,
			AssignedBy: &adminID,
		})
		if err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return apperrors.Conflict("job already assigned")
			}
			return err
		}

		if _, err := tx.Job().SetStatus(ctx, job.ID, models.JobStatusAssigned, nil); err != nil {
			return err
		}

		assignmentID := created.ID
		if err := tx.AdminAction().Create(ctx, &models.AdminAction{
			Action:       models.ActionAssignDriver,
			AdminID:      &adminID,
			AdminEmail:   admin.Email,
			JobID:        &job.ID,
			AssignmentID: &assignmentID,
			Note:         req.Note,
		}); err != nil {
			return err
		}

		assignment = created
		return nil
	})
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeConflict {
			metrics.AssignmentConflicts.Inc()
			s.log.Info("assignment rejected, job already staffed", logger.String("job_id", job.ID), logger.String("driver_id", driver.ID))
			return nil, err
		}
		return nil, apperrors.Internal(err)
	}

	metrics.AssignmentsCreated.WithLabelValues("admin").Inc()
	s.log.Info("driver assigned",
		logger.String("job_id", job.ID),
		logger.String("driver_id", driver.ID),
		logger.String("assignment_id", assignment.ID),
		logger.String("admin", admin.Email),
	)

	period := formatPeriod(firstTime(req.StartDate, job.StartDate), firstTime(req.EndDate, job.EndDate))
	s.notify.send(ctx, mailer.TemplateAssignmentNotice, driver.Email, map[string]any{
		"DriverName":  driver.FullName(),
		"Einsatzort":  job.Einsatzort,
		"Period":      period,
		"VehicleType": job.VehicleType,
		"Rate":        formatRate(req.RateType, req.RateValue),
		"Note":        req.Note,
	}, &job.ID)
	s.notify.send(ctx, mailer.TemplateAssignmentConfirmation, job.CustomerEmail, map[string]any{
		"CustomerName": job.CustomerName,
		"Einsatzort":   job.Einsatzort,
		"Period":       period,
		"DriverName":   driver.FullName(),
	}, &job.ID)

	return assignment, nil
}

func (s *assignmentService) EnsureAssignment(ctx context.Context, jobID, driverID string) (*models.JobAssignment, bool, error) {
	var (
		assignment *models.JobAssignment
		created    bool
	)
	err := s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		var err error
		assignment, created, err = ensureAssignment(ctx, tx, jobID, driverID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return assignment, created, nil
}

// ensureAssignment runs inside the caller's transaction.
func ensureAssignment(ctx context.Context, tx storage.IStorage, jobID, driverID string) (*models.JobAssignment, bool, error) {
	assignment, created, err := tx.Assignment().CreateIfNoneActive(ctx, &models.JobAssignment{
		JobID:     jobID,
		DriverID:  driverID,
		RateType:  models.RateTypeHourly,
		RateValue: 0,
		Note:      "accepted via invite",
	})
	if err != nil {
		return nil, false, err
	}
	if !created {
		return assignment, false, nil
	}

	if _, err := tx.Job().SetStatus(ctx, jobID, models.JobStatusAssigned, nil); err != nil {
		return nil, false, err
	}
	assignmentID := assignment.ID
	if err := tx.AdminAction().Create(ctx, &models.AdminAction{
		Action:       models.ActionInviteAccepted,
		AdminEmail:   "system",
		JobID:        &jobID,
		AssignmentID: &assignmentID,
		Note:         "driver " + driverID + " accepted invite",
	}); err != nil {
		return nil, false, err
	}
	metrics.AssignmentsCreated.WithLabelValues("invite").Inc()
	return assignment, true, nil
}

// storageErr turns storage.ErrNotFound into a NotFound with msg and any
// other failure into Internal.
func storageErr(err error, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NotFound(msg)
	}
	return apperrors.Internal(err)
}

func firstTime(values ...*time.Time) *time.Time {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
