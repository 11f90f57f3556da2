package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"fahrerexpress/pkg/apperrors"
	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/mailer"
	"fahrerexpress/pkg/metrics"
	"fahrerexpress/pkg/models"
	"fahrerexpress/storage"
)

const broadcastTimeout = 30 * time.Second

type JobService interface {
	CreateJob(ctx context.Context, job *models.JobRequest) (*models.JobRequest, error)
	GetJob(ctx context.Context, id string) (*models.JobRequest, error)
	MarkCompleted(ctx context.Context, admin models.Identity, jobID string) (*models.JobRequest, error)
	MarkOpen(ctx context.Context, admin models.Identity, jobID string) (*models.JobRequest, error)
	ResetJobsForAdmin(ctx context.Context, admin models.Identity) (int64, error)
	Actions(ctx context.Context, jobID string) ([]*models.AdminAction, error)
}

type jobService struct {
	stg         storage.IStorage
	notify      *notifier
	broadcaster Broadcaster
	now         func() time.Time
	adminEmail  string
	inflight    *sync.WaitGroup
	log         logger.ILogger
}

// NewJobService tracks broadcast goroutines in inflight so the caller can
// wait for them before closing the store.
func NewJobService(stg storage.IStorage, n *notifier, b Broadcaster, inflight *sync.WaitGroup, opts Options, log logger.ILogger) JobService {
	return &jobService{stg: stg, notify: n, broadcaster: b, now: opts.Now, adminEmail: opts.AdminNotifyEmail, inflight: inflight, log: log}
}

func (s *jobService) CreateJob(ctx context.Context, job *models.JobRequest) (*models.JobRequest, error) {
	job.CustomerName = strings.TrimSpace(job.CustomerName)
	job.CustomerEmail = strings.TrimSpace(job.CustomerEmail)
	job.Einsatzort = strings.TrimSpace(job.Einsatzort)

	if job.CustomerName == "" || job.Einsatzort == "" {
		return nil, apperrors.Validation("customer name and einsatzort are required")
	}
	if _, err := mail.ParseAddress(job.CustomerEmail); err != nil {
		return nil, apperrors.Validation("invalid customer email")
	}
	if job.StartDate != nil && job.EndDate != nil && job.EndDate.Before(*job.StartDate) {
		return nil, apperrors.Validation("end date is before start date")
	}

	created, err := s.stg.Job().Create(ctx, job)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	metrics.JobsCreated.Inc()
	s.log.Info("job request created", logger.String("job_id", created.ID), logger.String("einsatzort", created.Einsatzort))

	s.notify.send(ctx, mailer.TemplateJobReceived, created.CustomerEmail, map[string]any{
		"CustomerName": created.CustomerName,
		"Einsatzort":   created.Einsatzort,
	}, &created.ID)

	if s.adminEmail != "" {
		s.notify.send(ctx, mailer.TemplateNewJobAdmin, s.adminEmail, map[string]any{
			"JobID":         created.ID,
			"CustomerName":  created.CustomerName,
			"CustomerEmail": created.CustomerEmail,
			"Company":       created.Company,
			"Einsatzort":    created.Einsatzort,
			"Period":        formatPeriod(created.StartDate, created.EndDate),
		}, &created.ID)
	}

	if s.broadcaster != nil {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.broadcast(context.WithoutCancel(ctx), created)
		}()
	}
	return created, nil
}

// broadcast is fire-and-forget; failures are only logged.
func (s *jobService) broadcast(ctx context.Context, job *models.JobRequest) {
	ctx, cancel := context.WithTimeout(ctx, broadcastTimeout)
	defer cancel()

	drivers, err := s.stg.Driver().GetApproved(ctx)
	if err != nil {
		metrics.BroadcastFailures.Inc()
		s.log.Error("broadcast: failed to load drivers", logger.String("job_id", job.ID), logger.Error(err))
		return
	}
	if err := s.broadcaster.BroadcastJob(ctx, job, drivers); err != nil {
		metrics.BroadcastFailures.Inc()
		s.log.Warning("broadcast finished with errors", logger.String("job_id", job.ID), logger.Error(err))
	}
}

func (s *jobService) GetJob(ctx context.Context, id string) (*models.JobRequest, error) {
	job, err := s.stg.Job().GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "job not found")
	}
	return job, nil
}

func (s *jobService) MarkCompleted(ctx context.Context, admin models.Identity, jobID string) (*models.JobRequest, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == models.JobStatusCompleted {
		return job, nil
	}

	err = s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		now := s.now()
		job, err = tx.Job().SetStatus(ctx, jobID, models.JobStatusCompleted, &now)
		if err != nil {
			return err
		}
		return tx.AdminAction().Create(ctx, s.action(admin, models.ActionMarkCompleted, jobID, ""))
	})
	if err != nil {
		return nil, storageErr(err, "job not found")
	}
	s.log.Info("job marked completed", logger.String("job_id", jobID), logger.String("admin", admin.Email))
	return job, nil
}

func (s *jobService) MarkOpen(ctx context.Context, admin models.Identity, jobID string) (*models.JobRequest, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	var cancelled int64
	err = s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		cancelled, err = tx.Assignment().CancelActive(ctx, jobID)
		if err != nil {
			return err
		}
		if job.Status == models.JobStatusOpen && cancelled == 0 {
			return nil
		}
		job, err = tx.Job().SetStatus(ctx, jobID, models.JobStatusOpen, nil)
		if err != nil {
			return err
		}
		note := ""
		if cancelled > 0 {
			note = "active assignment cancelled"
		}
		return tx.AdminAction().Create(ctx, s.action(admin, models.ActionMarkOpen, jobID, note))
	})
	if err != nil {
		return nil, storageErr(err, "job not found")
	}
	s.log.Info("job reopened", logger.String("job_id", jobID), logger.Int64("cancelled_assignments", cancelled))
	return job, nil
}

func (s *jobService) ResetJobsForAdmin(ctx context.Context, admin models.Identity) (int64, error) {
	var reset int64
	err := s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		jobIDs, err := tx.Assignment().DeleteByAdmin(ctx, admin.UserID)
		if err != nil {
			return err
		}
		reset, err = tx.Job().Reopen(ctx, jobIDs)
		if err != nil {
			return err
		}
		return tx.AdminAction().Create(ctx, s.action(admin, models.ActionResetJobs, "", fmt.Sprintf("%d jobs reset", reset)))
	})
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	s.log.Info("jobs reset for admin", logger.String("admin", admin.Email), logger.Int64("jobs", reset))
	return reset, nil
}

func (s *jobService) Actions(ctx context.Context, jobID string) ([]*models.AdminAction, error) {
	actions, err := s.stg.AdminAction().ListByJob(ctx, jobID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return actions, nil
}

func (s *jobService) action(admin models.Identity, name, jobID, note string) *models.AdminAction {
	adminID := admin.UserID
	a := &models.AdminAction{
		Action:     name,
		AdminID:    &adminID,
		AdminEmail: admin.Email,
		Note:       note,
	}
	if jobID != "" {
		a.JobID = &jobID
	}
	return a
}
