package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"fahrerexpress/pkg/apperrors"
	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/mailer"
	"fahrerexpress/pkg/metrics"
	"fahrerexpress/pkg/models"
	"fahrerexpress/storage"
)

const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// ResponseMeta describes the browser that followed an invite link.
type ResponseMeta struct {
	UserAgent string
	IP        string
}

// InviteOutcome is what the driver sees after clicking an invite link.
type InviteOutcome struct {
	Invite *models.AssignmentInvite
	// Status is the invite's terminal status after this call.
	Status string
	// AlreadyResponded is set when the invite had reached a terminal state
	// before this call; nothing was changed.
	AlreadyResponded bool
	Assignment       *models.JobAssignment
	// JobTaken is set when the driver accepted but the job was already
	// staffed by someone else.
	JobTaken bool
}

type InviteService interface {
	IssueInvite(ctx context.Context, admin models.Identity, jobID, driverID string) (*models.AssignmentInvite, error)
	Respond(ctx context.Context, token, action string, meta ResponseMeta) (*InviteOutcome, error)
	ExpireStale(ctx context.Context) (int64, error)
}

type inviteService struct {
	stg    storage.IStorage
	notify *notifier
	opts   Options
	log    logger.ILogger
}

func NewInviteService(stg storage.IStorage, n *notifier, opts Options, log logger.ILogger) InviteService {
	return &inviteService{stg: stg, notify: n, opts: opts, log: log}
}

func (s *inviteService) IssueInvite(ctx context.Context, admin models.Identity, jobID, driverID string) (*models.AssignmentInvite, error) {
	if strings.TrimSpace(jobID) == "" || strings.TrimSpace(driverID) == "" {
		return nil, apperrors.Validation("jobId and driverId are required")
	}

	job, err := s.stg.Job().GetByID(ctx, jobID)
	if err != nil {
		return nil, storageErr(err, "job not found")
	}
	driver, err := s.stg.Driver().GetByID(ctx, driverID)
	if err != nil {
		return nil, storageErr(err, "driver not found")
	}
	if _, err := s.stg.Assignment().GetActiveByJob(ctx, jobID); err == nil {
		return nil, apperrors.Conflict("job already assigned")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	token, err := uuid.NewRandom()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	var invite *models.AssignmentInvite
	err = s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		invite, err = tx.Invite().Create(ctx, &models.AssignmentInvite{
			JobID:          job.ID,
			DriverID:       driver.ID,
			Token:          token.String(),
			TokenExpiresAt: s.opts.Now().Add(s.opts.InviteTTL),
		})
		if err != nil {
			return err
		}
		adminID := admin.UserID
		return tx.AdminAction().Create(ctx, &models.AdminAction{
			Action:     models.ActionSendInvite,
			AdminID:    &adminID,
			AdminEmail: admin.Email,
			JobID:      &job.ID,
			Note:       "invite sent to driver " + driver.ID,
		})
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.notify.send(ctx, mailer.TemplateAssignmentInvite, driver.Email, map[string]any{
		"DriverName": driver.FullName(),
		"Einsatzort": job.Einsatzort,
		"Period":     formatPeriod(job.StartDate, job.EndDate),
		"AcceptURL":  s.responseURL(ActionAccept, invite.Token),
		"DeclineURL": s.responseURL(ActionDecline, invite.Token),
		"ExpiresAt":  invite.TokenExpiresAt.Format("02.01.2006 15:04"),
	}, &job.ID)

	s.log.Info("invite issued",
		logger.String("invite_id", invite.ID),
		logger.String("job_id", job.ID),
		logger.String("driver_id", driver.ID),
		logger.Time("expires_at", invite.TokenExpiresAt),
	)
	return invite, nil
}

func (s *inviteService) responseURL(action, token string) string {
	q := url.Values{}
	q.Set("a", action)
	q.Set("t", token)
	return s.opts.PublicBaseURL + "/respond-invite?" + q.Encode()
}

func (s *inviteService) Respond(ctx context.Context, token, action string, meta ResponseMeta) (*InviteOutcome, error) {
	var target string
	switch action {
	case ActionAccept:
		target = models.InviteStatusAccepted
	case ActionDecline:
		target = models.InviteStatusDeclined
	default:
		return nil, apperrors.Validation("unknown action")
	}
	if token == "" {
		return nil, apperrors.NotFound("invalid or expired link")
	}

	invite, err := s.stg.Invite().GetByToken(ctx, token)
	if err != nil {
		return nil, storageErr(err, "invalid or expired link")
	}
	if !invite.Pending() {
		return s.already(invite), nil
	}

	now := s.opts.Now()
	ua, ip := optional(meta.UserAgent), optional(meta.IP)

	if now.After(invite.TokenExpiresAt) {
		updated, err := s.stg.Invite().Respond(ctx, invite.ID, models.InviteStatusExpired, now, ua, ip)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if !updated {
			return s.reload(ctx, token)
		}
		metrics.InviteResponses.WithLabelValues(models.InviteStatusExpired).Inc()
		s.log.Info("invite expired on response", logger.String("invite_id", invite.ID), logger.String("requested", action))
		invite.Status = models.InviteStatusExpired
		invite.RespondedAt = &now
		return &InviteOutcome{Invite: invite, Status: models.InviteStatusExpired}, nil
	}

	outcome := &InviteOutcome{Invite: invite, Status: target}
	var raced bool
	err = s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		updated, err := tx.Invite().Respond(ctx, invite.ID, target, now, ua, ip)
		if err != nil {
			return err
		}
		if !updated {
			raced = true
			return nil
		}
		if target != models.InviteStatusAccepted {
			return nil
		}
		assignment, created, err := ensureAssignment(ctx, tx, invite.JobID, invite.DriverID)
		if err != nil {
			return err
		}
		outcome.Assignment = assignment
		outcome.JobTaken = !created && assignment.DriverID != invite.DriverID
		return nil
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if raced {
		return s.reload(ctx, token)
	}

	invite.Status = target
	invite.RespondedAt = &now
	invite.UserAgent, invite.IP = ua, ip
	metrics.InviteResponses.WithLabelValues(target).Inc()
	s.log.Info("invite answered",
		logger.String("invite_id", invite.ID),
		logger.String("status", target),
		logger.Bool("job_taken", outcome.JobTaken),
	)
	return outcome, nil
}

// reload re-reads an invite that another request moved out of pending.
func (s *inviteService) reload(ctx context.Context, token string) (*InviteOutcome, error) {
	invite, err := s.stg.Invite().GetByToken(ctx, token)
	if err != nil {
		return nil, storageErr(err, "invalid or expired link")
	}
	return s.already(invite), nil
}

func (s *inviteService) already(invite *models.AssignmentInvite) *InviteOutcome {
	metrics.InviteResponses.WithLabelValues("already_" + invite.Status).Inc()
	return &InviteOutcome{Invite: invite, Status: invite.Status, AlreadyResponded: true}
}

func (s *inviteService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.stg.Invite().ExpirePending(ctx, s.opts.Now())
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	s.log.Info("stale invites expired", logger.Int64("count", n))
	return n, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
