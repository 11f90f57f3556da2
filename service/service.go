package service

import (
	"context"
	"sync"
	"time"

	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/mailer"
	"fahrerexpress/storage"
)

type IServiceManager interface {
	Job() JobService
	Assignment() AssignmentService
	Invite() InviteService
	Unsubscribe() UnsubscribeService
	// Wait blocks until in-flight background broadcasts finish or ctx ends.
	Wait(ctx context.Context) error
}

type Options struct {
	PublicBaseURL string
	InviteTTL     time.Duration
	// AdminNotifyEmail receives a copy of every new job request when set.
	AdminNotifyEmail string
	// Now is the clock used for expiry checks and timestamps.
	Now func() time.Time
}

type service struct {
	jobService         JobService
	assignmentService  AssignmentService
	inviteService      InviteService
	unsubscribeService UnsubscribeService
	inflight           *sync.WaitGroup
}

func New(stg storage.IStorage, m mailer.Mailer, b Broadcaster, opts Options, log logger.ILogger) IServiceManager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.InviteTTL <= 0 {
		opts.InviteTTL = 48 * time.Hour
	}

	n := newNotifier(m, stg.EmailLog(), log)
	assignments := NewAssignmentService(stg, n, log)
	inflight := &sync.WaitGroup{}

	return &service{
		inflight:           inflight,
		jobService:         NewJobService(stg, n, b, inflight, opts, log),
		assignmentService:  assignments,
		inviteService:      NewInviteService(stg, n, opts, log),
		unsubscribeService: NewUnsubscribeService(stg, opts, log),
	}
}

func (s *service) Job() JobService {
	return s.jobService
}

func (s *service) Assignment() AssignmentService {
	return s.assignmentService
}

func (s *service) Invite() InviteService {
	return s.inviteService
}

func (s *service) Unsubscribe() UnsubscribeService {
	return s.unsubscribeService
}

func (s *service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
