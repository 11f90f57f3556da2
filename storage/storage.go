package storage

import (
	"context"
	"errors"
	"time"

	"fahrerexpress/pkg/models"
)

var (
	ErrNotFound = errors.New("storage: record not found")
	// ErrConflict is returned when a write violates a uniqueness rule,
	// e.g. a second active assignment for the same job.
	ErrConflict = errors.New("storage: conflicting record")
)

type IStorage interface {
	Job() IJobStorage
	Driver() IDriverStorage
	Assignment() IAssignmentStorage
	Invite() IInviteStorage
	AdminAction() IAdminActionStorage
	Role() IRoleStorage
	EmailLog() IEmailLogStorage
	Unsubscribe() IUnsubscribeStorage

	// WithTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx IStorage) error) error
	Close()
}

type IJobStorage interface {
	Create(ctx context.Context, job *models.JobRequest) (*models.JobRequest, error)
	GetByID(ctx context.Context, id string) (*models.JobRequest, error)
	List(ctx context.Context, status string) ([]*models.JobRequest, error)
	SetStatus(ctx context.Context, id, status string, completedAt *time.Time) (*models.JobRequest, error)
	// Reopen sets the given jobs back to open, skipping any job that still
	// has an active assignment.
	Reopen(ctx context.Context, ids []string) (int64, error)
}

type IDriverStorage interface {
	Create(ctx context.Context, driver *models.DriverProfile) (*models.DriverProfile, error)
	GetByID(ctx context.Context, id string) (*models.DriverProfile, error)
	GetApproved(ctx context.Context) ([]*models.DriverProfile, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type IAssignmentStorage interface {
	// Create returns ErrConflict if the job already has an active assignment.
	Create(ctx context.Context, a *models.JobAssignment) (*models.JobAssignment, error)
	// CreateIfNoneActive inserts a only when the job has no active
	// assignment; otherwise it returns the existing one with created=false.
	CreateIfNoneActive(ctx context.Context, a *models.JobAssignment) (assignment *models.JobAssignment, created bool, err error)
	GetActiveByJob(ctx context.Context, jobID string) (*models.JobAssignment, error)
	CancelActive(ctx context.Context, jobID string) (int64, error)
	// DeleteByAdmin removes assignments created by adminID and returns the
	// distinct job ids they referenced.
	DeleteByAdmin(ctx context.Context, adminID string) ([]string, error)
}

type IInviteStorage interface {
	Create(ctx context.Context, invite *models.AssignmentInvite) (*models.AssignmentInvite, error)
	GetByToken(ctx context.Context, token string) (*models.AssignmentInvite, error)
	// Respond moves a pending invite to status. It reports false when the
	// invite was no longer pending.
	Respond(ctx context.Context, id, status string, at time.Time, userAgent, ip *string) (bool, error)
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

type IAdminActionStorage interface {
	Create(ctx context.Context, action *models.AdminAction) error
	ListByJob(ctx context.Context, jobID string) ([]*models.AdminAction, error)
}

type IRoleStorage interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
	Grant(ctx context.Context, userID, role string) error
}

type IEmailLogStorage interface {
	Create(ctx context.Context, entry *models.EmailLog) error
}

type IUnsubscribeStorage interface {
	Create(ctx context.Context, token *models.UnsubscribeToken) error
	GetByToken(ctx context.Context, token string) (*models.UnsubscribeToken, error)
	// MarkUsed reports false when the token had already been used.
	MarkUsed(ctx context.Context, token string, at time.Time) (bool, error)
	Suppress(ctx context.Context, email string) error
}
