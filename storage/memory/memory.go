// Package memory is an in-process implementation of storage.IStorage. It
// enforces the same uniqueness rules as the Postgres schema and backs tests
// and STORAGE=memory local runs.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fahrerexpress/pkg/models"
	"fahrerexpress/storage"
)

type data struct {
	jobs         map[string]*models.JobRequest
	drivers      map[string]*models.DriverProfile
	assignments  map[string]*models.JobAssignment
	invites      map[string]*models.AssignmentInvite
	actions      []*models.AdminAction
	roles        map[string]map[string]bool
	emails       []*models.EmailLog
	unsubscribes map[string]*models.UnsubscribeToken
	suppressed   map[string]bool
}

func newData() *data {
	return &data{
		jobs:         map[string]*models.JobRequest{},
		drivers:      map[string]*models.DriverProfile{},
		assignments:  map[string]*models.JobAssignment{},
		invites:      map[string]*models.AssignmentInvite{},
		roles:        map[string]map[string]bool{},
		unsubscribes: map[string]*models.UnsubscribeToken{},
		suppressed:   map[string]bool{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.jobs {
		j := *v
		c.jobs[k] = &j
	}
	for k, v := range d.drivers {
		dr := *v
		c.drivers[k] = &dr
	}
	for k, v := range d.assignments {
		a := *v
		c.assignments[k] = &a
	}
	for k, v := range d.invites {
		i := *v
		c.invites[k] = &i
	}
	c.actions = append(c.actions, d.actions...)
	for u, roles := range d.roles {
		c.roles[u] = map[string]bool{}
		for r := range roles {
			c.roles[u][r] = true
		}
	}
	c.emails = append(c.emails, d.emails...)
	for k, v := range d.unsubscribes {
		t := *v
		c.unsubscribes[k] = &t
	}
	for k := range d.suppressed {
		c.suppressed[k] = true
	}
	return c
}

// Store serialises transactions against each other and against writes made
// outside them; a failed WithTx restores the snapshot taken when it began.
type Store struct {
	mu   *sync.Mutex
	txMu *sync.Mutex
	d    *data
	now  func() time.Time
	inTx bool
}

func New() *Store {
	return &Store{
		mu:   &sync.Mutex{},
		txMu: &sync.Mutex{},
		d:    newData(),
		now:  time.Now,
	}
}

func (s *Store) Close() {}

// lock returns the matching unlock. Outside a transaction it also waits for
// any running transaction to finish.
func (s *Store) lock() func() {
	if !s.inTx {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !s.inTx {
			s.txMu.Unlock()
		}
	}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx storage.IStorage) error) error {
	if s.inTx {
		return fn(s)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.d.clone()
	s.mu.Unlock()

	tx := &Store{mu: s.mu, txMu: s.txMu, d: s.d, now: s.now, inTx: true}
	if err := fn(tx); err != nil {
		s.mu.Lock()
		*s.d = *snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Job() storage.IJobStorage                 { return jobRepo{s} }
func (s *Store) Driver() storage.IDriverStorage           { return driverRepo{s} }
func (s *Store) Assignment() storage.IAssignmentStorage   { return assignmentRepo{s} }
func (s *Store) Invite() storage.IInviteStorage           { return inviteRepo{s} }
func (s *Store) AdminAction() storage.IAdminActionStorage { return adminActionRepo{s} }
func (s *Store) Role() storage.IRoleStorage               { return roleRepo{s} }
func (s *Store) EmailLog() storage.IEmailLogStorage       { return emailLogRepo{s} }
func (s *Store) Unsubscribe() storage.IUnsubscribeStorage { return unsubscribeRepo{s} }

// EmailLogs returns a copy of every email log entry.
func (s *Store) EmailLogs() []models.EmailLog {
	defer s.lock()()
	out := make([]models.EmailLog, 0, len(s.d.emails))
	for _, e := range s.d.emails {
		out = append(out, *e)
	}
	return out
}

// Assignments returns a copy of every assignment for jobID, in any status.
func (s *Store) Assignments(jobID string) []models.JobAssignment {
	defer s.lock()()
	var out []models.JobAssignment
	for _, a := range s.d.assignments {
		if a.JobID == jobID {
			out = append(out, *a)
		}
	}
	return out
}

// InviteForJob returns the most recently issued invite for jobID.
func (s *Store) InviteForJob(jobID string) *models.AssignmentInvite {
	defer s.lock()()
	var latest *models.AssignmentInvite
	for _, i := range s.d.invites {
		if i.JobID == jobID && (latest == nil || i.CreatedAt.After(latest.CreatedAt)) {
			latest = i
		}
	}
	if latest == nil {
		return nil
	}
	out := *latest
	return &out
}

func (s *Store) IsSuppressed(email string) bool {
	defer s.lock()()
	return s.d.suppressed[strings.ToLower(email)]
}

type jobRepo struct{ s *Store }

func (r jobRepo) Create(ctx context.Context, job *models.JobRequest) (*models.JobRequest, error) {
	defer r.s.lock()()
	j := *job
	j.ID = uuid.NewString()
	j.Status = models.JobStatusOpen
	j.CreatedAt = r.s.now()
	j.UpdatedAt = j.CreatedAt
	j.CompletedAt = nil
	r.s.d.jobs[j.ID] = &j
	out := j
	return &out, nil
}

func (r jobRepo) GetByID(ctx context.Context, id string) (*models.JobRequest, error) {
	defer r.s.lock()()
	j, ok := r.s.d.jobs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *j
	return &out, nil
}

func (r jobRepo) List(ctx context.Context, status string) ([]*models.JobRequest, error) {
	defer r.s.lock()()
	var out []*models.JobRequest
	for _, j := range r.s.d.jobs {
		if status == "" || j.Status == status {
			c := *j
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r jobRepo) SetStatus(ctx context.Context, id, status string, completedAt *time.Time) (*models.JobRequest, error) {
	defer r.s.lock()()
	j, ok := r.s.d.jobs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	j.Status = status
	j.CompletedAt = completedAt
	j.UpdatedAt = r.s.now()
	out := *j
	return &out, nil
}

func (r jobRepo) Reopen(ctx context.Context, ids []string) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, id := range ids {
		if (assignmentRepo{r.s}).activeLocked(id) != nil {
			continue
		}
		if j, ok := r.s.d.jobs[id]; ok {
			j.Status = models.JobStatusOpen
			j.CompletedAt = nil
			j.UpdatedAt = r.s.now()
			n++
		}
	}
	return n, nil
}

type driverRepo struct{ s *Store }

func (r driverRepo) Create(ctx context.Context, driver *models.DriverProfile) (*models.DriverProfile, error) {
	defer r.s.lock()()
	d := *driver
	d.ID = uuid.NewString()
	if d.Status == "" {
		d.Status = models.DriverStatusPending
	}
	d.CreatedAt = r.s.now()
	r.s.d.drivers[d.ID] = &d
	out := d
	return &out, nil
}

func (r driverRepo) GetByID(ctx context.Context, id string) (*models.DriverProfile, error) {
	defer r.s.lock()()
	d, ok := r.s.d.drivers[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *d
	return &out, nil
}

func (r driverRepo) GetApproved(ctx context.Context) ([]*models.DriverProfile, error) {
	defer r.s.lock()()
	var out []*models.DriverProfile
	for _, d := range r.s.d.drivers {
		if d.Status == models.DriverStatusApproved {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r driverRepo) UpdateStatus(ctx context.Context, id, status string) error {
	defer r.s.lock()()
	d, ok := r.s.d.drivers[id]
	if !ok {
		return storage.ErrNotFound
	}
	d.Status = status
	return nil
}

type assignmentRepo struct{ s *Store }

func (r assignmentRepo) activeLocked(jobID string) *models.JobAssignment {
	for _, a := range r.s.d.assignments {
		if a.JobID == jobID && a.Active() {
			return a
		}
	}
	return nil
}

func (r assignmentRepo) insertLocked(a *models.JobAssignment) *models.JobAssignment {
	c := *a
	c.ID = uuid.NewString()
	c.Status = models.AssignmentStatusAssigned
	c.AssignedAt = r.s.now()
	r.s.d.assignments[c.ID] = &c
	out := c
	return &out
}

func (r assignmentRepo) Create(ctx context.Context, a *models.JobAssignment) (*models.JobAssignment, error) {
	defer r.s.lock()()
	if r.activeLocked(a.JobID) != nil {
		return nil, storage.ErrConflict
	}
	return r.insertLocked(a), nil
}

func (r assignmentRepo) CreateIfNoneActive(ctx context.Context, a *models.JobAssignment) (*models.JobAssignment, bool, error) {
	defer r.s.lock()()
	if existing := r.activeLocked(a.JobID); existing != nil {
		out := *existing
		return &out, false, nil
	}
	return r.insertLocked(a), true, nil
}

func (r assignmentRepo) GetActiveByJob(ctx context.Context, jobID string) (*models.JobAssignment, error) {
	defer r.s.lock()()
	a := r.activeLocked(jobID)
	if a == nil {
		return nil, storage.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (r assignmentRepo) CancelActive(ctx context.Context, jobID string) (int64, error) {
	defer r.s.lock()()
	a := r.activeLocked(jobID)
	if a == nil {
		return 0, nil
	}
	a.Status = models.AssignmentStatusCancelled
	return 1, nil
}

func (r assignmentRepo) DeleteByAdmin(ctx context.Context, adminID string) ([]string, error) {
	defer r.s.lock()()
	seen := map[string]bool{}
	var jobIDs []string
	for id, a := range r.s.d.assignments {
		if a.AssignedBy == nil || *a.AssignedBy != adminID {
			continue
		}
		delete(r.s.d.assignments, id)
		if !seen[a.JobID] {
			seen[a.JobID] = true
			jobIDs = append(jobIDs, a.JobID)
		}
	}
	return jobIDs, nil
}

type inviteRepo struct{ s *Store }

func (r inviteRepo) Create(ctx context.Context, invite *models.AssignmentInvite) (*models.AssignmentInvite, error) {
	defer r.s.lock()()
	for _, existing := range r.s.d.invites {
		if existing.Token == invite.Token {
			return nil, storage.ErrConflict
		}
	}
	i := *invite
	i.ID = uuid.NewString()
	i.Status = models.InviteStatusPending
	i.CreatedAt = r.s.now()
	r.s.d.invites[i.ID] = &i
	out := i
	return &out, nil
}

func (r inviteRepo) GetByToken(ctx context.Context, token string) (*models.AssignmentInvite, error) {
	defer r.s.lock()()
	for _, i := range r.s.d.invites {
		if i.Token == token {
			out := *i
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r inviteRepo) Respond(ctx context.Context, id, status string, at time.Time, userAgent, ip *string) (bool, error) {
	defer r.s.lock()()
	i, ok := r.s.d.invites[id]
	if !ok || i.Status != models.InviteStatusPending {
		return false, nil
	}
	i.Status = status
	i.RespondedAt = &at
	i.UserAgent = userAgent
	i.IP = ip
	return true, nil
}

func (r inviteRepo) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, i := range r.s.d.invites {
		if i.Status == models.InviteStatusPending && i.TokenExpiresAt.Before(now) {
			at := now
			i.Status = models.InviteStatusExpired
			i.RespondedAt = &at
			n++
		}
	}
	return n, nil
}

type adminActionRepo struct{ s *Store }

func (r adminActionRepo) Create(ctx context.Context, action *models.AdminAction) error {
	defer r.s.lock()()
	action.ID = uuid.NewString()
	action.CreatedAt = r.s.now()
	c := *action
	r.s.d.actions = append(r.s.d.actions, &c)
	return nil
}

func (r adminActionRepo) ListByJob(ctx context.Context, jobID string) ([]*models.AdminAction, error) {
	defer r.s.lock()()
	var out []*models.AdminAction
	for _, a := range r.s.d.actions {
		if a.JobID != nil && *a.JobID == jobID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

type roleRepo struct{ s *Store }

func (r roleRepo) HasRole(ctx context.Context, userID, role string) (bool, error) {
	defer r.s.lock()()
	return r.s.d.roles[userID][role], nil
}

func (r roleRepo) Grant(ctx context.Context, userID, role string) error {
	defer r.s.lock()()
	if r.s.d.roles[userID] == nil {
		r.s.d.roles[userID] = map[string]bool{}
	}
	r.s.d.roles[userID][role] = true
	return nil
}

type emailLogRepo struct{ s *Store }

func (r emailLogRepo) Create(ctx context.Context, entry *models.EmailLog) error {
	defer r.s.lock()()
	entry.ID = uuid.NewString()
	entry.CreatedAt = r.s.now()
	c := *entry
	r.s.d.emails = append(r.s.d.emails, &c)
	return nil
}

type unsubscribeRepo struct{ s *Store }

func (r unsubscribeRepo) Create(ctx context.Context, t *models.UnsubscribeToken) error {
	defer r.s.lock()()
	if _, ok := r.s.d.unsubscribes[t.Token]; ok {
		return storage.ErrConflict
	}
	t.CreatedAt = r.s.now()
	c := *t
	r.s.d.unsubscribes[t.Token] = &c
	return nil
}

func (r unsubscribeRepo) GetByToken(ctx context.Context, token string) (*models.UnsubscribeToken, error) {
	defer r.s.lock()()
	t, ok := r.s.d.unsubscribes[token]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *t
	return &out, nil
}

func (r unsubscribeRepo) MarkUsed(ctx context.Context, token string, at time.Time) (bool, error) {
	defer r.s.lock()()
	t, ok := r.s.d.unsubscribes[token]
	if !ok || t.UsedAt != nil {
		return false, nil
	}
	t.UsedAt = &at
	return true, nil
}

func (r unsubscribeRepo) Suppress(ctx context.Context, email string) error {
	defer r.s.lock()()
	r.s.d.suppressed[strings.ToLower(email)] = true
	return nil
}
