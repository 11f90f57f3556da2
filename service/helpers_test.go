package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/mailer"
	"fahrerexpress/pkg/models"
	"fahrerexpress/storage/memory"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail bool
}

func (m *fakeMailer) Send(ctx context.Context, msg mailer.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return "", errors.New("mail api unavailable")
	}
	m.sent = append(m.sent, msg)
	return "msg-" + msg.To, nil
}

func (m *fakeMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

type fakeBroadcaster struct {
	calls chan []*models.DriverProfile
	err   error
}

func (b *fakeBroadcaster) BroadcastJob(ctx context.Context, job *models.JobRequest, drivers []*models.DriverProfile) error {
	b.calls <- drivers
	return b.err
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store       *memory.Store
	mail        *fakeMailer
	broadcaster *fakeBroadcaster
	clock       *clock
	svc         IServiceManager
	admin       models.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:       memory.New(),
		mail:        &fakeMailer{},
		broadcaster: &fakeBroadcaster{calls: make(chan []*models.DriverProfile, 4)},
		clock:       &clock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)},
		admin:       models.Identity{UserID: "11111111-1111-1111-1111-111111111111", Email: "dispo@fahrerexpress.de"},
	}
	f.svc = New(f.store, f.mail, f.broadcaster, Options{
		PublicBaseURL: "https://fahrerexpress.de",
		InviteTTL:     48 * time.Hour,
		Now:           f.clock.Now,
	}, logger.NewNop())
	return f
}

func (f *fixture) job(t *testing.T) *models.JobRequest {
	t.Helper()
	job, err := f.store.Job().Create(context.Background(), &models.JobRequest{
		CustomerName:  "Spedition Müller",
		CustomerEmail: "kontakt@mueller-logistik.de",
		Einsatzort:    "Köln",
		VehicleType:   "7,5t LKW",
		LicenseClass:  "C1",
	})
	if err != nil {
		t.Fatal(err)
	}
	return job
}

func (f *fixture) driver(t *testing.T, email string) *models.DriverProfile {
	t.Helper()
	d, err := f.store.Driver().Create(context.Background(), &models.DriverProfile{
		FirstName: "Max",
		LastName:  "Fahrer",
		Email:     email,
		Status:    models.DriverStatusApproved,
	})
	if err != nil {
		t.Fatal(err)
	}
	return d
}
