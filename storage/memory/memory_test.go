package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"fahrerexpress/pkg/models"
	"fahrerexpress/storage"
)

func TestAssignmentCreateRejectsSecondActive(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, err := s.Assignment().Create(ctx, &models.JobAssignment{JobID: "job-1", DriverID: "d1"})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := s.Assignment().Create(ctx, &models.JobAssignment{JobID: "job-1", DriverID: "d2"}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if _, err := s.Assignment().CancelActive(ctx, "job-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	second, err := s.Assignment().Create(ctx, &models.JobAssignment{JobID: "job-1", DriverID: "d2"})
	if err != nil {
		t.Fatalf("create after cancel: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a new assignment id")
	}
}

func TestCreateIfNoneActiveReturnsExisting(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, created, err := s.Assignment().CreateIfNoneActive(ctx, &models.JobAssignment{JobID: "job-1", DriverID: "d1"})
	if err != nil || !created {
		t.Fatalf("expected creation, got created=%v err=%v", created, err)
	}
	b, created, err := s.Assignment().CreateIfNoneActive(ctx, &models.JobAssignment{JobID: "job-1", DriverID: "d1"})
	if err != nil || created {
		t.Fatalf("expected existing, got created=%v err=%v", created, err)
	}
	if a.ID != b.ID {
		t.Fatalf("expected same assignment, got %s and %s", a.ID, b.ID)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	job, _ := s.Job().Create(ctx, &models.JobRequest{CustomerName: "Kunde"})

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx storage.IStorage) error {
		if _, err := tx.Job().SetStatus(ctx, job.ID, models.JobStatusAssigned, nil); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := s.Job().GetByID(ctx, job.ID)
	if got.Status != models.JobStatusOpen {
		t.Fatalf("expected rollback to open, got %s", got.Status)
	}
}

func TestInviteRespondOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	inv, err := s.Invite().Create(ctx, &models.AssignmentInvite{JobID: "j", DriverID: "d", Token: "tok", TokenExpiresAt: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Invite().Create(ctx, &models.AssignmentInvite{Token: "tok"}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate token must conflict, got %v", err)
	}

	ok, _ := s.Invite().Respond(ctx, inv.ID, models.InviteStatusAccepted, time.Now(), nil, nil)
	if !ok {
		t.Fatal("first respond should update")
	}
	ok, _ = s.Invite().Respond(ctx, inv.ID, models.InviteStatusDeclined, time.Now(), nil, nil)
	if ok {
		t.Fatal("second respond must not update")
	}
	got, _ := s.Invite().GetByToken(ctx, "tok")
	if got.Status != models.InviteStatusAccepted {
		t.Fatalf("status changed after terminal: %s", got.Status)
	}
}

func TestReopenSkipsStaffedJobs(t *testing.T) {
	ctx := context.Background()
	s := New()
	staffed, _ := s.Job().Create(ctx, &models.JobRequest{CustomerName: "a", Einsatzort: "Essen"})
	free, _ := s.Job().Create(ctx, &models.JobRequest{CustomerName: "b", Einsatzort: "Bonn"})
	for _, id := range []string{staffed.ID, free.ID} {
		if _, err := s.Job().SetStatus(ctx, id, models.JobStatusAssigned, nil); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Assignment().Create(ctx, &models.JobAssignment{JobID: staffed.ID, DriverID: "d1"}); err != nil {
		t.Fatal(err)
	}

	n, err := s.Job().Reopen(ctx, []string{staffed.ID, free.ID})
	if err != nil || n != 1 {
		t.Fatalf("reopen: n=%d err=%v", n, err)
	}
	if got, _ := s.Job().GetByID(ctx, staffed.ID); got.Status != models.JobStatusAssigned {
		t.Fatalf("staffed job reopened: %s", got.Status)
	}
	if got, _ := s.Job().GetByID(ctx, free.ID); got.Status != models.JobStatusOpen {
		t.Fatalf("free job not reopened: %s", got.Status)
	}
}
