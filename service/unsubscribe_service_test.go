package service

import (
	"context"
	"testing"

	"fahrerexpress/pkg/apperrors"
	"fahrerexpress/pkg/models"
)

func TestUnsubscribe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.store.Unsubscribe().Create(ctx, &models.UnsubscribeToken{Token: "u-tok", Email: "Kunde@Example.de"}); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.Unsubscribe().Unsubscribe(ctx, "u-tok")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Message != "unsubscribed" || res.Email != "Kunde@Example.de" {
		t.Fatalf("unexpected result %+v", res)
	}
	if !f.store.IsSuppressed("kunde@example.de") {
		t.Fatal("address not suppressed")
	}

	again, err := f.svc.Unsubscribe().Unsubscribe(ctx, "u-tok")
	if err != nil {
		t.Fatal(err)
	}
	if !again.Success || again.Message != "already unsubscribed" {
		t.Fatalf("unexpected repeat result %+v", again)
	}
}

func TestUnsubscribeErrors(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Unsubscribe().Unsubscribe(context.Background(), ""); apperrors.CodeOf(err) != apperrors.CodeValidation {
		t.Fatalf("expected validation, got %v", err)
	}
	if _, err := f.svc.Unsubscribe().Unsubscribe(context.Background(), "nope"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
