package main

import "testing"

func TestParseAdmin(t *testing.T) {
	t.Setenv("RESET_ADMIN_ID", "")
	t.Setenv("RESET_ADMIN_EMAIL", "")

	admin, err := parseAdmin([]string{"--admin-id", "11111111-1111-1111-1111-111111111111", "--admin-email=dispo@fahrerexpress.de"})
	if err != nil {
		t.Fatal(err)
	}
	if admin.UserID != "11111111-1111-1111-1111-111111111111" || admin.Email != "dispo@fahrerexpress.de" {
		t.Fatalf("unexpected admin %+v", admin)
	}

	if _, err := parseAdmin(nil); err == nil {
		t.Fatal("expected error without admin id")
	}
	if _, err := parseAdmin([]string{"--unknown"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestParseAdminFromEnv(t *testing.T) {
	t.Setenv("RESET_ADMIN_ID", "22222222-2222-2222-2222-222222222222")
	t.Setenv("RESET_ADMIN_EMAIL", "ops@fahrerexpress.de")

	admin, err := parseAdmin(nil)
	if err != nil {
		t.Fatal(err)
	}
	if admin.UserID != "22222222-2222-2222-2222-222222222222" || admin.Email != "ops@fahrerexpress.de" {
		t.Fatalf("unexpected admin %+v", admin)
	}
}
