package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"fahrerexpress/storage"
)

func TestNotFound(t *testing.T) {
	other := errors.New("connection reset")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, storage.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), storage.ErrNotFound},
		{"malformed uuid", &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}, storage.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, nil},
		{"other", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := notFound(tt.err)
			if tt.want == nil {
				if errors.Is(got, storage.ErrNotFound) {
					t.Fatalf("%v must not map to not found", tt.err)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Fatalf("notFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})) {
		t.Fatal("wrapped 23505 must be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "22P02"}) || isInvalidText(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("codes must not be confused")
	}
	if isInvalidText(nil) || isUniqueViolation(nil) {
		t.Fatal("nil is neither")
	}
}
