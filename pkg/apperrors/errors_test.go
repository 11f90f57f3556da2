package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"plain", errors.New("boom"), CodeInternal},
		{"conflict", Conflict("already assigned"), CodeConflict},
		{"wrapped", fmt.Errorf("assign: %w", NotFound("job not found")), CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Fatalf("CodeOf = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Forbidden("admin role required"))
	if !errors.Is(err, New(CodeForbidden, "")) {
		t.Fatal("expected errors.Is to match forbidden code")
	}
	if errors.Is(err, New(CodeUnauthorized, "")) {
		t.Fatal("forbidden must not match unauthorized")
	}
}

func TestHTTPStatus(t *testing.T) {
	want := map[Code]int{
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeExpired:      http.StatusGone,
		CodeValidation:   http.StatusBadRequest,
		CodeInternal:     http.StatusInternalServerError,
	}
	for code, status := range want {
		if got := code.HTTPStatus(); got != status {
			t.Errorf("%s: got %d want %d", code, got, status)
		}
	}
}

func TestPublicMessageHidesInternal(t *testing.T) {
	err := Internal(errors.New("dial tcp 10.0.0.3:5432: refused"))
	if got := PublicMessage(err); got != "internal error" {
		t.Fatalf("leaked internal detail: %q", got)
	}
	if got := PublicMessage(NotFound("job not found")); got != "job not found" {
		t.Fatalf("unexpected message %q", got)
	}
}
